// Package advisor 处理外部顾问建议的解析与再验证
// 建议来源（如语言模型助手）的输出是不可信的自由文本，
// 永远不会被直接应用：先解析成候选编辑，再通过约束引擎完整验证，
// 验证失败的建议被拒绝并说明原因
package advisor

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/paike/paike/pkg/engine/constraint"
	"github.com/paike/paike/pkg/engine/constraint/builtin"
	"github.com/paike/paike/pkg/engine/detector"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/model"
)

// moveAdvice 解析出的移动建议
type moveAdvice struct {
	courseCode string
	day        model.Day
	start      string
}

// 支持的建议句式：
//   "Move CS101 to Mon 11:00" / "move CS101 to monday 11:00 AM"
//   "将 CS101 移到 周一 11:00"
var (
	englishPattern = regexp.MustCompile(`(?i)move\s+([A-Z]{2,}\d+)\s+to\s+([A-Za-z]+)\s+(\d{1,2}:\d{2})\s*(AM|PM)?`)
	chinesePattern = regexp.MustCompile(`将\s*([A-Z]{2,}\d+)\s*移到\s*(周[一二三四五六])\s*(\d{1,2}:\d{2})`)
)

var englishDays = map[string]model.Day{
	"mon": model.Monday, "monday": model.Monday,
	"tue": model.Tuesday, "tuesday": model.Tuesday,
	"wed": model.Wednesday, "wednesday": model.Wednesday,
	"thu": model.Thursday, "thursday": model.Thursday,
	"fri": model.Friday, "friday": model.Friday,
	"sat": model.Saturday, "saturday": model.Saturday,
}

var chineseDays = map[string]model.Day{
	"周一": model.Monday, "周二": model.Tuesday, "周三": model.Wednesday,
	"周四": model.Thursday, "周五": model.Friday, "周六": model.Saturday,
}

// Advisor 外部建议审查器
type Advisor struct {
	grid model.SlotGrid
}

// New 创建建议审查器
func New(grid model.SlotGrid) *Advisor {
	return &Advisor{grid: grid}
}

// Review 审查一条外部建议
// 解析成功且通过全部硬约束验证时返回可提供给用户的解决方案，
// 否则返回 ADVISORY_REJECTED 错误
func (ad *Advisor) Review(text string, set *model.TimetableSet, catalog *model.Catalog) (*model.Resolution, error) {
	advice, err := parseAdvice(text)
	if err != nil {
		return nil, err
	}

	course := courseByCode(catalog, advice.courseCode)
	if course == nil {
		return nil, errors.AdvisoryRejected(fmt.Sprintf("课程 %s 不在目录中", advice.courseCode))
	}

	original := firstAssignmentOfCourse(set, course.ID)
	if original == nil {
		return nil, errors.AdvisoryRejected(fmt.Sprintf("课程 %s 没有已安排的时段", advice.courseCode))
	}

	slot := model.TimeSlot{
		Day:   advice.day,
		Start: advice.start,
		End:   addMinutes(advice.start, original.Slot.DurationMinutes()),
	}
	if !ad.grid.Contains(slot) {
		return nil, errors.AdvisoryRejected(fmt.Sprintf("时段 %s 不在排课网格上", slot))
	}

	candidate := original.Clone()
	candidate.Slot = slot

	if reason, ok := ad.validate(set, catalog, original, candidate); !ok {
		return nil, errors.AdvisoryRejected(reason)
	}

	cctx := constraint.NewContext(catalog)
	simulated := set.Clone()
	simulated.ReplaceAssignment(candidate)
	cctx.SetAssignments(simulated.Assignments)

	return &model.Resolution{
		Type:        model.ResolutionMoveSlot,
		Description: fmt.Sprintf("将课程 %s 移到 %s（外部建议，已通过约束验证）", course.Code, slot),
		Replace:     []*model.Assignment{candidate},
		Score:       builtin.BuildManager(catalog.Constraints).OptimizationScore(cctx),
		Touched:     1,
	}, nil
}

// parseAdvice 从自由文本中解析移动建议
func parseAdvice(text string) (*moveAdvice, error) {
	if m := englishPattern.FindStringSubmatch(text); m != nil {
		day, ok := englishDays[strings.ToLower(m[2])]
		if !ok {
			return nil, errors.AdvisoryRejected(fmt.Sprintf("无法识别的日期: %s", m[2]))
		}
		start := m[3]
		if strings.EqualFold(m[4], "PM") {
			var err error
			start, err = toAfternoon(start)
			if err != nil {
				return nil, errors.AdvisoryRejected(err.Error())
			}
		}
		return &moveAdvice{courseCode: strings.ToUpper(m[1]), day: day, start: normalizeClock(start)}, nil
	}

	if m := chinesePattern.FindStringSubmatch(text); m != nil {
		return &moveAdvice{
			courseCode: strings.ToUpper(m[1]),
			day:        chineseDays[m[2]],
			start:      normalizeClock(m[3]),
		}, nil
	}

	return nil, errors.AdvisoryRejected("无法从建议文本中解析出可执行的编辑")
}

// validate 在模拟集合上验证候选编辑
func (ad *Advisor) validate(set *model.TimetableSet, catalog *model.Catalog,
	original, candidate *model.Assignment) (string, bool) {

	manager := builtin.BuildManager(catalog.Constraints)
	det := detector.NewDetector(catalog)
	baseline := make(map[string]bool)
	for _, c := range det.Detect(set.Assignments) {
		baseline[c.ID.String()] = true
	}

	simulated := set.Clone()
	simulated.ReplaceAssignment(candidate)

	cctx := constraint.NewContext(catalog)
	others := make([]*model.Assignment, 0, len(simulated.Assignments))
	for _, a := range simulated.Assignments {
		if a.ID != candidate.ID {
			others = append(others, a)
		}
	}
	cctx.SetAssignments(others)
	if ok, reason := manager.CanAssign(cctx, candidate); !ok {
		return reason, false
	}

	for _, c := range det.Detect(simulated.Assignments) {
		if !baseline[c.ID.String()] && c.Severity != model.SeverityLow {
			return fmt.Sprintf("会引入新冲突: %s", c.Description), false
		}
	}
	return "", true
}

// courseByCode 按课程代码查找
func courseByCode(catalog *model.Catalog, code string) *model.Course {
	for _, c := range catalog.Courses {
		if strings.EqualFold(c.Code, code) {
			return c
		}
	}
	return nil
}

// firstAssignmentOfCourse 课程按ID序的第一条分配
func firstAssignmentOfCourse(set *model.TimetableSet, courseID uuid.UUID) *model.Assignment {
	var matches []*model.Assignment
	for _, a := range set.Assignments {
		if a.CourseID == courseID {
			matches = append(matches, a)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID.String() < matches[j].ID.String() })
	return matches[0]
}

// toAfternoon 把 12 小时制时间换算为 24 小时制
func toAfternoon(clock string) (string, error) {
	parts := strings.SplitN(clock, ":", 2)
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 1 || h > 12 {
		return "", fmt.Errorf("非法小时: %s", clock)
	}
	if h != 12 {
		h += 12
	}
	return fmt.Sprintf("%d:%s", h, parts[1]), nil
}

// normalizeClock 补齐 HH:MM 格式
func normalizeClock(clock string) string {
	m, err := model.ClockMinutes(clock)
	if err != nil {
		return clock
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// addMinutes 在 HH:MM 上加若干分钟
func addMinutes(clock string, minutes int) string {
	m, err := model.ClockMinutes(clock)
	if err != nil {
		return clock
	}
	m += minutes
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

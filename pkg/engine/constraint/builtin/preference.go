// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"
	"sort"

	"github.com/paike/paike/pkg/engine/constraint"
	"github.com/paike/paike/pkg/model"
)

// cohortKey 同一批学生：培养方案+学期
type cohortKey struct {
	program  string
	semester int
}

// GroupElectivesConstraint 选修课集中安排软约束
// 同一批学生的选修课时段应集中在尽量少的天，便于跨方案选课
type GroupElectivesConstraint struct {
	*BaseConstraint
}

// NewGroupElectivesConstraint 创建选修课集中约束
func NewGroupElectivesConstraint(weight int) *GroupElectivesConstraint {
	return &GroupElectivesConstraint{
		BaseConstraint: NewBaseConstraint(
			"选修课集中安排",
			constraint.TypeGroupElectives,
			constraint.CategorySoft,
			weight,
		),
	}
}

// electiveBlocks 按批次分组的选修课时段
func electiveBlocks(ctx *constraint.Context) map[cohortKey][]*model.Assignment {
	groups := make(map[cohortKey][]*model.Assignment)
	for _, a := range ctx.Assignments {
		course := ctx.Course(a.CourseID)
		if course == nil || course.Type != model.CourseElective {
			continue
		}
		key := cohortKey{program: a.Program, semester: a.Semester}
		groups[key] = append(groups[key], a)
	}
	return groups
}

// Evaluate 评估整个课表
func (c *GroupElectivesConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.Violation) {
	var violations []constraint.Violation
	totalPenalty := 0

	for key, blocks := range electiveBlocks(ctx) {
		scattered := scatteredElectives(blocks)
		if scattered == 0 {
			continue
		}
		penalty := c.Weight() * scattered
		totalPenalty += penalty
		violations = append(violations, c.CreateViolation(nil,
			fmt.Sprintf("%s 第%d学期有 %d 个选修时段单独占天", key.program, key.semester, scattered),
			penalty))
	}

	return len(violations) == 0, totalPenalty, violations
}

// EvaluateAssignment 评估单条分配
func (c *GroupElectivesConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	course := ctx.Course(a.CourseID)
	if course == nil || course.Type != model.CourseElective {
		return true, 0
	}

	// 当天已有同批次的其他选修时段则视为集中
	for _, blocks := range electiveBlocks(ctx) {
		for _, b := range blocks {
			if b.ID == a.ID {
				continue
			}
			if b.Program == a.Program && b.Semester == a.Semester && b.Slot.Day == a.Slot.Day {
				return true, 0
			}
		}
	}
	return true, c.Weight()
}

// Satisfaction 返回满足率：非单独占天的选修时段占比
func (c *GroupElectivesConstraint) Satisfaction(ctx *constraint.Context) float64 {
	total := 0
	scattered := 0
	for _, blocks := range electiveBlocks(ctx) {
		total += len(blocks)
		scattered += scatteredElectives(blocks)
	}
	if total == 0 {
		return 1.0
	}
	return 1.0 - float64(scattered)/float64(total)
}

// scatteredElectives 统计单独占一天的选修时段数
func scatteredElectives(blocks []*model.Assignment) int {
	byDay := make(map[model.Day]int)
	for _, b := range blocks {
		byDay[b.Slot.Day]++
	}
	scattered := 0
	for _, n := range byDay {
		if n == 1 && len(byDay) > 1 {
			scattered++
		}
	}
	return scattered
}

// AvoidBackToBackHeavyConstraint 避免高学分课程连排软约束
// 同一批学生不应连续上两门高学分课程
type AvoidBackToBackHeavyConstraint struct {
	*BaseConstraint
}

// NewAvoidBackToBackHeavyConstraint 创建避免高学分连排约束
func NewAvoidBackToBackHeavyConstraint(weight int) *AvoidBackToBackHeavyConstraint {
	return &AvoidBackToBackHeavyConstraint{
		BaseConstraint: NewBaseConstraint(
			"避免高学分课程连排",
			constraint.TypeAvoidBackToBackHeavy,
			constraint.CategorySoft,
			weight,
		),
	}
}

// heavyNeighbor 检查同批次是否存在相邻的高学分时段
func heavyNeighbor(ctx *constraint.Context, a *model.Assignment) *model.Assignment {
	for _, other := range ctx.Assignments {
		if other.ID == a.ID || other.Program != a.Program || other.Semester != a.Semester {
			continue
		}
		if !other.Slot.Adjacent(a.Slot) {
			continue
		}
		course := ctx.Course(other.CourseID)
		if course != nil && course.IsHeavy() {
			return other
		}
	}
	return nil
}

// Evaluate 评估整个课表
func (c *AvoidBackToBackHeavyConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.Violation) {
	var violations []constraint.Violation
	totalPenalty := 0
	seen := make(map[uuid2]bool)

	for _, a := range ctx.Assignments {
		course := ctx.Course(a.CourseID)
		if course == nil || !course.IsHeavy() {
			continue
		}
		other := heavyNeighbor(ctx, a)
		if other == nil {
			continue
		}
		pair := pairKey(a.ID.String(), other.ID.String())
		if seen[pair] {
			continue
		}
		seen[pair] = true
		penalty := c.Weight()
		totalPenalty += penalty
		violations = append(violations, c.CreateViolation(a,
			fmt.Sprintf("%s 第%d学期在 %s 连排两门高学分课程", a.Program, a.Semester, a.Slot.Day),
			penalty))
	}

	return len(violations) == 0, totalPenalty, violations
}

// EvaluateAssignment 评估单条分配
func (c *AvoidBackToBackHeavyConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	course := ctx.Course(a.CourseID)
	if course == nil || !course.IsHeavy() {
		return true, 0
	}
	if heavyNeighbor(ctx, a) != nil {
		return true, c.Weight()
	}
	return true, 0
}

// Satisfaction 返回满足率：无相邻冲突的高学分时段占比
func (c *AvoidBackToBackHeavyConstraint) Satisfaction(ctx *constraint.Context) float64 {
	total := 0
	bad := 0
	for _, a := range ctx.Assignments {
		course := ctx.Course(a.CourseID)
		if course == nil || !course.IsHeavy() {
			continue
		}
		total++
		if heavyNeighbor(ctx, a) != nil {
			bad++
		}
	}
	if total == 0 {
		return 1.0
	}
	return 1.0 - float64(bad)/float64(total)
}

// uuid2 无序分配对
type uuid2 struct{ lo, hi string }

// pairKey 构造无序分配对键
func pairKey(a, b string) uuid2 {
	if a < b {
		return uuid2{lo: a, hi: b}
	}
	return uuid2{lo: b, hi: a}
}

// PreferSpecialRoomsConstraint 优先专用教室软约束
// 课程安排在与其性质匹配的教室类型可获得更高满足率
type PreferSpecialRoomsConstraint struct {
	*BaseConstraint
}

// NewPreferSpecialRoomsConstraint 创建优先专用教室约束
func NewPreferSpecialRoomsConstraint(weight int) *PreferSpecialRoomsConstraint {
	return &PreferSpecialRoomsConstraint{
		BaseConstraint: NewBaseConstraint(
			"优先专用教室",
			constraint.TypePreferSpecialRooms,
			constraint.CategorySoft,
			weight,
		),
	}
}

// preferredRoomType 返回课程时段的首选教室类型
func preferredRoomType(course *model.Course, kind model.AssignmentKind) model.RoomType {
	if kind == model.KindPractical {
		return model.RoomLab
	}
	if course.Type == model.CourseProject {
		return model.RoomSeminar
	}
	return model.RoomClassroom
}

// matchesPreference 检查分配是否使用首选教室类型
func matchesPreference(ctx *constraint.Context, a *model.Assignment) bool {
	course := ctx.Course(a.CourseID)
	room := ctx.Room(a.RoomID)
	if course == nil || room == nil {
		return false
	}
	return room.Type == preferredRoomType(course, a.Kind)
}

// Evaluate 评估整个课表
func (c *PreferSpecialRoomsConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.Violation) {
	var violations []constraint.Violation
	totalPenalty := 0

	for _, a := range ctx.Assignments {
		if matchesPreference(ctx, a) {
			continue
		}
		course := ctx.Course(a.CourseID)
		room := ctx.Room(a.RoomID)
		if course == nil || room == nil {
			continue
		}
		penalty := c.Weight()
		totalPenalty += penalty
		violations = append(violations, c.CreateViolation(a,
			fmt.Sprintf("课程 %s 安排在 %s (%s)，首选类型为 %s",
				course.Code, room.Name, room.Type, preferredRoomType(course, a.Kind)),
			penalty))
	}

	return len(violations) == 0, totalPenalty, violations
}

// EvaluateAssignment 评估单条分配
func (c *PreferSpecialRoomsConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if matchesPreference(ctx, a) {
		return true, 0
	}
	return true, c.Weight()
}

// Satisfaction 返回满足率：使用首选教室类型的时段占比
func (c *PreferSpecialRoomsConstraint) Satisfaction(ctx *constraint.Context) float64 {
	if len(ctx.Assignments) == 0 {
		return 1.0
	}
	matched := 0
	for _, a := range ctx.Assignments {
		if matchesPreference(ctx, a) {
			matched++
		}
	}
	return float64(matched) / float64(len(ctx.Assignments))
}

// MinimizeRoomChangesConstraint 减少学生换教室软约束
// 同一批学生相邻时段应尽量使用同一间教室
type MinimizeRoomChangesConstraint struct {
	*BaseConstraint
}

// NewMinimizeRoomChangesConstraint 创建减少换教室约束
func NewMinimizeRoomChangesConstraint(weight int) *MinimizeRoomChangesConstraint {
	return &MinimizeRoomChangesConstraint{
		BaseConstraint: NewBaseConstraint(
			"减少学生换教室",
			constraint.TypeMinimizeRoomChanges,
			constraint.CategorySoft,
			weight,
		),
	}
}

// cohortTransitions 统计每个批次相邻时段的教室切换
// 返回：相邻对总数、发生切换的对数
func cohortTransitions(ctx *constraint.Context) (int, int) {
	byCohortDay := make(map[cohortKey]map[model.Day][]*model.Assignment)
	for _, a := range ctx.Assignments {
		key := cohortKey{program: a.Program, semester: a.Semester}
		if byCohortDay[key] == nil {
			byCohortDay[key] = make(map[model.Day][]*model.Assignment)
		}
		byCohortDay[key][a.Slot.Day] = append(byCohortDay[key][a.Slot.Day], a)
	}

	pairs := 0
	changes := 0
	for _, days := range byCohortDay {
		for _, blocks := range days {
			sort.Slice(blocks, func(i, j int) bool {
				return blocks[i].Slot.StartMinutes() < blocks[j].Slot.StartMinutes()
			})
			for i := 1; i < len(blocks); i++ {
				if !blocks[i-1].Slot.Adjacent(blocks[i].Slot) {
					continue
				}
				pairs++
				if blocks[i-1].RoomID != blocks[i].RoomID {
					changes++
				}
			}
		}
	}
	return pairs, changes
}

// Evaluate 评估整个课表
func (c *MinimizeRoomChangesConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.Violation) {
	pairs, changes := cohortTransitions(ctx)
	if changes == 0 {
		return true, 0, nil
	}
	penalty := c.Weight() * changes
	v := c.CreateViolation(nil,
		fmt.Sprintf("共有 %d 处相邻时段换教室（相邻对总数 %d）", changes, pairs), penalty)
	return false, penalty, []constraint.Violation{v}
}

// EvaluateAssignment 评估单条分配
// 与同批次相邻时段使用不同教室时计罚
func (c *MinimizeRoomChangesConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	penalty := 0
	for _, other := range ctx.Assignments {
		if other.ID == a.ID || other.Program != a.Program || other.Semester != a.Semester {
			continue
		}
		if other.Slot.Adjacent(a.Slot) && other.RoomID != a.RoomID {
			penalty += c.Weight()
		}
	}
	return true, penalty
}

// Satisfaction 返回满足率：未换教室的相邻对占比
func (c *MinimizeRoomChangesConstraint) Satisfaction(ctx *constraint.Context) float64 {
	pairs, changes := cohortTransitions(ctx)
	if pairs == 0 {
		return 1.0
	}
	return 1.0 - float64(changes)/float64(pairs)
}

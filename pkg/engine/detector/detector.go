// Package detector 实现课表冲突检测
package detector

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/paike/paike/pkg/engine/constraint"
	"github.com/paike/paike/pkg/model"
)

// 容量超员分级阈值，与 allow_overflow 软约束共用
const overflowMediumRatio = 0.10

// Detector 冲突检测器
// 对分配集合做纯函数式扫描，冲突作为数据返回而非错误
type Detector struct {
	catalog       *model.Catalog
	allowOverflow bool
}

// NewDetector 创建冲突检测器
// allow_overflow 软约束启用时，10%以内的容量超员降为低严重度提示
func NewDetector(catalog *model.Catalog) *Detector {
	d := &Detector{catalog: catalog}
	for _, c := range catalog.Constraints {
		if constraint.Type(c.Type) == constraint.TypeAllowOverflow && c.Enabled {
			d.allowOverflow = true
		}
	}
	return d
}

// Detect 全量扫描分配集合
func (d *Detector) Detect(assignments []*model.Assignment) []model.Conflict {
	return d.scan(assignments, nil)
}

// DetectIncremental 增量扫描
// 只重新检查 changedIDs 涉及的 (教师,日) 和 (教室,日) 时间线，
// 结果与限定在这些资源上的全量扫描完全一致
func (d *Detector) DetectIncremental(assignments []*model.Assignment, changedIDs []uuid.UUID) []model.Conflict {
	changed := make(map[uuid.UUID]bool, len(changedIDs))
	for _, id := range changedIDs {
		changed[id] = true
	}

	keys := make(map[constraint.ResourceKey]bool)
	for _, a := range assignments {
		if changed[a.ID] {
			for _, k := range assignmentKeys(a) {
				keys[k] = true
			}
		}
	}
	return d.DetectScoped(assignments, keys)
}

// DetectScoped 限定在给定资源键上的扫描
// 会话校验器用它处理移除分配的场景（旧时段的键由调用方提供）
func (d *Detector) DetectScoped(assignments []*model.Assignment, keys map[constraint.ResourceKey]bool) []model.Conflict {
	return d.scan(assignments, keys)
}

// assignmentKeys 返回分配占用的资源键
func assignmentKeys(a *model.Assignment) []constraint.ResourceKey {
	return []constraint.ResourceKey{
		{Resource: a.FacultyID, Day: a.Slot.Day},
		{Resource: a.RoomID, Day: a.Slot.Day},
	}
}

// inScope 检查分配是否触及限定的资源键；keys 为 nil 表示全量
func inScope(a *model.Assignment, keys map[constraint.ResourceKey]bool) bool {
	if keys == nil {
		return true
	}
	for _, k := range assignmentKeys(a) {
		if keys[k] {
			return true
		}
	}
	return false
}

// scan 执行检测
func (d *Detector) scan(assignments []*model.Assignment, keys map[constraint.ResourceKey]bool) []model.Conflict {
	byFaculty := make(map[constraint.ResourceKey][]*model.Assignment)
	byRoom := make(map[constraint.ResourceKey][]*model.Assignment)
	for _, a := range assignments {
		fk := constraint.ResourceKey{Resource: a.FacultyID, Day: a.Slot.Day}
		rk := constraint.ResourceKey{Resource: a.RoomID, Day: a.Slot.Day}
		byFaculty[fk] = append(byFaculty[fk], a)
		byRoom[rk] = append(byRoom[rk], a)
	}

	var conflicts []model.Conflict
	seen := make(map[uuid.UUID]bool)

	add := func(c model.Conflict) {
		if seen[c.ID] {
			return
		}
		seen[c.ID] = true
		conflicts = append(conflicts, c)
	}

	for key, timeline := range byFaculty {
		if keys != nil && !keys[key] {
			continue
		}
		for _, pair := range overlappingPairs(timeline) {
			add(d.facultyConflict(pair[0], pair[1]))
		}
	}

	for key, timeline := range byRoom {
		if keys != nil && !keys[key] {
			continue
		}
		room := d.catalog.RoomByID(key.Resource)
		for _, pair := range overlappingPairs(timeline) {
			if room != nil && room.Virtual {
				add(d.resourceClashConflict(room, pair[0], pair[1]))
			} else {
				add(d.roomConflict(room, pair[0], pair[1]))
			}
		}
	}

	for _, a := range assignments {
		if !inScope(a, keys) {
			continue
		}
		if c, ok := d.capacityConflict(a); ok {
			add(c)
		}
		if c, ok := d.prerequisiteConflict(a); ok {
			add(c)
		}
	}

	model.SortConflicts(conflicts)
	return conflicts
}

// overlappingPairs 返回同一时间线上所有互相重叠的分配对
func overlappingPairs(timeline []*model.Assignment) [][2]*model.Assignment {
	sorted := make([]*model.Assignment, len(timeline))
	copy(sorted, timeline)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Slot.StartMinutes() != sorted[j].Slot.StartMinutes() {
			return sorted[i].Slot.StartMinutes() < sorted[j].Slot.StartMinutes()
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	var pairs [][2]*model.Assignment
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if !sorted[i].Slot.Overlaps(sorted[j].Slot) {
				continue
			}
			pairs = append(pairs, [2]*model.Assignment{sorted[i], sorted[j]})
		}
	}
	return pairs
}

// earlierSlot 返回两条分配中更早的时间段
func earlierSlot(a, b *model.Assignment) model.TimeSlot {
	if a.Slot.Before(b.Slot) {
		return a.Slot
	}
	return b.Slot
}

// facultyConflict 构造教师时间冲突
func (d *Detector) facultyConflict(a, b *model.Assignment) model.Conflict {
	name := "未知教师"
	if f := d.catalog.FacultyByID(a.FacultyID); f != nil {
		name = f.Name
	}
	ids := []uuid.UUID{a.ID, b.ID}
	return model.Conflict{
		ID:            model.NewConflictID(model.ConflictFacultyDoubleBooking, ids),
		Type:          model.ConflictFacultyDoubleBooking,
		Severity:      model.SeverityHigh,
		AssignmentIDs: ids,
		Slot:          earlierSlot(a, b),
		Description: fmt.Sprintf("教师 %s 在 %s 与 %s 时间重叠",
			name, a.Slot, b.Slot),
	}
}

// roomConflict 构造教室时间冲突
// 任一侧教室类型不匹配授课形式时为高严重度，否则为中
func (d *Detector) roomConflict(room *model.Room, a, b *model.Assignment) model.Conflict {
	severity := model.SeverityMedium
	name := "未知教室"
	if room != nil {
		name = room.Name
		if !d.roomSuits(room, a) || !d.roomSuits(room, b) {
			severity = model.SeverityHigh
		}
	} else {
		severity = model.SeverityHigh
	}

	ids := []uuid.UUID{a.ID, b.ID}
	return model.Conflict{
		ID:            model.NewConflictID(model.ConflictRoomDoubleBooking, ids),
		Type:          model.ConflictRoomDoubleBooking,
		Severity:      severity,
		AssignmentIDs: ids,
		Slot:          earlierSlot(a, b),
		Description: fmt.Sprintf("教室 %s 在 %s 与 %s 时间重叠",
			name, a.Slot, b.Slot),
	}
}

// roomSuits 检查教室是否匹配分配的授课形式
func (d *Detector) roomSuits(room *model.Room, a *model.Assignment) bool {
	course := d.catalog.CourseByID(a.CourseID)
	if course == nil {
		return false
	}
	return room.SuitsKind(a.Kind, course.Type)
}

// resourceClashConflict 构造共享资源冲突（虚拟教室）
// 默认低严重度，两门课程均为必修时升为中
func (d *Detector) resourceClashConflict(room *model.Room, a, b *model.Assignment) model.Conflict {
	severity := model.SeverityLow
	ca := d.catalog.CourseByID(a.CourseID)
	cb := d.catalog.CourseByID(b.CourseID)
	if ca != nil && cb != nil && ca.IsCore() && cb.IsCore() {
		severity = model.SeverityMedium
	}

	ids := []uuid.UUID{a.ID, b.ID}
	return model.Conflict{
		ID:            model.NewConflictID(model.ConflictResourceClash, ids),
		Type:          model.ConflictResourceClash,
		Severity:      severity,
		AssignmentIDs: ids,
		Slot:          earlierSlot(a, b),
		Description: fmt.Sprintf("共享资源 %s 在 %s 被同时占用",
			room.Name, earlierSlot(a, b)),
	}
}

// capacityConflict 构造容量超员冲突
// 超员10%以内为中严重度（启用 allow_overflow 时降为低提示），超过为高
func (d *Detector) capacityConflict(a *model.Assignment) (model.Conflict, bool) {
	room := d.catalog.RoomByID(a.RoomID)
	course := d.catalog.CourseByID(a.CourseID)
	if room == nil || course == nil {
		return model.Conflict{}, false
	}

	overflow := room.OverflowRatio(course.Enrolled)
	if overflow == 0 {
		return model.Conflict{}, false
	}

	severity := model.SeverityHigh
	if overflow <= overflowMediumRatio {
		severity = model.SeverityMedium
		if d.allowOverflow {
			severity = model.SeverityLow
		}
	}

	ids := []uuid.UUID{a.ID}
	return model.Conflict{
		ID:            model.NewConflictID(model.ConflictCapacityExceeded, ids),
		Type:          model.ConflictCapacityExceeded,
		Severity:      severity,
		AssignmentIDs: ids,
		Slot:          a.Slot,
		Description: fmt.Sprintf("教室 %s 容量 %d，课程 %s 选课 %d 人，超员 %.0f%%",
			room.Name, room.Capacity, course.Code, course.Enrolled, overflow*100),
	}, true
}

// prerequisiteConflict 构造先修课缺失冲突
func (d *Detector) prerequisiteConflict(a *model.Assignment) (model.Conflict, bool) {
	course := d.catalog.CourseByID(a.CourseID)
	if course == nil {
		return model.Conflict{}, false
	}
	for _, prereqID := range course.Prerequisites {
		if d.catalog.CourseByID(prereqID) != nil {
			continue
		}
		ids := []uuid.UUID{a.ID}
		return model.Conflict{
			ID:            model.NewConflictID(model.ConflictPrerequisiteMissing, ids),
			Type:          model.ConflictPrerequisiteMissing,
			Severity:      model.SeverityLow,
			AssignmentIDs: ids,
			Slot:          a.Slot,
			Description:   fmt.Sprintf("课程 %s 的先修课 %s 不在目录中", course.Code, prereqID),
		}, true
	}
	return model.Conflict{}, false
}

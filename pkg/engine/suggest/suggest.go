// Package suggest 实现冲突解决方案推荐
package suggest

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/paike/paike/pkg/engine/constraint"
	"github.com/paike/paike/pkg/engine/constraint/builtin"
	"github.com/paike/paike/pkg/engine/detector"
	"github.com/paike/paike/pkg/model"
)

// DefaultMaxSuggestions 默认返回的方案数上限
const DefaultMaxSuggestions = 3

// Suggestion 推荐结果
// 找不到任何可行方案不是错误，置 ManualInterventionRequired 由人工处理
type Suggestion struct {
	Resolutions                []model.Resolution `json:"resolutions"`
	ManualInterventionRequired bool               `json:"manual_intervention_required"`
}

// Suggester 解决方案推荐器
// 对冲突涉及的分配做局部扰动（换时段/换教师/换教室/拆班），
// 每个候选先在模拟集合上通过约束引擎验证再进入排名
type Suggester struct {
	grid model.SlotGrid
}

// New 创建推荐器
func New(grid model.SlotGrid) *Suggester {
	return &Suggester{grid: grid}
}

// Suggest 为冲突生成至多 maxSuggestions 个已验证的解决方案
func (s *Suggester) Suggest(conflict model.Conflict, set *model.TimetableSet,
	catalog *model.Catalog, maxSuggestions int) *Suggestion {

	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}

	manager := builtin.BuildManager(catalog.Constraints)
	det := detector.NewDetector(catalog)
	baseline := conflictIDs(det.Detect(set.Assignments))

	var resolutions []model.Resolution
	for _, id := range conflict.AssignmentIDs {
		original := set.FindAssignment(id)
		if original == nil {
			continue
		}
		course := catalog.CourseByID(original.CourseID)
		if course == nil {
			continue
		}

		resolutions = append(resolutions, s.moveSlotCandidates(manager, det, baseline, conflict, set, catalog, original, course)...)
		resolutions = append(resolutions, s.reassignFacultyCandidates(manager, det, baseline, conflict, set, catalog, original, course)...)
		resolutions = append(resolutions, s.reassignRoomCandidates(manager, det, baseline, conflict, set, catalog, original, course)...)
		if conflict.Type == model.ConflictCapacityExceeded {
			resolutions = append(resolutions, s.splitCandidates(manager, det, baseline, conflict, set, catalog, original, course)...)
		}
	}

	rankResolutions(resolutions)
	if len(resolutions) > maxSuggestions {
		resolutions = resolutions[:maxSuggestions]
	}
	for i := range resolutions {
		resolutions[i].Rank = i + 1
	}

	return &Suggestion{
		Resolutions:                resolutions,
		ManualInterventionRequired: len(resolutions) == 0,
	}
}

// moveSlotCandidates 换时段候选
func (s *Suggester) moveSlotCandidates(manager *constraint.Manager, det *detector.Detector,
	baseline map[uuid.UUID]bool, conflict model.Conflict, set *model.TimetableSet,
	catalog *model.Catalog, original *model.Assignment, course *model.Course) []model.Resolution {

	var out []model.Resolution
	for _, slot := range s.grid.Slots() {
		if slot.Equal(original.Slot) {
			continue
		}
		candidate := original.Clone()
		candidate.Slot = slot

		res, ok := s.validate(manager, det, baseline, conflict, set, catalog,
			[]*model.Assignment{candidate}, nil)
		if !ok {
			continue
		}
		res.Type = model.ResolutionMoveSlot
		res.Description = fmt.Sprintf("将课程 %s 移到 %s", course.Code, slot)
		out = append(out, res)
	}
	return out
}

// reassignFacultyCandidates 换教师候选
func (s *Suggester) reassignFacultyCandidates(manager *constraint.Manager, det *detector.Detector,
	baseline map[uuid.UUID]bool, conflict model.Conflict, set *model.TimetableSet,
	catalog *model.Catalog, original *model.Assignment, course *model.Course) []model.Resolution {

	var out []model.Resolution
	for _, f := range sortedFaculty(catalog) {
		if f.ID == original.FacultyID || !f.IsActive() || !f.CanTeach(course.Code) {
			continue
		}
		candidate := original.Clone()
		candidate.FacultyID = f.ID

		res, ok := s.validate(manager, det, baseline, conflict, set, catalog,
			[]*model.Assignment{candidate}, nil)
		if !ok {
			continue
		}
		res.Type = model.ResolutionReassignFaculty
		res.Description = fmt.Sprintf("课程 %s 改由 %s 讲授", course.Code, f.Name)
		out = append(out, res)
	}
	return out
}

// reassignRoomCandidates 换教室候选
func (s *Suggester) reassignRoomCandidates(manager *constraint.Manager, det *detector.Detector,
	baseline map[uuid.UUID]bool, conflict model.Conflict, set *model.TimetableSet,
	catalog *model.Catalog, original *model.Assignment, course *model.Course) []model.Resolution {

	var out []model.Resolution
	for _, room := range sortedRooms(catalog) {
		if room.ID == original.RoomID || room.Virtual {
			continue
		}
		candidate := original.Clone()
		candidate.RoomID = room.ID

		res, ok := s.validate(manager, det, baseline, conflict, set, catalog,
			[]*model.Assignment{candidate}, nil)
		if !ok {
			continue
		}
		res.Type = model.ResolutionReassignRoom
		res.Description = fmt.Sprintf("课程 %s 改到教室 %s", course.Code, room.Name)
		out = append(out, res)
	}
	return out
}

// splitCandidates 拆班候选（仅容量超员冲突）
// 原班保留在原教室，另开一个并行班；两间教室合计容量须覆盖选课人数
func (s *Suggester) splitCandidates(manager *constraint.Manager, det *detector.Detector,
	baseline map[uuid.UUID]bool, conflict model.Conflict, set *model.TimetableSet,
	catalog *model.Catalog, original *model.Assignment, course *model.Course) []model.Resolution {

	origRoom := catalog.RoomByID(original.RoomID)
	if origRoom == nil {
		return nil
	}

	var out []model.Resolution
	for _, room := range sortedRooms(catalog) {
		if room.ID == original.RoomID || room.Virtual {
			continue
		}
		if !room.SuitsKind(original.Kind, course.Type) {
			continue
		}
		if origRoom.Capacity+room.Capacity < course.Enrolled {
			continue
		}

		res, ok := s.trySection(manager, det, baseline, conflict, set, catalog, original, course, room)
		if !ok {
			continue
		}
		// 原分配保持不变，一并放入 Replace 便于调用方整体应用
		res.Replace = append([]*model.Assignment{original.Clone()}, res.Replace...)
		res.Type = model.ResolutionSplitCourse
		res.Description = fmt.Sprintf("课程 %s 拆分为两个班，新班使用教室 %s", course.Code, room.Name)
		res.Touched = len(res.Replace)
		out = append(out, res)
	}
	return out
}

// trySection 为新班次寻找可行的教师或时段
// 新班与原班同时上课会占用同一教师，优先换教师；不行再换时段
func (s *Suggester) trySection(manager *constraint.Manager, det *detector.Detector,
	baseline map[uuid.UUID]bool, conflict model.Conflict, set *model.TimetableSet,
	catalog *model.Catalog, original *model.Assignment, course *model.Course,
	room *model.Room) (model.Resolution, bool) {

	sectionID := splitSectionID(set, course, original.Kind)

	for _, f := range sortedFaculty(catalog) {
		if f.ID == original.FacultyID || !f.IsActive() || !f.CanTeach(course.Code) {
			continue
		}
		section := original.Clone()
		section.ID = sectionID
		section.RoomID = room.ID
		section.FacultyID = f.ID
		if res, ok := s.validateSplit(manager, det, baseline, conflict, set, catalog, original, section); ok {
			return res, true
		}
	}

	for _, slot := range s.grid.Slots() {
		if slot.Equal(original.Slot) {
			continue
		}
		section := original.Clone()
		section.ID = sectionID
		section.RoomID = room.ID
		section.Slot = slot
		if res, ok := s.validateSplit(manager, det, baseline, conflict, set, catalog, original, section); ok {
			return res, true
		}
	}

	return model.Resolution{}, false
}

// splitSectionID 新班次的确定性ID
// 拆班序号从1000起，避开正常请求的序号空间
func splitSectionID(set *model.TimetableSet, course *model.Course, kind model.AssignmentKind) uuid.UUID {
	idx := 1000
	for set.FindAssignment(model.NewAssignmentID(course.ID, kind, idx)) != nil {
		idx++
	}
	return model.NewAssignmentID(course.ID, kind, idx)
}

// validateSplit 验证拆班候选
// 单间教室容量不再足额，容量约束改为检查两间教室的合计容量，
// 其余硬约束和冲突检查与普通候选相同
func (s *Suggester) validateSplit(manager *constraint.Manager, det *detector.Detector,
	baseline map[uuid.UUID]bool, conflict model.Conflict, set *model.TimetableSet,
	catalog *model.Catalog, original, section *model.Assignment) (model.Resolution, bool) {

	simulated := set.Clone()
	simulated.Assignments = append(simulated.Assignments, section)

	cctx := constraint.NewContext(catalog)
	cctx.SetAssignments(withoutAssignment(simulated.Assignments, section.ID))
	for _, c := range manager.GetByCategory(constraint.CategoryHard) {
		if c.Type() == constraint.TypeRespectCapacity {
			continue
		}
		if ok, _ := c.EvaluateAssignment(cctx, section); !ok {
			return model.Resolution{}, false
		}
	}

	splitIDs := map[uuid.UUID]bool{original.ID: true, section.ID: true}
	after := det.Detect(simulated.Assignments)
	for _, c := range after {
		if c.Type == model.ConflictCapacityExceeded && len(c.AssignmentIDs) == 1 && splitIDs[c.AssignmentIDs[0]] {
			continue // 拆班后按合计容量判定
		}
		if c.ID == conflict.ID {
			return model.Resolution{}, false
		}
		if !baseline[c.ID] && c.Severity != model.SeverityLow {
			return model.Resolution{}, false
		}
	}

	cctx.SetAssignments(simulated.Assignments)
	return model.Resolution{
		Replace: []*model.Assignment{section.Clone()},
		Score:   manager.OptimizationScore(cctx),
		Touched: 1,
	}, true
}

// validate 在模拟集合上验证候选
// replace 中的分配按ID替换原分配（新ID视为新增），remove 指定要移除的分配；
// 通过条件：目标冲突消失、不引入基线之外的新冲突、每条新分配通过全部硬约束
func (s *Suggester) validate(manager *constraint.Manager, det *detector.Detector,
	baseline map[uuid.UUID]bool, conflict model.Conflict, set *model.TimetableSet,
	catalog *model.Catalog, replace []*model.Assignment, remove []uuid.UUID) (model.Resolution, bool) {

	simulated := set.Clone()
	for _, id := range remove {
		simulated.RemoveAssignment(id)
	}
	for _, a := range replace {
		if !simulated.ReplaceAssignment(a) {
			simulated.Assignments = append(simulated.Assignments, a)
		}
	}

	// 硬约束检查：候选分配在移除自身后的上下文中逐条评估
	cctx := constraint.NewContext(catalog)
	for _, a := range replace {
		others := withoutAssignment(simulated.Assignments, a.ID)
		cctx.SetAssignments(others)
		if ok, _ := manager.CanAssign(cctx, a); !ok {
			return model.Resolution{}, false
		}
	}

	after := det.Detect(simulated.Assignments)
	for _, c := range after {
		if c.ID == conflict.ID {
			return model.Resolution{}, false // 目标冲突仍在
		}
		if !baseline[c.ID] && c.Severity != model.SeverityLow {
			return model.Resolution{}, false // 引入了新冲突
		}
	}

	cctx.SetAssignments(simulated.Assignments)
	replaceCopy := make([]*model.Assignment, len(replace))
	for i, a := range replace {
		replaceCopy[i] = a.Clone()
	}
	return model.Resolution{
		Replace: replaceCopy,
		Remove:  remove,
		Score:   manager.OptimizationScore(cctx),
		Touched: len(replace) + len(remove),
	}, true
}

// rankResolutions 排名：改动最少优先，其次软约束得分，最后按ID稳定
func rankResolutions(resolutions []model.Resolution) {
	sort.SliceStable(resolutions, func(i, j int) bool {
		a, b := resolutions[i], resolutions[j]
		if a.Touched != b.Touched {
			return a.Touched < b.Touched
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return resolutionKey(a) < resolutionKey(b)
	})
}

// resolutionKey 方案的确定性排序键
func resolutionKey(r model.Resolution) string {
	key := string(r.Type)
	for _, a := range r.Replace {
		key += "|" + a.ID.String() + "|" + a.Slot.String() + "|" + a.FacultyID.String() + "|" + a.RoomID.String()
	}
	return key
}

// conflictIDs 冲突ID集合
func conflictIDs(conflicts []model.Conflict) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(conflicts))
	for _, c := range conflicts {
		out[c.ID] = true
	}
	return out
}

// withoutAssignment 过滤掉指定ID的分配
func withoutAssignment(assignments []*model.Assignment, id uuid.UUID) []*model.Assignment {
	out := make([]*model.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

// sortedFaculty 按ID稳定排序的教师列表
func sortedFaculty(catalog *model.Catalog) []*model.Faculty {
	out := make([]*model.Faculty, len(catalog.Faculty))
	copy(out, catalog.Faculty)
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// sortedRooms 按ID稳定排序的教室列表
func sortedRooms(catalog *model.Catalog) []*model.Room {
	out := make([]*model.Room, len(catalog.Rooms))
	copy(out, catalog.Rooms)
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

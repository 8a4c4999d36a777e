// Package solver 实现排课生成器
package solver

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/paike/paike/pkg/engine/constraint"
	"github.com/paike/paike/pkg/engine/constraint/builtin"
	"github.com/paike/paike/pkg/engine/detector"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/logger"
	"github.com/paike/paike/pkg/model"
)

// request 一个待安排的原子时段请求
type request struct {
	course *model.Course
	kind   model.AssignmentKind
	index  int
}

func (r request) id() uuid.UUID {
	return model.NewAssignmentID(r.course.ID, r.kind, r.index)
}

// candidate 候选安排
type candidate struct {
	faculty *model.Faculty
	room    *model.Room
	slot    model.TimeSlot
	score   float64
}

// UnplacedRequest 无法安排的请求
// 部分失败语义：无法安排不是错误，排课照常完成
type UnplacedRequest struct {
	CourseID   uuid.UUID            `json:"course_id"`
	CourseCode string               `json:"course_code"`
	Kind       model.AssignmentKind `json:"kind"`
	Index      int                  `json:"index"`
	Reason     string               `json:"reason"`
}

// Statistics 排课运行统计
type Statistics struct {
	TotalRequests   int           `json:"total_requests"`
	Placed          int           `json:"placed"`
	Unplaced        int           `json:"unplaced"`
	Pinned          int           `json:"pinned"`
	CandidatesTried int           `json:"candidates_tried"`
	Duration        time.Duration `json:"duration"`
}

// Result 排课结果
type Result struct {
	Set               *model.TimetableSet `json:"set"`
	Unplaced          []UnplacedRequest   `json:"unplaced"`
	OptimizationScore float64             `json:"optimization_score"`
	Statistics        Statistics          `json:"statistics"`
}

// Solver 排课生成器
// 约束式启发搜索：最受限请求优先（MRV），逐条放置，不做全量回溯
type Solver struct {
	grid   model.SlotGrid
	logger *logger.EngineLogger
}

// New 创建排课生成器
func New(grid model.SlotGrid) *Solver {
	return &Solver{
		grid:   grid,
		logger: logger.NewEngineLogger(),
	}
}

// Generate 生成课表
// 纯函数语义：相同目录和先前分配永远产生逐字节相同的结果。
// prev 中标记 Pinned 的分配保持不动，其余请求围绕它们安排
func (s *Solver) Generate(ctx context.Context, catalog *model.Catalog, prev []*model.Assignment) (*Result, error) {
	start := time.Now()

	if errs := catalog.Validate(); len(errs) > 0 {
		ve := &errors.ValidationErrors{}
		for _, fe := range errs {
			ve.Add(fe.Field, fe.Message)
		}
		return nil, ve.ToAppError()
	}

	s.logger.StartGenerate(len(catalog.Courses), len(catalog.Faculty), len(catalog.Rooms))

	manager := builtin.BuildManager(catalog.Constraints)
	cctx := constraint.NewContext(catalog)

	// 先固定手工指定的分配
	pinned := make(map[uuid.UUID]bool)
	var placed []*model.Assignment
	for _, a := range sortedByID(prev) {
		if !a.Pinned {
			continue
		}
		clone := a.Clone()
		cctx.AddAssignment(clone)
		placed = append(placed, clone)
		pinned[clone.ID] = true
	}

	requests := expandRequests(catalog, pinned)
	slots := s.grid.Slots()
	faculty := sortedFaculty(catalog)
	rooms := sortedRooms(catalog)

	result := &Result{
		Statistics: Statistics{
			TotalRequests: len(requests),
			Pinned:        len(pinned),
		},
	}

	for len(requests) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.CodeTimeout, "排课被中断")
		}

		// MRV：每轮重新计算各请求的可行候选数，取最受限者
		next, candidates := s.mostConstrained(manager, cctx, requests, faculty, rooms, slots)
		result.Statistics.CandidatesTried += len(candidates)

		if len(candidates) == 0 {
			reason := "无满足全部硬约束的 (教师, 教室, 时段) 组合"
			result.Unplaced = append(result.Unplaced, UnplacedRequest{
				CourseID:   next.course.ID,
				CourseCode: next.course.Code,
				Kind:       next.kind,
				Index:      next.index,
				Reason:     reason,
			})
			s.logger.RequestUnplaced(next.course.Code, string(next.kind))
		} else {
			best := pickBest(candidates)
			a := &model.Assignment{
				ID:        next.id(),
				CourseID:  next.course.ID,
				FacultyID: best.faculty.ID,
				RoomID:    best.room.ID,
				Slot:      best.slot,
				Program:   next.course.Program,
				Semester:  next.course.Semester,
				Kind:      next.kind,
			}
			cctx.AddAssignment(a)
			placed = append(placed, a)
		}

		requests = removeRequest(requests, next)
	}

	// 终检：软约束放行的重叠（如允许的超员）仍以提示性冲突报告
	conflicts := detector.NewDetector(catalog).Detect(placed)

	result.Set = &model.TimetableSet{
		Version:     1,
		Assignments: placed,
		Conflicts:   conflicts,
	}
	result.OptimizationScore = manager.OptimizationScore(cctx)
	result.Statistics.Placed = len(placed) - result.Statistics.Pinned
	result.Statistics.Unplaced = len(result.Unplaced)
	result.Statistics.Duration = time.Since(start)

	s.logger.GenerateComplete(result.Statistics.Placed, result.Statistics.Unplaced,
		len(conflicts), result.OptimizationScore, result.Statistics.Duration)

	return result, nil
}

// expandRequests 把课程展开为原子时段请求
// 每门开设课程产生 ceil(理论课时) 个理论请求和 ceil(实践课时) 个实践请求；
// 已被固定分配覆盖的请求跳过
func expandRequests(catalog *model.Catalog, pinned map[uuid.UUID]bool) []request {
	var requests []request
	for _, course := range catalog.ActiveCourses() {
		for i := 0; i < course.TheoryBlocks(); i++ {
			r := request{course: course, kind: model.KindTheory, index: i}
			if !pinned[r.id()] {
				requests = append(requests, r)
			}
		}
		for i := 0; i < course.PracticalBlocks(); i++ {
			r := request{course: course, kind: model.KindPractical, index: i}
			if !pinned[r.id()] {
				requests = append(requests, r)
			}
		}
	}
	return requests
}

// mostConstrained 返回可行候选最少的请求及其候选列表
// 平局按学分降序，再按课程代码、形式、序号保证确定性
func (s *Solver) mostConstrained(manager *constraint.Manager, cctx *constraint.Context,
	requests []request, faculty []*model.Faculty, rooms []*model.Room, slots []model.TimeSlot) (request, []candidate) {

	best := requests[0]
	var bestCandidates []candidate
	first := true

	for _, r := range requests {
		cands := s.feasibleCandidates(manager, cctx, r, faculty, rooms, slots)
		if first || lessConstrained(r, cands, best, bestCandidates) {
			best = r
			bestCandidates = cands
			first = false
		}
	}
	return best, bestCandidates
}

// lessConstrained 比较两个请求的受限程度（r 是否应排在 cur 之前）
func lessConstrained(r request, rCands []candidate, cur request, curCands []candidate) bool {
	if len(rCands) != len(curCands) {
		return len(rCands) < len(curCands)
	}
	if r.course.Credits != cur.course.Credits {
		return r.course.Credits > cur.course.Credits
	}
	if r.course.Code != cur.course.Code {
		return r.course.Code < cur.course.Code
	}
	if r.kind != cur.kind {
		return r.kind == model.KindTheory
	}
	return r.index < cur.index
}

// feasibleCandidates 枚举请求的全部可行候选并计算软约束得分
func (s *Solver) feasibleCandidates(manager *constraint.Manager, cctx *constraint.Context,
	r request, faculty []*model.Faculty, rooms []*model.Room, slots []model.TimeSlot) []candidate {

	var candidates []candidate
	probe := &model.Assignment{
		ID:       r.id(),
		CourseID: r.course.ID,
		Program:  r.course.Program,
		Semester: r.course.Semester,
		Kind:     r.kind,
	}

	for _, f := range faculty {
		if !f.IsActive() || !f.CanTeach(r.course.Code) {
			continue
		}
		for _, room := range rooms {
			if !room.SuitsKind(r.kind, r.course.Type) {
				continue
			}
			for _, slot := range slots {
				probe.FacultyID = f.ID
				probe.RoomID = room.ID
				probe.Slot = slot

				if ok, _ := manager.CanAssign(cctx, probe); !ok {
					continue
				}
				if claimed(cctx, probe) {
					continue
				}
				candidates = append(candidates, candidate{
					faculty: f,
					room:    room,
					slot:    slot,
					score:   manager.SoftScore(cctx, probe),
				})
			}
		}
	}
	return candidates
}

// claimed 检查时段是否已被同一教师或教室占用
func claimed(cctx *constraint.Context, a *model.Assignment) bool {
	for _, other := range cctx.FacultyAssignments(a.FacultyID, a.Slot.Day) {
		if other.Slot.Overlaps(a.Slot) {
			return true
		}
	}
	for _, other := range cctx.RoomAssignments(a.RoomID, a.Slot.Day) {
		if other.Slot.Overlaps(a.Slot) {
			return true
		}
	}
	return false
}

// pickBest 选出得分最高的候选
// 平局按 (日, 开始时间, 教室ID, 教师ID) 升序保证确定性
func pickBest(candidates []candidate) candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if candidateBefore(c, best) {
			best = c
		}
	}
	return best
}

// candidateBefore 比较候选优先级
func candidateBefore(a, b candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if !a.slot.Equal(b.slot) {
		return a.slot.Before(b.slot)
	}
	if a.room.ID != b.room.ID {
		return a.room.ID.String() < b.room.ID.String()
	}
	return a.faculty.ID.String() < b.faculty.ID.String()
}

// removeRequest 从请求列表中移除指定请求
func removeRequest(requests []request, r request) []request {
	for i := range requests {
		if requests[i].course.ID == r.course.ID && requests[i].kind == r.kind && requests[i].index == r.index {
			return append(requests[:i], requests[i+1:]...)
		}
	}
	return requests
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

// sortedByID 按ID稳定排序的分配列表
func sortedByID(assignments []*model.Assignment) []*model.Assignment {
	out := make([]*model.Assignment, len(assignments))
	copy(out, assignments)
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

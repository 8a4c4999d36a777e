// Package optimizer 实现课表局部搜索优化
package optimizer

import (
	"context"
	"sort"

	"github.com/paike/paike/pkg/engine/constraint"
	"github.com/paike/paike/pkg/engine/constraint/builtin"
	"github.com/paike/paike/pkg/engine/detector"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/logger"
	"github.com/paike/paike/pkg/model"
)

// Config 优化配置
type Config struct {
	MaxPasses int `json:"max_passes"` // 最大完整遍历次数
}

// DefaultConfig 默认优化配置
func DefaultConfig() Config {
	return Config{MaxPasses: 10}
}

// Report 优化运行报告
type Report struct {
	Passes      int     `json:"passes"`
	Moves       int     `json:"moves"`
	ScoreBefore float64 `json:"score_before"`
	ScoreAfter  float64 `json:"score_after"`
}

// Optimizer 局部搜索优化器
// 对已可行的课表做确定性首改进搜索：按固定顺序枚举邻域移动，
// 只接受保持全部硬约束且软约束得分严格提高的移动。
// 不引入随机源，相同输入永远得到相同结果
type Optimizer struct {
	grid   model.SlotGrid
	config Config
	logger *logger.EngineLogger
}

// New 创建优化器
func New(grid model.SlotGrid, config Config) *Optimizer {
	if config.MaxPasses <= 0 {
		config = DefaultConfig()
	}
	return &Optimizer{
		grid:   grid,
		config: config,
		logger: logger.NewEngineLogger(),
	}
}

// Improve 优化课表
// 固定的分配不移动；返回新结果集（版本不变，冲突重新检测）和报告
func (o *Optimizer) Improve(ctx context.Context, catalog *model.Catalog, set *model.TimetableSet) (*model.TimetableSet, *Report, error) {
	manager := builtin.BuildManager(catalog.Constraints)

	current := set.Clone()
	cctx := constraint.NewContext(catalog)
	cctx.SetAssignments(current.Assignments)

	report := &Report{ScoreBefore: manager.OptimizationScore(cctx)}
	score := report.ScoreBefore

	for pass := 0; pass < o.config.MaxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, errors.Wrap(err, errors.CodeTimeout, "优化被中断")
		}

		improved := false
		for _, a := range sortedByID(current.Assignments) {
			if a.Pinned {
				continue
			}
			if moved, newScore := o.bestMove(manager, cctx, a, score); moved != nil {
				current.ReplaceAssignment(moved)
				cctx.SetAssignments(current.Assignments)
				score = newScore
				report.Moves++
				improved = true
			}
		}

		report.Passes = pass + 1
		if !improved {
			break
		}
	}

	current.Conflicts = detector.NewDetector(catalog).Detect(current.Assignments)
	report.ScoreAfter = score
	return current, report, nil
}

// bestMove 返回分配的首个严格改进移动
// 邻域按 (时段, 教室) 的固定顺序枚举，保证确定性
func (o *Optimizer) bestMove(manager *constraint.Manager, cctx *constraint.Context,
	a *model.Assignment, currentScore float64) (*model.Assignment, float64) {

	course := cctx.Course(a.CourseID)
	if course == nil {
		return nil, 0
	}

	rooms := make([]*model.Room, len(cctx.Catalog.Rooms))
	copy(rooms, cctx.Catalog.Rooms)
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID.String() < rooms[j].ID.String() })

	for _, slot := range o.grid.Slots() {
		for _, room := range rooms {
			if slot.Equal(a.Slot) && room.ID == a.RoomID {
				continue
			}
			if !room.SuitsKind(a.Kind, course.Type) {
				continue
			}

			candidate := a.Clone()
			candidate.Slot = slot
			candidate.RoomID = room.ID

			newScore, ok := o.evaluateMove(manager, cctx, a, candidate)
			if ok && newScore > currentScore {
				return candidate, newScore
			}
		}
	}
	return nil, 0
}

// evaluateMove 在移除原分配的模拟上下文中评估移动
func (o *Optimizer) evaluateMove(manager *constraint.Manager, cctx *constraint.Context,
	original, candidate *model.Assignment) (float64, bool) {

	sim := cctx.Clone()
	sim.RemoveAssignment(original.ID)

	if ok, _ := manager.CanAssign(sim, candidate); !ok {
		return 0, false
	}
	for _, other := range sim.FacultyAssignments(candidate.FacultyID, candidate.Slot.Day) {
		if other.Slot.Overlaps(candidate.Slot) {
			return 0, false
		}
	}
	for _, other := range sim.RoomAssignments(candidate.RoomID, candidate.Slot.Day) {
		if other.Slot.Overlaps(candidate.Slot) {
			return 0, false
		}
	}

	sim.AddAssignment(candidate)
	return manager.OptimizationScore(sim), true
}

// sortedByID 按ID稳定排序的分配列表
func sortedByID(assignments []*model.Assignment) []*model.Assignment {
	out := make([]*model.Assignment, len(assignments))
	copy(out, assignments)
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

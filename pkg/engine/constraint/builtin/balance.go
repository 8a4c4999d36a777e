// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/paike/paike/pkg/engine/constraint"
	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/stats"
)

// 工作量偏差超过该比例的教师会被列入违反详情
const workloadDeviationThreshold = 0.30

// WorkloadBalanceConstraint 教师工作量均衡软约束
// 以工作量分布的变异系数折算满足率，偏差过大的教师单独列出
type WorkloadBalanceConstraint struct {
	*BaseConstraint
	analyzer *stats.WorkloadAnalyzer
}

// NewWorkloadBalanceConstraint 创建工作量均衡约束
func NewWorkloadBalanceConstraint(weight int) *WorkloadBalanceConstraint {
	return &WorkloadBalanceConstraint{
		BaseConstraint: NewBaseConstraint(
			"教师工作量均衡",
			constraint.TypeWorkloadBalance,
			constraint.CategorySoft,
			weight,
		),
		analyzer: stats.NewWorkloadAnalyzer(),
	}
}

// Evaluate 评估整个课表
func (c *WorkloadBalanceConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.Violation) {
	metrics := c.analyzer.Analyze(ctx.Assignments, ctx.Catalog.Faculty)

	var violations []constraint.Violation
	totalPenalty := 0
	for _, stat := range metrics.FacultyStats {
		if stat.Deviation/100 <= workloadDeviationThreshold {
			continue
		}
		penalty := int(float64(c.Weight()) * (stat.Deviation/100 - workloadDeviationThreshold))
		if penalty < 1 {
			penalty = 1
		}
		totalPenalty += penalty
		violations = append(violations, c.CreateViolation(nil,
			fmt.Sprintf("教师 %s 周课时 %.1f 小时，高出平均值 %.0f%%",
				stat.FacultyName, stat.TotalHours, stat.Deviation),
			penalty))
	}

	return len(violations) == 0, totalPenalty, violations
}

// EvaluateAssignment 评估单条分配
// 目标教师工作量已高于平均值时按超出比例计罚，引导分配流向低负荷教师
func (c *WorkloadBalanceConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	metrics := c.analyzer.Analyze(ctx.Assignments, ctx.Catalog.Faculty)
	if metrics.AvgHoursPerFaculty <= 0 {
		return true, 0
	}

	hours := ctx.FacultyWeeklyHours(a.FacultyID)
	if containsAssignment(ctx.FacultyAssignments(a.FacultyID, a.Slot.Day), a.ID) {
		hours -= a.Hours()
	}
	after := hours + a.Hours()
	if after <= metrics.AvgHoursPerFaculty {
		return true, 0
	}

	penalty := int(float64(c.Weight()) * (after - metrics.AvgHoursPerFaculty) / metrics.AvgHoursPerFaculty)
	if penalty < 1 {
		penalty = 1
	}
	return true, penalty
}

// Satisfaction 返回满足率
func (c *WorkloadBalanceConstraint) Satisfaction(ctx *constraint.Context) float64 {
	return c.analyzer.Analyze(ctx.Assignments, ctx.Catalog.Faculty).BalanceScore
}

// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/paike/paike/pkg/engine/constraint"
	"github.com/paike/paike/pkg/model"
)

// RespectAvailabilityConstraint 教师可用时间约束
// 分配的时间段必须完整落在教师的可用时间内
type RespectAvailabilityConstraint struct {
	*BaseConstraint
}

// NewRespectAvailabilityConstraint 创建教师可用时间约束
func NewRespectAvailabilityConstraint() *RespectAvailabilityConstraint {
	return &RespectAvailabilityConstraint{
		BaseConstraint: NewBaseConstraint(
			"教师可用时间",
			constraint.TypeRespectAvailability,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个课表
func (c *RespectAvailabilityConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.Violation) {
	return evaluateBySingle(c, c.BaseConstraint, ctx, func(a *model.Assignment) string {
		name := "未知教师"
		if f := ctx.Faculty(a.FacultyID); f != nil {
			name = f.Name
		}
		return fmt.Sprintf("教师 %s 在 %s 不可用", name, a.Slot)
	})
}

// EvaluateAssignment 评估单条分配
func (c *RespectAvailabilityConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	f := ctx.Faculty(a.FacultyID)
	if f == nil {
		return false, c.Weight()
	}
	if !f.IsActive() || !f.IsAvailable(a.Slot) {
		return false, c.Weight()
	}
	return true, 0
}

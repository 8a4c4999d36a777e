// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/paike/paike/pkg/engine/constraint"
	"github.com/paike/paike/pkg/model"
)

// allowedOverflowRatio 启用 allow_overflow 时可接受的超员比例
const allowedOverflowRatio = 0.10

// RespectCapacityConstraint 教室容量约束
// 启用 allow_overflow 软约束时，10% 以内的超员不再阻断分配
type RespectCapacityConstraint struct {
	*BaseConstraint
	allowOverflow bool
}

// NewRespectCapacityConstraint 创建教室容量约束
func NewRespectCapacityConstraint(allowOverflow bool) *RespectCapacityConstraint {
	return &RespectCapacityConstraint{
		BaseConstraint: NewBaseConstraint(
			"教室容量",
			constraint.TypeRespectCapacity,
			constraint.CategoryHard,
			100,
		),
		allowOverflow: allowOverflow,
	}
}

// Evaluate 评估整个课表
func (c *RespectCapacityConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.Violation) {
	return evaluateBySingle(c, c.BaseConstraint, ctx, func(a *model.Assignment) string {
		room := ctx.Room(a.RoomID)
		course := ctx.Course(a.CourseID)
		if room == nil || course == nil {
			return "教室或课程不存在"
		}
		return fmt.Sprintf("教室 %s 容量 %d 不足以容纳课程 %s 的 %d 名学生",
			room.Name, room.Capacity, course.Code, course.Enrolled)
	})
}

// EvaluateAssignment 评估单条分配
func (c *RespectCapacityConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	room := ctx.Room(a.RoomID)
	course := ctx.Course(a.CourseID)
	if room == nil || course == nil {
		return false, c.Weight()
	}

	overflow := room.OverflowRatio(course.Enrolled)
	if overflow == 0 {
		return true, 0
	}
	if c.allowOverflow && overflow <= allowedOverflowRatio {
		return true, 0
	}
	return false, c.Weight()
}

// AllowOverflowConstraint 允许超员软约束
// 本身不惩罚任何分配，只作为开关参与容量判定；满足率恒为1
type AllowOverflowConstraint struct {
	*BaseConstraint
}

// NewAllowOverflowConstraint 创建允许超员软约束
func NewAllowOverflowConstraint(weight int) *AllowOverflowConstraint {
	return &AllowOverflowConstraint{
		BaseConstraint: NewBaseConstraint(
			"允许10%容量超员",
			constraint.TypeAllowOverflow,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Satisfaction 返回满足率
func (c *AllowOverflowConstraint) Satisfaction(ctx *constraint.Context) float64 {
	return 1.0
}

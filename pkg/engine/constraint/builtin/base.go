// Package builtin 提供内置约束实现
package builtin

import (
	"github.com/paike/paike/pkg/engine/constraint"
	"github.com/paike/paike/pkg/model"
)

// BaseConstraint 约束基类
type BaseConstraint struct {
	name     string
	typ      constraint.Type
	category constraint.Category
	weight   int
}

// NewBaseConstraint 创建基础约束
func NewBaseConstraint(name string, typ constraint.Type, cat constraint.Category, weight int) *BaseConstraint {
	return &BaseConstraint{
		name:     name,
		typ:      typ,
		category: cat,
		weight:   weight,
	}
}

// Name 返回约束名称
func (c *BaseConstraint) Name() string { return c.name }

// Type 返回约束类型
func (c *BaseConstraint) Type() constraint.Type { return c.typ }

// Category 返回约束类别
func (c *BaseConstraint) Category() constraint.Category { return c.category }

// Weight 返回约束权重
func (c *BaseConstraint) Weight() int { return c.weight }

// CreateViolation 创建违反详情
func (c *BaseConstraint) CreateViolation(a *model.Assignment, message string, penalty int) constraint.Violation {
	severity := "warning"
	if c.category == constraint.CategoryHard {
		severity = "blocking"
	}

	v := constraint.Violation{
		ConstraintType: c.typ,
		ConstraintName: c.name,
		Message:        message,
		Severity:       severity,
		Penalty:        penalty,
	}
	if a != nil {
		v.AssignmentID = a.ID
		v.CourseID = a.CourseID
	}
	return v
}

// Evaluate 默认评估实现（子类需覆盖）
func (c *BaseConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.Violation) {
	return true, 0, nil
}

// EvaluateAssignment 默认分配评估实现（子类需覆盖）
func (c *BaseConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	return true, 0
}

// evaluateBySingle 逐条分配评估的通用实现
// 多数约束的整表评估就是对每条分配做单条评估
func evaluateBySingle(c constraint.Constraint, base *BaseConstraint, ctx *constraint.Context, message func(a *model.Assignment) string) (bool, int, []constraint.Violation) {
	var violations []constraint.Violation
	totalPenalty := 0
	isValid := true

	for _, a := range ctx.Assignments {
		valid, penalty := c.EvaluateAssignment(ctx, a)
		if valid {
			continue
		}
		isValid = false
		totalPenalty += penalty
		violations = append(violations, base.CreateViolation(a, message(a), penalty))
	}

	return isValid, totalPenalty, violations
}

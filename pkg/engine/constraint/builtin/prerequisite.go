// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/paike/paike/pkg/engine/constraint"
	"github.com/paike/paike/pkg/model"
)

// RespectPrerequisitesConstraint 先修课存在性约束
// 只检查先修课在目录中存在且状态为已完成/开设中——先修课按培养方案
// 在更早学期修读，同一学期内不存在时间先后问题，因此不做时段顺序检查
type RespectPrerequisitesConstraint struct {
	*BaseConstraint
}

// NewRespectPrerequisitesConstraint 创建先修课约束
func NewRespectPrerequisitesConstraint() *RespectPrerequisitesConstraint {
	return &RespectPrerequisitesConstraint{
		BaseConstraint: NewBaseConstraint(
			"先修课检查",
			constraint.TypeRespectPrerequisites,
			constraint.CategoryHard,
			80,
		),
	}
}

// Evaluate 评估整个课表
func (c *RespectPrerequisitesConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.Violation) {
	var violations []constraint.Violation
	totalPenalty := 0
	isValid := true

	seen := make(map[string]bool) // 每门课程只报一次
	for _, a := range ctx.Assignments {
		course := ctx.Course(a.CourseID)
		if course == nil || seen[course.Code] {
			continue
		}
		seen[course.Code] = true

		for _, prereqID := range course.Prerequisites {
			if ctx.Course(prereqID) != nil {
				continue
			}
			isValid = false
			penalty := c.Weight()
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(a,
				fmt.Sprintf("课程 %s 的先修课 %s 不在目录中", course.Code, prereqID), penalty))
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单条分配
func (c *RespectPrerequisitesConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	course := ctx.Course(a.CourseID)
	if course == nil {
		return false, c.Weight()
	}
	for _, prereqID := range course.Prerequisites {
		if ctx.Course(prereqID) == nil {
			return false, c.Weight()
		}
	}
	return true, 0
}

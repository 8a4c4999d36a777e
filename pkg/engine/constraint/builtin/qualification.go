// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/paike/paike/pkg/engine/constraint"
	"github.com/paike/paike/pkg/model"
)

// SubjectMatchConstraint 教师任课资格约束
type SubjectMatchConstraint struct {
	*BaseConstraint
}

// NewSubjectMatchConstraint 创建教师任课资格约束
func NewSubjectMatchConstraint() *SubjectMatchConstraint {
	return &SubjectMatchConstraint{
		BaseConstraint: NewBaseConstraint(
			"教师任课资格",
			constraint.TypeSubjectMatch,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 评估整个课表
func (c *SubjectMatchConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.Violation) {
	return evaluateBySingle(c, c.BaseConstraint, ctx, func(a *model.Assignment) string {
		course := ctx.Course(a.CourseID)
		f := ctx.Faculty(a.FacultyID)
		if course == nil || f == nil {
			return "课程或教师不存在"
		}
		return fmt.Sprintf("教师 %s 不具备课程 %s 的任课资格", f.Name, course.Code)
	})
}

// EvaluateAssignment 评估单条分配
func (c *SubjectMatchConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	course := ctx.Course(a.CourseID)
	f := ctx.Faculty(a.FacultyID)
	if course == nil || f == nil {
		return false, c.Weight()
	}
	if !f.CanTeach(course.Code) {
		return false, c.Weight()
	}
	return true, 0
}

// RoomTypeMatchConstraint 教室类型匹配约束
// 实践时段必须使用实验室或实习学校
type RoomTypeMatchConstraint struct {
	*BaseConstraint
}

// NewRoomTypeMatchConstraint 创建教室类型匹配约束
func NewRoomTypeMatchConstraint() *RoomTypeMatchConstraint {
	return &RoomTypeMatchConstraint{
		BaseConstraint: NewBaseConstraint(
			"教室类型匹配",
			constraint.TypeRoomTypeMatch,
			constraint.CategoryHard,
			90,
		),
	}
}

// Evaluate 评估整个课表
func (c *RoomTypeMatchConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.Violation) {
	return evaluateBySingle(c, c.BaseConstraint, ctx, func(a *model.Assignment) string {
		room := ctx.Room(a.RoomID)
		course := ctx.Course(a.CourseID)
		if room == nil || course == nil {
			return "教室或课程不存在"
		}
		return fmt.Sprintf("教室 %s (%s) 不适合课程 %s 的 %s 时段", room.Name, room.Type, course.Code, a.Kind)
	})
}

// EvaluateAssignment 评估单条分配
func (c *RoomTypeMatchConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	room := ctx.Room(a.RoomID)
	course := ctx.Course(a.CourseID)
	if room == nil || course == nil {
		return false, c.Weight()
	}
	if !room.SuitsKind(a.Kind, course.Type) {
		return false, c.Weight()
	}
	return true, 0
}

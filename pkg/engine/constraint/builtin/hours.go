// Package builtin 提供内置约束实现
package builtin

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/paike/paike/pkg/engine/constraint"
	"github.com/paike/paike/pkg/model"
)

// MaxHoursPerDayConstraint 教师每日课时上限约束
// 上限取全局配置和教师个人上限中较小者
type MaxHoursPerDayConstraint struct {
	*BaseConstraint
	maxHours int
}

// NewMaxHoursPerDayConstraint 创建每日课时上限约束
func NewMaxHoursPerDayConstraint(maxHours int) *MaxHoursPerDayConstraint {
	return &MaxHoursPerDayConstraint{
		BaseConstraint: NewBaseConstraint(
			"每日课时上限",
			constraint.TypeMaxHoursPerDay,
			constraint.CategoryHard,
			100,
		),
		maxHours: maxHours,
	}
}

// limitFor 返回教师生效的每日上限
func (c *MaxHoursPerDayConstraint) limitFor(f *model.Faculty) float64 {
	limit := float64(c.maxHours)
	if f != nil && f.MaxHoursPerDay > 0 && float64(f.MaxHoursPerDay) < limit {
		limit = float64(f.MaxHoursPerDay)
	}
	return limit
}

// Evaluate 评估整个课表
func (c *MaxHoursPerDayConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.Violation) {
	var violations []constraint.Violation
	totalPenalty := 0
	isValid := true

	for _, f := range ctx.Catalog.Faculty {
		limit := c.limitFor(f)
		for _, day := range model.AllDays {
			hours := ctx.FacultyHoursOnDay(f.ID, day)
			if hours > limit {
				isValid = false
				penalty := c.Weight() * int(hours-limit)
				if penalty < c.Weight() {
					penalty = c.Weight()
				}
				totalPenalty += penalty
				violations = append(violations, c.CreateViolation(nil,
					fmt.Sprintf("教师 %s 在 %s 课时 %.1f 小时，超过上限 %.0f 小时", f.Name, day, hours, limit),
					penalty))
			}
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单条分配（置入前检查）
func (c *MaxHoursPerDayConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	f := ctx.Faculty(a.FacultyID)
	limit := c.limitFor(f)

	hours := ctx.FacultyHoursOnDay(a.FacultyID, a.Slot.Day)
	if containsAssignment(ctx.FacultyAssignments(a.FacultyID, a.Slot.Day), a.ID) {
		hours -= a.Hours() // 已在集合中时避免重复计入
	}

	if hours+a.Hours() > limit {
		return false, c.Weight()
	}
	return true, 0
}

// MaxConsecutiveHoursConstraint 教师连续课时上限约束
type MaxConsecutiveHoursConstraint struct {
	*BaseConstraint
	maxHours int
}

// NewMaxConsecutiveHoursConstraint 创建连续课时上限约束
func NewMaxConsecutiveHoursConstraint(maxHours int) *MaxConsecutiveHoursConstraint {
	return &MaxConsecutiveHoursConstraint{
		BaseConstraint: NewBaseConstraint(
			"连续课时上限",
			constraint.TypeMaxConsecutiveHours,
			constraint.CategoryHard,
			100,
		),
		maxHours: maxHours,
	}
}

// limitFor 返回教师生效的连续课时上限
func (c *MaxConsecutiveHoursConstraint) limitFor(f *model.Faculty) float64 {
	limit := float64(c.maxHours)
	if f != nil && f.MaxConsecutiveHours > 0 && float64(f.MaxConsecutiveHours) < limit {
		limit = float64(f.MaxConsecutiveHours)
	}
	return limit
}

// Evaluate 评估整个课表
func (c *MaxConsecutiveHoursConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.Violation) {
	var violations []constraint.Violation
	totalPenalty := 0
	isValid := true

	for _, f := range ctx.Catalog.Faculty {
		limit := c.limitFor(f)
		for _, day := range model.AllDays {
			for _, a := range ctx.FacultyAssignments(f.ID, day) {
				run := ctx.ConsecutiveRunWith(f.ID, a.Slot)
				if run > limit {
					isValid = false
					penalty := c.Weight()
					totalPenalty += penalty
					violations = append(violations, c.CreateViolation(a,
						fmt.Sprintf("教师 %s 在 %s 连续授课 %.1f 小时，超过上限 %.0f 小时", f.Name, day, run, limit),
						penalty))
					break // 同一连续段只报一次
				}
			}
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateAssignment 评估单条分配
func (c *MaxConsecutiveHoursConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	f := ctx.Faculty(a.FacultyID)
	limit := c.limitFor(f)

	if ctx.ConsecutiveRunWith(a.FacultyID, a.Slot) > limit {
		return false, c.Weight()
	}
	return true, 0
}

// containsAssignment 检查分配列表中是否包含指定ID
func containsAssignment(assignments []*model.Assignment, id uuid.UUID) bool {
	for _, a := range assignments {
		if a.ID == id {
			return true
		}
	}
	return false
}

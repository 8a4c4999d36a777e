// Package builtin 提供内置约束实现
package builtin

import (
	"github.com/paike/paike/pkg/engine/constraint"
	"github.com/paike/paike/pkg/logger"
	"github.com/paike/paike/pkg/model"
)

// 默认参数
const (
	DefaultMaxHoursPerDay      = 6  // 教师每日课时上限
	DefaultMaxConsecutiveHours = 3  // 教师连续课时上限
	DefaultSoftWeight          = 10 // 软约束默认权重
)

// BuildManager 根据约束配置构建约束管理器
// 硬约束始终全部注册（配置只能调参，不能关闭），软约束按配置启用；
// 未知类型告警后忽略
func BuildManager(specs []*model.Constraint) *constraint.Manager {
	m := constraint.NewManager()

	maxHoursPerDay := DefaultMaxHoursPerDay
	maxConsecutive := DefaultMaxConsecutiveHours
	allowOverflow := false

	for _, s := range specs {
		switch constraint.Type(s.Type) {
		case constraint.TypeMaxHoursPerDay:
			maxHoursPerDay = s.ParamInt("max_hours", DefaultMaxHoursPerDay)
		case constraint.TypeMaxConsecutiveHours:
			maxConsecutive = s.ParamInt("max_hours", DefaultMaxConsecutiveHours)
		case constraint.TypeAllowOverflow:
			allowOverflow = s.Enabled
		}
	}

	m.Register(NewRespectAvailabilityConstraint())
	m.Register(NewRespectCapacityConstraint(allowOverflow))
	m.Register(NewMaxHoursPerDayConstraint(maxHoursPerDay))
	m.Register(NewMaxConsecutiveHoursConstraint(maxConsecutive))
	m.Register(NewRespectPrerequisitesConstraint())
	m.Register(NewSubjectMatchConstraint())
	m.Register(NewRoomTypeMatchConstraint())

	for _, s := range specs {
		if s.Kind != model.ConstraintSoft || !s.Enabled {
			continue
		}
		weight := s.Weight
		if weight <= 0 {
			weight = DefaultSoftWeight
		}

		switch constraint.Type(s.Type) {
		case constraint.TypeWorkloadBalance:
			m.Register(NewWorkloadBalanceConstraint(weight))
		case constraint.TypeGroupElectives:
			m.Register(NewGroupElectivesConstraint(weight))
		case constraint.TypeAvoidBackToBackHeavy:
			m.Register(NewAvoidBackToBackHeavyConstraint(weight))
		case constraint.TypePreferSpecialRooms:
			m.Register(NewPreferSpecialRoomsConstraint(weight))
		case constraint.TypeAllowOverflow:
			m.Register(NewAllowOverflowConstraint(weight))
		case constraint.TypeMinimizeRoomChanges:
			m.Register(NewMinimizeRoomChangesConstraint(weight))
		default:
			logger.Warn().Str("type", s.Type).Msg("忽略未知约束类型")
		}
	}

	return m
}

// Package model 定义排课引擎的核心数据模型
package model

import (
	"sort"

	"github.com/google/uuid"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictFacultyDoubleBooking ConflictType = "faculty_double_booking" // 教师时间冲突
	ConflictRoomDoubleBooking    ConflictType = "room_double_booking"    // 教室时间冲突
	ConflictCapacityExceeded     ConflictType = "capacity_exceeded"      // 超出教室容量
	ConflictResourceClash        ConflictType = "resource_clash"         // 共享资源冲突
	ConflictPrerequisiteMissing  ConflictType = "prerequisite_violation" // 先修课缺失
)

// Severity 冲突严重程度
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// conflictTypeRank 展示排序中冲突类型的优先级（数值小的在前）
var conflictTypeRank = map[ConflictType]int{
	ConflictFacultyDoubleBooking: 0,
	ConflictRoomDoubleBooking:    1,
	ConflictCapacityExceeded:     2,
	ConflictResourceClash:        3,
	ConflictPrerequisiteMissing:  4,
}

var severityRank = map[Severity]int{
	SeverityHigh:   0,
	SeverityMedium: 1,
	SeverityLow:    2,
}

// Conflict 检测到的冲突
// 冲突是输出数据而非错误：存在冲突的排课仍然是一次成功的运行
type Conflict struct {
	ID            uuid.UUID    `json:"id"`
	Type          ConflictType `json:"type"`
	Severity      Severity     `json:"severity"`
	AssignmentIDs []uuid.UUID  `json:"assignment_ids"`
	Slot          TimeSlot     `json:"slot"`
	Description   string       `json:"description"`
	Resolutions   []Resolution `json:"resolutions,omitempty"` // 候选解决方案（按优先级排序）
}

// NewConflictID 由冲突类型和涉及的分配ID派生确定性ID
func NewConflictID(typ ConflictType, assignmentIDs []uuid.UUID) uuid.UUID {
	ids := make([]uuid.UUID, len(assignmentIDs))
	copy(ids, assignmentIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	parts := [][]byte{[]byte(typ)}
	for _, id := range ids {
		parts = append(parts, id[:])
	}
	return DeterministicID(parts...)
}

// Involves 检查冲突是否涉及指定分配
func (c *Conflict) Involves(assignmentID uuid.UUID) bool {
	for _, id := range c.AssignmentIDs {
		if id == assignmentID {
			return true
		}
	}
	return false
}

// SortConflicts 按展示顺序排序冲突
// 同严重程度时按类型优先级，其次按时间段，最后按ID保证稳定
func SortConflicts(conflicts []Conflict) {
	sort.SliceStable(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if severityRank[a.Severity] != severityRank[b.Severity] {
			return severityRank[a.Severity] < severityRank[b.Severity]
		}
		if conflictTypeRank[a.Type] != conflictTypeRank[b.Type] {
			return conflictTypeRank[a.Type] < conflictTypeRank[b.Type]
		}
		if !a.Slot.Equal(b.Slot) {
			return a.Slot.Before(b.Slot)
		}
		return a.ID.String() < b.ID.String()
	})
}

// ResolutionType 解决方案类型
type ResolutionType string

const (
	ResolutionMoveSlot        ResolutionType = "move_slot"        // 调整时间段
	ResolutionReassignFaculty ResolutionType = "reassign_faculty" // 更换教师
	ResolutionReassignRoom    ResolutionType = "reassign_room"    // 更换教室
	ResolutionSplitCourse     ResolutionType = "split_course"     // 拆分为两个班
)

// Resolution 候选解决方案
// 每个方案都已通过约束引擎验证，应用后不会引入新的硬约束违反
type Resolution struct {
	Type        ResolutionType `json:"type"`
	Description string         `json:"description"`
	Replace     []*Assignment  `json:"replace"`           // 替换后的分配（按ID对应替换原分配）
	Remove      []uuid.UUID    `json:"remove,omitempty"`  // 需要移除的原分配
	Score       float64        `json:"score"`             // 软约束得分 0-1
	Touched     int            `json:"touched"`           // 改动的分配数
	Rank        int            `json:"rank"`
}

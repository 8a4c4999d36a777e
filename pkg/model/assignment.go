// Package model 定义排课引擎的核心数据模型
package model

import (
	"fmt"

	"github.com/google/uuid"
)

// AssignmentKind 授课形式
type AssignmentKind string

const (
	KindTheory    AssignmentKind = "theory"    // 理论
	KindPractical AssignmentKind = "practical" // 实践
)

// Assignment 排课分配
// 一条分配对应一门课程每周一个固定时段的上课安排
// ID 由 (课程, 形式, 序号) 确定性派生，保证生成结果可复现
type Assignment struct {
	ID        uuid.UUID      `json:"id"`
	CourseID  uuid.UUID      `json:"course_id"`
	FacultyID uuid.UUID      `json:"faculty_id"`
	RoomID    uuid.UUID      `json:"room_id"`
	Slot      TimeSlot       `json:"slot"`
	Program   string         `json:"program"`
	Semester  int            `json:"semester"`
	Kind      AssignmentKind `json:"kind"`
	Pinned    bool           `json:"pinned,omitempty"` // 手工固定，重排时保持不动
}

// NewAssignmentID 生成分配的确定性ID
func NewAssignmentID(courseID uuid.UUID, kind AssignmentKind, index int) uuid.UUID {
	return DeterministicID(courseID[:], []byte(kind), []byte(fmt.Sprintf("%d", index)))
}

// Hours 返回分配的课时（小时）
func (a *Assignment) Hours() float64 {
	return a.Slot.Hours()
}

// SameResource 检查两条分配是否共享教师或教室
func (a *Assignment) SameResource(other *Assignment) bool {
	return a.FacultyID == other.FacultyID || a.RoomID == other.RoomID
}

// Clone 返回分配的副本
func (a *Assignment) Clone() *Assignment {
	c := *a
	return &c
}

// Package model 定义排课引擎的核心数据模型
package model

import (
	"math"

	"github.com/google/uuid"
)

// CourseType 课程类型
type CourseType string

const (
	CourseCore      CourseType = "core"      // 必修
	CourseElective  CourseType = "elective"  // 选修
	CoursePractical CourseType = "practical" // 实践
	CourseProject   CourseType = "project"   // 项目
)

// CourseStatus 课程状态
type CourseStatus string

const (
	CourseActive    CourseStatus = "active"    // 本学期开设
	CourseCompleted CourseStatus = "completed" // 已修读完成（先修课）
	CoursePlanned   CourseStatus = "planned"   // 计划中
)

// Course 课程
type Course struct {
	BaseModel
	Code           string       `json:"code" db:"code" validate:"required"`
	Title          string       `json:"title" db:"title" validate:"required"`
	Credits        int          `json:"credits" db:"credits" validate:"gt=0"`
	TheoryHours    float64      `json:"theory_hours" db:"theory_hours" validate:"gte=0"`
	PracticalHours float64      `json:"practical_hours" db:"practical_hours" validate:"gte=0"`
	Program        string       `json:"program" db:"program" validate:"required"` // B.Ed. / M.Ed. / FYUP / ITEP
	Semester       int          `json:"semester" db:"semester" validate:"gt=0"`
	Type           CourseType   `json:"type" db:"type" validate:"oneof=core elective practical project"`
	Prerequisites  []uuid.UUID  `json:"prerequisites,omitempty" db:"prerequisites"`
	Enrolled       int          `json:"enrolled" db:"enrolled" validate:"gte=0"` // 预计选课人数
	Status         CourseStatus `json:"status" db:"status"`
}

// IsCore 检查是否为必修课
func (c *Course) IsCore() bool {
	return c.Type == CourseCore
}

// IsHeavy 检查是否为重负荷课程（高学分）
func (c *Course) IsHeavy() bool {
	return c.Credits >= 4
}

// TheoryBlocks 每周理论课时段数
func (c *Course) TheoryBlocks() int {
	return int(math.Ceil(c.TheoryHours))
}

// PracticalBlocks 每周实践课时段数
func (c *Course) PracticalBlocks() int {
	return int(math.Ceil(c.PracticalHours))
}

// WeeklyBlocks 每周需要安排的时段总数
func (c *Course) WeeklyBlocks() int {
	return c.TheoryBlocks() + c.PracticalBlocks()
}

// HasPrerequisite 检查课程是否以指定课程为先修课
func (c *Course) HasPrerequisite(id uuid.UUID) bool {
	for _, p := range c.Prerequisites {
		if p == id {
			return true
		}
	}
	return false
}

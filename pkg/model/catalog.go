// Package model 定义排课引擎的核心数据模型
package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Catalog 排课目录
// 课程/教师/教室/约束由外部系统提供，在一次排课运行中只读
type Catalog struct {
	Courses     []*Course     `json:"courses" validate:"required,dive"`
	Faculty     []*Faculty    `json:"faculty" validate:"required,dive"`
	Rooms       []*Room       `json:"rooms" validate:"required,dive"`
	Constraints []*Constraint `json:"constraints" validate:"dive"`
}

// FieldError 目录字段级校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var catalogValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验目录完整性
// 结构标签校验之外补充跨字段不变量；返回全部字段级错误
func (c *Catalog) Validate() []FieldError {
	var errs []FieldError

	if err := catalogValidator.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, ve := range verrs {
				errs = append(errs, FieldError{
					Field:   ve.Namespace(),
					Message: fmt.Sprintf("校验失败: %s", ve.Tag()),
				})
			}
		} else {
			errs = append(errs, FieldError{Field: "catalog", Message: err.Error()})
		}
	}

	courseIDs := make(map[uuid.UUID]bool, len(c.Courses))
	for _, course := range c.Courses {
		courseIDs[course.ID] = true
	}

	for i, course := range c.Courses {
		if course.Credits > 0 && course.TheoryHours+course.PracticalHours < 1 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("courses[%d].theory_hours", i),
				Message: fmt.Sprintf("课程 %s 学分大于0时每周课时不能少于1", course.Code),
			})
		}
	}

	for i, f := range c.Faculty {
		if f.MaxConsecutiveHours > f.MaxHoursPerDay {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("faculty[%d].max_consecutive_hours", i),
				Message: fmt.Sprintf("教师 %s 连续课时上限不能超过每日课时上限", f.Name),
			})
		}
		for j, slot := range f.Availability {
			if err := slot.Validate(); err != nil {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("faculty[%d].availability[%d]", i, j),
					Message: err.Error(),
				})
			}
		}
	}

	return errs
}

// CourseByID 查找课程
func (c *Catalog) CourseByID(id uuid.UUID) *Course {
	for _, course := range c.Courses {
		if course.ID == id {
			return course
		}
	}
	return nil
}

// FacultyByID 查找教师
func (c *Catalog) FacultyByID(id uuid.UUID) *Faculty {
	for _, f := range c.Faculty {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// RoomByID 查找教室
func (c *Catalog) RoomByID(id uuid.UUID) *Room {
	for _, r := range c.Rooms {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// ActiveCourses 返回本学期开设的课程
func (c *Catalog) ActiveCourses() []*Course {
	var out []*Course
	for _, course := range c.Courses {
		if course.Status == "" || course.Status == CourseActive {
			out = append(out, course)
		}
	}
	return out
}

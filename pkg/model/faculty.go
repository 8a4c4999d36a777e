// Package model 定义排课引擎的核心数据模型
package model

// FacultyStatus 教师状态
type FacultyStatus string

const (
	FacultyActive  FacultyStatus = "active" // 在职
	FacultyOnLeave FacultyStatus = "leave"  // 休假
)

// Faculty 教师
type Faculty struct {
	BaseModel
	Name                string        `json:"name" db:"name" validate:"required"`
	Availability        []TimeSlot    `json:"availability" db:"availability"`
	MaxHoursPerDay      int           `json:"max_hours_per_day" db:"max_hours_per_day" validate:"gt=0"`
	MaxConsecutiveHours int           `json:"max_consecutive_hours" db:"max_consecutive_hours" validate:"gt=0"`
	Subjects            []string      `json:"subjects,omitempty" db:"subjects"` // 可授课程代码，空表示不限
	Status              FacultyStatus `json:"status" db:"status"`
}

// IsActive 检查教师是否在职
func (f *Faculty) IsActive() bool {
	return f.Status == "" || f.Status == FacultyActive
}

// IsAvailable 检查可用时间集合是否覆盖指定时间段
func (f *Faculty) IsAvailable(slot TimeSlot) bool {
	for _, av := range f.Availability {
		if av.Day != slot.Day {
			continue
		}
		if av.StartMinutes() <= slot.StartMinutes() && slot.EndMinutes() <= av.EndMinutes() {
			return true
		}
	}
	return false
}

// CanTeach 检查教师是否可讲授指定课程代码
func (f *Faculty) CanTeach(courseCode string) bool {
	if len(f.Subjects) == 0 {
		return true
	}
	for _, s := range f.Subjects {
		if s == courseCode {
			return true
		}
	}
	return false
}

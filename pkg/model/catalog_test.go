package model

import (
	"testing"

	"github.com/google/uuid"
)

func testCatalog() *Catalog {
	return &Catalog{
		Courses: []*Course{
			{
				BaseModel:   BaseModel{ID: uuid.New()},
				Code:        "EDU101",
				Title:       "Educational Psychology",
				Credits:     4,
				TheoryHours: 3,
				Program:     "B.Ed.",
				Semester:    1,
				Type:        CourseCore,
				Enrolled:    45,
			},
		},
		Faculty: []*Faculty{
			{
				BaseModel:           BaseModel{ID: uuid.New()},
				Name:                "Priya Sharma",
				MaxHoursPerDay:      6,
				MaxConsecutiveHours: 3,
				Availability: []TimeSlot{
					{Day: Monday, Start: "09:00", End: "12:00"},
				},
			},
		},
		Rooms: []*Room{
			{BaseModel: BaseModel{ID: uuid.New()}, Name: "Room 101", Capacity: 50, Type: RoomClassroom},
		},
	}
}

func TestCatalogValidateOK(t *testing.T) {
	if errs := testCatalog().Validate(); len(errs) != 0 {
		t.Errorf("合法目录不应有校验错误: %v", errs)
	}
}

func TestCatalogValidateCredits(t *testing.T) {
	catalog := testCatalog()
	catalog.Courses[0].Credits = 0

	errs := catalog.Validate()
	if len(errs) == 0 {
		t.Error("学分为0应校验失败")
	}
}

func TestCatalogValidateWeeklyHours(t *testing.T) {
	catalog := testCatalog()
	catalog.Courses[0].TheoryHours = 0.5
	catalog.Courses[0].PracticalHours = 0

	errs := catalog.Validate()
	if len(errs) == 0 {
		t.Error("有学分但每周课时不足1应校验失败")
	}
}

func TestCatalogValidateConsecutiveHours(t *testing.T) {
	catalog := testCatalog()
	catalog.Faculty[0].MaxConsecutiveHours = 8 // 超过每日上限6

	errs := catalog.Validate()
	if len(errs) == 0 {
		t.Error("连续课时上限超过每日上限应校验失败")
	}
}

func TestCatalogValidateNegativeCapacity(t *testing.T) {
	catalog := testCatalog()
	catalog.Rooms[0].Capacity = -1

	errs := catalog.Validate()
	if len(errs) == 0 {
		t.Error("教室容量必须为正")
	}
}

func TestCourseBlocks(t *testing.T) {
	c := &Course{Credits: 4, TheoryHours: 2.5, PracticalHours: 1}

	if c.TheoryBlocks() != 3 {
		t.Errorf("理论时段数应向上取整为3, got %d", c.TheoryBlocks())
	}
	if c.WeeklyBlocks() != 4 {
		t.Errorf("每周时段总数应为4, got %d", c.WeeklyBlocks())
	}
}

func TestFacultyIsAvailable(t *testing.T) {
	f := &Faculty{
		Availability: []TimeSlot{{Day: Monday, Start: "09:00", End: "12:00"}},
	}

	if !f.IsAvailable(TimeSlot{Day: Monday, Start: "10:00", End: "11:00"}) {
		t.Error("可用区间内的时段应判定为可用")
	}
	if f.IsAvailable(TimeSlot{Day: Monday, Start: "11:00", End: "13:00"}) {
		t.Error("超出可用区间的时段应判定为不可用")
	}
	if f.IsAvailable(TimeSlot{Day: Tuesday, Start: "09:00", End: "10:00"}) {
		t.Error("不同日应判定为不可用")
	}
}

func TestSortConflicts(t *testing.T) {
	conflicts := []Conflict{
		{Type: ConflictCapacityExceeded, Severity: SeverityMedium, Slot: TimeSlot{Day: Monday, Start: "09:00", End: "10:00"}},
		{Type: ConflictFacultyDoubleBooking, Severity: SeverityHigh, Slot: TimeSlot{Day: Tuesday, Start: "09:00", End: "10:00"}},
		{Type: ConflictRoomDoubleBooking, Severity: SeverityHigh, Slot: TimeSlot{Day: Monday, Start: "09:00", End: "10:00"}},
	}

	SortConflicts(conflicts)

	if conflicts[0].Type != ConflictFacultyDoubleBooking {
		t.Errorf("教师冲突应排最前, got %s", conflicts[0].Type)
	}
	if conflicts[1].Type != ConflictRoomDoubleBooking {
		t.Errorf("同为高严重度时教室冲突应排第二, got %s", conflicts[1].Type)
	}
}

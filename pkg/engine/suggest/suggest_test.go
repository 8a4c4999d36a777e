package suggest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paike/paike/pkg/engine/detector"
	"github.com/paike/paike/pkg/model"
)

var (
	c1ID      = uuid.MustParse("50000000-0000-0000-0000-000000000001")
	c2ID      = uuid.MustParse("50000000-0000-0000-0000-000000000002")
	facultyID = uuid.MustParse("50000000-0000-0000-0000-000000000011")
	helperID  = uuid.MustParse("50000000-0000-0000-0000-000000000012")
	roomID    = uuid.MustParse("50000000-0000-0000-0000-000000000021")
	smallID   = uuid.MustParse("50000000-0000-0000-0000-000000000022")
)

func collisionCatalog() *model.Catalog {
	return &model.Catalog{
		Courses: []*model.Course{
			{BaseModel: model.BaseModel{ID: c1ID}, Code: "C1", Title: "课程一",
				Credits: 3, TheoryHours: 1, Program: "B.Ed.", Semester: 1,
				Type: model.CourseCore, Enrolled: 40},
			{BaseModel: model.BaseModel{ID: c2ID}, Code: "C2", Title: "课程二",
				Credits: 3, TheoryHours: 1, Program: "B.Ed.", Semester: 1,
				Type: model.CourseCore, Enrolled: 40},
		},
		Faculty: []*model.Faculty{
			{BaseModel: model.BaseModel{ID: facultyID}, Name: "Priya Sharma",
				Availability: []model.TimeSlot{
					{Day: model.Monday, Start: "09:00", End: "12:00"},
				},
				MaxHoursPerDay: 6, MaxConsecutiveHours: 3},
		},
		Rooms: []*model.Room{
			{BaseModel: model.BaseModel{ID: roomID}, Name: "Room 101",
				Capacity: 50, Type: model.RoomClassroom},
		},
	}
}

func pinnedCollisionSet(catalog *model.Catalog) (*model.TimetableSet, model.Conflict) {
	slot := model.TimeSlot{Day: model.Monday, Start: "09:00", End: "10:00"}
	a := &model.Assignment{ID: model.NewAssignmentID(c1ID, model.KindTheory, 0),
		CourseID: c1ID, FacultyID: facultyID, RoomID: roomID, Slot: slot,
		Program: "B.Ed.", Semester: 1, Kind: model.KindTheory, Pinned: true}
	b := &model.Assignment{ID: model.NewAssignmentID(c2ID, model.KindTheory, 0),
		CourseID: c2ID, FacultyID: facultyID, RoomID: roomID, Slot: slot,
		Program: "B.Ed.", Semester: 1, Kind: model.KindTheory, Pinned: true}

	set := &model.TimetableSet{Version: 1, Assignments: []*model.Assignment{a, b}}
	set.Conflicts = detector.NewDetector(catalog).Detect(set.Assignments)

	for _, c := range set.Conflicts {
		if c.Type == model.ConflictFacultyDoubleBooking {
			return set, c
		}
	}
	panic("缺少预期的教师时间冲突")
}

func TestSuggestMoveSlotForDoubleBooking(t *testing.T) {
	catalog := collisionCatalog()
	set, conflict := pinnedCollisionSet(catalog)

	s := New(model.DefaultGrid())
	suggestion := s.Suggest(conflict, set, catalog, 3)

	require.False(t, suggestion.ManualInterventionRequired)
	require.NotEmpty(t, suggestion.Resolutions)
	assert.LessOrEqual(t, len(suggestion.Resolutions), 3)

	// 必须包含把其中一门课移到 10:00-11:00 的方案
	target := model.TimeSlot{Day: model.Monday, Start: "10:00", End: "11:00"}
	var found bool
	for _, res := range suggestion.Resolutions {
		if res.Type != model.ResolutionMoveSlot {
			continue
		}
		for _, a := range res.Replace {
			if a.Slot.Equal(target) {
				found = true
			}
		}
	}
	assert.True(t, found, "应建议移到下一个空闲时段")

	for i, res := range suggestion.Resolutions {
		assert.Equal(t, i+1, res.Rank)
		assert.NotEmpty(t, res.Description)
	}
}

func TestSuggestResolutionsIntroduceNoNewConflicts(t *testing.T) {
	catalog := collisionCatalog()
	set, conflict := pinnedCollisionSet(catalog)
	det := detector.NewDetector(catalog)

	s := New(model.DefaultGrid())
	suggestion := s.Suggest(conflict, set, catalog, 3)
	require.NotEmpty(t, suggestion.Resolutions)

	for _, res := range suggestion.Resolutions {
		applied := set.Clone()
		for _, id := range res.Remove {
			applied.RemoveAssignment(id)
		}
		for _, a := range res.Replace {
			if !applied.ReplaceAssignment(a) {
				applied.Assignments = append(applied.Assignments, a)
			}
		}

		after := det.Detect(applied.Assignments)
		for _, c := range after {
			assert.NotEqual(t, conflict.ID, c.ID, "方案 %q 未消除目标冲突", res.Description)
			assert.NotEqual(t, model.SeverityHigh, c.Severity,
				"方案 %q 引入了新的高严重度冲突", res.Description)
		}
	}
}

func TestSuggestManualInterventionWhenNoCandidate(t *testing.T) {
	catalog := collisionCatalog()
	// 教师只有冲突所在的一个时段可用，无处可挪
	catalog.Faculty[0].Availability = []model.TimeSlot{
		{Day: model.Monday, Start: "09:00", End: "10:00"},
	}
	set, conflict := pinnedCollisionSet(catalog)

	s := New(model.DefaultGrid())
	suggestion := s.Suggest(conflict, set, catalog, 3)

	assert.Empty(t, suggestion.Resolutions)
	assert.True(t, suggestion.ManualInterventionRequired,
		"零个可行方案应标记需要人工处理，而不是报错")
}

func TestSuggestSplitForCapacityExceeded(t *testing.T) {
	catalog := collisionCatalog()
	catalog.Courses[0].Enrolled = 60
	catalog.Rooms[0].Capacity = 40
	catalog.Rooms = append(catalog.Rooms, &model.Room{
		BaseModel: model.BaseModel{ID: smallID}, Name: "Room 102",
		Capacity: 30, Type: model.RoomClassroom,
	})
	catalog.Faculty = append(catalog.Faculty, &model.Faculty{
		BaseModel: model.BaseModel{ID: helperID}, Name: "Rahul Verma",
		Availability: []model.TimeSlot{
			{Day: model.Monday, Start: "09:00", End: "12:00"},
		},
		MaxHoursPerDay: 6, MaxConsecutiveHours: 3,
	})

	slot := model.TimeSlot{Day: model.Monday, Start: "09:00", End: "10:00"}
	a := &model.Assignment{ID: model.NewAssignmentID(c1ID, model.KindTheory, 0),
		CourseID: c1ID, FacultyID: facultyID, RoomID: roomID, Slot: slot,
		Program: "B.Ed.", Semester: 1, Kind: model.KindTheory}
	set := &model.TimetableSet{Version: 1, Assignments: []*model.Assignment{a}}
	conflicts := detector.NewDetector(catalog).Detect(set.Assignments)
	require.NotEmpty(t, conflicts)
	require.Equal(t, model.ConflictCapacityExceeded, conflicts[0].Type)
	set.Conflicts = conflicts

	s := New(model.DefaultGrid())
	suggestion := s.Suggest(conflicts[0], set, catalog, 3)
	require.NotEmpty(t, suggestion.Resolutions)

	var split *model.Resolution
	for i := range suggestion.Resolutions {
		if suggestion.Resolutions[i].Type == model.ResolutionSplitCourse {
			split = &suggestion.Resolutions[i]
		}
	}
	require.NotNil(t, split, "容量超员应产生拆班方案")
	assert.Len(t, split.Replace, 2, "拆班方案包含原班和新班")
	assert.Equal(t, 2, split.Touched)
}

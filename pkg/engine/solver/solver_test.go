package solver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paike/paike/pkg/model"
)

var (
	c1ID      = uuid.MustParse("40000000-0000-0000-0000-000000000001")
	c2ID      = uuid.MustParse("40000000-0000-0000-0000-000000000002")
	facultyID = uuid.MustParse("40000000-0000-0000-0000-000000000011")
	roomID    = uuid.MustParse("40000000-0000-0000-0000-000000000021")
)

// scenarioCatalog 单教师单教室双课程目录
func scenarioCatalog(availStart, availEnd string) *model.Catalog {
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
					{Day: model.Monday, Start: availStart, End: availEnd},
				},
				MaxHoursPerDay: 6, MaxConsecutiveHours: 3},
		},
		Rooms: []*model.Room{
			{BaseModel: model.BaseModel{ID: roomID}, Name: "Room 101",
				Capacity: 50, Type: model.RoomClassroom},
		},
	}
}

func TestGenerateTwoCoursesOneFacultyOneRoom(t *testing.T) {
	s := New(model.DefaultGrid())
	result, err := s.Generate(context.Background(), scenarioCatalog("09:00", "12:00"), nil)
	require.NoError(t, err)

	require.Len(t, result.Set.Assignments, 2)
	assert.Empty(t, result.Unplaced)
	assert.Empty(t, result.Set.Conflicts)

	byCode := make(map[uuid.UUID]*model.Assignment)
	for _, a := range result.Set.Assignments {
		byCode[a.CourseID] = a
	}
	a1, a2 := byCode[c1ID], byCode[c2ID]
	require.NotNil(t, a1)
	require.NotNil(t, a2)

	assert.Equal(t, model.TimeSlot{Day: model.Monday, Start: "09:00", End: "10:00"}, a1.Slot,
		"C1 应安排在周一第一节")
	assert.Equal(t, model.TimeSlot{Day: model.Monday, Start: "10:00", End: "11:00"}, a2.Slot,
		"C2 应顺延到下一个可行时段")
	assert.Equal(t, facultyID, a1.FacultyID)
	assert.Equal(t, roomID, a2.RoomID)
}

func TestGenerateRestrictedAvailabilityUnplaced(t *testing.T) {
	s := New(model.DefaultGrid())
	result, err := s.Generate(context.Background(), scenarioCatalog("09:00", "10:00"), nil)
	require.NoError(t, err)

	require.Len(t, result.Set.Assignments, 1, "只有一个可行时段时只能安排一门课")
	assert.Equal(t, model.TimeSlot{Day: model.Monday, Start: "09:00", End: "10:00"},
		result.Set.Assignments[0].Slot)

	require.Len(t, result.Unplaced, 1)
	assert.Equal(t, "C2", result.Unplaced[0].CourseCode)
	assert.NotEmpty(t, result.Unplaced[0].Reason)
	assert.Empty(t, result.Set.Conflicts, "无法安排不等于冲突")
}

func TestGenerateDeterministic(t *testing.T) {
	s := New(model.DefaultGrid())

	first, err := s.Generate(context.Background(), scenarioCatalog("09:00", "12:00"), nil)
	require.NoError(t, err)
	second, err := s.Generate(context.Background(), scenarioCatalog("09:00", "12:00"), nil)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first.Set)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second.Set)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON, "相同输入必须产生逐字节相同的结果")
	assert.Equal(t, first.OptimizationScore, second.OptimizationScore)
}

func TestGeneratePinnedCollision(t *testing.T) {
	catalog := scenarioCatalog("09:00", "12:00")
	slot := model.TimeSlot{Day: model.Monday, Start: "09:00", End: "10:00"}
	prev := []*model.Assignment{
		{ID: model.NewAssignmentID(c1ID, model.KindTheory, 0), CourseID: c1ID,
			FacultyID: facultyID, RoomID: roomID, Slot: slot,
			Program: "B.Ed.", Semester: 1, Kind: model.KindTheory, Pinned: true},
		{ID: model.NewAssignmentID(c2ID, model.KindTheory, 0), CourseID: c2ID,
			FacultyID: facultyID, RoomID: roomID, Slot: slot,
			Program: "B.Ed.", Semester: 1, Kind: model.KindTheory, Pinned: true},
	}

	s := New(model.DefaultGrid())
	result, err := s.Generate(context.Background(), catalog, prev)
	require.NoError(t, err)

	require.Len(t, result.Set.Assignments, 2, "固定分配必须保持不动")
	for _, a := range result.Set.Assignments {
		assert.True(t, a.Slot.Equal(slot))
	}

	var found bool
	for _, c := range result.Set.Conflicts {
		if c.Type == model.ConflictFacultyDoubleBooking {
			found = true
			assert.Equal(t, model.SeverityHigh, c.Severity)
		}
	}
	assert.True(t, found, "强行重叠的固定分配应报教师时间冲突")
}

func TestGeneratePinnedKeptOnRegenerate(t *testing.T) {
	catalog := scenarioCatalog("09:00", "12:00")
	s := New(model.DefaultGrid())

	first, err := s.Generate(context.Background(), catalog, nil)
	require.NoError(t, err)

	// 把 C1 手工挪到 11:00 并固定，重排时必须原样保留
	var moved *model.Assignment
	for _, a := range first.Set.Assignments {
		if a.CourseID == c1ID {
			moved = a.Clone()
		}
	}
	require.NotNil(t, moved)
	moved.Slot = model.TimeSlot{Day: model.Monday, Start: "11:00", End: "12:00"}
	moved.Pinned = true

	second, err := s.Generate(context.Background(), catalog, []*model.Assignment{moved})
	require.NoError(t, err)

	kept := second.Set.FindAssignment(moved.ID)
	require.NotNil(t, kept)
	assert.True(t, kept.Slot.Equal(moved.Slot), "重排不得移动固定分配")
	assert.Equal(t, 1, second.Statistics.Pinned)
	assert.Empty(t, second.Set.Conflicts)
}

func TestGenerateNoDoubleBookingProperty(t *testing.T) {
	// 放开可用时间，安排多门多时段课程后不应出现任何资源重叠
	catalog := scenarioCatalog("09:00", "17:00")
	catalog.Courses[0].TheoryHours = 3
	catalog.Courses[1].TheoryHours = 2

	s := New(model.DefaultGrid())
	result, err := s.Generate(context.Background(), catalog, nil)
	require.NoError(t, err)
	require.Len(t, result.Set.Assignments, 5)
	assert.Empty(t, result.Unplaced)

	for i, a := range result.Set.Assignments {
		for _, b := range result.Set.Assignments[i+1:] {
			if !a.Slot.Overlaps(b.Slot) {
				continue
			}
			assert.NotEqual(t, a.FacultyID, b.FacultyID, "教师不得被重复占用")
			assert.NotEqual(t, a.RoomID, b.RoomID, "教室不得被重复占用")
		}
	}
}

func TestGenerateCapacityConflictOnPinnedOverflow(t *testing.T) {
	catalog := scenarioCatalog("09:00", "12:00")
	catalog.Rooms[0].Capacity = 30 // 选课40人，超员33%

	slot := model.TimeSlot{Day: model.Monday, Start: "09:00", End: "10:00"}
	prev := []*model.Assignment{
		{ID: model.NewAssignmentID(c1ID, model.KindTheory, 0), CourseID: c1ID,
			FacultyID: facultyID, RoomID: roomID, Slot: slot,
			Program: "B.Ed.", Semester: 1, Kind: model.KindTheory, Pinned: true},
	}

	s := New(model.DefaultGrid())
	result, err := s.Generate(context.Background(), catalog, prev)
	require.NoError(t, err)

	var found bool
	for _, c := range result.Set.Conflicts {
		if c.Type == model.ConflictCapacityExceeded {
			found = true
			assert.Equal(t, model.SeverityHigh, c.Severity)
		}
	}
	assert.True(t, found, "超员的固定分配应报容量冲突")
}

func TestGenerateInvalidCatalog(t *testing.T) {
	catalog := scenarioCatalog("09:00", "12:00")
	catalog.Rooms[0].Capacity = -1

	s := New(model.DefaultGrid())
	_, err := s.Generate(context.Background(), catalog, nil)
	require.Error(t, err, "目录非法时应在排课前拒绝")
}

func TestGenerateMostConstrainedFirst(t *testing.T) {
	// C2 只能由只有一个空闲时段的教师讲授，必须先于 C1 安排
	catalog := scenarioCatalog("09:00", "17:00")
	limitedID := uuid.MustParse("40000000-0000-0000-0000-000000000012")
	catalog.Faculty = append(catalog.Faculty, &model.Faculty{
		BaseModel: model.BaseModel{ID: limitedID}, Name: "Rahul Verma",
		Availability: []model.TimeSlot{
			{Day: model.Monday, Start: "09:00", End: "10:00"},
		},
		MaxHoursPerDay: 6, MaxConsecutiveHours: 3,
		Subjects: []string{"C2"},
	})
	catalog.Courses[1].Enrolled = 40

	// C2 只有 Rahul 够资格
	catalog.Faculty[0].Subjects = []string{"C1"}

	s := New(model.DefaultGrid())
	result, err := s.Generate(context.Background(), catalog, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Unplaced)

	a2 := result.Set.FindAssignment(model.NewAssignmentID(c2ID, model.KindTheory, 0))
	require.NotNil(t, a2)
	assert.Equal(t, limitedID, a2.FacultyID)
	assert.Equal(t, "09:00", a2.Slot.Start, "受限请求应拿到唯一可行时段")
}

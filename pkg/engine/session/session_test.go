package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paike/paike/pkg/engine/detector"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/model"
)

var (
	c1ID      = uuid.MustParse("60000000-0000-0000-0000-000000000001")
	c2ID      = uuid.MustParse("60000000-0000-0000-0000-000000000002")
	c3ID      = uuid.MustParse("60000000-0000-0000-0000-000000000003")
	priyaID   = uuid.MustParse("60000000-0000-0000-0000-000000000011")
	rahulID   = uuid.MustParse("60000000-0000-0000-0000-000000000012")
	room101ID = uuid.MustParse("60000000-0000-0000-0000-000000000021")
	room102ID = uuid.MustParse("60000000-0000-0000-0000-000000000022")
)

func editCatalog() *model.Catalog {
	avail := []model.TimeSlot{
		{Day: model.Monday, Start: "09:00", End: "17:00"},
		{Day: model.Tuesday, Start: "09:00", End: "17:00"},
	}
	return &model.Catalog{
		Courses: []*model.Course{
			{BaseModel: model.BaseModel{ID: c1ID}, Code: "C1", Title: "课程一",
				Credits: 3, TheoryHours: 1, Program: "B.Ed.", Semester: 1,
				Type: model.CourseCore, Enrolled: 30},
			{BaseModel: model.BaseModel{ID: c2ID}, Code: "C2", Title: "课程二",
				Credits: 3, TheoryHours: 1, Program: "B.Ed.", Semester: 1,
				Type: model.CourseCore, Enrolled: 30},
			{BaseModel: model.BaseModel{ID: c3ID}, Code: "C3", Title: "课程三",
				Credits: 3, TheoryHours: 1, Program: "B.Ed.", Semester: 1,
				Type: model.CourseCore, Enrolled: 30},
		},
		Faculty: []*model.Faculty{
			{BaseModel: model.BaseModel{ID: priyaID}, Name: "Priya Sharma",
				Availability: avail, MaxHoursPerDay: 6, MaxConsecutiveHours: 3},
			{BaseModel: model.BaseModel{ID: rahulID}, Name: "Rahul Verma",
				Availability: avail, MaxHoursPerDay: 6, MaxConsecutiveHours: 3},
		},
		Rooms: []*model.Room{
			{BaseModel: model.BaseModel{ID: room101ID}, Name: "Room 101",
				Capacity: 40, Type: model.RoomClassroom},
			{BaseModel: model.BaseModel{ID: room102ID}, Name: "Room 102",
				Capacity: 40, Type: model.RoomClassroom},
		},
	}
}

func assignment(courseID, facultyID, roomID uuid.UUID, day model.Day, start, end string) *model.Assignment {
	return &model.Assignment{
		ID:        model.NewAssignmentID(courseID, model.KindTheory, 0),
		CourseID:  courseID,
		FacultyID: facultyID,
		RoomID:    roomID,
		Slot:      model.TimeSlot{Day: day, Start: start, End: end},
		Program:   "B.Ed.",
		Semester:  1,
		Kind:      model.KindTheory,
	}
}

// cleanSet 三条互不冲突的分配
func cleanSet(catalog *model.Catalog) *model.TimetableSet {
	set := &model.TimetableSet{
		Version: 1,
		Assignments: []*model.Assignment{
			assignment(c1ID, priyaID, room101ID, model.Monday, "09:00", "10:00"),
			assignment(c2ID, rahulID, room102ID, model.Monday, "09:00", "10:00"),
			assignment(c3ID, rahulID, room102ID, model.Tuesday, "09:00", "10:00"),
		},
	}
	set.Conflicts = detector.NewDetector(catalog).Detect(set.Assignments)
	return set
}

func TestApplyEditStaleVersion(t *testing.T) {
	catalog := editCatalog()
	set := cleanSet(catalog)
	v := New(catalog)

	moved := set.Assignments[0].Clone()
	_, _, err := v.ApplyEdit(set, Edit{BaseVersion: 99, Assignment: moved})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeStaleEdit), "版本不匹配应返回 STALE_EDIT")
}

func TestApplyEditMoveCreatesConflict(t *testing.T) {
	catalog := editCatalog()
	set := cleanSet(catalog)
	require.Empty(t, set.Conflicts)
	v := New(catalog)

	// 把 C1 拖到 Rahul 的教室同一时段
	moved := set.Assignments[0].Clone()
	moved.RoomID = room102ID

	newSet, delta, err := v.ApplyEdit(set, Edit{BaseVersion: 1, Assignment: moved})
	require.NoError(t, err)

	assert.Equal(t, int64(2), newSet.Version)
	assert.Empty(t, delta.Removed)
	require.Len(t, delta.Added, 1)
	assert.Equal(t, model.ConflictRoomDoubleBooking, delta.Added[0].Type)
	assert.Len(t, newSet.Conflicts, 1, "增量应已合并进新结果集")

	// 原集合保持不变
	assert.Equal(t, int64(1), set.Version)
	assert.Empty(t, set.Conflicts)
}

func TestApplyEditMoveResolvesConflict(t *testing.T) {
	catalog := editCatalog()
	set := cleanSet(catalog)
	v := New(catalog)

	// 先制造冲突
	moved := set.Assignments[0].Clone()
	moved.RoomID = room102ID
	conflicted, _, err := v.ApplyEdit(set, Edit{BaseVersion: 1, Assignment: moved})
	require.NoError(t, err)
	require.Len(t, conflicted.Conflicts, 1)

	// 再挪回去消除冲突
	back := moved.Clone()
	back.RoomID = room101ID
	resolved, delta, err := v.ApplyEdit(conflicted, Edit{BaseVersion: 2, Assignment: back})
	require.NoError(t, err)

	assert.Empty(t, delta.Added)
	require.Len(t, delta.Removed, 1)
	assert.Equal(t, model.ConflictRoomDoubleBooking, delta.Removed[0].Type)
	assert.Empty(t, resolved.Conflicts)
	assert.Equal(t, int64(3), resolved.Version)
}

func TestApplyEditRemoveAssignment(t *testing.T) {
	catalog := editCatalog()
	set := cleanSet(catalog)
	v := New(catalog)

	// 制造冲突后移除肇事分配
	moved := set.Assignments[0].Clone()
	moved.RoomID = room102ID
	conflicted, _, err := v.ApplyEdit(set, Edit{BaseVersion: 1, Assignment: moved})
	require.NoError(t, err)

	newSet, delta, err := v.ApplyEdit(conflicted, Edit{BaseVersion: 2, RemoveID: moved.ID})
	require.NoError(t, err)

	assert.Nil(t, newSet.FindAssignment(moved.ID))
	require.Len(t, delta.Removed, 1)
	assert.Empty(t, newSet.Conflicts)
}

func TestApplyEditRemoveMissing(t *testing.T) {
	catalog := editCatalog()
	set := cleanSet(catalog)
	v := New(catalog)

	_, _, err := v.ApplyEdit(set, Edit{BaseVersion: 1, RemoveID: uuid.MustParse("60000000-0000-0000-0000-0000000000ff")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestApplyEditPreservesUntouchedConflicts(t *testing.T) {
	catalog := editCatalog()
	set := cleanSet(catalog)
	v := New(catalog)

	// 周一制造一个冲突
	moved := set.Assignments[0].Clone()
	moved.RoomID = room102ID
	conflicted, _, err := v.ApplyEdit(set, Edit{BaseVersion: 1, Assignment: moved})
	require.NoError(t, err)
	require.Len(t, conflicted.Conflicts, 1)
	mondayConflict := conflicted.Conflicts[0]

	// 编辑周二的分配不应影响周一的冲突
	tueMoved := conflicted.FindAssignment(model.NewAssignmentID(c3ID, model.KindTheory, 0)).Clone()
	tueMoved.Slot = model.TimeSlot{Day: model.Tuesday, Start: "10:00", End: "11:00"}

	newSet, delta, err := v.ApplyEdit(conflicted, Edit{BaseVersion: 2, Assignment: tueMoved})
	require.NoError(t, err)

	assert.Empty(t, delta.Added)
	assert.Empty(t, delta.Removed)
	require.Len(t, newSet.Conflicts, 1)
	assert.Equal(t, mondayConflict.ID, newSet.Conflicts[0].ID)
}

package stats

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paike/paike/pkg/model"
)

var (
	f1ID = uuid.MustParse("a0000000-0000-0000-0000-000000000001")
	f2ID = uuid.MustParse("a0000000-0000-0000-0000-000000000002")
	f3ID = uuid.MustParse("a0000000-0000-0000-0000-000000000003")
	r1ID = uuid.MustParse("a0000000-0000-0000-0000-000000000011")
	r2ID = uuid.MustParse("a0000000-0000-0000-0000-000000000012")
	cID  = uuid.MustParse("a0000000-0000-0000-0000-000000000021")
)

func statFaculty() []*model.Faculty {
	return []*model.Faculty{
		{BaseModel: model.BaseModel{ID: f1ID}, Name: "Priya Sharma"},
		{BaseModel: model.BaseModel{ID: f2ID}, Name: "Rahul Verma"},
		{BaseModel: model.BaseModel{ID: f3ID}, Name: "Anjali Gupta"},
	}
}

func statAssignment(facultyID, roomID uuid.UUID, day model.Day, start, end string) *model.Assignment {
	return &model.Assignment{
		ID:        uuid.New(),
		CourseID:  cID,
		FacultyID: facultyID,
		RoomID:    roomID,
		Slot:      model.TimeSlot{Day: day, Start: start, End: end},
		Kind:      model.KindTheory,
	}
}

func TestWorkloadEvenDistribution(t *testing.T) {
	assignments := []*model.Assignment{
		statAssignment(f1ID, r1ID, model.Monday, "09:00", "11:00"),
		statAssignment(f2ID, r1ID, model.Tuesday, "09:00", "11:00"),
		statAssignment(f3ID, r1ID, model.Wednesday, "09:00", "11:00"),
	}

	m := NewWorkloadAnalyzer().Analyze(assignments, statFaculty())

	assert.InDelta(t, 2.0, m.AvgHoursPerFaculty, 0.001)
	assert.InDelta(t, 0.0, m.StdDev, 0.001)
	assert.InDelta(t, 0.0, m.Gini, 0.001)
	assert.InDelta(t, 1.0, m.BalanceScore, 0.001)
	assert.InDelta(t, 0.0, m.HoursRange, 0.001)
}

func TestWorkloadSkewedDistribution(t *testing.T) {
	// 全部课时压在一位教师身上
	assignments := []*model.Assignment{
		statAssignment(f1ID, r1ID, model.Monday, "09:00", "12:00"),
		statAssignment(f1ID, r1ID, model.Tuesday, "09:00", "12:00"),
	}

	m := NewWorkloadAnalyzer().Analyze(assignments, statFaculty())

	assert.InDelta(t, 2.0, m.AvgHoursPerFaculty, 0.001)
	assert.Equal(t, 6.0, m.MaxHours)
	assert.Equal(t, 0.0, m.MinHours)
	assert.Greater(t, m.Gini, 0.5)
	assert.Less(t, m.BalanceScore, 0.5)
}

func TestWorkloadPerFacultyStats(t *testing.T) {
	assignments := []*model.Assignment{
		statAssignment(f1ID, r1ID, model.Monday, "09:00", "10:00"),
		statAssignment(f1ID, r1ID, model.Monday, "10:00", "11:00"),
		statAssignment(f2ID, r1ID, model.Tuesday, "09:00", "10:00"),
	}

	m := NewWorkloadAnalyzer().Analyze(assignments, statFaculty())

	require.Len(t, m.FacultyStats, 3)
	// 顺序按教师ID稳定排列
	assert.Equal(t, f1ID, m.FacultyStats[0].FacultyID)
	assert.Equal(t, 2.0, m.FacultyStats[0].TotalHours)
	assert.Equal(t, 2, m.FacultyStats[0].BlockCount)
	assert.Equal(t, 1, m.FacultyStats[0].CourseCount)
	assert.Equal(t, 0.0, m.FacultyStats[2].TotalHours)
}

func TestWorkloadSkipsInactiveFaculty(t *testing.T) {
	faculty := statFaculty()
	faculty[2].Status = model.FacultyOnLeave

	m := NewWorkloadAnalyzer().Analyze(nil, faculty)
	assert.Len(t, m.FacultyStats, 2)
}

func TestWorkloadEmptyInput(t *testing.T) {
	m := NewWorkloadAnalyzer().Analyze(nil, nil)
	assert.Equal(t, 1.0, m.BalanceScore)
	assert.Empty(t, m.FacultyStats)
}

func TestUtilizationCountsPhysicalRoomsOnly(t *testing.T) {
	rooms := []*model.Room{
		{BaseModel: model.BaseModel{ID: r1ID}, Name: "Room 101", Capacity: 40, Type: model.RoomClassroom},
		{BaseModel: model.BaseModel{ID: r2ID}, Name: "投影仪", Capacity: 1, Type: model.RoomClassroom, Virtual: true},
	}
	// 网格每周 6天 × 8小时 = 48 小时，占用 12 小时 → 25%
	assignments := []*model.Assignment{
		statAssignment(f1ID, r1ID, model.Monday, "09:00", "17:00"),
		statAssignment(f2ID, r1ID, model.Tuesday, "09:00", "13:00"),
	}

	m := NewUtilizationAnalyzer(model.DefaultGrid()).Analyze(assignments, rooms)

	require.Len(t, m.RoomStats, 1, "虚拟教室不计入")
	assert.InDelta(t, 0.25, m.RoomStats[0].Utilization, 0.001)
	assert.InDelta(t, 0.25, m.AvgUtilization, 0.001)
	assert.Equal(t, model.Monday, m.RoomStats[0].PeakDay)
}

func TestUtilizationIdleRoom(t *testing.T) {
	rooms := []*model.Room{
		{BaseModel: model.BaseModel{ID: r1ID}, Name: "Room 101", Capacity: 40, Type: model.RoomClassroom},
		{BaseModel: model.BaseModel{ID: r2ID}, Name: "Lab A", Capacity: 30, Type: model.RoomLab},
	}
	assignments := []*model.Assignment{
		statAssignment(f1ID, r1ID, model.Monday, "09:00", "10:00"),
	}

	m := NewUtilizationAnalyzer(model.DefaultGrid()).Analyze(assignments, rooms)

	require.Len(t, m.RoomStats, 2)
	assert.Equal(t, 0.0, m.RoomStats[1].UsedHours)
	assert.Greater(t, m.RoomStats[0].Utilization, m.RoomStats[1].Utilization)
}

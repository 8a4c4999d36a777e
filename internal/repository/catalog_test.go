package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paike/paike/pkg/model"
)

var (
	courseID  = uuid.MustParse("b0000000-0000-0000-0000-000000000001")
	prereqID  = uuid.MustParse("b0000000-0000-0000-0000-000000000002")
	teacherID = uuid.MustParse("b0000000-0000-0000-0000-000000000011")
	roomID    = uuid.MustParse("b0000000-0000-0000-0000-000000000021")
)

func newRepoMock(t *testing.T) (DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return db, mock, func() { db.Close() }
}

func courseColumns() []string {
	return []string{"id", "code", "title", "credits", "theory_hours", "practical_hours",
		"program", "semester", "type", "prerequisites", "enrolled", "status",
		"created_at", "updated_at"}
}

func facultyColumns() []string {
	return []string{"id", "name", "availability", "max_hours_per_day", "max_consecutive_hours",
		"subjects", "status", "created_at", "updated_at"}
}

func roomColumns() []string {
	return []string{"id", "name", "capacity", "type", "virtual", "created_at", "updated_at"}
}

func TestLoadCatalogAssemblesAllParts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	now := time.Now()
	prereqJSON, _ := json.Marshal([]uuid.UUID{prereqID})
	availJSON, _ := json.Marshal([]model.TimeSlot{{Day: model.Monday, Start: "09:00", End: "17:00"}})
	subjectsJSON, _ := json.Marshal([]string{"EDU301"})
	paramsJSON, _ := json.Marshal(map[string]interface{}{"max_hours": 5})

	// 课程：计数 + 列表（带 program/semester 过滤）
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses")).
		WithArgs("B.Ed.", 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM courses").
		WithArgs("B.Ed.", 1, 10000, 0).
		WillReturnRows(sqlmock.NewRows(courseColumns()).
			AddRow(courseID, "EDU301", "教育心理学", 4, 2.0, 1.0,
				"B.Ed.", 1, "core", prereqJSON, 35, "active", now, now))

	// 教师：计数 + 列表
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM faculty")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM faculty").
		WithArgs(10000, 0).
		WillReturnRows(sqlmock.NewRows(facultyColumns()).
			AddRow(teacherID, "Priya Sharma", availJSON, 6, 3, subjectsJSON, "active", now, now))

	// 教室：计数 + 列表
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM rooms")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM rooms").
		WithArgs(10000, 0).
		WillReturnRows(sqlmock.NewRows(roomColumns()).
			AddRow(roomID, "Room 101", 40, "classroom", false, now, now))

	// 约束配置
	mock.ExpectQuery("FROM constraint_specs").
		WillReturnRows(sqlmock.NewRows([]string{"type", "kind", "weight", "enabled", "params"}).
			AddRow("max_hours_per_day", "hard", 0, true, paramsJSON))

	catalog, err := repo.LoadCatalog(context.Background(), "B.Ed.", 1)
	require.NoError(t, err)

	require.Len(t, catalog.Courses, 1)
	assert.Equal(t, "EDU301", catalog.Courses[0].Code)
	assert.Equal(t, []uuid.UUID{prereqID}, catalog.Courses[0].Prerequisites)

	require.Len(t, catalog.Faculty, 1)
	assert.Equal(t, "Priya Sharma", catalog.Faculty[0].Name)
	require.Len(t, catalog.Faculty[0].Availability, 1)
	assert.Equal(t, model.Monday, catalog.Faculty[0].Availability[0].Day)
	assert.Equal(t, []string{"EDU301"}, catalog.Faculty[0].Subjects)

	require.Len(t, catalog.Rooms, 1)
	assert.Equal(t, 40, catalog.Rooms[0].Capacity)

	require.Len(t, catalog.Constraints, 1)
	assert.Equal(t, "max_hours_per_day", catalog.Constraints[0].Type)
	assert.Equal(t, 5, catalog.Constraints[0].ParamInt("max_hours", 0))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadCatalogWithoutFilterSkipsProgramArgs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("FROM courses").
		WithArgs(10000, 0).
		WillReturnRows(sqlmock.NewRows(courseColumns()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM faculty")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("FROM faculty").
		WillReturnRows(sqlmock.NewRows(facultyColumns()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM rooms")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("FROM rooms").
		WillReturnRows(sqlmock.NewRows(roomColumns()))
	mock.ExpectQuery("FROM constraint_specs").
		WillReturnRows(sqlmock.NewRows([]string{"type", "kind", "weight", "enabled", "params"}))

	catalog, err := repo.LoadCatalog(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, catalog.Courses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseListSearchFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses")).
		WithArgs("%心理%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("code ILIKE").
		WithArgs("%心理%", 20, 0).
		WillReturnRows(sqlmock.NewRows(courseColumns()).
			AddRow(courseID, "EDU301", "教育心理学", 4, 2.0, 1.0,
				"B.Ed.", 1, "core", []byte("[]"), 35, "active", time.Now(), time.Now()))

	filter := DefaultListFilter()
	filter.Search = "心理"
	courses, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, courses, 1)
	assert.Equal(t, "教育心理学", courses[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveConstraintUpserts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCatalogRepository(db)

	mock.ExpectExec("INSERT INTO constraint_specs").
		WithArgs("workload_balance", "soft", 15, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveConstraint(context.Background(), &model.Constraint{
		Type: "workload_balance", Kind: model.ConstraintSoft, Weight: 15, Enabled: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

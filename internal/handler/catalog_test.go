package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paike/paike/internal/repository"
	"github.com/paike/paike/pkg/model"
)

// expectCatalogLoad 按 LoadCatalog 的查询顺序给出一份单课程目录
func expectCatalogLoad(mock sqlmock.Sqlmock, program string, semester int) {
	now := time.Now()
	availJSON, _ := json.Marshal([]model.TimeSlot{
		{Day: model.Monday, Start: "09:00", End: "17:00"},
		{Day: model.Tuesday, Start: "09:00", End: "17:00"},
	})

	courseCols := []string{"id", "code", "title", "credits", "theory_hours", "practical_hours",
		"program", "semester", "type", "prerequisites", "enrolled", "status",
		"created_at", "updated_at"}
	facultyCols := []string{"id", "name", "availability", "max_hours_per_day", "max_consecutive_hours",
		"subjects", "status", "created_at", "updated_at"}
	roomCols := []string{"id", "name", "capacity", "type", "virtual", "created_at", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM courses").
		WillReturnRows(sqlmock.NewRows(courseCols).
			AddRow(mathID, "MAT101", "数学教学法", 3, 1.0, 0.0,
				program, semester, "core", []byte("[]"), 30, "active", now, now))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM faculty")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM faculty").
		WillReturnRows(sqlmock.NewRows(facultyCols).
			AddRow(priyaID, "Priya Sharma", availJSON, 6, 3, []byte("[]"), "active", now, now))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM rooms")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM rooms").
		WillReturnRows(sqlmock.NewRows(roomCols).
			AddRow(room101ID, "Room 101", 40, "classroom", false, now, now))

	mock.ExpectQuery("FROM constraint_specs").
		WillReturnRows(sqlmock.NewRows([]string{"type", "kind", "weight", "enabled", "params"}))
}

func newCatalogBackedHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	h := newTestHandler().WithCatalogSource(repository.NewCatalogRepository(db))
	return h, mock, func() { db.Close() }
}

func TestCatalogEndpointLoadsFromStore(t *testing.T) {
	h, mock, cleanup := newCatalogBackedHandler(t)
	defer cleanup()
	expectCatalogLoad(mock, "B.Ed.", 1)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog?program=B.Ed.&semester=1", nil)
	rec := httptest.NewRecorder()
	h.Catalog(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp CatalogResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.CourseCount)
	assert.Equal(t, 1, resp.FacultyCount)
	assert.Equal(t, 1, resp.RoomCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogEndpointDisabledWithoutSource(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	rec := httptest.NewRecorder()
	h.Catalog(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGenerateLoadsCatalogFromSource(t *testing.T) {
	h, mock, cleanup := newCatalogBackedHandler(t)
	defer cleanup()
	expectCatalogLoad(mock, "B.Ed.", 1)

	// 请求不携带目录，只给 program/semester
	var resp GenerateResponse
	status := postJSON(t, h.Generate, GenerateRequest{Program: "B.Ed.", Semester: 1}, &resp)

	require.Equal(t, http.StatusOK, status)
	require.Len(t, resp.Assignments, 1)
	assert.Equal(t, mathID, resp.Assignments[0].CourseID)
	assert.Empty(t, resp.Unplaced)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDetectLoadsCatalogFromSource(t *testing.T) {
	h, mock, cleanup := newCatalogBackedHandler(t)
	defer cleanup()
	expectCatalogLoad(mock, "B.Ed.", 1)

	assignments := []*model.Assignment{
		testAssignment(mathID, priyaID, room101ID, model.Monday, "09:00", "10:00"),
	}

	var resp DetectResponse
	status := postJSON(t, h.Detect, DetectRequest{
		Program: "B.Ed.", Semester: 1, Assignments: assignments,
	}, &resp)

	require.Equal(t, http.StatusOK, status)
	assert.Zero(t, resp.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateWithoutCatalogOrSourceRejected(t *testing.T) {
	h := newTestHandler()

	status := postJSON(t, h.Generate, GenerateRequest{Program: "B.Ed.", Semester: 1}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

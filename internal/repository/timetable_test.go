package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paike/paike/internal/database"
	"github.com/paike/paike/pkg/model"
)

func TestPublishRunsInTransaction(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()

	// 带事务支持的连接封装：归档和发布在同一事务里
	repo := NewTimetableRepository(&database.DB{DB: raw})

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'archived'")).
		WithArgs("B.Ed.", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'published'")).
		WithArgs("B.Ed.", 1, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Publish(context.Background(), "B.Ed.", 1, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishUnknownVersionRollsBack(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()

	repo := NewTimetableRepository(&database.DB{DB: raw})

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'archived'")).
		WithArgs("B.Ed.", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'published'")).
		WithArgs("B.Ed.", 1, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.Publish(context.Background(), "B.Ed.", 1, 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "99")
	assert.NoError(t, mock.ExpectationsWereMet(), "发布失败应回滚归档语句")
}

func TestPublishWithoutTxSupportFallsBack(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()

	// 裸 *sql.DB 不实现 TxRunner，退化为顺序执行
	repo := NewTimetableRepository(raw)

	mock.ExpectExec(regexp.QuoteMeta("SET status = 'archived'")).
		WithArgs("B.Ed.", 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'published'")).
		WithArgs("B.Ed.", 1, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Publish(context.Background(), "B.Ed.", 1, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSerializesWholeSet(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()

	repo := NewTimetableRepository(raw)

	set := &model.TimetableSet{Version: 4}
	mock.ExpectExec("INSERT INTO timetables").
		WithArgs(sqlmock.AnyArg(), "B.Ed.", 1, int64(4), "draft",
			0.9, 2, 0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	record, err := repo.Save(context.Background(), "B.Ed.", 1, set, 0.9, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), record.Version)
	assert.Equal(t, "draft", record.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paike/paike/pkg/model"
)

// TimetableRecord 课表存档记录
// 引擎输出的结果集按版本追加保存，编辑产生新版本而不覆盖旧版本
type TimetableRecord struct {
	ID                uuid.UUID `json:"id"`
	Program           string    `json:"program"`
	Semester          int       `json:"semester"`
	Version           int64     `json:"version"`
	Status            string    `json:"status"` // draft/published/archived
	OptimizationScore float64   `json:"optimization_score"`
	UnplacedCount     int       `json:"unplaced_count"`
	ConflictCount     int       `json:"conflict_count"`
	CreatedAt         time.Time `json:"created_at"`
}

// TimetableRepository 课表仓储
type TimetableRepository struct {
	db DB
}

// NewTimetableRepository 创建课表仓储
func NewTimetableRepository(db DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// Save 保存一个版本的课表
// 同一 (program, semester, version) 只能保存一次
func (r *TimetableRepository) Save(ctx context.Context, program string, semester int,
	set *model.TimetableSet, score float64, unplaced int) (*TimetableRecord, error) {

	payload, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("序列化课表失败: %w", err)
	}

	record := &TimetableRecord{
		ID:                uuid.New(),
		Program:           program,
		Semester:          semester,
		Version:           set.Version,
		Status:            "draft",
		OptimizationScore: score,
		UnplacedCount:     unplaced,
		ConflictCount:     len(set.Conflicts),
		CreatedAt:         time.Now(),
	}

	query := `
		INSERT INTO timetables (
			id, program, semester, version, status,
			optimization_score, unplaced_count, conflict_count, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		record.ID, record.Program, record.Semester, record.Version, record.Status,
		record.OptimizationScore, record.UnplacedCount, record.ConflictCount,
		payload, record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("保存课表失败: %w", err)
	}

	return record, nil
}

// GetLatest 获取最新版本的课表
func (r *TimetableRepository) GetLatest(ctx context.Context, program string, semester int) (*model.TimetableSet, *TimetableRecord, error) {
	query := `
		SELECT id, program, semester, version, status,
			optimization_score, unplaced_count, conflict_count, payload, created_at
		FROM timetables
		WHERE program = $1 AND semester = $2
		ORDER BY version DESC
		LIMIT 1
	`

	return r.scanTimetable(r.db.QueryRowContext(ctx, query, program, semester))
}

// GetByVersion 获取指定版本的课表
func (r *TimetableRepository) GetByVersion(ctx context.Context, program string, semester int, version int64) (*model.TimetableSet, *TimetableRecord, error) {
	query := `
		SELECT id, program, semester, version, status,
			optimization_score, unplaced_count, conflict_count, payload, created_at
		FROM timetables
		WHERE program = $1 AND semester = $2 AND version = $3
	`

	return r.scanTimetable(r.db.QueryRowContext(ctx, query, program, semester, version))
}

// ListVersions 列出课表的版本历史
func (r *TimetableRepository) ListVersions(ctx context.Context, program string, semester int) ([]*TimetableRecord, error) {
	query := `
		SELECT id, program, semester, version, status,
			optimization_score, unplaced_count, conflict_count, created_at
		FROM timetables
		WHERE program = $1 AND semester = $2
		ORDER BY version DESC
	`

	rows, err := r.db.QueryContext(ctx, query, program, semester)
	if err != nil {
		return nil, fmt.Errorf("查询课表版本失败: %w", err)
	}
	defer rows.Close()

	var records []*TimetableRecord
	for rows.Next() {
		rec := &TimetableRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.Program, &rec.Semester, &rec.Version, &rec.Status,
			&rec.OptimizationScore, &rec.UnplacedCount, &rec.ConflictCount, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描课表记录失败: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// Publish 把指定版本标记为已发布，其余版本归档
// 归档和发布必须同时生效，支持事务的连接上在同一事务内执行
func (r *TimetableRepository) Publish(ctx context.Context, program string, semester int, version int64) error {
	if runner, ok := r.db.(TxRunner); ok {
		return runner.Transaction(ctx, func(tx *sql.Tx) error {
			return r.publish(ctx, tx, program, semester, version)
		})
	}
	return r.publish(ctx, r.db, program, semester, version)
}

// publish 在给定的执行器（连接或事务）上完成归档加发布
func (r *TimetableRepository) publish(ctx context.Context, db DB, program string, semester int, version int64) error {
	_, err := db.ExecContext(ctx, `
		UPDATE timetables SET status = 'archived'
		WHERE program = $1 AND semester = $2 AND status = 'published'
	`, program, semester)
	if err != nil {
		return fmt.Errorf("归档旧课表失败: %w", err)
	}

	result, err := db.ExecContext(ctx, `
		UPDATE timetables SET status = 'published'
		WHERE program = $1 AND semester = $2 AND version = $3
	`, program, semester, version)
	if err != nil {
		return fmt.Errorf("发布课表失败: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("课表版本 %d 不存在", version)
	}

	return nil
}

// scanTimetable 扫描单行课表
func (r *TimetableRepository) scanTimetable(row *sql.Row) (*model.TimetableSet, *TimetableRecord, error) {
	rec := &TimetableRecord{}
	var payload []byte

	err := row.Scan(
		&rec.ID, &rec.Program, &rec.Semester, &rec.Version, &rec.Status,
		&rec.OptimizationScore, &rec.UnplacedCount, &rec.ConflictCount,
		&payload, &rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("扫描课表失败: %w", err)
	}

	set := &model.TimetableSet{}
	if err := json.Unmarshal(payload, set); err != nil {
		return nil, nil, fmt.Errorf("解析课表失败: %w", err)
	}

	return set, rec, nil
}

// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paike/paike/pkg/model"
)

// FacultyRepository 教师仓储
type FacultyRepository struct {
	db DB
}

// NewFacultyRepository 创建教师仓储
func NewFacultyRepository(db DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// Create 创建教师
func (r *FacultyRepository) Create(ctx context.Context, faculty *model.Faculty) error {
	if faculty.ID == uuid.Nil {
		faculty.ID = uuid.New()
	}
	now := time.Now()
	faculty.CreatedAt = now
	faculty.UpdatedAt = now

	availJSON, _ := json.Marshal(faculty.Availability)
	subjectsJSON, _ := json.Marshal(faculty.Subjects)

	query := `
		INSERT INTO faculty (
			id, name, availability, max_hours_per_day, max_consecutive_hours,
			subjects, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		faculty.ID, faculty.Name, availJSON, faculty.MaxHoursPerDay, faculty.MaxConsecutiveHours,
		subjectsJSON, faculty.Status, faculty.CreatedAt, faculty.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建教师失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取教师
func (r *FacultyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Faculty, error) {
	query := `
		SELECT id, name, availability, max_hours_per_day, max_consecutive_hours,
			subjects, status, created_at, updated_at
		FROM faculty
		WHERE id = $1 AND deleted_at IS NULL
	`

	return scanFaculty(r.db.QueryRowContext(ctx, query, id))
}

// Update 更新教师
func (r *FacultyRepository) Update(ctx context.Context, faculty *model.Faculty) error {
	faculty.UpdatedAt = time.Now()
	availJSON, _ := json.Marshal(faculty.Availability)
	subjectsJSON, _ := json.Marshal(faculty.Subjects)

	query := `
		UPDATE faculty SET
			name = $2, availability = $3, max_hours_per_day = $4,
			max_consecutive_hours = $5, subjects = $6, status = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query,
		faculty.ID, faculty.Name, availJSON, faculty.MaxHoursPerDay,
		faculty.MaxConsecutiveHours, subjectsJSON, faculty.Status, faculty.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新教师失败: %w", err)
	}

	return nil
}

// Delete 软删除教师
func (r *FacultyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE faculty SET deleted_at = $2 WHERE id = $1", id, time.Now())
	if err != nil {
		return fmt.Errorf("删除教师失败: %w", err)
	}
	return nil
}

// List 列出教师
func (r *FacultyRepository) List(ctx context.Context, filter ListFilter) ([]*model.Faculty, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	var args []interface{}
	argNum := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM faculty %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计教师数量失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, availability, max_hours_per_day, max_consecutive_hours,
			subjects, status, created_at, updated_at
		FROM faculty %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, filter.OrderBy, filter.OrderDir, argNum, argNum+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询教师列表失败: %w", err)
	}
	defer rows.Close()

	var list []*model.Faculty
	for rows.Next() {
		f, err := scanFacultyRow(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, f)
	}

	return list, total, nil
}

// scanFaculty 扫描单行教师
func scanFaculty(row *sql.Row) (*model.Faculty, error) {
	f := &model.Faculty{}
	var availJSON, subjectsJSON []byte

	err := row.Scan(
		&f.ID, &f.Name, &availJSON, &f.MaxHoursPerDay, &f.MaxConsecutiveHours,
		&subjectsJSON, &f.Status, &f.CreatedAt, &f.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描教师失败: %w", err)
	}

	if len(availJSON) > 0 {
		json.Unmarshal(availJSON, &f.Availability)
	}
	if len(subjectsJSON) > 0 {
		json.Unmarshal(subjectsJSON, &f.Subjects)
	}

	return f, nil
}

// scanFacultyRow 从多行结果扫描教师
func scanFacultyRow(rows Scanner) (*model.Faculty, error) {
	f := &model.Faculty{}
	var availJSON, subjectsJSON []byte

	err := rows.Scan(
		&f.ID, &f.Name, &availJSON, &f.MaxHoursPerDay, &f.MaxConsecutiveHours,
		&subjectsJSON, &f.Status, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描教师失败: %w", err)
	}

	if len(availJSON) > 0 {
		json.Unmarshal(availJSON, &f.Availability)
	}
	if len(subjectsJSON) > 0 {
		json.Unmarshal(subjectsJSON, &f.Subjects)
	}

	return f, nil
}

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

// CourseRepository 课程仓储
type CourseRepository struct {
	db DB
}

// NewCourseRepository 创建课程仓储
func NewCourseRepository(db DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create 创建课程
func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	now := time.Now()
	course.CreatedAt = now
	course.UpdatedAt = now

	prereqJSON, _ := json.Marshal(course.Prerequisites)

	query := `
		INSERT INTO courses (
			id, code, title, credits, theory_hours, practical_hours,
			program, semester, type, prerequisites, enrolled, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		course.ID, course.Code, course.Title, course.Credits, course.TheoryHours, course.PracticalHours,
		course.Program, course.Semester, course.Type, prereqJSON, course.Enrolled, course.Status,
		course.CreatedAt, course.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建课程失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取课程
func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	query := `
		SELECT id, code, title, credits, theory_hours, practical_hours,
			program, semester, type, prerequisites, enrolled, status,
			created_at, updated_at
		FROM courses
		WHERE id = $1 AND deleted_at IS NULL
	`

	return scanCourse(r.db.QueryRowContext(ctx, query, id))
}

// Update 更新课程
func (r *CourseRepository) Update(ctx context.Context, course *model.Course) error {
	course.UpdatedAt = time.Now()
	prereqJSON, _ := json.Marshal(course.Prerequisites)

	query := `
		UPDATE courses SET
			code = $2, title = $3, credits = $4, theory_hours = $5, practical_hours = $6,
			program = $7, semester = $8, type = $9, prerequisites = $10, enrolled = $11,
			status = $12, updated_at = $13
		WHERE id = $1 AND deleted_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query,
		course.ID, course.Code, course.Title, course.Credits, course.TheoryHours, course.PracticalHours,
		course.Program, course.Semester, course.Type, prereqJSON, course.Enrolled,
		course.Status, course.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新课程失败: %w", err)
	}

	return nil
}

// Delete 软删除课程
func (r *CourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE courses SET deleted_at = $2 WHERE id = $1", id, time.Now())
	if err != nil {
		return fmt.Errorf("删除课程失败: %w", err)
	}
	return nil
}

// List 列出课程
func (r *CourseRepository) List(ctx context.Context, filter ListFilter) ([]*model.Course, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	var args []interface{}
	argNum := 1

	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("program = $%d", argNum))
		args = append(args, filter.Program)
		argNum++
	}

	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", argNum))
		args = append(args, filter.Semester)
		argNum++
	}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR title ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM courses %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计课程数量失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, code, title, credits, theory_hours, practical_hours,
			program, semester, type, prerequisites, enrolled, status,
			created_at, updated_at
		FROM courses %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, filter.OrderBy, filter.OrderDir, argNum, argNum+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询课程列表失败: %w", err)
	}
	defer rows.Close()

	var courses []*model.Course
	for rows.Next() {
		c, err := scanCourseRow(rows)
		if err != nil {
			return nil, 0, err
		}
		courses = append(courses, c)
	}

	return courses, total, nil
}

// scanCourse 扫描单行课程
func scanCourse(row *sql.Row) (*model.Course, error) {
	c := &model.Course{}
	var prereqJSON []byte

	err := row.Scan(
		&c.ID, &c.Code, &c.Title, &c.Credits, &c.TheoryHours, &c.PracticalHours,
		&c.Program, &c.Semester, &c.Type, &prereqJSON, &c.Enrolled, &c.Status,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描课程失败: %w", err)
	}

	if len(prereqJSON) > 0 {
		json.Unmarshal(prereqJSON, &c.Prerequisites)
	}

	return c, nil
}

// scanCourseRow 从多行结果扫描课程
func scanCourseRow(rows Scanner) (*model.Course, error) {
	c := &model.Course{}
	var prereqJSON []byte

	err := rows.Scan(
		&c.ID, &c.Code, &c.Title, &c.Credits, &c.TheoryHours, &c.PracticalHours,
		&c.Program, &c.Semester, &c.Type, &prereqJSON, &c.Enrolled, &c.Status,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描课程失败: %w", err)
	}

	if len(prereqJSON) > 0 {
		json.Unmarshal(prereqJSON, &c.Prerequisites)
	}

	return c, nil
}

// Package repository 提供数据访问层
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paike/paike/pkg/model"
)

// CatalogRepository 目录仓储
// 把课程、教师、教室和约束配置组装为引擎输入的完整目录
type CatalogRepository struct {
	db      DB
	courses *CourseRepository
	faculty *FacultyRepository
	rooms   *RoomRepository
}

// NewCatalogRepository 创建目录仓储
func NewCatalogRepository(db DB) *CatalogRepository {
	return &CatalogRepository{
		db:      db,
		courses: NewCourseRepository(db),
		faculty: NewFacultyRepository(db),
		rooms:   NewRoomRepository(db),
	}
}

// Courses 课程仓储
func (r *CatalogRepository) Courses() *CourseRepository { return r.courses }

// Faculty 教师仓储
func (r *CatalogRepository) Faculty() *FacultyRepository { return r.faculty }

// Rooms 教室仓储
func (r *CatalogRepository) Rooms() *RoomRepository { return r.rooms }

// LoadCatalog 加载指定培养项目和学期的完整目录
// program 为空时加载全部课程
func (r *CatalogRepository) LoadCatalog(ctx context.Context, program string, semester int) (*model.Catalog, error) {
	filter := DefaultListFilter().WithLimit(10000)
	if program != "" {
		filter = filter.WithProgram(program)
	}
	if semester > 0 {
		filter = filter.WithSemester(semester)
	}

	courses, _, err := r.courses.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("加载课程失败: %w", err)
	}

	faculty, _, err := r.faculty.List(ctx, DefaultListFilter().WithLimit(10000))
	if err != nil {
		return nil, fmt.Errorf("加载教师失败: %w", err)
	}

	rooms, _, err := r.rooms.List(ctx, DefaultListFilter().WithLimit(10000))
	if err != nil {
		return nil, fmt.Errorf("加载教室失败: %w", err)
	}

	constraints, err := r.loadConstraints(ctx)
	if err != nil {
		return nil, err
	}

	return &model.Catalog{
		Courses:     courses,
		Faculty:     faculty,
		Rooms:       rooms,
		Constraints: constraints,
	}, nil
}

// loadConstraints 加载约束配置
func (r *CatalogRepository) loadConstraints(ctx context.Context) ([]*model.Constraint, error) {
	query := `
		SELECT type, kind, weight, enabled, params
		FROM constraint_specs
		ORDER BY type
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("加载约束配置失败: %w", err)
	}
	defer rows.Close()

	var constraints []*model.Constraint
	for rows.Next() {
		c := &model.Constraint{}
		var paramsJSON []byte
		if err := rows.Scan(&c.Type, &c.Kind, &c.Weight, &c.Enabled, &paramsJSON); err != nil {
			return nil, fmt.Errorf("扫描约束配置失败: %w", err)
		}
		if len(paramsJSON) > 0 {
			json.Unmarshal(paramsJSON, &c.Params)
		}
		constraints = append(constraints, c)
	}

	return constraints, nil
}

// SaveConstraint 保存约束配置
func (r *CatalogRepository) SaveConstraint(ctx context.Context, c *model.Constraint) error {
	paramsJSON, _ := json.Marshal(c.Params)

	query := `
		INSERT INTO constraint_specs (type, kind, weight, enabled, params)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (type) DO UPDATE SET
			kind = EXCLUDED.kind, weight = EXCLUDED.weight,
			enabled = EXCLUDED.enabled, params = EXCLUDED.params
	`

	_, err := r.db.ExecContext(ctx, query, c.Type, c.Kind, c.Weight, c.Enabled, paramsJSON)
	if err != nil {
		return fmt.Errorf("保存约束配置失败: %w", err)
	}

	return nil
}

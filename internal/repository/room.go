// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paike/paike/pkg/model"
)

// RoomRepository 教室仓储
type RoomRepository struct {
	db DB
}

// NewRoomRepository 创建教室仓储
func NewRoomRepository(db DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create 创建教室
func (r *RoomRepository) Create(ctx context.Context, room *model.Room) error {
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now

	query := `
		INSERT INTO rooms (id, name, capacity, type, virtual, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		room.ID, room.Name, room.Capacity, room.Type, room.Virtual,
		room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建教室失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取教室
func (r *RoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	query := `
		SELECT id, name, capacity, type, virtual, created_at, updated_at
		FROM rooms
		WHERE id = $1 AND deleted_at IS NULL
	`

	room := &model.Room{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID, &room.Name, &room.Capacity, &room.Type, &room.Virtual,
		&room.CreatedAt, &room.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描教室失败: %w", err)
	}

	return room, nil
}

// Update 更新教室
func (r *RoomRepository) Update(ctx context.Context, room *model.Room) error {
	room.UpdatedAt = time.Now()

	query := `
		UPDATE rooms SET name = $2, capacity = $3, type = $4, virtual = $5, updated_at = $6
		WHERE id = $1 AND deleted_at IS NULL
	`

	_, err := r.db.ExecContext(ctx, query,
		room.ID, room.Name, room.Capacity, room.Type, room.Virtual, room.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新教室失败: %w", err)
	}

	return nil
}

// Delete 软删除教室
func (r *RoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE rooms SET deleted_at = $2 WHERE id = $1", id, time.Now())
	if err != nil {
		return fmt.Errorf("删除教室失败: %w", err)
	}
	return nil
}

// List 列出教室
func (r *RoomRepository) List(ctx context.Context, filter ListFilter) ([]*model.Room, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	var args []interface{}
	argNum := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM rooms %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计教室数量失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, capacity, type, virtual, created_at, updated_at
		FROM rooms %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, filter.OrderBy, filter.OrderDir, argNum, argNum+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询教室列表失败: %w", err)
	}
	defer rows.Close()

	var rooms []*model.Room
	for rows.Next() {
		room := &model.Room{}
		if err := rows.Scan(
			&room.ID, &room.Name, &room.Capacity, &room.Type, &room.Virtual,
			&room.CreatedAt, &room.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("扫描教室失败: %w", err)
		}
		rooms = append(rooms, room)
	}

	return rooms, total, nil
}

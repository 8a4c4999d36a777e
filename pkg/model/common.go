// Package model 定义排课引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// ConstraintKind 约束类别
type ConstraintKind string

const (
	ConstraintHard ConstraintKind = "hard" // 硬约束（必须满足）
	ConstraintSoft ConstraintKind = "soft" // 软约束（计入优化得分）
)

// BaseModel 目录实体基础模型
// 仅用于目录实体（课程/教师/教室）；引擎输出（Assignment/Conflict）
// 不携带时间戳，保证相同输入产生逐字节相同的输出
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at,omitempty" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// engineNamespace 引擎确定性ID的命名空间（uuid v5）
var engineNamespace = uuid.MustParse("8a6e0804-2bd0-4672-b79d-d97027f9071a")

// DeterministicID 由稳定字节序列派生 uuid（v5/SHA1）
// 排课结果的ID全部由此生成，同一输入永远得到同一ID
func DeterministicID(parts ...[]byte) uuid.UUID {
	data := make([]byte, 0, 64)
	for _, p := range parts {
		data = append(data, p...)
		data = append(data, 0)
	}
	return uuid.NewSHA1(engineNamespace, data)
}

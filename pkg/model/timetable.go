// Package model 定义排课引擎的核心数据模型
package model

import "github.com/google/uuid"

// TimetableSet 带版本号的排课结果集
// 排课运行结束后所有权移交调用方；手工修改必须通过会话校验器，
// 版本号用于乐观并发控制
type TimetableSet struct {
	Version     int64         `json:"version"`
	Assignments []*Assignment `json:"assignments"`
	Conflicts   []Conflict    `json:"conflicts"`
}

// FindAssignment 按ID查找分配
func (s *TimetableSet) FindAssignment(id uuid.UUID) *Assignment {
	for _, a := range s.Assignments {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Clone 深拷贝结果集
func (s *TimetableSet) Clone() *TimetableSet {
	clone := &TimetableSet{
		Version:     s.Version,
		Assignments: make([]*Assignment, len(s.Assignments)),
		Conflicts:   make([]Conflict, len(s.Conflicts)),
	}
	for i, a := range s.Assignments {
		clone.Assignments[i] = a.Clone()
	}
	copy(clone.Conflicts, s.Conflicts)
	return clone
}

// ReplaceAssignment 替换同ID分配，返回是否找到
func (s *TimetableSet) ReplaceAssignment(a *Assignment) bool {
	for i, existing := range s.Assignments {
		if existing.ID == a.ID {
			s.Assignments[i] = a
			return true
		}
	}
	return false
}

// RemoveAssignment 移除分配，返回是否找到
func (s *TimetableSet) RemoveAssignment(id uuid.UUID) bool {
	for i, a := range s.Assignments {
		if a.ID == id {
			s.Assignments = append(s.Assignments[:i], s.Assignments[i+1:]...)
			return true
		}
	}
	return false
}

// Package constraint 定义排课约束接口和管理器
package constraint

import (
	"fmt"
	"sort"
	"sync"

	"github.com/paike/paike/pkg/logger"
	"github.com/paike/paike/pkg/model"
)

// Manager 约束管理器
type Manager struct {
	constraints []Constraint
	mu          sync.RWMutex
	logger      *logger.EngineLogger
}

// NewManager 创建约束管理器
func NewManager() *Manager {
	return &Manager{
		constraints: make([]Constraint, 0),
		logger:      logger.NewEngineLogger(),
	}
}

// Register 注册约束，同类型约束被替换
func (m *Manager) Register(c Constraint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.constraints {
		if existing.Type() == c.Type() {
			m.constraints[i] = c
			return
		}
	}

	m.constraints = append(m.constraints, c)

	// 按类别和权重排序：硬约束在前，权重高的在前
	sort.SliceStable(m.constraints, func(i, j int) bool {
		ci, cj := m.constraints[i], m.constraints[j]
		if ci.Category() != cj.Category() {
			return ci.Category() == CategoryHard
		}
		if ci.Weight() != cj.Weight() {
			return ci.Weight() > cj.Weight()
		}
		return ci.Type() < cj.Type()
	})
}

// Unregister 注销约束
func (m *Manager) Unregister(t Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.constraints {
		if c.Type() == t {
			m.constraints = append(m.constraints[:i], m.constraints[i+1:]...)
			return
		}
	}
}

// GetConstraint 获取约束
func (m *Manager) GetConstraint(t Type) Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.constraints {
		if c.Type() == t {
			return c
		}
	}
	return nil
}

// Has 检查指定类型约束是否已注册
func (m *Manager) Has(t Type) bool {
	return m.GetConstraint(t) != nil
}

// GetByCategory 按类别获取约束
func (m *Manager) GetByCategory(cat Category) []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Constraint
	for _, c := range m.constraints {
		if c.Category() == cat {
			result = append(result, c)
		}
	}
	return result
}

// snapshot 拷贝当前约束列表
func (m *Manager) snapshot() []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	constraints := make([]Constraint, len(m.constraints))
	copy(constraints, m.constraints)
	return constraints
}

// Evaluate 评估所有约束
func (m *Manager) Evaluate(ctx *Context) *Result {
	constraints := m.snapshot()

	result := &Result{
		IsValid:        true,
		HardViolations: make([]Violation, 0),
		SoftViolations: make([]Violation, 0),
	}

	for _, c := range constraints {
		valid, penalty, details := c.Evaluate(ctx)
		if valid {
			continue
		}

		result.TotalPenalty += penalty
		for _, d := range details {
			if c.Category() == CategoryHard {
				result.IsValid = false
				result.HardViolations = append(result.HardViolations, d)
				m.logger.ConstraintViolation(c.Name(), d.Message)
			} else {
				result.SoftViolations = append(result.SoftViolations, d)
			}
		}
	}

	result.Score = m.OptimizationScore(ctx)
	return result
}

// EvaluateAssignment 评估单条分配
func (m *Manager) EvaluateAssignment(ctx *Context, assignment *model.Assignment) (bool, int, []Violation) {
	constraints := m.snapshot()

	var violations []Violation
	totalPenalty := 0
	isValid := true

	for _, c := range constraints {
		valid, penalty := c.EvaluateAssignment(ctx, assignment)
		if valid {
			continue
		}

		totalPenalty += penalty
		severity := "warning"
		if c.Category() == CategoryHard {
			severity = "blocking"
			isValid = false
		}
		violations = append(violations, Violation{
			ConstraintType: c.Type(),
			ConstraintName: c.Name(),
			AssignmentID:   assignment.ID,
			CourseID:       assignment.CourseID,
			Message:        fmt.Sprintf("违反约束: %s", c.Name()),
			Severity:       severity,
			Penalty:        penalty,
		})
	}

	return isValid, totalPenalty, violations
}

// CanAssign 检查分配是否通过全部硬约束
func (m *Manager) CanAssign(ctx *Context, assignment *model.Assignment) (bool, string) {
	for _, c := range m.GetByCategory(CategoryHard) {
		valid, _ := c.EvaluateAssignment(ctx, assignment)
		if !valid {
			return false, fmt.Sprintf("违反硬约束: %s", c.Name())
		}
	}
	return true, ""
}

// SoftScore 计算分配的软约束得分 [0,1]，用于候选排序
func (m *Manager) SoftScore(ctx *Context, assignment *model.Assignment) float64 {
	soft := m.GetByCategory(CategorySoft)
	if len(soft) == 0 {
		return 1.0
	}

	totalWeight := 0
	earned := 0.0
	for _, c := range soft {
		totalWeight += c.Weight()
		_, penalty := c.EvaluateAssignment(ctx, assignment)
		got := float64(c.Weight() - penalty)
		if got < 0 {
			got = 0
		}
		earned += got
	}
	if totalWeight == 0 {
		return 1.0
	}
	return earned / float64(totalWeight)
}

// OptimizationScore 计算课表整体优化得分 [0,1]
// 各软约束满足率按权重加权平均
func (m *Manager) OptimizationScore(ctx *Context) float64 {
	soft := m.GetByCategory(CategorySoft)
	if len(soft) == 0 {
		return 1.0
	}

	totalWeight := 0
	weighted := 0.0
	for _, c := range soft {
		scorer, ok := c.(SoftScorer)
		if !ok {
			continue
		}
		totalWeight += c.Weight()
		weighted += scorer.Satisfaction(ctx) * float64(c.Weight())
	}
	if totalWeight == 0 {
		return 1.0
	}
	return weighted / float64(totalWeight)
}

// Clear 清除所有约束
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.constraints = make([]Constraint, 0)
}

// Count 返回约束数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.constraints)
}

// Summary 返回约束摘要
func (m *Manager) Summary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hard := 0
	soft := 0
	for _, c := range m.constraints {
		if c.Category() == CategoryHard {
			hard++
		} else {
			soft++
		}
	}

	return map[string]interface{}{
		"total": len(m.constraints),
		"hard":  hard,
		"soft":  soft,
	}
}

// Package stats 提供课表统计分析功能
package stats

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/paike/paike/pkg/model"
)

// FacultyStat 教师工作量统计
type FacultyStat struct {
	FacultyID   uuid.UUID `json:"faculty_id"`
	FacultyName string    `json:"faculty_name"`
	TotalHours  float64   `json:"total_hours"`
	BlockCount  int       `json:"block_count"`
	CourseCount int       `json:"course_count"`
	Deviation   float64   `json:"deviation"` // 与平均值的偏差百分比
}

// WorkloadMetrics 工作量分布指标
type WorkloadMetrics struct {
	AvgHoursPerFaculty float64       `json:"avg_hours_per_faculty"`
	MaxHours           float64       `json:"max_hours"`
	MinHours           float64       `json:"min_hours"`
	HoursRange         float64       `json:"hours_range"`
	StdDev             float64       `json:"std_dev"`
	Gini               float64       `json:"gini"` // 基尼系数 (0=完全均衡, 1=完全失衡)
	FacultyStats       []FacultyStat `json:"faculty_stats"`
	BalanceScore       float64       `json:"balance_score"` // 均衡度评分 (0-1)
}

// WorkloadAnalyzer 工作量分布分析器
type WorkloadAnalyzer struct{}

// NewWorkloadAnalyzer 创建工作量分析器
func NewWorkloadAnalyzer() *WorkloadAnalyzer {
	return &WorkloadAnalyzer{}
}

// Analyze 分析教师工作量分布
// 只统计在编且参与排课的教师，顺序按教师ID稳定排列
func (w *WorkloadAnalyzer) Analyze(assignments []*model.Assignment, faculty []*model.Faculty) *WorkloadMetrics {
	metrics := &WorkloadMetrics{BalanceScore: 1.0}
	if len(faculty) == 0 {
		return metrics
	}

	hoursByFaculty := make(map[uuid.UUID]float64)
	blocksByFaculty := make(map[uuid.UUID]int)
	coursesByFaculty := make(map[uuid.UUID]map[uuid.UUID]bool)
	for _, a := range assignments {
		hoursByFaculty[a.FacultyID] += a.Hours()
		blocksByFaculty[a.FacultyID]++
		if coursesByFaculty[a.FacultyID] == nil {
			coursesByFaculty[a.FacultyID] = make(map[uuid.UUID]bool)
		}
		coursesByFaculty[a.FacultyID][a.CourseID] = true
	}

	active := make([]*model.Faculty, 0, len(faculty))
	for _, f := range faculty {
		if f.IsActive() {
			active = append(active, f)
		}
	}
	if len(active) == 0 {
		return metrics
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].ID.String() < active[j].ID.String()
	})

	hours := make([]float64, 0, len(active))
	total := 0.0
	for _, f := range active {
		h := hoursByFaculty[f.ID]
		hours = append(hours, h)
		total += h
	}
	mean := total / float64(len(active))

	metrics.AvgHoursPerFaculty = mean
	metrics.MaxHours = hours[0]
	metrics.MinHours = hours[0]
	variance := 0.0
	for _, h := range hours {
		if h > metrics.MaxHours {
			metrics.MaxHours = h
		}
		if h < metrics.MinHours {
			metrics.MinHours = h
		}
		variance += (h - mean) * (h - mean)
	}
	variance /= float64(len(hours))
	metrics.HoursRange = metrics.MaxHours - metrics.MinHours
	metrics.StdDev = math.Sqrt(variance)
	metrics.Gini = giniCoefficient(hours)
	metrics.BalanceScore = balanceScore(metrics.StdDev, mean)

	for _, f := range active {
		stat := FacultyStat{
			FacultyID:   f.ID,
			FacultyName: f.Name,
			TotalHours:  hoursByFaculty[f.ID],
			BlockCount:  blocksByFaculty[f.ID],
			CourseCount: len(coursesByFaculty[f.ID]),
		}
		if mean > 0 {
			stat.Deviation = (stat.TotalHours - mean) / mean * 100
		}
		metrics.FacultyStats = append(metrics.FacultyStats, stat)
	}

	return metrics
}

// giniCoefficient 计算基尼系数
func giniCoefficient(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	weightedSum := 0.0
	for i, v := range sorted {
		sum += v
		weightedSum += float64(i+1) * v
	}
	if sum == 0 {
		return 0
	}
	return (2*weightedSum)/(float64(n)*sum) - float64(n+1)/float64(n)
}

// balanceScore 将标准差折算为 0-1 的均衡度评分
// 使用变异系数：标准差达到平均值时评分归零
func balanceScore(stdDev, mean float64) float64 {
	if mean <= 0 {
		return 1.0
	}
	score := 1.0 - stdDev/mean
	if score < 0 {
		return 0
	}
	return score
}

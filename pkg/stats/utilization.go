// Package stats 提供课表统计分析功能
package stats

import (
	"sort"

	"github.com/google/uuid"

	"github.com/paike/paike/pkg/model"
)

// RoomStat 教室利用率统计
type RoomStat struct {
	RoomID      uuid.UUID `json:"room_id"`
	RoomName    string    `json:"room_name"`
	RoomType    string    `json:"room_type"`
	UsedHours   float64   `json:"used_hours"`
	Utilization float64   `json:"utilization"` // 已用时长 / 网格总时长
	PeakDay     model.Day `json:"peak_day,omitempty"`
}

// UtilizationMetrics 教室利用率指标
type UtilizationMetrics struct {
	AvgUtilization float64    `json:"avg_utilization"`
	RoomStats      []RoomStat `json:"room_stats"`
}

// UtilizationAnalyzer 教室利用率分析器
type UtilizationAnalyzer struct {
	grid model.SlotGrid
}

// NewUtilizationAnalyzer 创建教室利用率分析器
func NewUtilizationAnalyzer(grid model.SlotGrid) *UtilizationAnalyzer {
	return &UtilizationAnalyzer{grid: grid}
}

// Analyze 分析各教室的利用率
// 虚拟教室（共享设备）不计入，顺序按教室ID稳定排列
func (u *UtilizationAnalyzer) Analyze(assignments []*model.Assignment, rooms []*model.Room) *UtilizationMetrics {
	metrics := &UtilizationMetrics{}

	weekHours := u.weeklyGridHours()
	if weekHours == 0 {
		return metrics
	}

	hoursByRoom := make(map[uuid.UUID]float64)
	hoursByRoomDay := make(map[uuid.UUID]map[model.Day]float64)
	for _, a := range assignments {
		hoursByRoom[a.RoomID] += a.Hours()
		if hoursByRoomDay[a.RoomID] == nil {
			hoursByRoomDay[a.RoomID] = make(map[model.Day]float64)
		}
		hoursByRoomDay[a.RoomID][a.Slot.Day] += a.Hours()
	}

	physical := make([]*model.Room, 0, len(rooms))
	for _, r := range rooms {
		if !r.Virtual {
			physical = append(physical, r)
		}
	}
	sort.Slice(physical, func(i, j int) bool {
		return physical[i].ID.String() < physical[j].ID.String()
	})

	total := 0.0
	for _, r := range physical {
		used := hoursByRoom[r.ID]
		stat := RoomStat{
			RoomID:      r.ID,
			RoomName:    r.Name,
			RoomType:    string(r.Type),
			UsedHours:   used,
			Utilization: used / weekHours,
			PeakDay:     peakDay(hoursByRoomDay[r.ID]),
		}
		total += stat.Utilization
		metrics.RoomStats = append(metrics.RoomStats, stat)
	}
	if len(physical) > 0 {
		metrics.AvgUtilization = total / float64(len(physical))
	}

	return metrics
}

// weeklyGridHours 网格每周可排总时长（小时）
func (u *UtilizationAnalyzer) weeklyGridHours() float64 {
	start, err1 := model.ClockMinutes(u.grid.DayStart)
	end, err2 := model.ClockMinutes(u.grid.DayEnd)
	if err1 != nil || err2 != nil || end <= start {
		return 0
	}
	return float64(end-start) / 60.0 * float64(len(u.grid.Days))
}

// peakDay 返回占用最多的一天，按工作日顺序决胜
func peakDay(byDay map[model.Day]float64) model.Day {
	var peak model.Day
	best := 0.0
	for _, d := range model.AllDays {
		if h := byDay[d]; h > best {
			best = h
			peak = d
		}
	}
	return peak
}

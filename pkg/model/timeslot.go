// Package model 定义排课引擎的核心数据模型
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Day 上课日（周一至周六）
type Day string

const (
	Monday    Day = "mon"
	Tuesday   Day = "tue"
	Wednesday Day = "wed"
	Thursday  Day = "thu"
	Friday    Day = "fri"
	Saturday  Day = "sat"
)

// AllDays 按显示顺序排列的上课日
var AllDays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var dayIndex = map[Day]int{
	Monday: 0, Tuesday: 1, Wednesday: 2, Thursday: 3, Friday: 4, Saturday: 5,
}

// Index 返回上课日的序号（周一为0），未知日返回 -1
func (d Day) Index() int {
	if i, ok := dayIndex[d]; ok {
		return i
	}
	return -1
}

// Valid 检查是否为合法上课日
func (d Day) Valid() bool {
	_, ok := dayIndex[d]
	return ok
}

// TimeSlot 时间段
// 时间取自固定离散网格（默认整点），相等和重叠只按 (day, start, end) 计算
type TimeSlot struct {
	Day   Day    `json:"day"`
	Start string `json:"start"` // HH:MM
	End   string `json:"end"`   // HH:MM
}

// ClockMinutes 解析 HH:MM 为当日分钟数
func ClockMinutes(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("非法时间格式: %s", clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("非法小时: %s", clock)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("非法分钟: %s", clock)
	}
	return h*60 + m, nil
}

// StartMinutes 返回开始时间的当日分钟数，解析失败返回 -1
func (t TimeSlot) StartMinutes() int {
	m, err := ClockMinutes(t.Start)
	if err != nil {
		return -1
	}
	return m
}

// EndMinutes 返回结束时间的当日分钟数，解析失败返回 -1
func (t TimeSlot) EndMinutes() int {
	m, err := ClockMinutes(t.End)
	if err != nil {
		return -1
	}
	return m
}

// DurationMinutes 返回时间段时长（分钟）
func (t TimeSlot) DurationMinutes() int {
	return t.EndMinutes() - t.StartMinutes()
}

// Hours 返回时间段时长（小时）
func (t TimeSlot) Hours() float64 {
	return float64(t.DurationMinutes()) / 60.0
}

// Equal 检查两个时间段是否相同
func (t TimeSlot) Equal(other TimeSlot) bool {
	return t.Day == other.Day && t.Start == other.Start && t.End == other.End
}

// Overlaps 检查两个时间段是否在同一天且区间重叠（长度>0）
func (t TimeSlot) Overlaps(other TimeSlot) bool {
	if t.Day != other.Day {
		return false
	}
	return t.StartMinutes() < other.EndMinutes() && other.StartMinutes() < t.EndMinutes()
}

// Adjacent 检查另一时间段是否与本段同日且首尾相接
func (t TimeSlot) Adjacent(other TimeSlot) bool {
	if t.Day != other.Day {
		return false
	}
	return t.EndMinutes() == other.StartMinutes() || other.EndMinutes() == t.StartMinutes()
}

// Before 按 (day, start) 的展示顺序比较
func (t TimeSlot) Before(other TimeSlot) bool {
	if t.Day != other.Day {
		return t.Day.Index() < other.Day.Index()
	}
	return t.StartMinutes() < other.StartMinutes()
}

// Validate 检查时间段自身合法性
func (t TimeSlot) Validate() error {
	if !t.Day.Valid() {
		return fmt.Errorf("非法上课日: %s", t.Day)
	}
	start, err := ClockMinutes(t.Start)
	if err != nil {
		return err
	}
	end, err := ClockMinutes(t.End)
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("结束时间必须晚于开始时间: %s-%s", t.Start, t.End)
	}
	return nil
}

// String 返回可读形式，如 "mon 09:00-10:00"
func (t TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", t.Day, t.Start, t.End)
}

// SlotGrid 离散时间网格
// 排课只在网格内的整块时间段上进行
type SlotGrid struct {
	Days        []Day  `json:"days"`
	DayStart    string `json:"day_start"`    // HH:MM
	DayEnd      string `json:"day_end"`      // HH:MM
	SlotMinutes int    `json:"slot_minutes"` // 单个时间段时长
}

// DefaultGrid 默认网格：周一至周六 09:00-17:00，整点切分
func DefaultGrid() SlotGrid {
	return SlotGrid{
		Days:        AllDays,
		DayStart:    "09:00",
		DayEnd:      "17:00",
		SlotMinutes: 60,
	}
}

// Slots 按 (day, start) 升序展开网格内的全部时间段
func (g SlotGrid) Slots() []TimeSlot {
	start, err1 := ClockMinutes(g.DayStart)
	end, err2 := ClockMinutes(g.DayEnd)
	if err1 != nil || err2 != nil || g.SlotMinutes <= 0 {
		return nil
	}

	var slots []TimeSlot
	for _, day := range g.Days {
		for m := start; m+g.SlotMinutes <= end; m += g.SlotMinutes {
			slots = append(slots, TimeSlot{
				Day:   day,
				Start: formatClock(m),
				End:   formatClock(m + g.SlotMinutes),
			})
		}
	}
	return slots
}

// Contains 检查时间段是否落在网格上
func (g SlotGrid) Contains(t TimeSlot) bool {
	for _, s := range g.Slots() {
		if s.Equal(t) {
			return true
		}
	}
	return false
}

// formatClock 将当日分钟数格式化为 HH:MM
func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Package model 定义排课引擎的核心数据模型
package model

// RoomType 教室类型
type RoomType string

const (
	RoomClassroom      RoomType = "classroom"       // 普通教室
	RoomLab            RoomType = "lab"             // 实验室/机房
	RoomSeminar        RoomType = "seminar"         // 研讨室
	RoomPracticeSchool RoomType = "practice_school" // 实习学校
)

// Room 教室
// 共享设备（如一套实验器材）建模为 Virtual 教室，占用同一时间线
type Room struct {
	BaseModel
	Name     string   `json:"name" db:"name" validate:"required"`
	Capacity int      `json:"capacity" db:"capacity" validate:"gt=0"`
	Type     RoomType `json:"type" db:"type" validate:"oneof=classroom lab seminar practice_school"`
	Virtual  bool     `json:"virtual,omitempty" db:"virtual"`
}

// SuitsKind 检查教室类型是否适合授课形式
// 实践时段要求实验室或实习学校，理论时段不进实验室之外均可
func (r *Room) SuitsKind(kind AssignmentKind, courseType CourseType) bool {
	if kind == KindPractical {
		return r.Type == RoomLab || r.Type == RoomPracticeSchool
	}
	if courseType == CourseProject {
		return r.Type == RoomSeminar || r.Type == RoomClassroom
	}
	return r.Type == RoomClassroom || r.Type == RoomSeminar
}

// Fits 检查容量是否满足人数
func (r *Room) Fits(enrolled int) bool {
	return r.Capacity >= enrolled
}

// OverflowRatio 超员比例，未超员返回 0
func (r *Room) OverflowRatio(enrolled int) float64 {
	if enrolled <= r.Capacity || r.Capacity == 0 {
		return 0
	}
	return float64(enrolled-r.Capacity) / float64(r.Capacity)
}

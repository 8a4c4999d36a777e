// Package constraint 定义排课约束接口和管理器
package constraint

import (
	"github.com/google/uuid"

	"github.com/paike/paike/pkg/model"
)

// Type 约束类型标识
type Type string

const (
	// 硬约束类型
	TypeRespectAvailability  Type = "respect_availability"   // 教师可用时间
	TypeRespectCapacity      Type = "respect_capacity"       // 教室容量
	TypeMaxHoursPerDay       Type = "max_hours_per_day"      // 教师每日课时上限
	TypeMaxConsecutiveHours  Type = "max_consecutive_hours"  // 教师连续课时上限
	TypeRespectPrerequisites Type = "respect_prerequisites"  // 先修课存在性
	TypeSubjectMatch         Type = "subject_match"          // 教师任课资格
	TypeRoomTypeMatch        Type = "room_type_match"        // 教室类型匹配

	// 软约束类型
	TypeWorkloadBalance      Type = "workload_balance"         // 教师工作量均衡
	TypeGroupElectives       Type = "group_electives"          // 选修课集中安排
	TypeAvoidBackToBackHeavy Type = "avoid_back_to_back_heavy" // 避免高学分课程连排
	TypePreferSpecialRooms   Type = "prefer_specialized_rooms" // 优先专用教室
	TypeAllowOverflow        Type = "allow_overflow"           // 允许10%容量超员
	TypeMinimizeRoomChanges  Type = "minimize_room_changes"    // 减少学生换教室
)

// Category 约束类别
type Category string

const (
	CategoryHard Category = "hard" // 硬约束（必须满足）
	CategorySoft Category = "soft" // 软约束（计入优化得分）
)

// Constraint 约束接口
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Weight 返回约束权重 (1-100)
	Weight() int

	// Evaluate 评估整个课表
	// 返回：是否满足、惩罚值、违反详情
	Evaluate(ctx *Context) (valid bool, penalty int, details []Violation)

	// EvaluateAssignment 评估单条分配（加入当前集合的前提下）
	// 返回：是否满足、惩罚值
	EvaluateAssignment(ctx *Context, assignment *model.Assignment) (valid bool, penalty int)
}

// SoftScorer 可给出满足率的软约束
type SoftScorer interface {
	// Satisfaction 返回当前课表对该约束的满足率 [0,1]
	Satisfaction(ctx *Context) float64
}

// Violation 约束违反详情
type Violation struct {
	ConstraintType Type      `json:"constraint_type"`
	ConstraintName string    `json:"constraint_name"`
	AssignmentID   uuid.UUID `json:"assignment_id,omitempty"`
	CourseID       uuid.UUID `json:"course_id,omitempty"`
	Message        string    `json:"message"`
	Severity       string    `json:"severity"` // blocking/warning
	Penalty        int       `json:"penalty"`
}

// ResourceKey 资源时间线键：某教师或某教室在某一天
type ResourceKey struct {
	Resource uuid.UUID
	Day      model.Day
}

// Context 排课上下文
// 持有只读目录和当前分配集合，并维护按资源分组的索引
type Context struct {
	Catalog     *model.Catalog      `json:"catalog"`
	Assignments []*model.Assignment `json:"assignments"`

	// 索引缓存
	courseMap  map[uuid.UUID]*model.Course
	facultyMap map[uuid.UUID]*model.Faculty
	roomMap    map[uuid.UUID]*model.Room
	byFaculty  map[ResourceKey][]*model.Assignment
	byRoom     map[ResourceKey][]*model.Assignment
	byCourse   map[uuid.UUID][]*model.Assignment
}

// NewContext 创建排课上下文
func NewContext(catalog *model.Catalog) *Context {
	c := &Context{
		Catalog:     catalog,
		Assignments: make([]*model.Assignment, 0),
		courseMap:   make(map[uuid.UUID]*model.Course),
		facultyMap:  make(map[uuid.UUID]*model.Faculty),
		roomMap:     make(map[uuid.UUID]*model.Room),
		byFaculty:   make(map[ResourceKey][]*model.Assignment),
		byRoom:      make(map[ResourceKey][]*model.Assignment),
		byCourse:    make(map[uuid.UUID][]*model.Assignment),
	}
	if catalog != nil {
		for _, course := range catalog.Courses {
			c.courseMap[course.ID] = course
		}
		for _, f := range catalog.Faculty {
			c.facultyMap[f.ID] = f
		}
		for _, r := range catalog.Rooms {
			c.roomMap[r.ID] = r
		}
	}
	return c
}

// SetAssignments 重置分配集合
func (c *Context) SetAssignments(assignments []*model.Assignment) {
	c.Assignments = assignments
	c.rebuildIndexes()
}

// AddAssignment 添加分配
func (c *Context) AddAssignment(a *model.Assignment) {
	c.Assignments = append(c.Assignments, a)
	fk := ResourceKey{Resource: a.FacultyID, Day: a.Slot.Day}
	rk := ResourceKey{Resource: a.RoomID, Day: a.Slot.Day}
	c.byFaculty[fk] = append(c.byFaculty[fk], a)
	c.byRoom[rk] = append(c.byRoom[rk], a)
	c.byCourse[a.CourseID] = append(c.byCourse[a.CourseID], a)
}

// RemoveAssignment 移除分配
func (c *Context) RemoveAssignment(id uuid.UUID) {
	for i, a := range c.Assignments {
		if a.ID == id {
			c.Assignments = append(c.Assignments[:i], c.Assignments[i+1:]...)
			break
		}
	}
	c.rebuildIndexes()
}

// rebuildIndexes 重建资源索引
func (c *Context) rebuildIndexes() {
	c.byFaculty = make(map[ResourceKey][]*model.Assignment)
	c.byRoom = make(map[ResourceKey][]*model.Assignment)
	c.byCourse = make(map[uuid.UUID][]*model.Assignment)
	for _, a := range c.Assignments {
		fk := ResourceKey{Resource: a.FacultyID, Day: a.Slot.Day}
		rk := ResourceKey{Resource: a.RoomID, Day: a.Slot.Day}
		c.byFaculty[fk] = append(c.byFaculty[fk], a)
		c.byRoom[rk] = append(c.byRoom[rk], a)
		c.byCourse[a.CourseID] = append(c.byCourse[a.CourseID], a)
	}
}

// Course 获取课程
func (c *Context) Course(id uuid.UUID) *model.Course {
	return c.courseMap[id]
}

// Faculty 获取教师
func (c *Context) Faculty(id uuid.UUID) *model.Faculty {
	return c.facultyMap[id]
}

// Room 获取教室
func (c *Context) Room(id uuid.UUID) *model.Room {
	return c.roomMap[id]
}

// FacultyAssignments 获取教师某日的全部分配
func (c *Context) FacultyAssignments(facultyID uuid.UUID, day model.Day) []*model.Assignment {
	return c.byFaculty[ResourceKey{Resource: facultyID, Day: day}]
}

// RoomAssignments 获取教室某日的全部分配
func (c *Context) RoomAssignments(roomID uuid.UUID, day model.Day) []*model.Assignment {
	return c.byRoom[ResourceKey{Resource: roomID, Day: day}]
}

// CourseAssignments 获取课程的全部分配
func (c *Context) CourseAssignments(courseID uuid.UUID) []*model.Assignment {
	return c.byCourse[courseID]
}

// FacultyHoursOnDay 计算教师某日已安排课时
func (c *Context) FacultyHoursOnDay(facultyID uuid.UUID, day model.Day) float64 {
	var hours float64
	for _, a := range c.FacultyAssignments(facultyID, day) {
		hours += a.Hours()
	}
	return hours
}

// FacultyWeeklyHours 计算教师每周总课时
func (c *Context) FacultyWeeklyHours(facultyID uuid.UUID) float64 {
	var hours float64
	for _, day := range model.AllDays {
		hours += c.FacultyHoursOnDay(facultyID, day)
	}
	return hours
}

// ConsecutiveRunWith 计算将候选时段计入后教师当日形成的最长连续课时
func (c *Context) ConsecutiveRunWith(facultyID uuid.UUID, slot model.TimeSlot) float64 {
	// 收集当日已占用区间（分钟）
	type interval struct{ start, end int }
	intervals := []interval{{slot.StartMinutes(), slot.EndMinutes()}}
	for _, a := range c.FacultyAssignments(facultyID, slot.Day) {
		intervals = append(intervals, interval{a.Slot.StartMinutes(), a.Slot.EndMinutes()})
	}

	// 以候选时段为起点向两侧扩展相邻区间
	run := interval{slot.StartMinutes(), slot.EndMinutes()}
	for extended := true; extended; {
		extended = false
		for _, iv := range intervals {
			if iv.end == run.start {
				run.start = iv.start
				extended = true
			} else if iv.start == run.end {
				run.end = iv.end
				extended = true
			}
		}
	}
	return float64(run.end-run.start) / 60.0
}

// Clone 拷贝上下文（目录共享，分配集合独立）
func (c *Context) Clone() *Context {
	clone := NewContext(c.Catalog)
	assignments := make([]*model.Assignment, len(c.Assignments))
	for i, a := range c.Assignments {
		assignments[i] = a.Clone()
	}
	clone.SetAssignments(assignments)
	return clone
}

// Result 约束评估结果
type Result struct {
	IsValid        bool        `json:"is_valid"`
	TotalPenalty   int         `json:"total_penalty"`
	HardViolations []Violation `json:"hard_violations"`
	SoftViolations []Violation `json:"soft_violations"`
	Score          float64     `json:"score"` // 软约束满足率 0-1
}

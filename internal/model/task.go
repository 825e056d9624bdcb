package model

import "time"

// Task 任务表，对应 tasks
// WeekNum 引用同学期的周次号，但不做外键约束。
type Task struct {
	TaskID     string `gorm:"type:uuid;primaryKey"                     json:"task_id"`
	SemesterID string `gorm:"type:uuid;not null;index"                 json:"semester_id"`
	WeekNum    int    `gorm:"type:smallint;not null"                   json:"week_num"`
	Course     string `gorm:"type:varchar(50);not null"                json:"course"`
	Text       string `gorm:"type:varchar(500);not null"               json:"text"`
	Order      int    `gorm:"column:sort_order;not null;default:0"     json:"order"`
	Done       bool   `gorm:"not null;default:false"                   json:"done"`
	BaseModel
}

// TableName 指定表名
func (Task) TableName() string { return "tasks" }

// Deadline 截止日期表，对应 deadlines（按精确日期，不依附周次）
type Deadline struct {
	DeadlineID string `gorm:"type:uuid;primaryKey"                 json:"deadline_id"`
	SemesterID string `gorm:"type:uuid;not null;index"             json:"semester_id"`
	Date       string `gorm:"type:varchar(10);not null"            json:"date"`
	Label      string `gorm:"type:varchar(300);not null"           json:"label"`
	Course     string `gorm:"type:varchar(50);not null"            json:"course"`
	Urgent     bool   `gorm:"not null;default:false"               json:"urgent"`
	Order      int    `gorm:"column:sort_order;not null;default:0" json:"order"`
	BaseModel
}

// TableName 指定表名
func (Deadline) TableName() string { return "deadlines" }

// Note 任务笔记表，对应 notes
type Note struct {
	NoteID     string    `gorm:"type:uuid;primaryKey"               json:"note_id"`
	SemesterID string    `gorm:"type:uuid;not null;index"           json:"semester_id"`
	TaskID     string    `gorm:"type:uuid;not null;index"           json:"task_id"`
	Text       string    `gorm:"type:text;not null"                 json:"text"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (Note) TableName() string { return "notes" }

package model

// Semester 学期表，对应 semesters
// 周次以 JSON 映射内嵌在学期记录中，没有独立 ID。
type Semester struct {
	SemesterID string  `gorm:"type:uuid;primaryKey"                  json:"semester_id"`
	OwnerID    string  `gorm:"type:varchar(128);not null;index"      json:"owner_id"`
	Name       string  `gorm:"type:varchar(100);not null"            json:"name"`
	Label      string  `gorm:"type:varchar(200);not null;default:''" json:"label"`
	StartDate  string  `gorm:"type:varchar(10);not null;default:''"  json:"start_date"` // ISO 日期，可为空
	EndDate    string  `gorm:"type:varchar(10);not null;default:''"  json:"end_date"`
	Weeks      WeekMap `gorm:"type:jsonb;not null;default:'{}'"      json:"weeks"`
	VersionedModel
}

// TableName 指定表名
func (Semester) TableName() string { return "semesters" }

// DefaultLabel 新学期的默认展示名
func DefaultLabel(name string) string {
	return "Semestre " + name
}

// OwnerPreference 用户偏好，对应 owner_preferences（记录最近打开的学期）
type OwnerPreference struct {
	OwnerID        string  `gorm:"type:varchar(128);primaryKey" json:"owner_id"`
	LastSemesterID *string `gorm:"type:uuid"                    json:"last_semester_id,omitempty"`
	BaseModel
}

// TableName 指定表名
func (OwnerPreference) TableName() string { return "owner_preferences" }

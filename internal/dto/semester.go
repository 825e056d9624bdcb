package dto

// ── 学期模块 DTO ──

// CreateSemesterRequest 创建学期请求
type CreateSemesterRequest struct {
	Name  string `json:"name"  binding:"required,max=100"`
	Label string `json:"label" binding:"omitempty,max=200"` // 缺省为 "Semestre <name>"
}

// UpdateSemesterRequest 重命名 / 修改展示名
type UpdateSemesterRequest struct {
	Name  *string `json:"name"  binding:"omitempty,min=1,max=100"`
	Label *string `json:"label" binding:"omitempty,max=200"`
}

// SemesterResponse 学期信息响应
type SemesterResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Label     string `json:"label"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	WeekCount int    `json:"week_count"`
	Version   int    `json:"version"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// SemesterDetailResponse 学期详情：学期、派生视图与有笔记的任务
type SemesterDetailResponse struct {
	Semester         SemesterResponse `json:"semester"`
	Overview         OverviewResponse `json:"overview"`
	TaskIDsWithNotes []string         `json:"task_ids_with_notes"`
}

// SetLastSemesterRequest 记录最近打开的学期；semester_id 为 null 表示清空
type SetLastSemesterRequest struct {
	SemesterID *string `json:"semester_id"`
}

// LastSemesterResponse 最近打开的学期
type LastSemesterResponse struct {
	SemesterID *string `json:"semester_id"`
}

// ── 派生视图 ──

// OverviewResponse 每次写入后重新计算的派生视图
type OverviewResponse struct {
	CurrentWeek  int            `json:"current_week"`
	Progress     int            `json:"progress"`
	CourseFilter string         `json:"course_filter"`
	Courses      []string       `json:"courses"`
	NextWeekNum  int            `json:"next_week_num"`
	Weeks        []WeekResponse `json:"weeks"`
}

// ── 周次 ──

// WeekResponse 周卡片
type WeekResponse struct {
	Num        int    `json:"num"`
	Title      string `json:"title"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	DatesText  string `json:"dates_text,omitempty"` // 旧版文本日期原文
	DatesLabel string `json:"dates_label"`
	IsCurrent  bool   `json:"is_current"`
	Done       int    `json:"done"`
	Total      int    `json:"total"`
	Percent    int    `json:"percent"`
}

// SaveWeekRequest 编辑或新增一周
type SaveWeekRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date"   binding:"required"`
	Title     string `json:"title"      binding:"max=200"`
}

// SaveWeekResponse 保存周次结果
type SaveWeekResponse struct {
	Inserted     bool             `json:"inserted"`
	Recalculated int              `json:"recalculated"`
	Semester     SemesterResponse `json:"semester"`
	Overview     OverviewResponse `json:"overview"`
}

// DeleteWeekResponse 删除周次结果
type DeleteWeekResponse struct {
	DeletedTasks int64            `json:"deleted_tasks"`
	DeletedNotes int64            `json:"deleted_notes"`
	Overview     OverviewResponse `json:"overview"`
}

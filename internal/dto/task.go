package dto

// ── 任务模块 DTO ──

// CreateTaskRequest 新增任务
type CreateTaskRequest struct {
	WeekNum int    `json:"week_num" binding:"required,min=1"`
	Course  string `json:"course"   binding:"required,max=50"`
	Text    string `json:"text"     binding:"required,max=500"`
}

// UpdateTaskRequest 修改任务课程 / 内容
type UpdateTaskRequest struct {
	Course *string `json:"course" binding:"omitempty,min=1,max=50"`
	Text   *string `json:"text"   binding:"omitempty,min=1,max=500"`
}

// ToggleTaskRequest 勾选 / 取消勾选
type ToggleTaskRequest struct {
	Done *bool `json:"done" binding:"required"`
}

// TaskResponse 任务信息
type TaskResponse struct {
	ID       string `json:"id"`
	WeekNum  int    `json:"week_num"`
	Course   string `json:"course"`
	Text     string `json:"text"`
	Order    int    `json:"order"`
	Done     bool   `json:"done"`
	HasNotes bool   `json:"has_notes"`
}

// TaskMutationResponse 任务写入后的结果与派生视图
type TaskMutationResponse struct {
	Task     *TaskResponse    `json:"task,omitempty"`
	Overview OverviewResponse `json:"overview"`
}

// ResetTasksResponse 重置进度结果
type ResetTasksResponse struct {
	Reset    int64            `json:"reset"`
	Overview OverviewResponse `json:"overview"`
}

// ── 截止日期模块 DTO ──

// CreateDeadlineRequest 新增截止日期
type CreateDeadlineRequest struct {
	Date   string `json:"date"   binding:"required"`
	Label  string `json:"label"  binding:"required,max=300"`
	Course string `json:"course" binding:"required,max=50"`
	Urgent bool   `json:"urgent"`
}

// UpdateDeadlineRequest 修改截止日期
type UpdateDeadlineRequest struct {
	Date   *string `json:"date"`
	Label  *string `json:"label"  binding:"omitempty,min=1,max=300"`
	Course *string `json:"course" binding:"omitempty,min=1,max=50"`
	Urgent *bool   `json:"urgent"`
}

// DeadlineResponse 截止日期信息（含倒计时）
type DeadlineResponse struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	DateLabel string `json:"date_label"`
	Label     string `json:"label"`
	Course    string `json:"course"`
	Urgent    bool   `json:"urgent"`
	Order     int    `json:"order"`
	DaysUntil int    `json:"days_until"`
	Countdown string `json:"countdown"`
	Urgency   string `json:"urgency"`
	Imminent  bool   `json:"imminent"`
}

// DeadlineMutationResponse 截止日期写入结果
type DeadlineMutationResponse struct {
	Deadline *DeadlineResponse `json:"deadline,omitempty"`
	Overview OverviewResponse  `json:"overview"`
}

// ── 笔记模块 DTO ──

// CreateNoteRequest 新增笔记
type CreateNoteRequest struct {
	TaskID string `json:"task_id" binding:"required"`
	Text   string `json:"text"    binding:"required,max=10000"`
}

// UpdateNoteRequest 修改笔记
type UpdateNoteRequest struct {
	Text string `json:"text" binding:"required,max=10000"`
}

// NoteResponse 笔记信息
type NoteResponse struct {
	ID        string `json:"id"`
	TaskID    string `json:"task_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

package dto

import "github.com/edbrsk/uoc-planner/internal/planner"

// ── 导入导出 DTO ──

// ImportPreviewResponse 导入预览（不写入任何数据）
type ImportPreviewResponse struct {
	Name      string   `json:"name"`
	Weeks     int      `json:"weeks"`
	Tasks     int      `json:"tasks"`
	Deadlines int      `json:"deadlines"`
	Courses   []string `json:"courses"`
}

// ImportResponse 导入提交结果
type ImportResponse struct {
	Semester      SemesterResponse `json:"semester"`
	Tasks         int              `json:"tasks"`
	Deadlines     int              `json:"deadlines"`
	Notes         int              `json:"notes"`
	RemappedNotes int              `json:"remapped_notes"`
	DroppedNotes  int              `json:"dropped_notes"`
}

// CalendarImportResponse 日历导入结果
type CalendarImportResponse struct {
	Imported  int                `json:"imported"`
	Skipped   int                `json:"skipped"`
	Deadlines []DeadlineResponse `json:"deadlines"`
}

// RoadmapResponse 路线图；empty=true 表示没有可定位的事件
type RoadmapResponse struct {
	Empty   bool             `json:"empty"`
	Roadmap *planner.Roadmap `json:"roadmap,omitempty"`
}

// FileResponse 导出文件内容，由 Handler 写为附件
type FileResponse struct {
	Filename    string
	ContentType string
	Body        []byte
}

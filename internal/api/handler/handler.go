package handler

import "github.com/edbrsk/uoc-planner/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Semester *SemesterHandler
	Week     *WeekHandler
	Task     *TaskHandler
	Deadline *DeadlineHandler
	Note     *NoteHandler
	Transfer *TransferHandler
	Export   *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Semester: NewSemesterHandler(svc.Semester),
		Week:     NewWeekHandler(svc.Week),
		Task:     NewTaskHandler(svc.Task),
		Deadline: NewDeadlineHandler(svc.Deadline),
		Note:     NewNoteHandler(svc.Note),
		Transfer: NewTransferHandler(svc.Transfer, svc.Roadmap),
		Export:   NewExportHandler(svc.Export),
	}
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/edbrsk/uoc-planner/internal/dto"
	"github.com/edbrsk/uoc-planner/internal/model"
	"github.com/edbrsk/uoc-planner/internal/planner"
	"github.com/edbrsk/uoc-planner/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
	ErrCalendarInvalid    = errors.New("日历文件无效")
	ErrCalendarEmpty      = errors.New("日历中没有可导入的事件")
)

// ExportService 表格 / 日历导出与日历导入业务接口
//
// 设计说明：
//   - 导出以字节返回，由 Handler 层设置响应头后写为附件
//   - Excel 三个 Sheet：Semanas（周卡片与进度）、Tareas（按周排序的任务）、Entregas（截止日期）
//   - 日历只包含截止日期，每条为一个全天事件
type ExportService interface {
	Spreadsheet(ctx context.Context, ownerID, semesterID string) (*dto.FileResponse, error)
	Calendar(ctx context.Context, ownerID, semesterID string) (*dto.FileResponse, error)
	// ImportCalendar 将 .ics 中的事件追加为截止日期；defaultCourse 用于没有 CATEGORIES 的事件
	ImportCalendar(ctx context.Context, ownerID, semesterID string, r io.Reader, defaultCourse string) (*dto.CalendarImportResponse, error)
}

type exportService struct {
	*base
	calendar planner.CalendarOptions
}

// ═══════════════════════════════════════════════════════════
// Spreadsheet 导出学期为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) Spreadsheet(ctx context.Context, ownerID, semesterID string) (*dto.FileResponse, error) {
	data, err := loadSemesterData(ctx, s.base, ownerID, semesterID)
	if err != nil {
		return nil, err
	}
	sem := data.semester

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 1. 周次
	weeksSheet := "Semanas"
	idx, _ := f.NewSheet(weeksSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	writeHeader(f, weeksSheet, headerStyle, []string{"Semana", "Título", "Fechas", "Hechas", "Total", "%"})
	f.SetColWidth(weeksSheet, "B", "B", 36)
	f.SetColWidth(weeksSheet, "C", "C", 18)
	row := 2
	for _, wp := range planner.ProgressByWeek(sem.Weeks, data.tasks, planner.AllCourses) {
		w := sem.Weeks[wp.WeekNum]
		values := []interface{}{wp.WeekNum, w.Title, planner.WeekDatesLabel(w), wp.Done, wp.Total, wp.Percent}
		for i, v := range values {
			f.SetCellValue(weeksSheet, cell(colName(i), row), v)
		}
		row++
	}

	// 2. 任务
	tasksSheet := "Tareas"
	f.NewSheet(tasksSheet)
	writeHeader(f, tasksSheet, headerStyle, []string{"Semana", "Asignatura", "Tarea", "Hecha"})
	f.SetColWidth(tasksSheet, "C", "C", 60)
	tasks := append([]model.Task(nil), data.tasks...)
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].WeekNum != tasks[j].WeekNum {
			return tasks[i].WeekNum < tasks[j].WeekNum
		}
		return tasks[i].Order < tasks[j].Order
	})
	row = 2
	for _, t := range tasks {
		done := ""
		if t.Done {
			done = "✓"
		}
		values := []interface{}{t.WeekNum, t.Course, t.Text, done}
		for i, v := range values {
			f.SetCellValue(tasksSheet, cell(colName(i), row), v)
		}
		row++
	}

	// 3. 截止日期
	deadlinesSheet := "Entregas"
	f.NewSheet(deadlinesSheet)
	writeHeader(f, deadlinesSheet, headerStyle, []string{"Fecha", "Asignatura", "Entrega", "Urgente", "Cuenta atrás"})
	f.SetColWidth(deadlinesSheet, "C", "C", 48)
	f.SetColWidth(deadlinesSheet, "E", "E", 14)
	deadlines := append([]model.Deadline(nil), data.deadlines...)
	planner.SortDeadlines(deadlines)
	now := s.now()
	row = 2
	for _, d := range deadlines {
		urgent := ""
		if d.Urgent {
			urgent = "!"
		}
		values := []interface{}{d.Date, d.Course, d.Label, urgent, planner.CountdownLabel(planner.DaysUntil(d.Date, now))}
		for i, v := range values {
			f.SetCellValue(deadlinesSheet, cell(colName(i), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, ErrExportGenerateFail
	}

	return &dto.FileResponse{
		Filename:    exportFilename(sem.Name, "xlsx"),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Body:        buf.Bytes(),
	}, nil
}

// ═══════════════════════════════════════════════════════════
// Calendar 导出截止日期为 .ics
// ═══════════════════════════════════════════════════════════

func (s *exportService) Calendar(ctx context.Context, ownerID, semesterID string) (*dto.FileResponse, error) {
	sem, err := s.semester(ctx, s.repo, ownerID, semesterID)
	if err != nil {
		return nil, err
	}
	deadlines, err := s.repo.Deadline.ListBySemester(ctx, semesterID)
	if err != nil {
		s.logger.Error("查询截止日期失败", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}

	body := planner.ExportCalendar(*sem, deadlines, s.now(), s.calendar)
	return &dto.FileResponse{
		Filename:    exportFilename(sem.Name, "ics"),
		ContentType: "text/calendar; charset=utf-8",
		Body:        []byte(body),
	}, nil
}

// ═══════════════════════════════════════════════════════════
// ImportCalendar 从 .ics 追加截止日期
// ═══════════════════════════════════════════════════════════

func (s *exportService) ImportCalendar(ctx context.Context, ownerID, semesterID string, r io.Reader, defaultCourse string) (*dto.CalendarImportResponse, error) {
	parsed, err := planner.ParseCalendar(r, strings.TrimSpace(defaultCourse), s.calendar.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalendarInvalid, err)
	}
	if len(parsed.Deadlines) == 0 {
		return nil, ErrCalendarEmpty
	}

	now := s.now().UTC()
	created := make([]model.Deadline, 0, len(parsed.Deadlines))
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := s.semester(ctx, tx, ownerID, semesterID); err != nil {
			return err
		}
		count, err := tx.Deadline.Count(ctx, semesterID)
		if err != nil {
			return err
		}
		for i, cd := range parsed.Deadlines {
			created = append(created, model.Deadline{
				DeadlineID: s.newID(),
				SemesterID: semesterID,
				Date:       cd.Date,
				Label:      cd.Label,
				Course:     cd.Course,
				Urgent:     cd.Urgent,
				Order:      int(count) + i,
				BaseModel:  model.BaseModel{CreatedAt: now, UpdatedAt: now},
			})
		}
		return tx.Deadline.CreateBatch(ctx, created)
	})
	if err != nil {
		if !errors.Is(err, ErrSemesterNotFound) {
			s.logger.Error("导入日历失败", zap.String("semester_id", semesterID), zap.Error(err))
		}
		return nil, err
	}
	s.afterWrite(ctx, semesterID)

	resp := &dto.CalendarImportResponse{
		Imported:  len(created),
		Skipped:   parsed.Skipped,
		Deadlines: make([]dto.DeadlineResponse, 0, len(created)),
	}
	for i := range created {
		resp.Deadlines = append(resp.Deadlines, toDeadlineResponse(&created[i], s.now()))
	}
	return resp, nil
}

// ── 辅助函数 ──

// semesterData 导出所需的整学期数据
type semesterData struct {
	semester  *model.Semester
	tasks     []model.Task
	deadlines []model.Deadline
	notes     []model.Note
}

func loadSemesterData(ctx context.Context, b *base, ownerID, semesterID string) (*semesterData, error) {
	sem, err := b.semester(ctx, b.repo, ownerID, semesterID)
	if err != nil {
		return nil, err
	}
	data := &semesterData{semester: sem}
	if data.tasks, err = b.repo.Task.ListBySemester(ctx, semesterID); err != nil {
		b.logger.Error("查询任务失败", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}
	if data.deadlines, err = b.repo.Deadline.ListBySemester(ctx, semesterID); err != nil {
		b.logger.Error("查询截止日期失败", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}
	if data.notes, err = b.repo.Note.ListBySemester(ctx, semesterID); err != nil {
		b.logger.Error("查询笔记失败", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}
	return data, nil
}

func writeHeader(f *excelize.File, sheet string, style int, titles []string) {
	for i, title := range titles {
		f.SetCellValue(sheet, cell(colName(i), 1), title)
	}
	last := cell(colName(len(titles)-1), 1)
	f.SetCellStyle(sheet, "A1", last, style)
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

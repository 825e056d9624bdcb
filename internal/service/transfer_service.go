package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/edbrsk/uoc-planner/internal/dto"
	"github.com/edbrsk/uoc-planner/internal/planner"
	"github.com/edbrsk/uoc-planner/internal/repository"
)

// ── 导入导出模块业务错误 ──

var (
	ErrImportInvalid = errors.New("导入文件无效")
)

// TransferService JSON 文档导入导出业务接口
//
//   - Preview 只校验并统计，不写入任何数据
//   - Import 重新生成所有 id，在同一事务中写入学期、任务、截止日期、笔记
//   - Export 输出可再次导入的文档
type TransferService interface {
	Preview(ctx context.Context, raw []byte) (*dto.ImportPreviewResponse, error)
	Import(ctx context.Context, ownerID string, raw []byte) (*dto.ImportResponse, error)
	Export(ctx context.Context, ownerID, semesterID string) (*dto.FileResponse, error)
}

type transferService struct {
	*base
}

// ────────────────────── Preview ──────────────────────

func (s *transferService) Preview(ctx context.Context, raw []byte) (*dto.ImportPreviewResponse, error) {
	doc, err := decode(raw)
	if err != nil {
		return nil, err
	}
	p := planner.Preview(doc)
	return &dto.ImportPreviewResponse{
		Name:      p.Name,
		Weeks:     p.Weeks,
		Tasks:     p.Tasks,
		Deadlines: p.Deadlines,
		Courses:   p.Courses,
	}, nil
}

// ────────────────────── Import ──────────────────────

func (s *transferService) Import(ctx context.Context, ownerID string, raw []byte) (*dto.ImportResponse, error) {
	doc, err := decode(raw)
	if err != nil {
		return nil, err
	}

	plan := planner.PlanImport(doc, ownerID, s.newID, s.now().UTC())
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Semester.Create(ctx, &plan.Semester); err != nil {
			return err
		}
		if err := tx.Task.CreateBatch(ctx, plan.Tasks); err != nil {
			return err
		}
		if err := tx.Deadline.CreateBatch(ctx, plan.Deadlines); err != nil {
			return err
		}
		if err := tx.Note.CreateBatch(ctx, plan.Notes); err != nil {
			return err
		}
		return tx.Preference.SetLastSemester(ctx, ownerID, &plan.Semester.SemesterID)
	})
	if err != nil {
		s.logger.Error("导入学期失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("学期导入完成",
		zap.String("semester_id", plan.Semester.SemesterID),
		zap.Int("tasks", len(plan.Tasks)),
		zap.Int("deadlines", len(plan.Deadlines)),
		zap.Int("notes", len(plan.Notes)),
		zap.Int("remapped_notes", plan.RemappedNotes),
		zap.Int("dropped_notes", plan.DroppedNotes),
	)

	return &dto.ImportResponse{
		Semester:      toSemesterResponse(&plan.Semester),
		Tasks:         len(plan.Tasks),
		Deadlines:     len(plan.Deadlines),
		Notes:         len(plan.Notes),
		RemappedNotes: plan.RemappedNotes,
		DroppedNotes:  plan.DroppedNotes,
	}, nil
}

// ────────────────────── Export ──────────────────────

func (s *transferService) Export(ctx context.Context, ownerID, semesterID string) (*dto.FileResponse, error) {
	data, err := loadSemesterData(ctx, s.base, ownerID, semesterID)
	if err != nil {
		return nil, err
	}

	doc := planner.Export(*data.semester, data.tasks, data.deadlines, data.notes)
	body, err := planner.EncodeDocument(doc)
	if err != nil {
		s.logger.Error("序列化导出文档失败", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}
	return &dto.FileResponse{
		Filename:    exportFilename(data.semester.Name, "json"),
		ContentType: "application/json",
		Body:        body,
	}, nil
}

// ── 辅助函数 ──

// decode 解析并校验文档，失败时同时包裹 ErrImportInvalid 与 *planner.ValidationError
func decode(raw []byte) (*planner.Document, error) {
	doc, err := planner.DecodeDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImportInvalid, err)
	}
	return doc, nil
}

var unsafeFilename = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// exportFilename uoc_planner_<学期名>.<ext>；学期名为空时用 semester
func exportFilename(name, ext string) string {
	safe := unsafeFilename.ReplaceAllString(name, "_")
	if safe == "" {
		safe = "semester"
	}
	return fmt.Sprintf("uoc_planner_%s.%s", safe, ext)
}

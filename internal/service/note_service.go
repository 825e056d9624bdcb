package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edbrsk/uoc-planner/internal/dto"
	"github.com/edbrsk/uoc-planner/internal/model"
	pkgerrors "github.com/edbrsk/uoc-planner/pkg/errors"
)

// ── 笔记模块业务错误 ──

var (
	ErrNoteNotFound     = errors.New("笔记不存在")
	ErrNoteTextRequired = errors.New("笔记内容不能为空")
)

// NoteService 任务笔记业务接口
type NoteService interface {
	// List taskID 为空时返回整个学期的笔记，按创建时间升序
	List(ctx context.Context, ownerID, semesterID, taskID string) ([]dto.NoteResponse, error)
	Create(ctx context.Context, ownerID, semesterID string, req *dto.CreateNoteRequest) (*dto.NoteResponse, error)
	Update(ctx context.Context, ownerID, semesterID, noteID string, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error)
	Delete(ctx context.Context, ownerID, semesterID, noteID string) error
}

type noteService struct {
	*base
}

// ────────────────────── List ──────────────────────

func (s *noteService) List(ctx context.Context, ownerID, semesterID, taskID string) ([]dto.NoteResponse, error) {
	if _, err := s.semester(ctx, s.repo, ownerID, semesterID); err != nil {
		return nil, err
	}

	var (
		notes []model.Note
		err   error
	)
	switch {
	case taskID != "" && !validID(taskID):
		// 格式不符的 task_id 不会匹配任何笔记
	case taskID != "":
		notes, err = s.repo.Note.ListByTask(ctx, semesterID, taskID)
	default:
		notes, err = s.repo.Note.ListBySemester(ctx, semesterID)
	}
	if err != nil {
		s.logger.Error("查询笔记失败", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		result = append(result, toNoteResponse(&notes[i]))
	}
	return result, nil
}

// ────────────────────── Create ──────────────────────

func (s *noteService) Create(ctx context.Context, ownerID, semesterID string, req *dto.CreateNoteRequest) (*dto.NoteResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrNoteTextRequired
	}
	if _, err := s.semester(ctx, s.repo, ownerID, semesterID); err != nil {
		return nil, err
	}
	if !validID(req.TaskID) {
		return nil, ErrTaskNotFound
	}
	if _, err := s.repo.Task.GetByID(ctx, semesterID, req.TaskID); err != nil {
		if errors.Is(err, pkgerrors.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	now := s.now().UTC()
	note := &model.Note{
		NoteID:     s.newID(),
		SemesterID: semesterID,
		TaskID:     req.TaskID,
		Text:       text,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Note.Create(ctx, note); err != nil {
		s.logger.Error("创建笔记失败", zap.String("task_id", req.TaskID), zap.Error(err))
		return nil, err
	}

	resp := toNoteResponse(note)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *noteService) Update(ctx context.Context, ownerID, semesterID, noteID string, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrNoteTextRequired
	}
	if _, err := s.semester(ctx, s.repo, ownerID, semesterID); err != nil {
		return nil, err
	}
	if !validID(noteID) {
		return nil, ErrNoteNotFound
	}
	if err := s.repo.Note.UpdateText(ctx, semesterID, noteID, text); err != nil {
		if errors.Is(err, pkgerrors.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		s.logger.Error("更新笔记失败", zap.String("note_id", noteID), zap.Error(err))
		return nil, err
	}

	note, err := s.repo.Note.GetByID(ctx, semesterID, noteID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	resp := toNoteResponse(note)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *noteService) Delete(ctx context.Context, ownerID, semesterID, noteID string) error {
	if _, err := s.semester(ctx, s.repo, ownerID, semesterID); err != nil {
		return err
	}
	if !validID(noteID) {
		return ErrNoteNotFound
	}
	if err := s.repo.Note.Delete(ctx, semesterID, noteID); err != nil {
		if errors.Is(err, pkgerrors.ErrRecordNotFound) {
			return ErrNoteNotFound
		}
		s.logger.Error("删除笔记失败", zap.String("note_id", noteID), zap.Error(err))
		return err
	}
	return nil
}

func toNoteResponse(n *model.Note) dto.NoteResponse {
	return dto.NoteResponse{
		ID:        n.NoteID,
		TaskID:    n.TaskID,
		Text:      n.Text,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
		UpdatedAt: n.UpdatedAt.Format(time.RFC3339),
	}
}

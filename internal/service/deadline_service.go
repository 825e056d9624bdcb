package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edbrsk/uoc-planner/internal/dto"
	"github.com/edbrsk/uoc-planner/internal/model"
	"github.com/edbrsk/uoc-planner/internal/planner"
	"github.com/edbrsk/uoc-planner/internal/repository"
	pkgerrors "github.com/edbrsk/uoc-planner/pkg/errors"
)

// ── 截止日期模块业务错误 ──

var (
	ErrDeadlineNotFound      = errors.New("截止日期不存在")
	ErrDeadlineDateInvalid   = errors.New("截止日期格式无效，需要 YYYY-MM-DD")
	ErrDeadlineLabelRequired = errors.New("截止日期标题不能为空")
)

// DeadlineService 截止日期业务接口
type DeadlineService interface {
	// List 按日期、order 排序，附带倒计时
	List(ctx context.Context, ownerID, semesterID string) ([]dto.DeadlineResponse, error)
	Create(ctx context.Context, ownerID, semesterID string, req *dto.CreateDeadlineRequest) (*dto.DeadlineMutationResponse, error)
	Update(ctx context.Context, ownerID, semesterID, deadlineID string, req *dto.UpdateDeadlineRequest) (*dto.DeadlineMutationResponse, error)
	Delete(ctx context.Context, ownerID, semesterID, deadlineID string) (*dto.DeadlineMutationResponse, error)
}

type deadlineService struct {
	*base
}

// ────────────────────── List ──────────────────────

func (s *deadlineService) List(ctx context.Context, ownerID, semesterID string) ([]dto.DeadlineResponse, error) {
	if _, err := s.semester(ctx, s.repo, ownerID, semesterID); err != nil {
		return nil, err
	}
	deadlines, err := s.repo.Deadline.ListBySemester(ctx, semesterID)
	if err != nil {
		s.logger.Error("查询截止日期失败", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}
	planner.SortDeadlines(deadlines)

	now := s.now()
	result := make([]dto.DeadlineResponse, 0, len(deadlines))
	for i := range deadlines {
		result = append(result, toDeadlineResponse(&deadlines[i], now))
	}
	return result, nil
}

// ────────────────────── Create ──────────────────────

func (s *deadlineService) Create(ctx context.Context, ownerID, semesterID string, req *dto.CreateDeadlineRequest) (*dto.DeadlineMutationResponse, error) {
	if _, ok := planner.ParseISO(req.Date); !ok {
		return nil, ErrDeadlineDateInvalid
	}
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, ErrDeadlineLabelRequired
	}
	course := strings.TrimSpace(req.Course)
	if course == "" {
		return nil, ErrCourseRequired
	}

	var (
		sem      *model.Semester
		deadline *model.Deadline
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		sem, err = s.semester(ctx, tx, ownerID, semesterID)
		if err != nil {
			return err
		}
		count, err := tx.Deadline.Count(ctx, semesterID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		deadline = &model.Deadline{
			DeadlineID: s.newID(),
			SemesterID: semesterID,
			Date:       req.Date,
			Label:      label,
			Course:     course,
			Urgent:     req.Urgent,
			Order:      int(count),
			BaseModel:  model.BaseModel{CreatedAt: now, UpdatedAt: now},
		}
		return tx.Deadline.Create(ctx, deadline)
	})
	if err != nil {
		if !errors.Is(err, ErrSemesterNotFound) {
			s.logger.Error("创建截止日期失败", zap.String("semester_id", semesterID), zap.Error(err))
		}
		return nil, err
	}
	return s.mutated(ctx, sem, deadline)
}

// ────────────────────── Update ──────────────────────

func (s *deadlineService) Update(ctx context.Context, ownerID, semesterID, deadlineID string, req *dto.UpdateDeadlineRequest) (*dto.DeadlineMutationResponse, error) {
	sem, err := s.semester(ctx, s.repo, ownerID, semesterID)
	if err != nil {
		return nil, err
	}
	if !validID(deadlineID) {
		return nil, ErrDeadlineNotFound
	}
	deadline, err := s.repo.Deadline.GetByID(ctx, semesterID, deadlineID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrRecordNotFound) {
			return nil, ErrDeadlineNotFound
		}
		return nil, err
	}

	if req.Date != nil {
		if _, ok := planner.ParseISO(*req.Date); !ok {
			return nil, ErrDeadlineDateInvalid
		}
		deadline.Date = *req.Date
	}
	if req.Label != nil {
		label := strings.TrimSpace(*req.Label)
		if label == "" {
			return nil, ErrDeadlineLabelRequired
		}
		deadline.Label = label
	}
	if req.Course != nil {
		course := strings.TrimSpace(*req.Course)
		if course == "" {
			return nil, ErrCourseRequired
		}
		deadline.Course = course
	}
	if req.Urgent != nil {
		deadline.Urgent = *req.Urgent
	}

	if err := s.repo.Deadline.Update(ctx, deadline); err != nil {
		if errors.Is(err, pkgerrors.ErrRecordNotFound) {
			return nil, ErrDeadlineNotFound
		}
		s.logger.Error("更新截止日期失败", zap.String("deadline_id", deadlineID), zap.Error(err))
		return nil, err
	}
	return s.mutated(ctx, sem, deadline)
}

// ────────────────────── Delete ──────────────────────

func (s *deadlineService) Delete(ctx context.Context, ownerID, semesterID, deadlineID string) (*dto.DeadlineMutationResponse, error) {
	sem, err := s.semester(ctx, s.repo, ownerID, semesterID)
	if err != nil {
		return nil, err
	}
	if !validID(deadlineID) {
		return nil, ErrDeadlineNotFound
	}
	if err := s.repo.Deadline.Delete(ctx, semesterID, deadlineID); err != nil {
		if errors.Is(err, pkgerrors.ErrRecordNotFound) {
			return nil, ErrDeadlineNotFound
		}
		s.logger.Error("删除截止日期失败", zap.String("deadline_id", deadlineID), zap.Error(err))
		return nil, err
	}
	return s.mutated(ctx, sem, nil)
}

// ── 辅助方法 ──

func (s *deadlineService) mutated(ctx context.Context, sem *model.Semester, d *model.Deadline) (*dto.DeadlineMutationResponse, error) {
	s.afterWrite(ctx, sem.SemesterID)

	overview, err := s.overview(ctx, sem, "")
	if err != nil {
		return nil, err
	}
	resp := &dto.DeadlineMutationResponse{Overview: overview}
	if d != nil {
		dr := toDeadlineResponse(d, s.now())
		resp.Deadline = &dr
	}
	return resp, nil
}

func toDeadlineResponse(d *model.Deadline, now time.Time) dto.DeadlineResponse {
	days := planner.DaysUntil(d.Date, now)
	return dto.DeadlineResponse{
		ID:        d.DeadlineID,
		Date:      d.Date,
		DateLabel: planner.FmtShort(d.Date),
		Label:     d.Label,
		Course:    d.Course,
		Urgent:    d.Urgent,
		Order:     d.Order,
		DaysUntil: days,
		Countdown: planner.CountdownLabel(days),
		Urgency:   string(planner.UrgencyOf(days)),
		Imminent:  planner.Imminent(days),
	}
}

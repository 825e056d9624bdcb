package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/edbrsk/uoc-planner/internal/dto"
	"github.com/edbrsk/uoc-planner/internal/model"
	"github.com/edbrsk/uoc-planner/internal/planner"
	"github.com/edbrsk/uoc-planner/internal/repository"
	pkgerrors "github.com/edbrsk/uoc-planner/pkg/errors"
)

// ── 学期模块业务错误 ──

var (
	ErrSemesterNameRequired = errors.New("学期名称不能为空")
)

// SemesterService 学期业务接口
type SemesterService interface {
	Create(ctx context.Context, ownerID string, req *dto.CreateSemesterRequest) (*dto.SemesterResponse, error)
	List(ctx context.Context, ownerID string) ([]dto.SemesterResponse, error)
	// Get 学期详情与派生视图；course 为课程筛选（空或 "All" 不筛选）
	Get(ctx context.Context, ownerID, id, course string) (*dto.SemesterDetailResponse, error)
	Update(ctx context.Context, ownerID, id string, req *dto.UpdateSemesterRequest) (*dto.SemesterResponse, error)
	// Delete 连同任务、截止日期、笔记一起删除
	Delete(ctx context.Context, ownerID, id string) error
	Courses(ctx context.Context, ownerID, id string) ([]string, error)
	GetLast(ctx context.Context, ownerID string) (*dto.LastSemesterResponse, error)
	SetLast(ctx context.Context, ownerID string, semesterID *string) error
}

type semesterService struct {
	*base
}

// ────────────────────── Create ──────────────────────

func (s *semesterService) Create(ctx context.Context, ownerID string, req *dto.CreateSemesterRequest) (*dto.SemesterResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrSemesterNameRequired
	}
	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = model.DefaultLabel(name)
	}

	now := s.now().UTC()
	semester := &model.Semester{
		SemesterID: s.newID(),
		OwnerID:    ownerID,
		Name:       name,
		Label:      label,
		Weeks:      model.WeekMap{},
		VersionedModel: model.VersionedModel{
			BaseModel: model.BaseModel{CreatedAt: now, UpdatedAt: now},
			Version:   1,
		},
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Semester.Create(ctx, semester); err != nil {
			return err
		}
		return tx.Preference.SetLastSemester(ctx, ownerID, &semester.SemesterID)
	})
	if err != nil {
		s.logger.Error("创建学期失败", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	resp := toSemesterResponse(semester)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *semesterService) List(ctx context.Context, ownerID string) ([]dto.SemesterResponse, error) {
	semesters, err := s.repo.Semester.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("查询学期列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SemesterResponse, 0, len(semesters))
	for i := range semesters {
		result = append(result, toSemesterResponse(&semesters[i]))
	}
	return result, nil
}

// ────────────────────── Get ──────────────────────

func (s *semesterService) Get(ctx context.Context, ownerID, id, course string) (*dto.SemesterDetailResponse, error) {
	sem, err := s.semester(ctx, s.repo, ownerID, id)
	if err != nil {
		return nil, err
	}
	overview, err := s.overview(ctx, sem, course)
	if err != nil {
		return nil, err
	}
	notes, err := s.repo.Note.ListBySemester(ctx, id)
	if err != nil {
		s.logger.Error("查询笔记失败", zap.String("semester_id", id), zap.Error(err))
		return nil, err
	}

	return &dto.SemesterDetailResponse{
		Semester:         toSemesterResponse(sem),
		Overview:         overview,
		TaskIDsWithNotes: noteTaskIDs(notes),
	}, nil
}

// ────────────────────── Update ──────────────────────

func (s *semesterService) Update(ctx context.Context, ownerID, id string, req *dto.UpdateSemesterRequest) (*dto.SemesterResponse, error) {
	sem, err := s.semester(ctx, s.repo, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrSemesterNameRequired
		}
		sem.Name = name
	}
	if req.Label != nil {
		sem.Label = strings.TrimSpace(*req.Label)
		if sem.Label == "" {
			sem.Label = model.DefaultLabel(sem.Name)
		}
	}

	if err := s.repo.Semester.Update(ctx, sem); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新学期失败", zap.String("semester_id", id), zap.Error(err))
		}
		return nil, err
	}

	resp := toSemesterResponse(sem)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *semesterService) Delete(ctx context.Context, ownerID, id string) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := s.semester(ctx, tx, ownerID, id); err != nil {
			return err
		}

		steps := []struct {
			name string
			run  func() error
		}{
			{"notes", func() error { return tx.Note.DeleteBySemester(ctx, id) }},
			{"tasks", func() error { return tx.Task.DeleteBySemester(ctx, id) }},
			{"deadlines", func() error { return tx.Deadline.DeleteBySemester(ctx, id) }},
			{"semester", func() error { return tx.Semester.Delete(ctx, ownerID, id) }},
		}
		for _, step := range steps {
			if err := step.run(); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrCascadeFailed, step.name, err)
			}
		}

		return s.moveLastPointer(ctx, tx, ownerID, id)
	})
	if err != nil {
		if !errors.Is(err, ErrSemesterNotFound) {
			s.logger.Error("删除学期失败", zap.String("semester_id", id), zap.Error(err))
		}
		return err
	}

	s.afterWrite(ctx, id)
	s.logger.Info("学期已删除", zap.String("semester_id", id))
	return nil
}

// moveLastPointer 被删除的学期若是最近打开的学期，则指向剩余最新的学期或清空
func (s *semesterService) moveLastPointer(ctx context.Context, tx *repository.Repository, ownerID, deletedID string) error {
	pref, err := tx.Preference.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if pref.LastSemesterID == nil || *pref.LastSemesterID != deletedID {
		return nil
	}

	remaining, err := tx.Semester.ListByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	var next *string
	if len(remaining) > 0 {
		next = &remaining[0].SemesterID
	}
	return tx.Preference.SetLastSemester(ctx, ownerID, next)
}

// ────────────────────── Courses ──────────────────────

func (s *semesterService) Courses(ctx context.Context, ownerID, id string) ([]string, error) {
	if _, err := s.semester(ctx, s.repo, ownerID, id); err != nil {
		return nil, err
	}
	tasks, err := s.repo.Task.ListBySemester(ctx, id)
	if err != nil {
		return nil, err
	}
	deadlines, err := s.repo.Deadline.ListBySemester(ctx, id)
	if err != nil {
		return nil, err
	}
	return planner.CoursesOrFallback(tasks, deadlines), nil
}

// ────────────────────── Last opened ──────────────────────

// GetLast 最近打开的学期；记录失效时回退到最新的学期，没有学期时为 null
func (s *semesterService) GetLast(ctx context.Context, ownerID string) (*dto.LastSemesterResponse, error) {
	pref, err := s.repo.Preference.Get(ctx, ownerID)
	if err != nil && !errors.Is(err, pkgerrors.ErrRecordNotFound) {
		s.logger.Error("查询用户偏好失败", zap.Error(err))
		return nil, err
	}
	if pref != nil && pref.LastSemesterID != nil {
		if _, err := s.repo.Semester.GetByID(ctx, ownerID, *pref.LastSemesterID); err == nil {
			return &dto.LastSemesterResponse{SemesterID: pref.LastSemesterID}, nil
		} else if !errors.Is(err, pkgerrors.ErrRecordNotFound) {
			return nil, err
		}
	}

	semesters, err := s.repo.Semester.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(semesters) == 0 {
		return &dto.LastSemesterResponse{}, nil
	}
	id := semesters[0].SemesterID
	return &dto.LastSemesterResponse{SemesterID: &id}, nil
}

func (s *semesterService) SetLast(ctx context.Context, ownerID string, semesterID *string) error {
	if semesterID != nil {
		if _, err := s.semester(ctx, s.repo, ownerID, *semesterID); err != nil {
			return err
		}
	}
	if err := s.repo.Preference.SetLastSemester(ctx, ownerID, semesterID); err != nil {
		s.logger.Error("保存用户偏好失败", zap.Error(err))
		return err
	}
	return nil
}

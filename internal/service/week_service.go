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

// ── 周次模块业务错误 ──

var (
	ErrWeekNotFound    = errors.New("周次不存在")
	ErrWeekNumInvalid  = errors.New("周次编号必须为正整数")
	ErrWeekDateInvalid = errors.New("周次日期无效：需要 YYYY-MM-DD 且结束不早于开始")
)

// WeekService 周次业务接口。
// 周次内嵌在学期记录中，每次写入都带 version 校验整体写回。
type WeekService interface {
	// Save 编辑或新增一周，并重算其余所有周的日期
	Save(ctx context.Context, ownerID, semesterID string, num int, req *dto.SaveWeekRequest) (*dto.SaveWeekResponse, error)
	// Delete 删除一周及其任务（和任务的笔记），不重算相邻周
	Delete(ctx context.Context, ownerID, semesterID string, num int) (*dto.DeleteWeekResponse, error)
}

type weekService struct {
	*base
}

// ────────────────────── Save ──────────────────────

func (s *weekService) Save(ctx context.Context, ownerID, semesterID string, num int, req *dto.SaveWeekRequest) (*dto.SaveWeekResponse, error) {
	if num <= 0 {
		return nil, ErrWeekNumInvalid
	}
	start, ok := planner.ParseISO(req.StartDate)
	if !ok {
		return nil, ErrWeekDateInvalid
	}
	end, ok := planner.ParseISO(req.EndDate)
	if !ok || end.Before(start) {
		return nil, ErrWeekDateInvalid
	}

	var (
		sem    *model.Semester
		result planner.RecalcResult
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		sem, err = s.semester(ctx, tx, ownerID, semesterID)
		if err != nil {
			return err
		}

		result = planner.RecalcWeeks(sem.Weeks, num, req.StartDate, req.EndDate, strings.TrimSpace(req.Title))
		sem.Weeks = result.Weeks
		sem.StartDate = result.Bounds.StartDate
		sem.EndDate = result.Bounds.EndDate
		sem.UpdatedAt = s.now().UTC()
		return tx.Semester.Update(ctx, sem)
	})
	if err != nil {
		if !errors.Is(err, ErrSemesterNotFound) && !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("保存周次失败", zap.String("semester_id", semesterID), zap.Int("week_num", num), zap.Error(err))
		}
		return nil, err
	}
	s.afterWrite(ctx, semesterID)

	overview, err := s.overview(ctx, sem, "")
	if err != nil {
		return nil, err
	}
	return &dto.SaveWeekResponse{
		Inserted:     result.Inserted,
		Recalculated: result.Recalculated,
		Semester:     toSemesterResponse(sem),
		Overview:     overview,
	}, nil
}

// ────────────────────── Delete ──────────────────────

func (s *weekService) Delete(ctx context.Context, ownerID, semesterID string, num int) (*dto.DeleteWeekResponse, error) {
	var (
		sem          *model.Semester
		deletedTasks int64
		deletedNotes int64
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		sem, err = s.semester(ctx, tx, ownerID, semesterID)
		if err != nil {
			return err
		}
		weeks, ok := planner.RemoveWeek(sem.Weeks, num)
		if !ok {
			return ErrWeekNotFound
		}

		tasks, err := tx.Task.ListByWeek(ctx, semesterID, num)
		if err != nil {
			return fmt.Errorf("%w: tasks: %v", ErrCascadeFailed, err)
		}
		ids := make([]string, 0, len(tasks))
		for _, t := range tasks {
			ids = append(ids, t.TaskID)
		}
		if deletedNotes, err = tx.Note.DeleteByTasks(ctx, semesterID, ids); err != nil {
			return fmt.Errorf("%w: notes: %v", ErrCascadeFailed, err)
		}
		if deletedTasks, err = tx.Task.DeleteByWeek(ctx, semesterID, num); err != nil {
			return fmt.Errorf("%w: tasks: %v", ErrCascadeFailed, err)
		}

		// 学期起止日期保持不变
		sem.Weeks = weeks
		sem.UpdatedAt = s.now().UTC()
		return tx.Semester.Update(ctx, sem)
	})
	if err != nil {
		if !errors.Is(err, ErrSemesterNotFound) && !errors.Is(err, ErrWeekNotFound) && !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("删除周次失败", zap.String("semester_id", semesterID), zap.Int("week_num", num), zap.Error(err))
		}
		return nil, err
	}
	s.afterWrite(ctx, semesterID)

	overview, err := s.overview(ctx, sem, "")
	if err != nil {
		return nil, err
	}
	return &dto.DeleteWeekResponse{
		DeletedTasks: deletedTasks,
		DeletedNotes: deletedNotes,
		Overview:     overview,
	}, nil
}

package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/edbrsk/uoc-planner/internal/dto"
	"github.com/edbrsk/uoc-planner/internal/model"
	"github.com/edbrsk/uoc-planner/internal/planner"
	"github.com/edbrsk/uoc-planner/internal/repository"
	pkgerrors "github.com/edbrsk/uoc-planner/pkg/errors"
)

// ── 任务模块业务错误 ──

var (
	ErrTaskNotFound     = errors.New("任务不存在")
	ErrTaskTextRequired = errors.New("任务内容不能为空")
	ErrCourseRequired   = errors.New("课程不能为空")
)

// TaskService 任务业务接口。写操作都返回重新计算的派生视图。
type TaskService interface {
	// List week=0 表示所有周；course 为课程筛选
	List(ctx context.Context, ownerID, semesterID string, week int, course string) ([]dto.TaskResponse, error)
	Create(ctx context.Context, ownerID, semesterID string, req *dto.CreateTaskRequest) (*dto.TaskMutationResponse, error)
	Update(ctx context.Context, ownerID, semesterID, taskID string, req *dto.UpdateTaskRequest) (*dto.TaskMutationResponse, error)
	Toggle(ctx context.Context, ownerID, semesterID, taskID string, done bool) (*dto.TaskMutationResponse, error)
	// Delete 删除任务及其笔记
	Delete(ctx context.Context, ownerID, semesterID, taskID string) (*dto.TaskMutationResponse, error)
	// Reset 将学期内所有任务标记为未完成
	Reset(ctx context.Context, ownerID, semesterID string) (*dto.ResetTasksResponse, error)
}

type taskService struct {
	*base
}

// ────────────────────── List ──────────────────────

func (s *taskService) List(ctx context.Context, ownerID, semesterID string, week int, course string) ([]dto.TaskResponse, error) {
	if _, err := s.semester(ctx, s.repo, ownerID, semesterID); err != nil {
		return nil, err
	}

	var (
		tasks []model.Task
		err   error
	)
	if week > 0 {
		tasks, err = s.repo.Task.ListByWeek(ctx, semesterID, week)
	} else {
		tasks, err = s.repo.Task.ListBySemester(ctx, semesterID)
	}
	if err != nil {
		s.logger.Error("查询任务失败", zap.String("semester_id", semesterID), zap.Error(err))
		return nil, err
	}
	notes, err := s.repo.Note.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, err
	}
	withNotes := make(map[string]bool, len(notes))
	for _, n := range notes {
		withNotes[n.TaskID] = true
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].WeekNum != tasks[j].WeekNum {
			return tasks[i].WeekNum < tasks[j].WeekNum
		}
		return tasks[i].Order < tasks[j].Order
	})

	result := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		if !planner.MatchCourse(tasks[i].Course, course) {
			continue
		}
		result = append(result, toTaskResponse(&tasks[i], withNotes[tasks[i].TaskID]))
	}
	return result, nil
}

// ────────────────────── Create ──────────────────────

func (s *taskService) Create(ctx context.Context, ownerID, semesterID string, req *dto.CreateTaskRequest) (*dto.TaskMutationResponse, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrTaskTextRequired
	}
	course := strings.TrimSpace(req.Course)
	if course == "" {
		return nil, ErrCourseRequired
	}

	var (
		sem  *model.Semester
		task *model.Task
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		sem, err = s.semester(ctx, tx, ownerID, semesterID)
		if err != nil {
			return err
		}
		if _, ok := sem.Weeks[req.WeekNum]; !ok {
			return ErrWeekNotFound
		}

		// 新任务排在该周末尾
		count, err := tx.Task.CountByWeek(ctx, semesterID, req.WeekNum)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		task = &model.Task{
			TaskID:     s.newID(),
			SemesterID: semesterID,
			WeekNum:    req.WeekNum,
			Course:     course,
			Text:       text,
			Order:      int(count),
			BaseModel:  model.BaseModel{CreatedAt: now, UpdatedAt: now},
		}
		return tx.Task.Create(ctx, task)
	})
	if err != nil {
		if !errors.Is(err, ErrSemesterNotFound) && !errors.Is(err, ErrWeekNotFound) {
			s.logger.Error("创建任务失败", zap.String("semester_id", semesterID), zap.Error(err))
		}
		return nil, err
	}

	return s.mutated(ctx, sem, task, false)
}

// ────────────────────── Update ──────────────────────

func (s *taskService) Update(ctx context.Context, ownerID, semesterID, taskID string, req *dto.UpdateTaskRequest) (*dto.TaskMutationResponse, error) {
	sem, task, err := s.load(ctx, ownerID, semesterID, taskID)
	if err != nil {
		return nil, err
	}

	if req.Course != nil {
		course := strings.TrimSpace(*req.Course)
		if course == "" {
			return nil, ErrCourseRequired
		}
		task.Course = course
	}
	if req.Text != nil {
		text := strings.TrimSpace(*req.Text)
		if text == "" {
			return nil, ErrTaskTextRequired
		}
		task.Text = text
	}

	if err := s.repo.Task.Update(ctx, task); err != nil {
		return nil, s.writeErr("更新任务失败", taskID, err)
	}
	return s.mutated(ctx, sem, task, true)
}

// ────────────────────── Toggle ──────────────────────

func (s *taskService) Toggle(ctx context.Context, ownerID, semesterID, taskID string, done bool) (*dto.TaskMutationResponse, error) {
	sem, task, err := s.load(ctx, ownerID, semesterID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Task.SetDone(ctx, semesterID, taskID, done); err != nil {
		return nil, s.writeErr("更新任务状态失败", taskID, err)
	}
	task.Done = done
	return s.mutated(ctx, sem, task, true)
}

// ────────────────────── Delete ──────────────────────

func (s *taskService) Delete(ctx context.Context, ownerID, semesterID, taskID string) (*dto.TaskMutationResponse, error) {
	var sem *model.Semester
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		sem, err = s.semester(ctx, tx, ownerID, semesterID)
		if err != nil {
			return err
		}
		if !validID(taskID) {
			return ErrTaskNotFound
		}
		if _, err := tx.Note.DeleteByTasks(ctx, semesterID, []string{taskID}); err != nil {
			return err
		}
		if err := tx.Task.Delete(ctx, semesterID, taskID); err != nil {
			if errors.Is(err, pkgerrors.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrSemesterNotFound) && !errors.Is(err, ErrTaskNotFound) {
			s.logger.Error("删除任务失败", zap.String("task_id", taskID), zap.Error(err))
		}
		return nil, err
	}
	return s.mutated(ctx, sem, nil, false)
}

// ────────────────────── Reset ──────────────────────

func (s *taskService) Reset(ctx context.Context, ownerID, semesterID string) (*dto.ResetTasksResponse, error) {
	var (
		sem   *model.Semester
		reset int64
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		sem, err = s.semester(ctx, tx, ownerID, semesterID)
		if err != nil {
			return err
		}
		reset, err = tx.Task.ResetDone(ctx, semesterID)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrSemesterNotFound) {
			s.logger.Error("重置进度失败", zap.String("semester_id", semesterID), zap.Error(err))
		}
		return nil, err
	}
	s.afterWrite(ctx, semesterID)

	overview, err := s.overview(ctx, sem, "")
	if err != nil {
		return nil, err
	}
	return &dto.ResetTasksResponse{Reset: reset, Overview: overview}, nil
}

// ── 辅助方法 ──

func (s *taskService) load(ctx context.Context, ownerID, semesterID, taskID string) (*model.Semester, *model.Task, error) {
	sem, err := s.semester(ctx, s.repo, ownerID, semesterID)
	if err != nil {
		return nil, nil, err
	}
	if !validID(taskID) {
		return nil, nil, ErrTaskNotFound
	}
	task, err := s.repo.Task.GetByID(ctx, semesterID, taskID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrRecordNotFound) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, err
	}
	return sem, task, nil
}

func (s *taskService) writeErr(msg, taskID string, err error) error {
	if errors.Is(err, pkgerrors.ErrRecordNotFound) {
		return ErrTaskNotFound
	}
	s.logger.Error(msg, zap.String("task_id", taskID), zap.Error(err))
	return err
}

// mutated 失效缓存并组装任务写入响应
func (s *taskService) mutated(ctx context.Context, sem *model.Semester, task *model.Task, checkNotes bool) (*dto.TaskMutationResponse, error) {
	s.afterWrite(ctx, sem.SemesterID)

	overview, err := s.overview(ctx, sem, "")
	if err != nil {
		return nil, err
	}
	resp := &dto.TaskMutationResponse{Overview: overview}
	if task != nil {
		hasNotes := false
		if checkNotes {
			notes, err := s.repo.Note.ListByTask(ctx, sem.SemesterID, task.TaskID)
			if err != nil {
				return nil, err
			}
			hasNotes = len(notes) > 0
		}
		tr := toTaskResponse(task, hasNotes)
		resp.Task = &tr
	}
	return resp, nil
}

func toTaskResponse(t *model.Task, hasNotes bool) dto.TaskResponse {
	return dto.TaskResponse{
		ID:       t.TaskID,
		WeekNum:  t.WeekNum,
		Course:   t.Course,
		Text:     t.Text,
		Order:    t.Order,
		Done:     t.Done,
		HasNotes: hasNotes,
	}
}

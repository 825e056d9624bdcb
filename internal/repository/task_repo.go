package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edbrsk/uoc-planner/internal/model"
)

// TaskRepository 任务数据访问接口
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	CreateBatch(ctx context.Context, tasks []model.Task) error
	GetByID(ctx context.Context, semesterID, id string) (*model.Task, error)
	ListBySemester(ctx context.Context, semesterID string) ([]model.Task, error)
	ListByWeek(ctx context.Context, semesterID string, weekNum int) ([]model.Task, error)
	CountByWeek(ctx context.Context, semesterID string, weekNum int) (int64, error)
	Update(ctx context.Context, task *model.Task) error
	SetDone(ctx context.Context, semesterID, id string, done bool) error
	// ResetDone 将学期内所有任务标记为未完成，返回受影响行数
	ResetDone(ctx context.Context, semesterID string) (int64, error)
	Delete(ctx context.Context, semesterID, id string) error
	DeleteByWeek(ctx context.Context, semesterID string, weekNum int) (int64, error)
	DeleteBySemester(ctx context.Context, semesterID string) error
}

type taskRepo struct {
	db *gorm.DB
}

// NewTaskRepo 创建 TaskRepository 实例
func NewTaskRepo(db *gorm.DB) TaskRepository {
	return &taskRepo{db: db}
}

func (r *taskRepo) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepo) CreateBatch(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(tasks, 200).Error
}

func (r *taskRepo) GetByID(ctx context.Context, semesterID, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND semester_id = ?", id, semesterID).
		First(&task).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

func (r *taskRepo) ListBySemester(ctx context.Context, semesterID string) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("semester_id = ?", semesterID).
		Order("week_num ASC, sort_order ASC, created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepo) ListByWeek(ctx context.Context, semesterID string, weekNum int) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("semester_id = ? AND week_num = ?", semesterID, weekNum).
		Order("sort_order ASC, created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepo) CountByWeek(ctx context.Context, semesterID string, weekNum int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("semester_id = ? AND week_num = ?", semesterID, weekNum).
		Count(&count).Error
	return count, err
}

func (r *taskRepo) Update(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now().UTC()
	return affected(r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("task_id = ? AND semester_id = ?", task.TaskID, task.SemesterID).
		Updates(map[string]interface{}{
			"course":     task.Course,
			"text":       task.Text,
			"done":       task.Done,
			"updated_at": task.UpdatedAt,
		}))
}

func (r *taskRepo) SetDone(ctx context.Context, semesterID, id string, done bool) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("task_id = ? AND semester_id = ?", id, semesterID).
		Updates(map[string]interface{}{
			"done":       done,
			"updated_at": time.Now().UTC(),
		}))
}

func (r *taskRepo) ResetDone(ctx context.Context, semesterID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("semester_id = ? AND done = ?", semesterID, true).
		Updates(map[string]interface{}{
			"done":       false,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

func (r *taskRepo) Delete(ctx context.Context, semesterID, id string) error {
	return affected(r.db.WithContext(ctx).
		Where("task_id = ? AND semester_id = ?", id, semesterID).
		Delete(&model.Task{}))
}

func (r *taskRepo) DeleteByWeek(ctx context.Context, semesterID string, weekNum int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("semester_id = ? AND week_num = ?", semesterID, weekNum).
		Delete(&model.Task{})
	return result.RowsAffected, result.Error
}

func (r *taskRepo) DeleteBySemester(ctx context.Context, semesterID string) error {
	return r.db.WithContext(ctx).
		Where("semester_id = ?", semesterID).
		Delete(&model.Task{}).Error
}

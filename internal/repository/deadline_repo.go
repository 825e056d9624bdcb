package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edbrsk/uoc-planner/internal/model"
)

// DeadlineRepository 截止日期数据访问接口
type DeadlineRepository interface {
	Create(ctx context.Context, deadline *model.Deadline) error
	CreateBatch(ctx context.Context, deadlines []model.Deadline) error
	GetByID(ctx context.Context, semesterID, id string) (*model.Deadline, error)
	ListBySemester(ctx context.Context, semesterID string) ([]model.Deadline, error)
	Count(ctx context.Context, semesterID string) (int64, error)
	Update(ctx context.Context, deadline *model.Deadline) error
	Delete(ctx context.Context, semesterID, id string) error
	DeleteBySemester(ctx context.Context, semesterID string) error
}

type deadlineRepo struct {
	db *gorm.DB
}

// NewDeadlineRepo 创建 DeadlineRepository 实例
func NewDeadlineRepo(db *gorm.DB) DeadlineRepository {
	return &deadlineRepo{db: db}
}

func (r *deadlineRepo) Create(ctx context.Context, deadline *model.Deadline) error {
	return r.db.WithContext(ctx).Create(deadline).Error
}

func (r *deadlineRepo) CreateBatch(ctx context.Context, deadlines []model.Deadline) error {
	if len(deadlines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(deadlines, 200).Error
}

func (r *deadlineRepo) GetByID(ctx context.Context, semesterID, id string) (*model.Deadline, error) {
	var deadline model.Deadline
	err := r.db.WithContext(ctx).
		Where("deadline_id = ? AND semester_id = ?", id, semesterID).
		First(&deadline).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &deadline, nil
}

func (r *deadlineRepo) ListBySemester(ctx context.Context, semesterID string) ([]model.Deadline, error) {
	var deadlines []model.Deadline
	err := r.db.WithContext(ctx).
		Where("semester_id = ?", semesterID).
		Order("date ASC, sort_order ASC").
		Find(&deadlines).Error
	return deadlines, err
}

func (r *deadlineRepo) Count(ctx context.Context, semesterID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Deadline{}).
		Where("semester_id = ?", semesterID).
		Count(&count).Error
	return count, err
}

func (r *deadlineRepo) Update(ctx context.Context, deadline *model.Deadline) error {
	deadline.UpdatedAt = time.Now().UTC()
	return affected(r.db.WithContext(ctx).
		Model(&model.Deadline{}).
		Where("deadline_id = ? AND semester_id = ?", deadline.DeadlineID, deadline.SemesterID).
		Updates(map[string]interface{}{
			"date":       deadline.Date,
			"label":      deadline.Label,
			"course":     deadline.Course,
			"urgent":     deadline.Urgent,
			"updated_at": deadline.UpdatedAt,
		}))
}

func (r *deadlineRepo) Delete(ctx context.Context, semesterID, id string) error {
	return affected(r.db.WithContext(ctx).
		Where("deadline_id = ? AND semester_id = ?", id, semesterID).
		Delete(&model.Deadline{}))
}

func (r *deadlineRepo) DeleteBySemester(ctx context.Context, semesterID string) error {
	return r.db.WithContext(ctx).
		Where("semester_id = ?", semesterID).
		Delete(&model.Deadline{}).Error
}

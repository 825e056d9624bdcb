package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edbrsk/uoc-planner/internal/model"
	pkgerrors "github.com/edbrsk/uoc-planner/pkg/errors"
)

// SemesterRepository 学期数据访问接口（按 owner 隔离）
type SemesterRepository interface {
	Create(ctx context.Context, semester *model.Semester) error
	GetByID(ctx context.Context, ownerID, id string) (*model.Semester, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Semester, error)
	// Update 整体写回学期（含周次映射），version 不一致时返回 ErrOptimisticLock
	Update(ctx context.Context, semester *model.Semester) error
	Delete(ctx context.Context, ownerID, id string) error
}

type semesterRepo struct {
	db *gorm.DB
}

// NewSemesterRepo 创建 SemesterRepository 实例
func NewSemesterRepo(db *gorm.DB) SemesterRepository {
	return &semesterRepo{db: db}
}

func (r *semesterRepo) Create(ctx context.Context, semester *model.Semester) error {
	if semester.Version == 0 {
		semester.Version = 1
	}
	return r.db.WithContext(ctx).Create(semester).Error
}

func (r *semesterRepo) GetByID(ctx context.Context, ownerID, id string) (*model.Semester, error) {
	var semester model.Semester
	err := r.db.WithContext(ctx).
		Where("semester_id = ? AND owner_id = ?", id, ownerID).
		First(&semester).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &semester, nil
}

func (r *semesterRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Semester, error) {
	var semesters []model.Semester
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&semesters).Error
	return semesters, err
}

func (r *semesterRepo) Update(ctx context.Context, semester *model.Semester) error {
	oldVersion := semester.Version
	now := time.Now().UTC()
	weeks, err := semester.Weeks.Value()
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&model.Semester{}).
		Where("semester_id = ? AND owner_id = ? AND version = ?", semester.SemesterID, semester.OwnerID, oldVersion).
		Updates(map[string]interface{}{
			"name":       semester.Name,
			"label":      semester.Label,
			"start_date": semester.StartDate,
			"end_date":   semester.EndDate,
			"weeks":      weeks,
			"version":    oldVersion + 1,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	semester.Version = oldVersion + 1
	semester.UpdatedAt = now
	return nil
}

func (r *semesterRepo) Delete(ctx context.Context, ownerID, id string) error {
	return affected(r.db.WithContext(ctx).
		Where("semester_id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Semester{}))
}

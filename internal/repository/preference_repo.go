package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edbrsk/uoc-planner/internal/model"
)

// PreferenceRepository 用户偏好（最近打开的学期）
type PreferenceRepository interface {
	Get(ctx context.Context, ownerID string) (*model.OwnerPreference, error)
	// SetLastSemester 不存在则创建；semesterID 为 nil 表示清空
	SetLastSemester(ctx context.Context, ownerID string, semesterID *string) error
}

type preferenceRepo struct {
	db *gorm.DB
}

// NewPreferenceRepo 创建 PreferenceRepository 实例
func NewPreferenceRepo(db *gorm.DB) PreferenceRepository {
	return &preferenceRepo{db: db}
}

func (r *preferenceRepo) Get(ctx context.Context, ownerID string) (*model.OwnerPreference, error) {
	var pref model.OwnerPreference
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&pref).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &pref, nil
}

func (r *preferenceRepo) SetLastSemester(ctx context.Context, ownerID string, semesterID *string) error {
	now := time.Now().UTC()
	pref := model.OwnerPreference{
		OwnerID:        ownerID,
		LastSemesterID: semesterID,
		BaseModel:      model.BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_semester_id", "updated_at"}),
		}).
		Create(&pref).Error
}

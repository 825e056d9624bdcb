package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edbrsk/uoc-planner/internal/model"
)

// NoteRepository 任务笔记数据访问接口
type NoteRepository interface {
	Create(ctx context.Context, note *model.Note) error
	CreateBatch(ctx context.Context, notes []model.Note) error
	GetByID(ctx context.Context, semesterID, id string) (*model.Note, error)
	// ListBySemester 按创建时间升序
	ListBySemester(ctx context.Context, semesterID string) ([]model.Note, error)
	ListByTask(ctx context.Context, semesterID, taskID string) ([]model.Note, error)
	UpdateText(ctx context.Context, semesterID, id, text string) error
	Delete(ctx context.Context, semesterID, id string) error
	DeleteByTasks(ctx context.Context, semesterID string, taskIDs []string) (int64, error)
	DeleteBySemester(ctx context.Context, semesterID string) error
}

type noteRepo struct {
	db *gorm.DB
}

// NewNoteRepo 创建 NoteRepository 实例
func NewNoteRepo(db *gorm.DB) NoteRepository {
	return &noteRepo{db: db}
}

func (r *noteRepo) Create(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *noteRepo) CreateBatch(ctx context.Context, notes []model.Note) error {
	if len(notes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(notes, 200).Error
}

func (r *noteRepo) GetByID(ctx context.Context, semesterID, id string) (*model.Note, error) {
	var note model.Note
	err := r.db.WithContext(ctx).
		Where("note_id = ? AND semester_id = ?", id, semesterID).
		First(&note).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &note, nil
}

func (r *noteRepo) ListBySemester(ctx context.Context, semesterID string) ([]model.Note, error) {
	var notes []model.Note
	err := r.db.WithContext(ctx).
		Where("semester_id = ?", semesterID).
		Order("created_at ASC").
		Find(&notes).Error
	return notes, err
}

func (r *noteRepo) ListByTask(ctx context.Context, semesterID, taskID string) ([]model.Note, error) {
	var notes []model.Note
	err := r.db.WithContext(ctx).
		Where("semester_id = ? AND task_id = ?", semesterID, taskID).
		Order("created_at ASC").
		Find(&notes).Error
	return notes, err
}

func (r *noteRepo) UpdateText(ctx context.Context, semesterID, id, text string) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("note_id = ? AND semester_id = ?", id, semesterID).
		Updates(map[string]interface{}{
			"text":       text,
			"updated_at": time.Now().UTC(),
		}))
}

func (r *noteRepo) Delete(ctx context.Context, semesterID, id string) error {
	return affected(r.db.WithContext(ctx).
		Where("note_id = ? AND semester_id = ?", id, semesterID).
		Delete(&model.Note{}))
}

func (r *noteRepo) DeleteByTasks(ctx context.Context, semesterID string, taskIDs []string) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("semester_id = ? AND task_id IN ?", semesterID, taskIDs).
		Delete(&model.Note{})
	return result.RowsAffected, result.Error
}

func (r *noteRepo) DeleteBySemester(ctx context.Context, semesterID string) error {
	return r.db.WithContext(ctx).
		Where("semester_id = ?", semesterID).
		Delete(&model.Note{}).Error
}

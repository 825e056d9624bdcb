package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgerrors "github.com/edbrsk/uoc-planner/pkg/errors"
)

// Repository 所有 Repository 的聚合入口。
// 远程（gorm/PostgreSQL）与本地（SQLite）两种存储实现都构造这个聚合，
// 业务层只依赖接口，不区分存储模式。
type Repository struct {
	Semester   SemesterRepository
	Task       TaskRepository
	Deadline   DeadlineRepository
	Note       NoteRepository
	Preference PreferenceRepository

	// TxRunner 在同一事务中执行 fn，fn 收到绑定到该事务的聚合。
	// 为 nil 时直接以当前聚合执行（单元测试的内存实现）。
	TxRunner func(ctx context.Context, fn func(tx *Repository) error) error
}

// Transaction 多记录写入（级联删除、导入提交、周次保存）的原子边界
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.TxRunner == nil {
		return fn(r)
	}
	return r.TxRunner(ctx, fn)
}

// NewRepository 创建基于 gorm 的 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Semester:   NewSemesterRepo(db),
		Task:       NewTaskRepo(db),
		Deadline:   NewDeadlineRepo(db),
		Note:       NewNoteRepo(db),
		Preference: NewPreferenceRepo(db),
		TxRunner: func(ctx context.Context, fn func(tx *Repository) error) error {
			return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				return fn(NewRepository(tx))
			})
		},
	}
}

// notFound 将 gorm 的未找到错误转换为共享哨兵错误
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.ErrRecordNotFound
	}
	return err
}

// affected 按 id 更新/删除时，未命中任何行视为记录不存在
func affected(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrRecordNotFound
	}
	return nil
}

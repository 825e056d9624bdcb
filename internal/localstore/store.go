// Package localstore 本地单用户存储：SQLite 文件，实现与远程存储相同的 Repository 契约。
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/edbrsk/uoc-planner/internal/repository"
	pkgerrors "github.com/edbrsk/uoc-planner/pkg/errors"
)

// tsLayout 固定宽度的 UTC 时间格式，保证按文本排序即按时间排序
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// querier *sql.DB 与 *sql.Tx 的公共子集
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store 本地 SQLite 存储
type Store struct {
	db *sql.DB
}

// Open 打开（必要时创建）数据库文件并建表
func Open(dbPath string) (*Store, error) {
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// SQLite 单写者：一个连接即可避免 "database is locked"
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化本地数据库失败: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS semesters (
			semester_id TEXT PRIMARY KEY,
			owner_id    TEXT NOT NULL,
			name        TEXT NOT NULL,
			label       TEXT NOT NULL DEFAULT '',
			start_date  TEXT NOT NULL DEFAULT '',
			end_date    TEXT NOT NULL DEFAULT '',
			weeks       TEXT NOT NULL DEFAULT '{}',
			version     INTEGER NOT NULL DEFAULT 1,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tasks (
			task_id     TEXT PRIMARY KEY,
			semester_id TEXT NOT NULL REFERENCES semesters(semester_id) ON DELETE CASCADE,
			week_num    INTEGER NOT NULL,
			course      TEXT NOT NULL,
			text        TEXT NOT NULL,
			sort_order  INTEGER NOT NULL DEFAULT 0,
			done        INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS deadlines (
			deadline_id TEXT PRIMARY KEY,
			semester_id TEXT NOT NULL REFERENCES semesters(semester_id) ON DELETE CASCADE,
			date        TEXT NOT NULL,
			label       TEXT NOT NULL,
			course      TEXT NOT NULL,
			urgent      INTEGER NOT NULL DEFAULT 0,
			sort_order  INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS notes (
			note_id     TEXT PRIMARY KEY,
			semester_id TEXT NOT NULL REFERENCES semesters(semester_id) ON DELETE CASCADE,
			task_id     TEXT NOT NULL,
			text        TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS owner_preferences (
			owner_id         TEXT PRIMARY KEY,
			last_semester_id TEXT,
			created_at       TEXT NOT NULL,
			updated_at       TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_semesters_owner ON semesters(owner_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_tasks_semester_week ON tasks(semester_id, week_num, sort_order);
		CREATE INDEX IF NOT EXISTS idx_deadlines_semester_date ON deadlines(semester_id, date, sort_order);
		CREATE INDEX IF NOT EXISTS idx_notes_semester_task ON notes(semester_id, task_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	return s.db.Close()
}

// Repository 构造绑定到本地数据库的 Repository 聚合
func (s *Store) Repository() *repository.Repository {
	repo := newRepository(s.db)
	repo.TxRunner = func(ctx context.Context, fn func(tx *repository.Repository) error) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		txRepo := newRepository(tx)
		// 事务内再次开启事务时直接复用
		txRepo.TxRunner = func(_ context.Context, inner func(*repository.Repository) error) error {
			return inner(txRepo)
		}
		if err := fn(txRepo); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	}
	return repo
}

func newRepository(q querier) *repository.Repository {
	return &repository.Repository{
		Semester:   &semesterStore{q: q},
		Task:       &taskStore{q: q},
		Deadline:   &deadlineStore{q: q},
		Note:       &noteStore{q: q},
		Preference: &preferenceStore{q: q},
	}
}

// ── 辅助函数 ──

func formatTS(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) time.Time {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// rowErr 单行查询未命中转换为共享哨兵错误
func rowErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return pkgerrors.ErrRecordNotFound
	}
	return err
}

// exactlyOne 按 id 更新/删除时未命中任何行视为记录不存在
func exactlyOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return pkgerrors.ErrRecordNotFound
	}
	return nil
}

func rowsAffected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// inClause 生成 "?, ?, ?" 占位符与参数
func inClause(prefix []any, ids []string) (string, []any) {
	marks := make([]string, len(ids))
	args := append([]any(nil), prefix...)
	for i, id := range ids {
		marks[i] = "?"
		args = append(args, id)
	}
	return strings.Join(marks, ", "), args
}

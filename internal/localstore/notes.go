package localstore

import (
	"context"
	"time"

	"github.com/edbrsk/uoc-planner/internal/model"
)

type noteStore struct {
	q querier
}

const noteColumns = `note_id, semester_id, task_id, text, created_at, updated_at`

func scanNote(row scanner) (model.Note, error) {
	var (
		n                    model.Note
		createdAt, updatedAt string
	)
	err := row.Scan(&n.NoteID, &n.SemesterID, &n.TaskID, &n.Text, &createdAt, &updatedAt)
	n.CreatedAt = parseTS(createdAt)
	n.UpdatedAt = parseTS(updatedAt)
	return n, err
}

func (r *noteStore) list(ctx context.Context, query string, args ...any) ([]model.Note, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *noteStore) Create(ctx context.Context, n *model.Note) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		n.NoteID, n.SemesterID, n.TaskID, n.Text, formatTS(n.CreatedAt), formatTS(n.UpdatedAt))
	return err
}

func (r *noteStore) CreateBatch(ctx context.Context, notes []model.Note) error {
	for i := range notes {
		if err := r.Create(ctx, &notes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *noteStore) GetByID(ctx context.Context, semesterID, id string) (*model.Note, error) {
	n, err := scanNote(r.q.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE note_id = ? AND semester_id = ?`, id, semesterID))
	if err != nil {
		return nil, rowErr(err)
	}
	return &n, nil
}

func (r *noteStore) ListBySemester(ctx context.Context, semesterID string) ([]model.Note, error) {
	return r.list(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE semester_id = ? ORDER BY created_at`, semesterID)
}

func (r *noteStore) ListByTask(ctx context.Context, semesterID, taskID string) ([]model.Note, error) {
	return r.list(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE semester_id = ? AND task_id = ? ORDER BY created_at`,
		semesterID, taskID)
}

func (r *noteStore) UpdateText(ctx context.Context, semesterID, id, text string) error {
	return exactlyOne(r.q.ExecContext(ctx,
		`UPDATE notes SET text = ?, updated_at = ? WHERE note_id = ? AND semester_id = ?`,
		text, formatTS(time.Now()), id, semesterID))
}

func (r *noteStore) Delete(ctx context.Context, semesterID, id string) error {
	return exactlyOne(r.q.ExecContext(ctx,
		`DELETE FROM notes WHERE note_id = ? AND semester_id = ?`, id, semesterID))
}

func (r *noteStore) DeleteByTasks(ctx context.Context, semesterID string, taskIDs []string) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	marks, args := inClause([]any{semesterID}, taskIDs)
	return rowsAffected(r.q.ExecContext(ctx,
		`DELETE FROM notes WHERE semester_id = ? AND task_id IN (`+marks+`)`, args...))
}

func (r *noteStore) DeleteBySemester(ctx context.Context, semesterID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM notes WHERE semester_id = ?`, semesterID)
	return err
}

package localstore

import (
	"context"
	"time"

	"github.com/edbrsk/uoc-planner/internal/model"
)

type taskStore struct {
	q querier
}

const taskColumns = `task_id, semester_id, week_num, course, text, sort_order, done, created_at, updated_at`

func scanTask(row scanner) (model.Task, error) {
	var (
		t                    model.Task
		done                 int
		createdAt, updatedAt string
	)
	err := row.Scan(&t.TaskID, &t.SemesterID, &t.WeekNum, &t.Course, &t.Text, &t.Order, &done, &createdAt, &updatedAt)
	t.Done = done != 0
	t.CreatedAt = parseTS(createdAt)
	t.UpdatedAt = parseTS(updatedAt)
	return t, err
}

func (r *taskStore) list(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *taskStore) Create(ctx context.Context, t *model.Task) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TaskID, t.SemesterID, t.WeekNum, t.Course, t.Text, t.Order, boolInt(t.Done),
		formatTS(t.CreatedAt), formatTS(t.UpdatedAt))
	return err
}

func (r *taskStore) CreateBatch(ctx context.Context, tasks []model.Task) error {
	for i := range tasks {
		if err := r.Create(ctx, &tasks[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *taskStore) GetByID(ctx context.Context, semesterID, id string) (*model.Task, error) {
	t, err := scanTask(r.q.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE task_id = ? AND semester_id = ?`, id, semesterID))
	if err != nil {
		return nil, rowErr(err)
	}
	return &t, nil
}

func (r *taskStore) ListBySemester(ctx context.Context, semesterID string) ([]model.Task, error) {
	return r.list(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE semester_id = ? ORDER BY week_num, sort_order, created_at`, semesterID)
}

func (r *taskStore) ListByWeek(ctx context.Context, semesterID string, weekNum int) ([]model.Task, error) {
	return r.list(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE semester_id = ? AND week_num = ? ORDER BY sort_order, created_at`,
		semesterID, weekNum)
}

func (r *taskStore) CountByWeek(ctx context.Context, semesterID string, weekNum int) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE semester_id = ? AND week_num = ?`, semesterID, weekNum).Scan(&n)
	return n, err
}

func (r *taskStore) Update(ctx context.Context, t *model.Task) error {
	t.UpdatedAt = time.Now().UTC()
	return exactlyOne(r.q.ExecContext(ctx,
		`UPDATE tasks SET course = ?, text = ?, done = ?, updated_at = ? WHERE task_id = ? AND semester_id = ?`,
		t.Course, t.Text, boolInt(t.Done), formatTS(t.UpdatedAt), t.TaskID, t.SemesterID))
}

func (r *taskStore) SetDone(ctx context.Context, semesterID, id string, done bool) error {
	return exactlyOne(r.q.ExecContext(ctx,
		`UPDATE tasks SET done = ?, updated_at = ? WHERE task_id = ? AND semester_id = ?`,
		boolInt(done), formatTS(time.Now()), id, semesterID))
}

func (r *taskStore) ResetDone(ctx context.Context, semesterID string) (int64, error) {
	return rowsAffected(r.q.ExecContext(ctx,
		`UPDATE tasks SET done = 0, updated_at = ? WHERE semester_id = ? AND done = 1`,
		formatTS(time.Now()), semesterID))
}

func (r *taskStore) Delete(ctx context.Context, semesterID, id string) error {
	return exactlyOne(r.q.ExecContext(ctx,
		`DELETE FROM tasks WHERE task_id = ? AND semester_id = ?`, id, semesterID))
}

func (r *taskStore) DeleteByWeek(ctx context.Context, semesterID string, weekNum int) (int64, error) {
	return rowsAffected(r.q.ExecContext(ctx,
		`DELETE FROM tasks WHERE semester_id = ? AND week_num = ?`, semesterID, weekNum))
}

func (r *taskStore) DeleteBySemester(ctx context.Context, semesterID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM tasks WHERE semester_id = ?`, semesterID)
	return err
}

package localstore

import (
	"context"
	"time"

	"github.com/edbrsk/uoc-planner/internal/model"
)

type deadlineStore struct {
	q querier
}

const deadlineColumns = `deadline_id, semester_id, date, label, course, urgent, sort_order, created_at, updated_at`

func scanDeadline(row scanner) (model.Deadline, error) {
	var (
		d                    model.Deadline
		urgent               int
		createdAt, updatedAt string
	)
	err := row.Scan(&d.DeadlineID, &d.SemesterID, &d.Date, &d.Label, &d.Course, &urgent, &d.Order, &createdAt, &updatedAt)
	d.Urgent = urgent != 0
	d.CreatedAt = parseTS(createdAt)
	d.UpdatedAt = parseTS(updatedAt)
	return d, err
}

func (r *deadlineStore) Create(ctx context.Context, d *model.Deadline) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO deadlines (`+deadlineColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.DeadlineID, d.SemesterID, d.Date, d.Label, d.Course, boolInt(d.Urgent), d.Order,
		formatTS(d.CreatedAt), formatTS(d.UpdatedAt))
	return err
}

func (r *deadlineStore) CreateBatch(ctx context.Context, deadlines []model.Deadline) error {
	for i := range deadlines {
		if err := r.Create(ctx, &deadlines[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *deadlineStore) GetByID(ctx context.Context, semesterID, id string) (*model.Deadline, error) {
	d, err := scanDeadline(r.q.QueryRowContext(ctx,
		`SELECT `+deadlineColumns+` FROM deadlines WHERE deadline_id = ? AND semester_id = ?`, id, semesterID))
	if err != nil {
		return nil, rowErr(err)
	}
	return &d, nil
}

func (r *deadlineStore) ListBySemester(ctx context.Context, semesterID string) ([]model.Deadline, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+deadlineColumns+` FROM deadlines WHERE semester_id = ? ORDER BY date, sort_order`, semesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Deadline
	for rows.Next() {
		d, err := scanDeadline(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *deadlineStore) Count(ctx context.Context, semesterID string) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM deadlines WHERE semester_id = ?`, semesterID).Scan(&n)
	return n, err
}

func (r *deadlineStore) Update(ctx context.Context, d *model.Deadline) error {
	d.UpdatedAt = time.Now().UTC()
	return exactlyOne(r.q.ExecContext(ctx,
		`UPDATE deadlines SET date = ?, label = ?, course = ?, urgent = ?, updated_at = ?
		  WHERE deadline_id = ? AND semester_id = ?`,
		d.Date, d.Label, d.Course, boolInt(d.Urgent), formatTS(d.UpdatedAt), d.DeadlineID, d.SemesterID))
}

func (r *deadlineStore) Delete(ctx context.Context, semesterID, id string) error {
	return exactlyOne(r.q.ExecContext(ctx,
		`DELETE FROM deadlines WHERE deadline_id = ? AND semester_id = ?`, id, semesterID))
}

func (r *deadlineStore) DeleteBySemester(ctx context.Context, semesterID string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM deadlines WHERE semester_id = ?`, semesterID)
	return err
}

package localstore

import (
	"context"
	"time"

	"github.com/edbrsk/uoc-planner/internal/model"
	pkgerrors "github.com/edbrsk/uoc-planner/pkg/errors"
)

type semesterStore struct {
	q querier
}

const semesterColumns = `semester_id, owner_id, name, label, start_date, end_date, weeks, version, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSemester(row scanner) (*model.Semester, error) {
	var (
		s                    model.Semester
		createdAt, updatedAt string
	)
	if err := row.Scan(&s.SemesterID, &s.OwnerID, &s.Name, &s.Label, &s.StartDate, &s.EndDate,
		&s.Weeks, &s.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.CreatedAt = parseTS(createdAt)
	s.UpdatedAt = parseTS(updatedAt)
	return &s, nil
}

func (r *semesterStore) Create(ctx context.Context, s *model.Semester) error {
	if s.Version == 0 {
		s.Version = 1
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	weeks, err := s.Weeks.Value()
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO semesters (`+semesterColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.SemesterID, s.OwnerID, s.Name, s.Label, s.StartDate, s.EndDate, weeks, s.Version,
		formatTS(s.CreatedAt), formatTS(s.UpdatedAt))
	return err
}

func (r *semesterStore) GetByID(ctx context.Context, ownerID, id string) (*model.Semester, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+semesterColumns+` FROM semesters WHERE semester_id = ? AND owner_id = ?`, id, ownerID)
	s, err := scanSemester(row)
	if err != nil {
		return nil, rowErr(err)
	}
	return s, nil
}

func (r *semesterStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Semester, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+semesterColumns+` FROM semesters WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Semester
	for rows.Next() {
		s, err := scanSemester(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *semesterStore) Update(ctx context.Context, s *model.Semester) error {
	oldVersion := s.Version
	now := time.Now().UTC()
	weeks, err := s.Weeks.Value()
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE semesters
		    SET name = ?, label = ?, start_date = ?, end_date = ?, weeks = ?, version = ?, updated_at = ?
		  WHERE semester_id = ? AND owner_id = ? AND version = ?`,
		s.Name, s.Label, s.StartDate, s.EndDate, weeks, oldVersion+1, formatTS(now),
		s.SemesterID, s.OwnerID, oldVersion)
	n, err := rowsAffected(res, err)
	if err != nil {
		return err
	}
	if n == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	s.Version = oldVersion + 1
	s.UpdatedAt = now
	return nil
}

func (r *semesterStore) Delete(ctx context.Context, ownerID, id string) error {
	return exactlyOne(r.q.ExecContext(ctx,
		`DELETE FROM semesters WHERE semester_id = ? AND owner_id = ?`, id, ownerID))
}

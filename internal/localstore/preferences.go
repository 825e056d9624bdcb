package localstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/edbrsk/uoc-planner/internal/model"
)

type preferenceStore struct {
	q querier
}

func (r *preferenceStore) Get(ctx context.Context, ownerID string) (*model.OwnerPreference, error) {
	var (
		pref                 model.OwnerPreference
		last                 sql.NullString
		createdAt, updatedAt string
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT owner_id, last_semester_id, created_at, updated_at FROM owner_preferences WHERE owner_id = ?`,
		ownerID).Scan(&pref.OwnerID, &last, &createdAt, &updatedAt)
	if err != nil {
		return nil, rowErr(err)
	}
	if last.Valid {
		pref.LastSemesterID = &last.String
	}
	pref.CreatedAt = parseTS(createdAt)
	pref.UpdatedAt = parseTS(updatedAt)
	return &pref, nil
}

func (r *preferenceStore) SetLastSemester(ctx context.Context, ownerID string, semesterID *string) error {
	now := formatTS(time.Now())
	var last sql.NullString
	if semesterID != nil {
		last = sql.NullString{String: *semesterID, Valid: true}
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO owner_preferences (owner_id, last_semester_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(owner_id) DO UPDATE SET last_semester_id = excluded.last_semester_id, updated_at = excluded.updated_at`,
		ownerID, last, now, now)
	return err
}

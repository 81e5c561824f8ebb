package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finplan/internal/core"
)

const profileColumns = `id, name, dob, retirement_age, created_at, updated_at`

func scanProfile(s rowScanner) (core.Profile, error) {
	var (
		p                    core.Profile
		dob                  sql.NullString
		retirementAge        sql.NullInt64
		createdAt, updatedAt string
	)
	if err := s.Scan(&p.ID, &p.Name, &dob, &retirementAge, &createdAt, &updatedAt); err != nil {
		return core.Profile{}, err
	}
	p.DOB = datePtr(dob)
	p.RetirementAge = intPtr(retirementAge)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

func (r *SQLiteRepository) ListProfiles(ctx context.Context) ([]core.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []core.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, id string) (core.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, notFound("profile", id)
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) SaveProfile(ctx context.Context, p core.Profile) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			dob = excluded.dob,
			retirement_age = excluded.retirement_age,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, nullDate(p.DOB), nullInt(p.RetirementAge), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteProfile(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("profile", id)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/tourdesk/internal/domain"
)

type staffRepository struct {
	db dbtx
}

func (r *staffRepository) Create(ctx context.Context, profile *domain.StaffProfile) error {
	const query = `
        INSERT INTO staff_profiles (account_id, position)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		profile.AccountID,
		profile.Position,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	return mapError("staff.Create", err)
}

func (r *staffRepository) Update(ctx context.Context, profile *domain.StaffProfile) error {
	const query = `
        UPDATE staff_profiles SET position=$1, updated_at=NOW()
        WHERE account_id=$2
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query, profile.Position, profile.AccountID).Scan(&profile.UpdatedAt)
	return mapError("staff.Update", err)
}

func (r *staffRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.StaffProfile, error) {
	const query = `
        SELECT id, account_id, position, created_at, updated_at
        FROM staff_profiles WHERE account_id=$1`

	var profile domain.StaffProfile
	if err := r.db.QueryRow(ctx, query, accountID).Scan(
		&profile.ID,
		&profile.AccountID,
		&profile.Position,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, mapError("staff.GetByAccountID", err)
	}
	return &profile, nil
}

func (r *staffRepository) Delete(ctx context.Context, accountID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM staff_profiles WHERE account_id=$1`, accountID)
	return affected("staff.Delete", tag, err)
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffProfile, error) {
	limit, offset := Page(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
        SELECT id, account_id, position, created_at, updated_at
        FROM staff_profiles
        ORDER BY created_at DESC, id
        LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapError("staff.List", err)
	}
	defer rows.Close()

	result := []domain.StaffProfile{}
	for rows.Next() {
		var profile domain.StaffProfile
		if err := rows.Scan(
			&profile.ID,
			&profile.AccountID,
			&profile.Position,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		); err != nil {
			return nil, mapError("staff.List", err)
		}
		result = append(result, profile)
	}
	return result, mapError("staff.List", rows.Err())
}

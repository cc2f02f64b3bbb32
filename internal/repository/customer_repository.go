package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tourdesk/internal/domain"
)

const customerColumns = `id, account_id, phone, gender, age, address, created_at, updated_at`

type customerRepository struct {
	db dbtx
}

func (r *customerRepository) Create(ctx context.Context, profile *domain.CustomerProfile) error {
	const query = `
        INSERT INTO customer_profiles (account_id, phone, gender, age, address)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		profile.AccountID,
		profile.Phone,
		profile.Gender,
		profile.Age,
		profile.Address,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	return mapError("customers.Create", err)
}

func (r *customerRepository) Update(ctx context.Context, profile *domain.CustomerProfile) error {
	const query = `
        UPDATE customer_profiles SET phone=$1, gender=$2, age=$3, address=$4, updated_at=NOW()
        WHERE account_id=$5
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		profile.Phone,
		profile.Gender,
		profile.Age,
		profile.Address,
		profile.AccountID,
	).Scan(&profile.UpdatedAt)
	return mapError("customers.Update", err)
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.CustomerProfile, error) {
	query := `SELECT ` + customerColumns + ` FROM customer_profiles WHERE id=$1`
	profile, err := scanCustomer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError("customers.GetByID", err)
	}
	return profile, nil
}

func (r *customerRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.CustomerProfile, error) {
	query := `SELECT ` + customerColumns + ` FROM customer_profiles WHERE account_id=$1`
	profile, err := scanCustomer(r.db.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, mapError("customers.GetByAccountID", err)
	}
	return profile, nil
}

func (r *customerRepository) Delete(ctx context.Context, accountID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customer_profiles WHERE account_id=$1`, accountID)
	return affected("customers.Delete", tag, err)
}

func (r *customerRepository) List(ctx context.Context, filter CustomerFilter) ([]domain.CustomerProfile, error) {
	query := `SELECT ` + customerColumns + ` FROM customer_profiles`
	args := []any{}
	clauses := []string{}

	if filter.Gender != nil {
		args = append(args, *filter.Gender)
		clauses = append(clauses, fmt.Sprintf("gender=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit, offset := Page(filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("customers.List", err)
	}
	defer rows.Close()

	result := []domain.CustomerProfile{}
	for rows.Next() {
		profile, err := scanCustomer(rows)
		if err != nil {
			return nil, mapError("customers.List", err)
		}
		result = append(result, *profile)
	}
	return result, mapError("customers.List", rows.Err())
}

func scanCustomer(row pgx.Row) (*domain.CustomerProfile, error) {
	var profile domain.CustomerProfile
	if err := row.Scan(
		&profile.ID,
		&profile.AccountID,
		&profile.Phone,
		&profile.Gender,
		&profile.Age,
		&profile.Address,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

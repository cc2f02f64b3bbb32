package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tourdesk/internal/domain"
)

const accountColumns = `id, email, name, password_hash, role, created_at, updated_at`

type accountRepository struct {
	db dbtx
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (email, name, password_hash, role)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		account.Email,
		account.Name,
		account.PasswordHash,
		account.Role,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	return mapError("accounts.Create", err)
}

func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE accounts SET email=$1, name=$2, password_hash=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		account.Email,
		account.Name,
		account.PasswordHash,
		account.ID,
	).Scan(&account.UpdatedAt)
	return mapError("accounts.Update", err)
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id=$1`
	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError("accounts.GetByID", err)
	}
	return account, nil
}

func (r *accountRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id=$1 FOR UPDATE`
	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError("accounts.GetByIDForUpdate", err)
	}
	return account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email=$1`
	account, err := scanAccount(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, mapError("accounts.GetByEmail", err)
	}
	return account, nil
}

func (r *accountRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	return affected("accounts.Delete", tag, err)
}

func (r *accountRepository) List(ctx context.Context, filter AccountFilter) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	args := []any{}
	clauses := []string{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit, offset := Page(filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("accounts.List", err)
	}
	defer rows.Close()

	result := []domain.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, mapError("accounts.List", err)
		}
		result = append(result, *account)
	}
	return result, mapError("accounts.List", rows.Err())
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.PasswordHash,
		&account.Role,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"

	accountsEmailKey = "accounts_email_key"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx so the same repository
// code runs inside and outside a transaction.
type dbtx interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresStore struct {
	db dbtx
}

// NewPostgresStore returns a Store backed by the pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{db: pool}
}

func (s *postgresStore) Accounts() AccountRepository   { return &accountRepository{db: s.db} }
func (s *postgresStore) Staff() StaffRepository        { return &staffRepository{db: s.db} }
func (s *postgresStore) Customers() CustomerRepository { return &customerRepository{db: s.db} }
func (s *postgresStore) Trips() TripRepository         { return &tripRepository{db: s.db} }

// WithinTx opens a transaction, or a savepoint when already inside one.
func (s *postgresStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&postgresStore{db: tx})
	})
}

// mapError translates driver errors into the package sentinels and tags them
// with the failing operation.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == accountsEmailKey {
				return fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
			}
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, ErrReferenced)
		case pgInvalidText:
			// A malformed uuid key cannot address any row.
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func affected(op string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapError(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

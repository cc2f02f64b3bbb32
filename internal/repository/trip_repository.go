package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tourdesk/internal/domain"
)

const tripColumns = `id, customer_id, start_date, end_date, destination, status, canceled_at, created_at, updated_at`

type tripRepository struct {
	db dbtx
}

func (r *tripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	const query = `
        INSERT INTO trips (customer_id, start_date, end_date, destination, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		trip.CustomerID,
		trip.StartDate,
		trip.EndDate,
		trip.Destination,
		trip.Status,
	).Scan(&trip.ID, &trip.CreatedAt, &trip.UpdatedAt)
	return mapError("trips.Create", err)
}

func (r *tripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	const query = `
        UPDATE trips
        SET start_date=$1, end_date=$2, destination=$3, status=$4, canceled_at=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		trip.StartDate,
		trip.EndDate,
		trip.Destination,
		trip.Status,
		trip.CanceledAt,
		trip.ID,
	).Scan(&trip.UpdatedAt)
	return mapError("trips.Update", err)
}

func (r *tripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id=$1`
	trip, err := scanTrip(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError("trips.GetByID", err)
	}
	return trip, nil
}

func (r *tripRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id=$1 FOR UPDATE`
	trip, err := scanTrip(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError("trips.GetByIDForUpdate", err)
	}
	return trip, nil
}

func (r *tripRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM trips WHERE id=$1`, id)
	return affected("trips.Delete", tag, err)
}

func (r *tripRepository) List(ctx context.Context, filter TripFilter) ([]domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips`
	args := []any{}
	clauses := []string{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit, offset := Page(filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("trips.List", err)
	}
	defer rows.Close()

	result := []domain.Trip{}
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, mapError("trips.List", err)
		}
		result = append(result, *trip)
	}
	return result, mapError("trips.List", rows.Err())
}

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	var trip domain.Trip
	if err := row.Scan(
		&trip.ID,
		&trip.CustomerID,
		&trip.StartDate,
		&trip.EndDate,
		&trip.Destination,
		&trip.Status,
		&trip.CanceledAt,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &trip, nil
}

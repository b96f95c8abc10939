package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
)

// PgxPool abstracts the subset of pgxpool.Pool used by the repository to allow mocking in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ PgxPool = (*pgxpool.Pool)(nil)

const (
	loadReservationsQuery = `
		SELECT reservation_id, platform, guest_name, guests_description,
		       arrival, departure, booking_date, status, price, commission
		FROM reservations
		ORDER BY seq
	`
	upsertReservationQuery = `
		INSERT INTO reservations (
			platform, reservation_id, guest_name, guests_description,
			arrival, departure, booking_date, status, price, commission
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (platform, reservation_id) DO UPDATE SET
			guest_name = EXCLUDED.guest_name,
			guests_description = EXCLUDED.guests_description,
			arrival = EXCLUDED.arrival,
			departure = EXCLUDED.departure,
			booking_date = EXCLUDED.booking_date,
			status = EXCLUDED.status,
			price = EXCLUDED.price,
			commission = EXCLUDED.commission,
			updated_at = NOW()
	`
	deleteReservationsQuery = `DELETE FROM reservations`
	createImportJobQuery    = `
		INSERT INTO import_jobs (id, status, files_total, requested_at)
		VALUES ($1, $2, $3, $4)
	`
	finishImportJobQuery = `
		UPDATE import_jobs SET
			status = $2, files_failed = $3, records_imported = $4,
			error_message = $5, finished_at = $6
		WHERE id = $1
	`
)

// PostgresReservationRepository implements ReservationRepository using PostgreSQL
type PostgresReservationRepository struct {
	pool PgxPool
}

// NewPostgresReservationRepository creates a new PostgreSQL-backed reservation repository
func NewPostgresReservationRepository(pool PgxPool) *PostgresReservationRepository {
	return &PostgresReservationRepository{pool: pool}
}

// LoadReservations returns all reservations in the order they were first stored
func (r *PostgresReservationRepository) LoadReservations(ctx context.Context) ([]reservation.Reservation, error) {
	rows, err := r.pool.Query(ctx, loadReservationsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}
	defer rows.Close()

	var out []reservation.Reservation
	for rows.Next() {
		var (
			rec              reservation.Reservation
			platform, status string
		)
		err := rows.Scan(
			&rec.ID, &platform, &rec.GuestName, &rec.GuestsDescription,
			&rec.Arrival, &rec.Departure, &rec.BookingDate, &status,
			&rec.Price, &rec.Commission,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		rec.Platform = reservation.Platform(platform)
		rec.Status = reservation.Status(status)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}

	return out, nil
}

// UpsertReservations writes the batch in one transaction. A conflicting key is
// updated in place so its seq, and therefore its position, is unchanged.
func (r *PostgresReservationRepository) UpsertReservations(ctx context.Context, rs []reservation.Reservation) (int, error) {
	if len(rs) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin upsert: %w", err)
	}

	for _, rec := range rs {
		_, err := tx.Exec(ctx, upsertReservationQuery,
			string(rec.Platform), rec.ID, rec.GuestName, rec.GuestsDescription,
			rec.Arrival, rec.Departure, rec.BookingDate, string(rec.Status),
			rec.Price, rec.Commission,
		)
		if err != nil {
			_ = tx.Rollback(ctx)
			return 0, fmt.Errorf("failed to upsert reservation %s: %w", rec.Key(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return len(rs), nil
}

// DeleteAllReservations empties the reservation table
func (r *PostgresReservationRepository) DeleteAllReservations(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, deleteReservationsQuery); err != nil {
		return fmt.Errorf("failed to delete reservations: %w", err)
	}
	return nil
}

// CreateImportJob creates a new import job
func (r *PostgresReservationRepository) CreateImportJob(ctx context.Context, job *ImportJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = JobStatusRunning
	}
	if job.RequestedAt.IsZero() {
		job.RequestedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, createImportJobQuery, job.ID, job.Status, job.FilesTotal, job.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	return nil
}

// FinishImportJob marks an import job as complete
func (r *PostgresReservationRepository) FinishImportJob(ctx context.Context, job *ImportJob) error {
	if job.FinishedAt == nil {
		now := time.Now().UTC()
		job.FinishedAt = &now
	}

	tag, err := r.pool.Exec(ctx, finishImportJobQuery,
		job.ID, job.Status, job.FilesFailed, job.RecordsImported, job.ErrorMessage, *job.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to finish import job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

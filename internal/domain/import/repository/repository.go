// Package repository persists the reservation store and import job history.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
)

// Job statuses
const (
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusPartial   = "partial"
	JobStatusFailed    = "failed"
)

// ErrJobNotFound is returned when finishing a job that was never created
var ErrJobNotFound = errors.New("import job not found")

// ImportJob tracks one ingestion batch
type ImportJob struct {
	ID              uuid.UUID  `db:"id"`
	Status          string     `db:"status"`
	FilesTotal      int        `db:"files_total"`
	FilesFailed     int        `db:"files_failed"`
	RecordsImported int        `db:"records_imported"`
	ErrorMessage    *string    `db:"error_message"`
	RequestedAt     time.Time  `db:"requested_at"`
	FinishedAt      *time.Time `db:"finished_at"`
}

// JobStatus derives the final status of a batch from its counters
func JobStatus(filesTotal, filesFailed int) string {
	switch {
	case filesFailed == 0:
		return JobStatusSucceeded
	case filesFailed < filesTotal:
		return JobStatusPartial
	default:
		return JobStatusFailed
	}
}

// ReservationRepository defines data access operations for the reservation store
type ReservationRepository interface {
	// LoadReservations returns every stored reservation in insertion order
	LoadReservations(ctx context.Context) ([]reservation.Reservation, error)
	// UpsertReservations inserts new keys and overwrites existing ones in place
	UpsertReservations(ctx context.Context, rs []reservation.Reservation) (int, error)
	DeleteAllReservations(ctx context.Context) error

	CreateImportJob(ctx context.Context, job *ImportJob) error
	FinishImportJob(ctx context.Context, job *ImportJob) error
}

package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
)

// MemoryReservationRepository keeps everything in process. It backs the
// "memory" driver, where nothing survives a restart.
type MemoryReservationRepository struct {
	mu           sync.Mutex
	reservations []reservation.Reservation
	jobs         map[uuid.UUID]ImportJob
}

func NewMemoryReservationRepository() *MemoryReservationRepository {
	return &MemoryReservationRepository{jobs: make(map[uuid.UUID]ImportJob)}
}

func (r *MemoryReservationRepository) LoadReservations(_ context.Context) ([]reservation.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reservation.Reservation(nil), r.reservations...), nil
}

func (r *MemoryReservationRepository) UpsertReservations(_ context.Context, rs []reservation.Reservation) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations = reservation.Merge(r.reservations, rs)
	return len(rs), nil
}

func (r *MemoryReservationRepository) DeleteAllReservations(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations = nil
	return nil
}

func (r *MemoryReservationRepository) CreateImportJob(_ context.Context, job *ImportJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = JobStatusRunning
	}
	if job.RequestedAt.IsZero() {
		job.RequestedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *MemoryReservationRepository) FinishImportJob(_ context.Context, job *ImportJob) error {
	if job.FinishedAt == nil {
		now := time.Now().UTC()
		job.FinishedAt = &now
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return ErrJobNotFound
	}
	r.jobs[job.ID] = *job
	return nil
}

// Job returns a recorded job
func (r *MemoryReservationRepository) Job(id uuid.UUID) (ImportJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	return job, ok
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
)

type reservationRow struct {
	Seq               uint   `gorm:"primaryKey;autoIncrement"`
	Platform          string `gorm:"not null;uniqueIndex:idx_reservations_key"`
	ReservationID     string `gorm:"not null;uniqueIndex:idx_reservations_key"`
	GuestName         string
	GuestsDescription string
	Arrival           string
	Departure         string
	BookingDate       string
	Status            string `gorm:"not null"`
	Price             float64
	Commission        float64
	UpdatedAt         time.Time
}

func (reservationRow) TableName() string { return "reservations" }

func toRow(r reservation.Reservation) reservationRow {
	return reservationRow{
		Platform:          string(r.Platform),
		ReservationID:     r.ID,
		GuestName:         r.GuestName,
		GuestsDescription: r.GuestsDescription,
		Arrival:           r.Arrival,
		Departure:         r.Departure,
		BookingDate:       r.BookingDate,
		Status:            string(r.Status),
		Price:             r.Price,
		Commission:        r.Commission,
	}
}

func (row reservationRow) reservation() reservation.Reservation {
	return reservation.Reservation{
		ID:                row.ReservationID,
		Platform:          reservation.Platform(row.Platform),
		GuestName:         row.GuestName,
		GuestsDescription: row.GuestsDescription,
		Arrival:           row.Arrival,
		Departure:         row.Departure,
		BookingDate:       row.BookingDate,
		Status:            reservation.Status(row.Status),
		Price:             row.Price,
		Commission:        row.Commission,
	}
}

type importJobRow struct {
	ID              string `gorm:"primaryKey"`
	Status          string `gorm:"not null"`
	FilesTotal      int
	FilesFailed     int
	RecordsImported int
	ErrorMessage    *string
	RequestedAt     time.Time
	FinishedAt      *time.Time
}

func (importJobRow) TableName() string { return "import_jobs" }

// GormReservationRepository implements ReservationRepository on an embedded
// SQLite database for single-host deployments.
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository migrates the schema and returns the repository
func NewGormReservationRepository(db *gorm.DB) (*GormReservationRepository, error) {
	if err := db.AutoMigrate(&reservationRow{}, &importJobRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate reservation schema: %w", err)
	}
	return &GormReservationRepository{db: db}, nil
}

func (r *GormReservationRepository) LoadReservations(ctx context.Context) ([]reservation.Reservation, error) {
	var rows []reservationRow
	if err := r.db.WithContext(ctx).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}

	out := make([]reservation.Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.reservation())
	}
	return out, nil
}

func (r *GormReservationRepository) UpsertReservations(ctx context.Context, rs []reservation.Reservation) (int, error) {
	if len(rs) == 0 {
		return 0, nil
	}

	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "platform"}, {Name: "reservation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"guest_name", "guests_description", "arrival", "departure",
			"booking_date", "status", "price", "commission", "updated_at",
		}),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range rs {
			row := toRow(rec)
			if err := tx.Clauses(onConflict).Create(&row).Error; err != nil {
				return fmt.Errorf("reservation %s: %w", rec.Key(), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert reservations: %w", err)
	}
	return len(rs), nil
}

func (r *GormReservationRepository) DeleteAllReservations(ctx context.Context) error {
	err := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&reservationRow{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete reservations: %w", err)
	}
	return nil
}

func (r *GormReservationRepository) CreateImportJob(ctx context.Context, job *ImportJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = JobStatusRunning
	}
	if job.RequestedAt.IsZero() {
		job.RequestedAt = time.Now().UTC()
	}

	row := importJobRow{
		ID:          job.ID.String(),
		Status:      job.Status,
		FilesTotal:  job.FilesTotal,
		RequestedAt: job.RequestedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	return nil
}

func (r *GormReservationRepository) FinishImportJob(ctx context.Context, job *ImportJob) error {
	if job.FinishedAt == nil {
		now := time.Now().UTC()
		job.FinishedAt = &now
	}

	res := r.db.WithContext(ctx).Model(&importJobRow{}).
		Where("id = ?", job.ID.String()).
		Updates(map[string]any{
			"status":           job.Status,
			"files_failed":     job.FilesFailed,
			"records_imported": job.RecordsImported,
			"error_message":    job.ErrorMessage,
			"finished_at":      *job.FinishedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to finish import job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// GetImportJob reads a job back, mostly for diagnostics
func (r *GormReservationRepository) GetImportJob(ctx context.Context, id uuid.UUID) (*ImportJob, error) {
	var row importJobRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import job: %w", err)
	}

	return &ImportJob{
		ID:              id,
		Status:          row.Status,
		FilesTotal:      row.FilesTotal,
		FilesFailed:     row.FilesFailed,
		RecordsImported: row.RecordsImported,
		ErrorMessage:    row.ErrorMessage,
		RequestedAt:     row.RequestedAt,
		FinishedAt:      row.FinishedAt,
	}, nil
}

// Package service provides the import orchestration logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/host-ledger/internal/domain/common"
	"github.com/FACorreiaa/host-ledger/internal/domain/extraction"
	"github.com/FACorreiaa/host-ledger/internal/domain/import/builder"
	"github.com/FACorreiaa/host-ledger/internal/domain/import/repository"
	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
	"github.com/FACorreiaa/host-ledger/internal/domain/stats"
	"github.com/FACorreiaa/host-ledger/pkg/observability"
)

var tracer = otel.Tracer("hostledger/import")

// File is one uploaded file
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// FileError reports a file whose whole contribution was skipped
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return e.File + ": " + e.Err.Error()
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// BatchResult summarises one ImportFiles call
type BatchResult struct {
	JobID uuid.UUID
	// Imported is the number of reservations this batch contributed before dedup
	Imported int
	// Total is the size of the store after the merge
	Total  int
	Files  int
	Errors []*FileError
}

// AllFailed reports whether every file failed and nothing was imported
func (r *BatchResult) AllFailed() bool {
	return r.Imported == 0 && r.Files > 0 && len(r.Errors) == r.Files
}

// Config tunes the import service
type Config struct {
	MaxParallel  int
	MaxFileBytes int64
	TaxRate      float64
}

// ImportService orchestrates file parsing, extraction, merging and persistence.
// It owns the reservation store.
type ImportService struct {
	// writeMu orders store merges with their upserts so the database sees batches in store order
	writeMu sync.Mutex
	store   *reservation.Store
	repo    repository.ReservationRepository
	runner  *extraction.Runner
	cfg     Config
	logger  *slog.Logger
}

// NewImportService creates a new import service with an empty store
func NewImportService(repo repository.ReservationRepository, runner *extraction.Runner, cfg Config, logger *slog.Logger) *ImportService {
	if cfg.MaxParallel < 1 {
		cfg.MaxParallel = 4
	}
	return &ImportService{
		store:  reservation.NewStore(nil),
		repo:   repo,
		runner: runner,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "import")),
	}
}

// LoadFromRepository seeds the store with persisted reservations
func (s *ImportService) LoadFromRepository(ctx context.Context) error {
	rs, err := s.repo.LoadReservations(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reservations: %w", err)
	}
	size := s.store.Merge(rs)
	observability.StoreSize.Set(float64(size))
	s.logger.Info("reservations loaded", "count", size)
	return nil
}

type route int

const (
	routeCSV route = iota
	routeExtraction
	routeUnsupported
)

var spreadsheetExts = map[string]bool{".xls": true, ".xlsx": true, ".ods": true, ".numbers": true}

// classify routes a file by extension first, then by declared MIME type
func classify(f File) (route, string) {
	ext := strings.ToLower(filepath.Ext(f.Name))
	if ext == ".csv" {
		return routeCSV, "text/csv"
	}
	if spreadsheetExts[ext] {
		return routeUnsupported, ""
	}
	if mime, ok := extraction.DetectMIMEType(f.Name); ok {
		return routeExtraction, mime
	}
	mime := strings.ToLower(strings.TrimSpace(f.MIMEType))
	if strings.HasPrefix(mime, "image/") || mime == "application/pdf" {
		return routeExtraction, mime
	}
	return routeUnsupported, ""
}

func unsupported(f File) error {
	ext := strings.ToLower(filepath.Ext(f.Name))
	if spreadsheetExts[ext] {
		return fmt.Errorf("%w: %s spreadsheets cannot be read, export the report as CSV", common.ErrUnsupportedFormat, ext)
	}
	return fmt.Errorf("%w: only CSV exports, images and PDFs are accepted", common.ErrUnsupportedFormat)
}

// explain adds the action a host can take for failures they can fix themselves
func explain(err error) error {
	switch {
	case errors.Is(err, extraction.ErrMissingCredentials):
		return fmt.Errorf("%w: set EXTRACTION_PROVIDER and its API key to import images and PDFs", err)
	case errors.Is(err, extraction.ErrContentBlocked):
		return fmt.Errorf("%w: try a cropped screenshot of the reservation list", err)
	case extraction.IsTransient(err):
		return fmt.Errorf("%w: the extraction service is busy, retry in a few minutes", err)
	}
	return err
}

type csvResult struct {
	records []reservation.Reservation
	err     error
}

// ImportFiles parses every file, merges the result into the store and persists it.
// File failures are collected in the result and never abort the batch.
func (s *ImportService) ImportFiles(ctx context.Context, files []File) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, common.ErrEmptyBatch
	}

	ctx, span := tracer.Start(ctx, "import.ImportFiles")
	defer span.End()
	span.SetAttributes(attribute.Int("import.files", len(files)))

	l := s.logger.With(slog.String("method", "ImportFiles"))

	job := &repository.ImportJob{FilesTotal: len(files)}
	if err := s.repo.CreateImportJob(ctx, job); err != nil {
		l.Warn("failed to record import job", "error", err)
		if job.ID == uuid.Nil {
			job.ID = uuid.New()
		}
	}
	l = l.With(slog.String("job_id", job.ID.String()))
	span.SetAttributes(attribute.String("import.job_id", job.ID.String()))

	fileErrs := make([]*FileError, len(files))
	var (
		csvIdx  []int
		docIdx  []int
		docs    []extraction.Document
		csvOuts = make(map[int]csvResult)
	)
	for i, f := range files {
		if s.cfg.MaxFileBytes > 0 && int64(len(f.Data)) > s.cfg.MaxFileBytes {
			fileErrs[i] = &FileError{File: f.Name, Err: common.ErrFileTooLarge}
			continue
		}
		switch r, mime := classify(f); r {
		case routeCSV:
			csvIdx = append(csvIdx, i)
		case routeExtraction:
			docIdx = append(docIdx, i)
			docs = append(docs, extraction.Document{Name: f.Name, MIMEType: mime, Data: f.Data})
		default:
			fileErrs[i] = &FileError{File: f.Name, Err: unsupported(f)}
		}
	}

	// CSV files are independent, parse them concurrently
	results := make([]csvResult, len(csvIdx))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxParallel)
	for n, i := range csvIdx {
		g.Go(func() error {
			results[n] = s.parseCSV(gctx, files[i], l)
			return nil
		})
	}
	_ = g.Wait()
	for n, i := range csvIdx {
		csvOuts[i] = results[n]
	}

	// documents go to the extractor one at a time
	var outcomes []extraction.Outcome
	if len(docs) > 0 {
		runner := s.runner
		if runner == nil {
			runner = extraction.NewRunner(nil, extraction.RunnerConfig{}, s.logger)
		}
		outcomes = runner.Run(ctx, docs)
	}

	var incoming []reservation.Reservation
	for i, f := range files {
		if out, ok := csvOuts[i]; ok {
			if out.err != nil {
				fileErrs[i] = &FileError{File: f.Name, Err: out.err}
				continue
			}
			incoming = append(incoming, out.records...)
		}
	}
	for n, out := range outcomes {
		i := docIdx[n]
		if out.Err != nil {
			fileErrs[i] = &FileError{File: files[i].Name, Err: explain(out.Err)}
			observability.FilesProcessed.WithLabelValues("extraction", "failed").Inc()
			continue
		}
		observability.FilesProcessed.WithLabelValues("extraction", "ok").Inc()
		l.Info("document extracted",
			"file", out.Document,
			"records", len(out.Records),
			"rejected", len(out.Rejected),
			"attempts", out.Attempts,
			"cached", out.Cached,
		)
		incoming = append(incoming, out.Records...)
	}

	result := &BatchResult{JobID: job.ID, Imported: len(incoming), Files: len(files)}
	for _, fe := range fileErrs {
		if fe != nil {
			l.Warn("file skipped", "file", fe.File, "error", fe.Err)
			result.Errors = append(result.Errors, fe)
		}
	}

	s.commit(ctx, incoming, result, l, span)

	job.Status = repository.JobStatus(len(files), len(result.Errors))
	job.FilesFailed = len(result.Errors)
	job.RecordsImported = result.Imported
	if len(result.Errors) > 0 {
		msg := FormatImportErrors(result.Errors)
		job.ErrorMessage = &msg
		span.SetStatus(codes.Error, msg)
	}
	if err := s.repo.FinishImportJob(ctx, job); err != nil {
		l.Warn("failed to finish import job", "error", err)
	}

	span.SetAttributes(
		attribute.Int("import.imported", result.Imported),
		attribute.Int("import.total", result.Total),
		attribute.Int("import.failed_files", len(result.Errors)),
	)
	l.Info("import batch finished",
		"files", len(files),
		"imported", result.Imported,
		"total", result.Total,
		"failed_files", len(result.Errors),
		"status", job.Status,
	)

	return result, nil
}

// commit merges a batch into the store and persists it as one step
func (s *ImportService) commit(ctx context.Context, incoming []reservation.Reservation, result *BatchResult, l *slog.Logger, span trace.Span) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result.Total = s.store.Merge(incoming)
	observability.StoreSize.Set(float64(result.Total))

	if len(incoming) == 0 {
		return
	}
	if _, err := s.repo.UpsertReservations(ctx, reservation.Merge(nil, incoming)); err != nil {
		l.Error("failed to persist reservations", "error", err)
		span.RecordError(err)
	}
}

func (s *ImportService) parseCSV(ctx context.Context, f File, l *slog.Logger) csvResult {
	_, span := tracer.Start(ctx, "import.parseCSV")
	defer span.End()
	span.SetAttributes(attribute.String("import.file", f.Name), attribute.Int("import.bytes", len(f.Data)))

	cfg, res, err := builder.ParseCSV(f.Data)
	if err != nil {
		span.RecordError(err)
		observability.FilesProcessed.WithLabelValues("csv", "failed").Inc()
		return csvResult{err: err}
	}

	dialect := string(cfg.Dialect)
	span.SetAttributes(attribute.String("import.dialect", dialect), attribute.Int("import.records", len(res.Records)))
	observability.FilesProcessed.WithLabelValues("csv", "ok").Inc()
	observability.RowsParsed.WithLabelValues(dialect).Add(float64(len(res.Records)))
	if res.MissingID > 0 {
		observability.RowsDropped.WithLabelValues(dialect, "missing_id").Add(float64(res.MissingID))
		l.Debug("rows without id dropped", "file", f.Name, "dialect", dialect, "count", res.MissingID)
	}
	if res.Filtered > 0 {
		observability.RowsDropped.WithLabelValues(dialect, "not_a_reservation").Add(float64(res.Filtered))
		l.Debug("non-reservation rows skipped", "file", f.Name, "dialect", dialect, "count", res.Filtered)
	}

	l.Info("csv parsed", "file", f.Name, "dialect", dialect, "records", len(res.Records), "fingerprint", cfg.Fingerprint)
	return csvResult{records: res.Records}
}

// ListFilter narrows List; empty fields match everything
type ListFilter struct {
	Platform reservation.Platform
	Status   reservation.Status
}

// List returns the store contents in merge order
func (s *ImportService) List(filter ListFilter) []reservation.Reservation {
	all := s.store.All()
	if filter.Platform == "" && filter.Status == "" {
		return all
	}

	out := all[:0]
	for _, r := range all {
		if filter.Platform != "" && r.Platform != filter.Platform {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Reset clears the store and the persisted reservations
func (s *ImportService) Reset(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.store.Reset()
	observability.StoreSize.Set(0)
	if err := s.repo.DeleteAllReservations(ctx); err != nil {
		return fmt.Errorf("failed to reset reservations: %w", err)
	}
	s.logger.Info("reservations reset")
	return nil
}

// Summary aggregates the store
func (s *ImportService) Summary() stats.Summary {
	return stats.Compute(s.store.All(), s.cfg.TaxRate)
}

// Monthly breaks the store down by arrival month
func (s *ImportService) Monthly() []stats.MonthlyBreakdown {
	return stats.Monthly(s.store.All(), s.cfg.TaxRate)
}

// Len is the number of stored reservations
func (s *ImportService) Len() int {
	return s.store.Len()
}

func (s *ImportService) TaxRate() float64 {
	return s.cfg.TaxRate
}

const maxImportErrorsInResponse = 10

// FormatImportErrors renders file errors into one message, capped at ten entries
func FormatImportErrors(errs []*FileError) string {
	if len(errs) == 0 {
		return "import failed: no reservations found"
	}

	limit := len(errs)
	if limit > maxImportErrorsInResponse {
		limit = maxImportErrorsInResponse
	}

	parts := make([]string, 0, limit)
	for _, e := range errs[:limit] {
		parts = append(parts, e.Error())
	}

	message := fmt.Sprintf("import failed: %d error(s). ", len(errs))
	message += strings.Join(parts, "; ")
	if limit < len(errs) {
		message += fmt.Sprintf(" (and %d more)", len(errs)-limit)
	}
	return message
}

// Package handler implements the ReservationService Connect RPC handlers.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/FACorreiaa/host-ledger/internal/domain/common"
	importservice "github.com/FACorreiaa/host-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
	"github.com/FACorreiaa/host-ledger/internal/domain/stats"
	"github.com/FACorreiaa/host-ledger/pkg/rpc/hostledgerv1"
)

// Importer is the slice of the import service the handler needs
type Importer interface {
	ImportFiles(ctx context.Context, files []importservice.File) (*importservice.BatchResult, error)
	List(filter importservice.ListFilter) []reservation.Reservation
	Reset(ctx context.Context) error
	Summary() stats.Summary
	Monthly() []stats.MonthlyBreakdown
	Len() int
	TaxRate() float64
}

var _ Importer = (*importservice.ImportService)(nil)

// ImportHandler implements the ReservationService Connect handlers.
type ImportHandler struct {
	importSvc Importer
	logger    *slog.Logger
}

var _ hostledgerv1.ReservationServiceHandler = (*ImportHandler)(nil)

// NewImportHandler constructs a new handler.
func NewImportHandler(importSvc Importer, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importSvc: importSvc,
		logger:    logger,
	}
}

// ImportFiles ingests a batch of uploaded files.
// The call fails only when no file contributed anything; partial failures are reported in the response.
func (h *ImportHandler) ImportFiles(
	ctx context.Context,
	req *connect.Request[hostledgerv1.ImportFilesRequest],
) (*connect.Response[hostledgerv1.ImportFilesResponse], error) {
	files := make([]importservice.File, 0, len(req.Msg.Files))
	for _, f := range req.Msg.Files {
		files = append(files, importservice.File{
			Name:     f.Name,
			MIMEType: f.MimeType,
			Data:     f.Data,
		})
	}

	result, err := h.importSvc.ImportFiles(ctx, files)
	if err != nil {
		return nil, toConnectError(err)
	}

	if result.AllFailed() {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New(importservice.FormatImportErrors(result.Errors)))
	}

	resp := &hostledgerv1.ImportFilesResponse{
		JobID:    result.JobID.String(),
		Imported: result.Imported,
		Total:    result.Total,
	}
	for _, fe := range result.Errors {
		resp.Errors = append(resp.Errors, hostledgerv1.FileError{File: fe.File, Message: fe.Err.Error()})
	}
	if len(result.Errors) > 0 {
		resp.Message = importservice.FormatImportErrors(result.Errors)
	}

	return connect.NewResponse(resp), nil
}

// ListReservations returns the merged store, optionally filtered.
func (h *ImportHandler) ListReservations(
	_ context.Context,
	req *connect.Request[hostledgerv1.ListReservationsRequest],
) (*connect.Response[hostledgerv1.ListReservationsResponse], error) {
	rs := h.importSvc.List(importservice.ListFilter{
		Platform: reservation.Platform(req.Msg.Platform),
		Status:   reservation.Status(req.Msg.Status),
	})
	if rs == nil {
		rs = []reservation.Reservation{}
	}
	return connect.NewResponse(&hostledgerv1.ListReservationsResponse{
		Reservations: rs,
		Total:        len(rs),
	}), nil
}

// ResetReservations empties the store.
func (h *ImportHandler) ResetReservations(
	ctx context.Context,
	_ *connect.Request[hostledgerv1.ResetReservationsRequest],
) (*connect.Response[hostledgerv1.ResetReservationsResponse], error) {
	removed := h.importSvc.Len()
	if err := h.importSvc.Reset(ctx); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&hostledgerv1.ResetReservationsResponse{Removed: removed}), nil
}

// GetSummary aggregates the store into booking statistics.
func (h *ImportHandler) GetSummary(
	_ context.Context,
	req *connect.Request[hostledgerv1.GetSummaryRequest],
) (*connect.Response[hostledgerv1.GetSummaryResponse], error) {
	resp := &hostledgerv1.GetSummaryResponse{
		Summary: h.importSvc.Summary(),
		TaxRate: h.importSvc.TaxRate(),
	}
	if req.Msg.IncludeMonthly {
		resp.Monthly = h.importSvc.Monthly()
	}
	return connect.NewResponse(resp), nil
}

// ExportMonthlyCSV streams the monthly breakdown as a CSV attachment.
func (h *ImportHandler) ExportMonthlyCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="monthly.csv"`)
	w.Header().Set("Cache-Control", "no-store")
	if err := stats.WriteMonthlyCSV(w, h.importSvc.Monthly()); err != nil {
		h.logger.Error("failed to write monthly export", "error", err)
	}
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, common.ErrEmptyBatch),
		errors.Is(err, common.ErrBadRequest):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, common.ErrUnauthenticated):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// Package hostledgerv1 defines the hostledger.v1 RPC messages and their Connect bindings.
// Messages are plain structs carried by the rpcjson codec.
package hostledgerv1

import (
	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
	"github.com/FACorreiaa/host-ledger/internal/domain/stats"
)

// UploadedFile carries one file; Data is base64 in JSON
type UploadedFile struct {
	Name     string `json:"name" validate:"required,max=255"`
	MimeType string `json:"mimeType,omitempty" validate:"max=127"`
	Data     []byte `json:"data" validate:"required"`
}

type ImportFilesRequest struct {
	Files []UploadedFile `json:"files" validate:"required,min=1,max=50,dive"`
}

type FileError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

type ImportFilesResponse struct {
	JobID    string      `json:"jobId"`
	Imported int         `json:"imported"`
	Total    int         `json:"total"`
	Errors   []FileError `json:"errors,omitempty"`
	// Message is the consolidated error summary, empty when every file succeeded
	Message string `json:"message,omitempty"`
}

type ListReservationsRequest struct {
	Platform string `json:"platform,omitempty" validate:"omitempty,oneof=Airbnb Booking.com"`
	Status   string `json:"status,omitempty" validate:"omitempty,oneof=OK Cancellata 'Mancata presentazione'"`
}

type ListReservationsResponse struct {
	Reservations []reservation.Reservation `json:"reservations"`
	Total        int                       `json:"total"`
}

type ResetReservationsRequest struct{}

type ResetReservationsResponse struct {
	Removed int `json:"removed"`
}

type GetSummaryRequest struct {
	IncludeMonthly bool `json:"includeMonthly,omitempty"`
}

type GetSummaryResponse struct {
	Summary stats.Summary            `json:"summary"`
	Monthly []stats.MonthlyBreakdown `json:"monthly,omitempty"`
	TaxRate float64                  `json:"taxRate"`
}

type LoginRequest struct {
	Password string `json:"password" validate:"required,max=256"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresAt   int64  `json:"expiresAt"`
}

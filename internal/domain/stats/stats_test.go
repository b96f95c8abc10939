package stats

import (
	"bytes"
	"encoding/csv"
	"math"
	"strings"
	"testing"

	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNights(t *testing.T) {
	tests := []struct {
		arrival, departure string
		want               int
		ok                 bool
	}{
		{"2025-03-15", "2025-03-18", 3, true},
		{"2025-03-15", "2025-03-15", 1, true},
		{"2025-03-18", "2025-03-15", 1, true},
		{"2025-02-27", "2025-03-02", 3, true},
		{"", "2025-03-15", 0, false},
		{"2025-03-15", "soon", 0, false},
	}

	for _, tt := range tests {
		got, ok := Nights(tt.arrival, tt.departure)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Nights(%q, %q) = %d, %v; want %d, %v", tt.arrival, tt.departure, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsActive(t *testing.T) {
	if !IsActive(reservation.StatusOK) || !IsActive(reservation.StatusNoShow) {
		t.Error("OK and no-show reservations must count as active")
	}
	if IsActive(reservation.StatusCancelled) {
		t.Error("cancelled reservations must not count as active")
	}
}

var fixtures = []reservation.Reservation{
	{ID: "A1", Platform: reservation.PlatformAirbnb, Arrival: "2025-03-01", Departure: "2025-03-04", Status: reservation.StatusOK, Price: 300, Commission: 45},
	{ID: "A2", Platform: reservation.PlatformAirbnb, Arrival: "2025-04-10", Departure: "2025-04-12", Status: reservation.StatusCancelled, Price: 200},
	{ID: "B1", Platform: reservation.PlatformBookingCom, Arrival: "2025-03-20", Departure: "2025-03-22", Status: reservation.StatusNoShow, Price: 100, Commission: 15},
	{ID: "B2", Platform: reservation.PlatformBookingCom, Arrival: "2025-04-01", Departure: "2025-04-02", Status: reservation.StatusOK, Price: 80, Commission: 12},
	{ID: "X", Platform: reservation.PlatformBookingCom, Arrival: "n/a", Status: reservation.StatusOK, Price: 50},
}

func TestCompute(t *testing.T) {
	s := Compute(fixtures, DefaultTaxRate)

	if s.Total.ActiveBookings != 4 {
		t.Errorf("ActiveBookings = %d, want 4", s.Total.ActiveBookings)
	}
	if s.Total.TotalNights != 6 {
		t.Errorf("TotalNights = %d, want 6", s.Total.TotalNights)
	}
	if !approx(s.Total.TotalGross, 530) {
		t.Errorf("TotalGross = %v, want 530", s.Total.TotalGross)
	}
	if !approx(s.Total.TotalNetPreTax, 458) {
		t.Errorf("TotalNetPreTax = %v, want 458", s.Total.TotalNetPreTax)
	}
	if !approx(s.Total.TotalNetPostTax, 458*0.79) {
		t.Errorf("TotalNetPostTax = %v, want %v", s.Total.TotalNetPostTax, 458*0.79)
	}
	if !approx(s.Total.TotalTax+s.Total.TotalNetPostTax, s.Total.TotalNetPreTax) {
		t.Error("tax and post-tax net must add up to pre-tax net")
	}
	if s.Cancelled != 1 || s.NoShow != 1 {
		t.Errorf("Cancelled/NoShow = %d/%d, want 1/1", s.Cancelled, s.NoShow)
	}

	airbnb := s.ByPlatform[reservation.PlatformAirbnb]
	if airbnb.ActiveBookings != 1 || !approx(airbnb.TotalGross, 300) {
		t.Errorf("Airbnb stats = %+v", airbnb)
	}
	if !approx(airbnb.AverageDailyRate(), 100) {
		t.Errorf("Airbnb ADR = %v, want 100", airbnb.AverageDailyRate())
	}
	booking := s.ByPlatform[reservation.PlatformBookingCom]
	if booking.ActiveBookings != 3 {
		t.Errorf("Booking.com ActiveBookings = %d, want 3", booking.ActiveBookings)
	}
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, DefaultTaxRate)
	if s.Total.ActiveBookings != 0 || s.Total.AverageDailyRate() != 0 {
		t.Errorf("expected zero stats, got %+v", s.Total)
	}
	if len(s.ByPlatform) != 2 {
		t.Errorf("expected both platforms present, got %d", len(s.ByPlatform))
	}
}

func TestMonthly(t *testing.T) {
	months := Monthly(fixtures, DefaultTaxRate)

	if len(months) != 2 {
		t.Fatalf("expected 2 months, got %d", len(months))
	}
	if months[0].Month != "2025-03" || months[1].Month != "2025-04" {
		t.Errorf("months out of order: %s, %s", months[0].Month, months[1].Month)
	}
	if months[0].Total.ActiveBookings != 2 {
		t.Errorf("March active = %d, want 2", months[0].Total.ActiveBookings)
	}
	if months[1].Total.ActiveBookings != 1 || months[1].Cancelled != 1 {
		t.Errorf("April = %+v", months[1].Summary)
	}
}

func TestWriteMonthlyCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMonthlyCSV(&buf, Monthly(fixtures, DefaultTaxRate)); err != nil {
		t.Fatalf("WriteMonthlyCSV failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "\uFEFF") {
		t.Fatal("expected UTF-8 BOM prefix")
	}

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\uFEFF"))).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 1+2*3 {
		t.Fatalf("expected 7 rows, got %d", len(records))
	}
	if records[1][0] != "2025-03" || records[1][1] != "Booking.com" {
		t.Errorf("unexpected first data row %v", records[1])
	}
	if records[3][1] != "Totale" || records[3][4] != "400.00" {
		t.Errorf("unexpected March total row %v", records[3])
	}
}

// Package stats computes occupancy and revenue aggregates over the reservation store.
// It only reads reservations; the active-revenue policy lives here and nowhere else.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/FACorreiaa/host-ledger/internal/domain/import/normalizer"
	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
)

// DefaultTaxRate is the flat rate applied to net income
const DefaultTaxRate = 0.21

// Stats aggregates active reservations
type Stats struct {
	ActiveBookings  int     `json:"activeBookings"`
	TotalNights     int     `json:"totalNights"`
	TotalGross      float64 `json:"totalGross"`
	TotalCommission float64 `json:"totalCommission"`
	TotalNetPreTax  float64 `json:"totalNetPreTax"`
	TotalTax        float64 `json:"totalTax"`
	TotalNetPostTax float64 `json:"totalNetPostTax"`
}

// AverageDailyRate is gross revenue per sold night
func (s Stats) AverageDailyRate() float64 {
	if s.TotalNights == 0 {
		return 0
	}
	return s.TotalGross / float64(s.TotalNights)
}

func (s *Stats) add(r reservation.Reservation, nights int, taxRate float64) {
	net := r.Price - r.Commission
	tax := net * taxRate

	s.ActiveBookings++
	s.TotalNights += nights
	s.TotalGross += r.Price
	s.TotalCommission += r.Commission
	s.TotalNetPreTax += net
	s.TotalTax += tax
	s.TotalNetPostTax += net - tax
}

// Summary splits Stats per platform
type Summary struct {
	Total      Stats                          `json:"total"`
	ByPlatform map[reservation.Platform]Stats `json:"byPlatform"`
	Cancelled  int                            `json:"cancelled"`
	NoShow     int                            `json:"noShow"`
}

// IsActive reports whether a reservation counts toward revenue and occupancy.
// No-shows are paid, so they count; cancellations do not.
func IsActive(s reservation.Status) bool {
	return s == reservation.StatusOK || s == reservation.StatusNoShow
}

// Nights returns the stay length in days, rounded up and at least 1.
// ok is false when either date cannot be parsed.
func Nights(arrival, departure string) (nights int, ok bool) {
	a, err := normalizer.ParseFlexibleDate(arrival, "YYYY-MM-DD", time.UTC)
	if err != nil {
		return 0, false
	}
	d, err := normalizer.ParseFlexibleDate(departure, "YYYY-MM-DD", time.UTC)
	if err != nil {
		return 0, false
	}

	days := int(math.Ceil(d.Sub(a).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days, true
}

func newSummary() Summary {
	return Summary{
		ByPlatform: map[reservation.Platform]Stats{
			reservation.PlatformAirbnb:     {},
			reservation.PlatformBookingCom: {},
		},
	}
}

func (s *Summary) add(r reservation.Reservation, taxRate float64) {
	switch r.Status {
	case reservation.StatusCancelled:
		s.Cancelled++
	case reservation.StatusNoShow:
		s.NoShow++
	}
	if !IsActive(r.Status) {
		return
	}

	nights, _ := Nights(r.Arrival, r.Departure)
	s.Total.add(r, nights, taxRate)

	p := s.ByPlatform[r.Platform]
	p.add(r, nights, taxRate)
	s.ByPlatform[r.Platform] = p
}

// Compute aggregates all reservations
func Compute(rs []reservation.Reservation, taxRate float64) Summary {
	summary := newSummary()
	for _, r := range rs {
		summary.add(r, taxRate)
	}
	return summary
}

// MonthlyBreakdown is a Summary for the reservations arriving in one month
type MonthlyBreakdown struct {
	Month string `json:"month"` // YYYY-MM
	Summary
}

// Monthly groups reservations by arrival month, ascending. Reservations whose
// arrival cannot be parsed are left out.
func Monthly(rs []reservation.Reservation, taxRate float64) []MonthlyBreakdown {
	byMonth := make(map[string]*Summary)

	for _, r := range rs {
		arrival, err := normalizer.ParseFlexibleDate(r.Arrival, "YYYY-MM-DD", time.UTC)
		if err != nil {
			continue
		}
		key := arrival.Format("2006-01")

		s, ok := byMonth[key]
		if !ok {
			fresh := newSummary()
			s = &fresh
			byMonth[key] = s
		}
		s.add(r, taxRate)
	}

	months := make([]MonthlyBreakdown, 0, len(byMonth))
	for key, s := range byMonth {
		months = append(months, MonthlyBreakdown{Month: key, Summary: *s})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })

	return months
}

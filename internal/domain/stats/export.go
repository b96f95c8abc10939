package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
)

var monthlyHeader = []string{
	"Mese", "Piattaforma", "Prenotazioni", "Notti", "Lordo",
	"Commissione", "Netto (pre-tasse)", "Tasse", "Netto finale",
}

// WriteMonthlyCSV writes one row per platform plus a total row for each month.
// The BOM makes spreadsheet tools pick UTF-8.
func WriteMonthlyCSV(w io.Writer, months []MonthlyBreakdown) error {
	if _, err := io.WriteString(w, "\uFEFF"); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(monthlyHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, m := range months {
		rows := [][]string{
			statsRow(m.Month, string(reservation.PlatformBookingCom), m.ByPlatform[reservation.PlatformBookingCom]),
			statsRow("", string(reservation.PlatformAirbnb), m.ByPlatform[reservation.PlatformAirbnb]),
			statsRow("", "Totale", m.Total),
		}
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("write month %s: %w", m.Month, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func statsRow(month, label string, s Stats) []string {
	return []string{
		month,
		label,
		strconv.Itoa(s.ActiveBookings),
		strconv.Itoa(s.TotalNights),
		money(s.TotalGross),
		money(s.TotalCommission),
		money(s.TotalNetPreTax),
		money(s.TotalTax),
		money(s.TotalNetPostTax),
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

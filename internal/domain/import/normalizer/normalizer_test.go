package normalizer

import (
	"errors"
	"testing"
	"time"

	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"144 EUR", 144},
		{"28,08 €", 28.08},
		{"€ 45,23", 45.23},
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"1.000.000", 1000000},
		{"1,000,000", 1000000},
		{"-45,23", -45.23},
		{"  312,50 €  ", 312.50},
		{"210.00", 210},
		{"", 0},
		{"n/a", 0},
		{"€", 0},
		{"--", 0},
		{"12-34", 0},
		{"€ -12,50", -12.50},
	}

	for _, tc := range tests {
		if got := ParseCurrency(tc.input); got != tc.expected {
			t.Errorf("ParseCurrency(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, input := range []string{"", "abc", ",.", "1.2.3,4,5"} {
		if _, err := ParseAmount(input); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ParseAmount(%q) error = %v, want ErrInvalidAmount", input, err)
		}
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"2", 2},
		{" 3 ", 3},
		{"", 0},
		{"x", 0},
		{"-1", 0},
	}

	for _, tc := range tests {
		if got := ParseCount(tc.input); got != tc.expected {
			t.Errorf("ParseCount(%q) = %d, want %d", tc.input, got, tc.expected)
		}
	}
}

func TestReformatDate(t *testing.T) {
	tests := []struct {
		input    string
		order    DateOrder
		expected string
	}{
		{"15/03/2025", DayMonthYear, "2025-03-15"},
		{"03/15/2025", MonthDayYear, "2025-03-15"},
		{"5/3/2025", DayMonthYear, "2025-03-05"},
		{"3/5/2025", MonthDayYear, "2025-03-05"},
		{"2025-03-15", DayMonthYear, "2025-03-15"}, // already normalized
		{"15-03-2025", DayMonthYear, "15-03-2025"}, // not slash separated
		{"", DayMonthYear, ""},
	}

	for _, tc := range tests {
		if got := ReformatDate(tc.input, tc.order); got != tc.expected {
			t.Errorf("ReformatDate(%q, %d) = %q, want %q", tc.input, tc.order, got, tc.expected)
		}
	}
}

func TestReformatDateTime(t *testing.T) {
	if got := ReformatDateTime("01/03/2025 14:22:10", DayMonthYear); got != "2025-03-01" {
		t.Errorf("ReformatDateTime() = %q, want %q", got, "2025-03-01")
	}
	if got := ReformatDateTime("01/03/2025", DayMonthYear); got != "2025-03-01" {
		t.Errorf("ReformatDateTime() without time = %q, want %q", got, "2025-03-01")
	}
}

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		input     string
		preferred string
		expected  time.Time
	}{
		{"2025-03-15", "YYYY-MM-DD", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15/03/2025", "DD/MM/YYYY", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15/03/2025", "", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2025/03/15", "", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		got, err := ParseFlexibleDate(tc.input, tc.preferred, time.UTC)
		if err != nil {
			t.Errorf("ParseFlexibleDate(%q) error: %v", tc.input, err)
			continue
		}
		if !got.Equal(tc.expected) {
			t.Errorf("ParseFlexibleDate(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestParseFlexibleDate_Invalid(t *testing.T) {
	for _, input := range []string{"", "not a date", "32/13/2025"} {
		if _, err := ParseFlexibleDate(input, "", nil); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseFlexibleDate(%q) error = %v, want ErrInvalidDate", input, err)
		}
	}
}

func TestConvertDateFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"DD-MM-YYYY", "02-01-2006"},
		{"YYYY-MM-DD", "2006-01-02"},
		{"DD/MM/YY HH:mm:ss", "02/01/06 15:04:05"},
	}

	for _, tc := range tests {
		if got := convertDateFormat(tc.input); got != tc.expected {
			t.Errorf("convertDateFormat(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestCleanText(t *testing.T) {
	if got := CleanText("  Mario   Rossi \t"); got != "Mario Rossi" {
		t.Errorf("CleanText() = %q, want %q", got, "Mario Rossi")
	}
}

func TestStatusTables_NormalizedValuesAreStable(t *testing.T) {
	tables := map[string]StatusTable{
		"legacy":     LegacyAirbnbStatuses,
		"booking":    BookingStatuses,
		"extraction": ExtractionStatuses,
	}
	normalized := []reservation.Status{reservation.StatusOK, reservation.StatusCancelled, reservation.StatusNoShow}

	for name, table := range tables {
		for _, status := range normalized {
			got, ok := table.Classify(string(status))
			if !ok || got != status {
				t.Errorf("%s: Classify(%q) = %q, %v; want %q", name, status, got, ok, status)
			}
		}
	}
}

func TestLegacyAirbnbStatuses(t *testing.T) {
	tests := []struct {
		input    string
		expected reservation.Status
	}{
		{"Confermata", reservation.StatusOK},
		{"Ospite precedente", reservation.StatusOK},
		{"Cancellata dall'ospite", reservation.StatusCancelled},
		{"Canceled by guest", reservation.StatusCancelled},
		{"No-show", reservation.StatusNoShow},
		{"", reservation.StatusOK},
		{"whatever", reservation.StatusOK},
	}

	for _, tc := range tests {
		got, ok := LegacyAirbnbStatuses.Classify(tc.input)
		if !ok || got != tc.expected {
			t.Errorf("Classify(%q) = %q, %v; want %q", tc.input, got, ok, tc.expected)
		}
	}
}

func TestBookingStatuses(t *testing.T) {
	tests := []struct {
		input    string
		expected reservation.Status
	}{
		{"ok", reservation.StatusOK},
		{"no_show", reservation.StatusNoShow},
		{"No show", reservation.StatusNoShow},
		{"cancelled_by_guest", reservation.StatusCancelled},
		{"Cancellata", reservation.StatusCancelled},
	}

	for _, tc := range tests {
		got, ok := BookingStatuses.Classify(tc.input)
		if !ok || got != tc.expected {
			t.Errorf("Classify(%q) = %q, %v; want %q", tc.input, got, ok, tc.expected)
		}
	}
}

func TestExtractionStatuses(t *testing.T) {
	tests := []struct {
		input    string
		expected reservation.Status
		ok       bool
	}{
		{"", reservation.StatusOK, true},
		{"Confirmed", reservation.StatusOK, true},
		{"Attiva", reservation.StatusOK, true},
		{"Checked out", reservation.StatusOK, true},
		{"Annullata", reservation.StatusCancelled, true},
		{"Non si è presentato", reservation.StatusNoShow, true},
		{"Assente", reservation.StatusNoShow, true},
		{"pending", "", false},
		{"okay-ish", "", false},
	}

	for _, tc := range tests {
		got, ok := ExtractionStatuses.Classify(tc.input)
		if ok != tc.ok || got != tc.expected {
			t.Errorf("Classify(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.expected, tc.ok)
		}
	}
}

func TestDescribeParty(t *testing.T) {
	tests := []struct {
		adults, children, infants int
		expected                  string
	}{
		{2, 0, 0, "2 adulti"},
		{1, 1, 0, "1 adulto, 1 bambino"},
		{2, 2, 1, "2 adulti, 2 bambini, 1 neonato"},
		{0, 0, 2, "0 adulti, 2 neonati"},
	}

	for _, tc := range tests {
		if got := DescribeParty(tc.adults, tc.children, tc.infants); got != tc.expected {
			t.Errorf("DescribeParty(%d, %d, %d) = %q, want %q", tc.adults, tc.children, tc.infants, got, tc.expected)
		}
	}
}

func TestDescribeStay(t *testing.T) {
	if got := DescribeStay(1, 1); got != "1 persona, 1 notte" {
		t.Errorf("DescribeStay(1, 1) = %q", got)
	}
	if got := DescribeStay(3, 2); got != "3 persone, 2 notti" {
		t.Errorf("DescribeStay(3, 2) = %q", got)
	}
}

// Package builder turns tokenized export rows into normalized reservations, one routine per dialect.
package builder

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/host-ledger/internal/domain/import/normalizer"
	"github.com/FACorreiaa/host-ledger/internal/domain/import/sniffer"
	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
)

// Result is the outcome of building one file
type Result struct {
	Records []reservation.Reservation
	// MissingID counts rows dropped because the id column was empty
	MissingID int
	// Filtered counts new-format Airbnb rows that were not reservations (payouts, taxes)
	Filtered int
}

// Build converts every data row of cfg. Field-level problems degrade to empty values;
// only rows without an id are dropped.
func Build(cfg *sniffer.FileConfig) (Result, error) {
	var rowFn func(cols sniffer.ColumnMap, row []string) (reservation.Reservation, bool)

	switch cfg.Dialect {
	case sniffer.DialectAirbnbLegacy:
		rowFn = legacyAirbnbRow
	case sniffer.DialectAirbnb:
		rowFn = airbnbRow
	case sniffer.DialectBooking:
		rowFn = bookingRow
	default:
		return Result{}, fmt.Errorf("unsupported dialect %q", cfg.Dialect)
	}

	result := Result{Records: make([]reservation.Reservation, 0, len(cfg.Rows))}
	for _, row := range cfg.Rows {
		rec, keep := rowFn(cfg.Columns, row)
		if !keep {
			result.Filtered++
			continue
		}
		if rec.ID == "" {
			result.MissingID++
			continue
		}
		result.Records = append(result.Records, rec)
	}

	return result, nil
}

func legacyAirbnbRow(cols sniffer.ColumnMap, row []string) (reservation.Reservation, bool) {
	status, _ := normalizer.LegacyAirbnbStatuses.Classify(cols.Value(row, sniffer.FieldStatus))

	return reservation.Reservation{
		ID:                cols.Value(row, sniffer.FieldID),
		Platform:          reservation.PlatformAirbnb,
		GuestName:         normalizer.CleanText(cols.Value(row, sniffer.FieldGuestName)),
		GuestsDescription: legacyParty(cols, row),
		Arrival:           normalizer.ReformatDate(cols.Value(row, sniffer.FieldArrival), normalizer.DayMonthYear),
		Departure:         normalizer.ReformatDate(cols.Value(row, sniffer.FieldDeparture), normalizer.DayMonthYear),
		BookingDate:       normalizer.ReformatDate(cols.Value(row, sniffer.FieldBookingDate), normalizer.DayMonthYear),
		Status:            status,
		Price:             normalizer.ParseCurrency(cols.Value(row, sniffer.FieldPrice)),
		// The legacy export only carries the payout
		Commission: 0,
	}, true
}

// legacyParty describes the party, or "" when the row carries no guest counts at all
func legacyParty(cols sniffer.ColumnMap, row []string) string {
	adults := cols.Value(row, sniffer.FieldAdults)
	children := cols.Value(row, sniffer.FieldChildren)
	infants := cols.Value(row, sniffer.FieldInfants)
	if adults == "" && children == "" && infants == "" {
		return ""
	}
	return normalizer.DescribeParty(
		normalizer.ParseCount(adults),
		normalizer.ParseCount(children),
		normalizer.ParseCount(infants),
	)
}

// reservationTypes are the values of the type column that denote a booking
var reservationTypes = []string{"reservation", "prenotazione"}

func airbnbRow(cols sniffer.ColumnMap, row []string) (reservation.Reservation, bool) {
	kind := strings.ToLower(cols.Value(row, sniffer.FieldType))
	isReservation := false
	for _, t := range reservationTypes {
		if strings.Contains(kind, t) {
			isReservation = true
			break
		}
	}
	if !isReservation {
		return reservation.Reservation{}, false
	}

	return reservation.Reservation{
		ID:                cols.Value(row, sniffer.FieldID),
		Platform:          reservation.PlatformAirbnb,
		GuestName:         normalizer.CleanText(cols.Value(row, sniffer.FieldGuestName)),
		GuestsDescription: normalizer.DescribeNights(normalizer.ParseCount(cols.Value(row, sniffer.FieldNights))),
		Arrival:           normalizer.ReformatDate(cols.Value(row, sniffer.FieldArrival), normalizer.MonthDayYear),
		Departure:         normalizer.ReformatDate(cols.Value(row, sniffer.FieldDeparture), normalizer.MonthDayYear),
		BookingDate:       normalizer.ReformatDate(cols.Value(row, sniffer.FieldBookingDate), normalizer.MonthDayYear),
		Status:            reservation.StatusOK,
		Price:             normalizer.ParseCurrency(cols.Value(row, sniffer.FieldPrice)),
		Commission:        normalizer.ParseCurrency(cols.Value(row, sniffer.FieldCommission)),
	}, true
}

func bookingRow(cols sniffer.ColumnMap, row []string) (reservation.Reservation, bool) {
	status, _ := normalizer.BookingStatuses.Classify(cols.Value(row, sniffer.FieldStatus))

	return reservation.Reservation{
		ID:        cols.Value(row, sniffer.FieldID),
		Platform:  reservation.PlatformBookingCom,
		GuestName: normalizer.CleanText(cols.Value(row, sniffer.FieldGuestName)),
		GuestsDescription: normalizer.DescribeStay(
			normalizer.ParseCount(cols.Value(row, sniffer.FieldPersons)),
			normalizer.ParseCount(cols.Value(row, sniffer.FieldNights)),
		),
		Arrival:     normalizer.ReformatDate(cols.Value(row, sniffer.FieldArrival), normalizer.DayMonthYear),
		Departure:   normalizer.ReformatDate(cols.Value(row, sniffer.FieldDeparture), normalizer.DayMonthYear),
		BookingDate: normalizer.ReformatDateTime(cols.Value(row, sniffer.FieldBookingDate), normalizer.DayMonthYear),
		Status:      status,
		Price:       normalizer.ParseCurrency(cols.Value(row, sniffer.FieldPrice)),
		Commission:  normalizer.ParseCurrency(cols.Value(row, sniffer.FieldCommission)),
	}, true
}

// ParseCSV detects the dialect of data and builds its reservations
func ParseCSV(data []byte) (*sniffer.FileConfig, Result, error) {
	cfg, err := sniffer.DetectConfig(data)
	if err != nil {
		return nil, Result{}, err
	}
	result, err := Build(cfg)
	if err != nil {
		return cfg, Result{}, err
	}
	return cfg, result, nil
}

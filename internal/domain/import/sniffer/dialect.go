package sniffer

import "strings"

// Dialect is one of the known reservation CSV conventions
type Dialect string

const (
	DialectBooking      Dialect = "booking"
	DialectAirbnb       Dialect = "airbnb"
	DialectAirbnbLegacy Dialect = "airbnb_legacy"
)

// Field names a logical column a record builder reads
type Field string

const (
	FieldID          Field = "id"
	FieldType        Field = "type"
	FieldStatus      Field = "status"
	FieldGuestName   Field = "guest_name"
	FieldAdults      Field = "adults"
	FieldChildren    Field = "children"
	FieldInfants     Field = "infants"
	FieldPersons     Field = "persons"
	FieldNights      Field = "nights"
	FieldArrival     Field = "arrival"
	FieldDeparture   Field = "departure"
	FieldBookingDate Field = "booking_date"
	FieldPrice       Field = "price"
	FieldCommission  Field = "commission"
)

// Detection keywords (lowercase, multi-language)
var (
	bookingNumberKeywords    = []string{"booking number", "book number", "numero prenotazione", "numero di prenotazione"}
	commissionAmountKeywords = []string{"commission amount", "importo commissione", "importo della commissione"}
	typeKeywords             = []string{"type", "tipo"}
	grossEarningsKeywords    = []string{"gross earnings", "guadagni lordi"}
	confirmationKeywords     = []string{"confirmation code", "codice di conferma"}
)

// dialectColumns lists localized header names per field, Italian first
var dialectColumns = map[Dialect]map[Field][]string{
	DialectAirbnbLegacy: {
		FieldID:          {"codice di conferma", "confirmation code"},
		FieldStatus:      {"stato", "status"},
		FieldGuestName:   {"nome dell'ospite", "guest name"},
		FieldAdults:      {"n. di adulti", "# of adults"},
		FieldChildren:    {"n. di bambini", "# of children"},
		FieldInfants:     {"n. di neonati", "# of infants"},
		FieldArrival:     {"data di inizio", "start date"},
		FieldDeparture:   {"data di fine", "end date"},
		FieldBookingDate: {"prenotata", "booked"},
		FieldPrice:       {"guadagni", "earnings"},
	},
	DialectAirbnb: {
		FieldType:        {"tipo", "type"},
		FieldID:          {"codice di conferma", "confirmation code"},
		FieldGuestName:   {"ospite", "guest"},
		FieldArrival:     {"data di inizio", "start date"},
		FieldDeparture:   {"data di fine", "end date"},
		FieldBookingDate: {"data di prenotazione", "booking date"},
		FieldNights:      {"notti", "nights"},
		FieldPrice:       {"guadagni lordi", "gross earnings"},
		FieldCommission:  {"costi del servizio", "service fee"},
	},
	DialectBooking: {
		FieldID:          {"numero prenotazione", "numero di prenotazione", "book number", "booking number"},
		FieldGuestName:   {"nome ospite/i", "nome dell'ospite", "guest name(s)", "guest name"},
		FieldArrival:     {"arrivo", "check-in"},
		FieldDeparture:   {"partenza", "check-out"},
		FieldBookingDate: {"prenotato il", "data di prenotazione", "booked on"},
		FieldStatus:      {"stato", "status"},
		FieldPersons:     {"persone", "persons", "people"},
		FieldNights:      {"durata (notti)", "duration (nights)"},
		FieldPrice:       {"prezzo", "price"},
		FieldCommission:  {"importo commissione", "importo della commissione", "commission amount"},
	},
}

// DetectDialect classifies a cleaned header row. Rules are checked in order:
// Booking.com signals, then the new Airbnb type + gross earnings pair, then the
// legacy Airbnb confirmation code column.
func DetectDialect(headers []string) (Dialect, error) {
	lower := lowerAll(headers)

	if anyContains(lower, bookingNumberKeywords) || anyContains(lower, commissionAmountKeywords) {
		return DialectBooking, nil
	}

	if anyEquals(lower, typeKeywords) && anyContains(lower, grossEarningsKeywords) {
		return DialectAirbnb, nil
	}

	// The legacy export has no marker of its own; require its id column rather than
	// guessing, since every row of an unknown export would be dropped anyway.
	if anyContains(lower, confirmationKeywords) {
		return DialectAirbnbLegacy, nil
	}

	return "", ErrUnrecognizedHeader
}

// ColumnMap resolves fields to column indices
type ColumnMap map[Field]int

// Index returns the column for f, or -1 when the export does not carry it
func (m ColumnMap) Index(f Field) int {
	if idx, ok := m[f]; ok {
		return idx
	}
	return -1
}

// Value returns the cleaned value of f in row, or "" when unavailable
func (m ColumnMap) Value(row []string, f Field) string {
	idx := m.Index(f)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return CleanValue(row[idx])
}

// MapColumns builds the field lookup for a dialect. Exact header matches win over
// substring matches so "Stato" is not confused with "Stato del pagamento".
func MapColumns(d Dialect, headers []string) ColumnMap {
	lower := lowerAll(headers)
	columns := make(ColumnMap)

	for field, names := range dialectColumns[d] {
		if idx := indexEquals(lower, names); idx >= 0 {
			columns[field] = idx
			continue
		}
		if idx := indexContains(lower, names); idx >= 0 {
			columns[field] = idx
		}
	}

	return columns
}

func lowerAll(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

func indexEquals(headers, names []string) int {
	for _, name := range names {
		for i, h := range headers {
			if h == name {
				return i
			}
		}
	}
	return -1
}

func indexContains(headers, names []string) int {
	for _, name := range names {
		for i, h := range headers {
			if strings.Contains(h, name) {
				return i
			}
		}
	}
	return -1
}

func anyEquals(headers, names []string) bool {
	return indexEquals(headers, names) >= 0
}

func anyContains(headers, names []string) bool {
	return indexContains(headers, names) >= 0
}

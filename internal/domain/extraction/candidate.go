package extraction

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/FACorreiaa/host-ledger/internal/domain/import/normalizer"
	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
)

// Candidate is one untrusted object from a model response
type Candidate = map[string]any

// Rejection explains why a candidate was discarded
type Rejection struct {
	Index  int
	Reason string
}

// NormalizeCandidates validates model output. Only objects with an exact platform label, an id
// and a recognizable status survive; other fields are taken as provided.
func NormalizeCandidates(items []any) ([]reservation.Reservation, []Rejection) {
	var (
		records  []reservation.Reservation
		rejected []Rejection
	)

	for i, item := range items {
		obj, ok := item.(Candidate)
		if !ok {
			rejected = append(rejected, Rejection{Index: i, Reason: "not an object"})
			continue
		}

		platform, ok := reservation.ParsePlatform(stringField(obj, "platform"))
		if !ok {
			rejected = append(rejected, Rejection{Index: i, Reason: "invalid platform " + strconv.Quote(stringField(obj, "platform"))})
			continue
		}

		id := stringField(obj, "id")
		if id == "" {
			rejected = append(rejected, Rejection{Index: i, Reason: "missing id"})
			continue
		}

		status, ok := normalizer.ExtractionStatuses.Classify(stringField(obj, "status"))
		if !ok {
			rejected = append(rejected, Rejection{Index: i, Reason: "unrecognized status " + strconv.Quote(stringField(obj, "status"))})
			continue
		}

		records = append(records, reservation.Reservation{
			ID:                id,
			Platform:          platform,
			GuestName:         stringField(obj, "guestName"),
			GuestsDescription: stringField(obj, "guestsDescription"),
			Arrival:           stringField(obj, "arrival"),
			Departure:         stringField(obj, "departure"),
			BookingDate:       stringField(obj, "bookingDate"),
			Status:            status,
			Price:             numberField(obj, "price"),
			Commission:        numberField(obj, "commission"),
		})
	}

	return records, rejected
}

func stringField(obj Candidate, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func numberField(obj Candidate, key string) float64 {
	switch v := obj[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		return normalizer.ParseCurrency(v)
	default:
		return 0
	}
}

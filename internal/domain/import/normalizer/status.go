package normalizer

import (
	"strings"

	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
)

// MatchKind selects how a status rule compares its patterns
type MatchKind int

const (
	MatchContains MatchKind = iota
	MatchExact
)

// StatusRule maps raw status text to a normalized status when any pattern matches
type StatusRule struct {
	Target   reservation.Status
	Kind     MatchKind
	Patterns []string // lowercase
}

func (r StatusRule) matches(lower string) bool {
	for _, p := range r.Patterns {
		if r.Kind == MatchExact && lower == p {
			return true
		}
		if r.Kind == MatchContains && strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// StatusTable is an ordered classifier: rules are evaluated top to bottom and the first
// match wins. Fallback applies when nothing matches; a table without one rejects the value.
type StatusTable struct {
	Rules       []StatusRule
	Fallback    reservation.Status
	HasFallback bool
	// EmptyAs is returned for blank input when set
	EmptyAs reservation.Status
}

// Classify normalizes raw status text. ok is false when no rule matched and the table has no fallback.
func (t StatusTable) Classify(raw string) (status reservation.Status, ok bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))

	if lower == "" && t.EmptyAs != "" {
		return t.EmptyAs, true
	}

	for _, rule := range t.Rules {
		if rule.matches(lower) {
			return rule.Target, true
		}
	}

	if t.HasFallback {
		return t.Fallback, true
	}
	return "", false
}

var noShowTerms = []string{
	"mancata", "no show", "no-show", "no_show", "noshow",
	"non presentato", "non si è presentato", "assente",
}

var cancelTerms = []string{"cancel", "annul"}

// LegacyAirbnbStatuses covers the old Airbnb export: anything not cancelled or
// no-show ("Ospite precedente", "Confermata") is a valid stay.
var LegacyAirbnbStatuses = StatusTable{
	Rules: []StatusRule{
		{Target: reservation.StatusNoShow, Kind: MatchContains, Patterns: noShowTerms},
		{Target: reservation.StatusCancelled, Kind: MatchContains, Patterns: cancelTerms},
	},
	Fallback:    reservation.StatusOK,
	HasFallback: true,
}

// BookingStatuses covers Booking.com exports ("ok", "cancelled_by_guest", "no_show")
var BookingStatuses = StatusTable{
	Rules: []StatusRule{
		{Target: reservation.StatusNoShow, Kind: MatchContains, Patterns: []string{"no_show", "no show", "no-show", "mancata"}},
		{Target: reservation.StatusCancelled, Kind: MatchContains, Patterns: cancelTerms},
	},
	Fallback:    reservation.StatusOK,
	HasFallback: true,
}

// ExtractionStatuses is the broad vocabulary for document extraction output.
// Unknown values are rejected rather than defaulted.
var ExtractionStatuses = StatusTable{
	Rules: []StatusRule{
		{Target: reservation.StatusNoShow, Kind: MatchContains, Patterns: noShowTerms},
		{Target: reservation.StatusCancelled, Kind: MatchContains, Patterns: append([]string{"storn", "revoked", "refunded"}, cancelTerms...)},
		{Target: reservation.StatusOK, Kind: MatchExact, Patterns: []string{"ok"}},
		{Target: reservation.StatusOK, Kind: MatchContains, Patterns: []string{
			"conferm", "confirm", "attiv", "active", "completed", "complet", "checked", "valid", "ospite precedente", "past guest",
		}},
	},
	EmptyAs: reservation.StatusOK,
}

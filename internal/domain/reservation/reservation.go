// Package reservation defines the canonical reservation record every ingestion path converges to.
package reservation

// Platform identifies the booking channel a reservation came from.
type Platform string

const (
	PlatformAirbnb     Platform = "Airbnb"
	PlatformBookingCom Platform = "Booking.com"
)

// ParsePlatform accepts only the exact platform labels.
func ParsePlatform(raw string) (Platform, bool) {
	switch Platform(raw) {
	case PlatformAirbnb, PlatformBookingCom:
		return Platform(raw), true
	}
	return "", false
}

// Status is the normalized lifecycle state of a reservation.
type Status string

const (
	StatusOK        Status = "OK"
	StatusCancelled Status = "Cancellata"
	StatusNoShow    Status = "Mancata presentazione"
)

// Valid reports whether s is one of the three normalized statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Reservation is a normalized reservation record. Values are built once and never mutated.
type Reservation struct {
	ID                string   `json:"id"`
	Platform          Platform `json:"platform"`
	GuestName         string   `json:"guestName"`
	GuestsDescription string   `json:"guestsDescription"`
	Arrival           string   `json:"arrival"`     // YYYY-MM-DD
	Departure         string   `json:"departure"`   // YYYY-MM-DD
	BookingDate       string   `json:"bookingDate"` // YYYY-MM-DD
	Status            Status   `json:"status"`
	Price             float64  `json:"price"`
	Commission        float64  `json:"commission"`
}

// Key returns the dedup key, unique across the store.
func (r Reservation) Key() string {
	return Key(r.Platform, r.ID)
}

// Key builds the dedup key for a platform-scoped id.
func Key(p Platform, id string) string {
	return string(p) + "-" + id
}

package extraction

// Instruction is sent with every document
const Instruction = `Analyze the provided image or PDF of a booking reservation list from Booking.com or Airbnb.
Your task is to:
1. Identify the source platform ('Booking.com' or 'Airbnb') for each reservation.
2. Extract all reservations and return them as a single JSON array.
3. For each reservation, include a 'platform' field with the identified source.
Rules for all extracted data:
- Convert all dates to 'YYYY-MM-DD' format.
- Prices and commissions must be numeric values without currency symbols.
- The 'status' field must be one of the exact strings: 'OK', 'Cancellata', 'Mancata presentazione'.
- 'guestsDescription' summarizes occupancy, e.g. "2 adulti, 1 bambino".
- Extract a unique ID for each reservation.
- Return only the JSON array, with no commentary.`

// RecordFields lists the per-record schema keys in output order
var RecordFields = []string{
	"id", "platform", "guestName", "guestsDescription", "arrival",
	"departure", "bookingDate", "status", "price", "commission",
}

// RequiredFields must be present in every record the model emits
var RequiredFields = []string{
	"id", "platform", "guestName", "arrival", "departure", "status", "price", "commission",
}

// StatusLabels are the normalized status values the model is asked for
var StatusLabels = []string{"OK", "Cancellata", "Mancata presentazione"}

// PlatformLabels are the accepted platform values
var PlatformLabels = []string{"Airbnb", "Booking.com"}

func isNumericField(name string) bool {
	return name == "price" || name == "commission"
}

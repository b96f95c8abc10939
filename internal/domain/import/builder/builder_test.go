package builder

import (
	"testing"

	"github.com/FACorreiaa/host-ledger/internal/domain/import/sniffer"
	"github.com/FACorreiaa/host-ledger/internal/domain/reservation"
)

func TestParseCSV_MinimalPerDialect(t *testing.T) {
	tests := []struct {
		name     string
		csv      string
		id       string
		platform reservation.Platform
		status   reservation.Status
	}{
		{
			name:     "legacy airbnb",
			csv:      "Codice di conferma,Stato,Guadagni\nHM123,Cancellata,\"100,00 €\"\n",
			id:       "HM123",
			platform: reservation.PlatformAirbnb,
			status:   reservation.StatusCancelled,
		},
		{
			name:     "new airbnb",
			csv:      "Type,Confirmation code,Gross earnings\nReservation,HM456,210.00\n",
			id:       "HM456",
			platform: reservation.PlatformAirbnb,
			status:   reservation.StatusOK,
		},
		{
			name:     "booking",
			csv:      "Book number;Status;Price\n4012;no_show;90 EUR\n",
			id:       "4012",
			platform: reservation.PlatformBookingCom,
			status:   reservation.StatusNoShow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, result, err := ParseCSV([]byte(tt.csv))
			if err != nil {
				t.Fatalf("ParseCSV failed: %v", err)
			}
			if len(result.Records) != 1 {
				t.Fatalf("Expected 1 record, got %d", len(result.Records))
			}
			rec := result.Records[0]
			if rec.ID != tt.id || rec.Platform != tt.platform || rec.Status != tt.status {
				t.Errorf("Got %s/%s/%s, want %s/%s/%s", rec.ID, rec.Platform, rec.Status, tt.id, tt.platform, tt.status)
			}
		})
	}
}

func TestBuild_LegacyAirbnbFields(t *testing.T) {
	csv := "Codice di conferma,Stato,Nome dell'ospite,N. di adulti,N. di bambini,N. di neonati,Data di inizio,Data di fine,Prenotata,Guadagni\n" +
		"HMABC123,Ospite precedente,Mario  Rossi,2,1,0,5/3/2025,18/03/2025,01/02/2025,\"312,50 €\"\n"

	_, result, err := ParseCSV([]byte(csv))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}

	got := result.Records[0]
	want := reservation.Reservation{
		ID:                "HMABC123",
		Platform:          reservation.PlatformAirbnb,
		GuestName:         "Mario Rossi",
		GuestsDescription: "2 adulti, 1 bambino",
		Arrival:           "2025-03-05",
		Departure:         "2025-03-18",
		BookingDate:       "2025-02-01",
		Status:            reservation.StatusOK,
		Price:             312.50,
		Commission:        0,
	}
	if got != want {
		t.Errorf("Build() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestBuild_LegacyAirbnbWithoutGuestCounts(t *testing.T) {
	csv := "Codice di conferma,Stato,Nome dell'ospite,Data di inizio,Data di fine,Guadagni\n" +
		"HMNOCOUNT,Confermata,Anna Bianchi,5/3/2025,8/3/2025,\"150,00 €\"\n"

	_, result, err := ParseCSV([]byte(csv))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(result.Records))
	}
	if got := result.Records[0].GuestsDescription; got != "" {
		t.Errorf("GuestsDescription = %q, want empty", got)
	}
}

func TestBuild_NewAirbnbFiltersNonReservations(t *testing.T) {
	csv := "Data,Tipo,Codice di conferma,Data di prenotazione,Data di inizio,Data di fine,Notti,Ospite,Costi del servizio,Guadagni lordi\n" +
		"03/20/2025,Prenotazione,HMXYZ789,02/14/2025,03/18/2025,03/20/2025,2,Luca Verdi,\"12,40\",\"210,00\"\n" +
		"03/31/2025,Imposte sul soggiorno,HMXYZ789,,,,,,,\"8,00\"\n" +
		"04/01/2025,Payout,,,,,,,,\"197,60\"\n"

	_, result, err := ParseCSV([]byte(csv))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}

	if len(result.Records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(result.Records))
	}
	if result.Filtered != 2 {
		t.Errorf("Expected 2 filtered rows, got %d", result.Filtered)
	}

	rec := result.Records[0]
	if rec.Arrival != "2025-03-18" || rec.BookingDate != "2025-02-14" {
		t.Errorf("Expected MM/DD dates reformatted, got arrival %q booking %q", rec.Arrival, rec.BookingDate)
	}
	if rec.Price != 210 || rec.Commission != 12.40 {
		t.Errorf("Expected price 210 and commission 12.40, got %v and %v", rec.Price, rec.Commission)
	}
	if rec.GuestsDescription != "2 notti" {
		t.Errorf("Expected '2 notti', got %q", rec.GuestsDescription)
	}
}

func TestBuild_BookingFields(t *testing.T) {
	csv := "Numero prenotazione;Nome ospite/i;Arrivo;Partenza;Prenotato il;Stato;Persone;Durata (notti);Prezzo;Importo commissione\n" +
		"4012345678;John Smith;10/04/2025;13/04/2025;01/03/2025 14:22:10;ok;1;3;450 EUR;67,50 EUR\n"

	_, result, err := ParseCSV([]byte(csv))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}

	rec := result.Records[0]
	if rec.BookingDate != "2025-03-01" {
		t.Errorf("Expected booking date without time, got %q", rec.BookingDate)
	}
	if rec.GuestsDescription != "1 persona, 3 notti" {
		t.Errorf("Unexpected guests description %q", rec.GuestsDescription)
	}
	if rec.Price != 450 || rec.Commission != 67.5 {
		t.Errorf("Expected 450/67.5, got %v/%v", rec.Price, rec.Commission)
	}
}

func TestBuild_DropsRowsWithoutID(t *testing.T) {
	csv := "Confirmation code,Status,Earnings\n,Confirmed,100\n\"\",Confirmed,100\nHM1,Confirmed,100\n"

	_, result, err := ParseCSV([]byte(csv))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(result.Records) != 1 {
		t.Errorf("Expected 1 record, got %d", len(result.Records))
	}
	if result.MissingID != 2 {
		t.Errorf("Expected 2 rows missing id, got %d", result.MissingID)
	}
}

func TestBuild_ShortRowsDegrade(t *testing.T) {
	csv := "Codice di conferma,Stato,Nome dell'ospite,Guadagni\nHM1\n"

	_, result, err := ParseCSV([]byte(csv))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	rec := result.Records[0]
	if rec.GuestName != "" || rec.Price != 0 || rec.Status != reservation.StatusOK {
		t.Errorf("Expected missing fields to degrade, got %+v", rec)
	}
}

func TestBuild_UnsupportedDialect(t *testing.T) {
	if _, err := Build(&sniffer.FileConfig{Dialect: "vrbo"}); err == nil {
		t.Error("Expected error for unsupported dialect")
	}
}

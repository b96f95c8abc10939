package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/host-ledger/pkg/config"
	"github.com/FACorreiaa/host-ledger/pkg/rpc/hostledgerv1"
)

const bookingCSV = "Book number;Guest name(s);Check-in;Check-out;Status;Price;Commission amount;Persons\n" +
	"4001;Jane Doe;10/04/2025;12/04/2025;ok;200 EUR;30 EUR;2\n"

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 8080, AllowedOrigins: []string{"*"}},
		Database: config.DatabaseConfig{Driver: "memory", SSLMode: "disable", MaxConns: 1},
		Auth:     config.AuthConfig{TokenTTL: time.Hour},
		Extraction: config.ExtractionConfig{
			Provider:    "none",
			Timeout:     time.Second,
			MaxAttempts: 1,
			BaseBackoff: time.Millisecond,
			MaxBackoff:  time.Millisecond,
		},
		Cache:  config.CacheConfig{Driver: "none"},
		Import: config.ImportConfig{MaxParallel: 2, MaxFileBytes: 1 << 20, MaxFiles: 5},
		Observability: config.ObservabilityConfig{
			LogLevel: "info",
		},
		Profiling: config.ProfilingConfig{Port: 6060},
		Stats:     config.StatsConfig{TaxRate: 0.21},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps, err := InitDependencies(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(deps.Cleanup)

	srv := httptest.NewServer(SetupRouter(deps))
	t.Cleanup(srv.Close)
	return srv
}

func importRequest() *connect.Request[hostledgerv1.ImportFilesRequest] {
	return connect.NewRequest(&hostledgerv1.ImportFilesRequest{
		Files: []hostledgerv1.UploadedFile{{Name: "booking.csv", Data: []byte(bookingCSV)}},
	})
}

func TestRouter_HealthRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/health/details")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var details map[string]struct {
		Status string `json:"status"`
		Detail string `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&details))
	assert.Equal(t, "ok", details["storage"].Status)
	assert.Equal(t, "warn", details["extraction"].Status)
	assert.Equal(t, "warn", details["auth"].Status)
}

func TestRouter_ImportWithoutAuth(t *testing.T) {
	srv := newTestServer(t, testConfig())
	client := hostledgerv1.NewReservationServiceClient(srv.Client(), srv.URL)

	resp, err := client.ImportFiles(context.Background(), importRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Msg.Total)
	assert.Equal(t, "no-store", resp.Header().Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header().Get("X-Request-ID"))

	export, err := srv.Client().Get(srv.URL + ExportMonthlyPath)
	require.NoError(t, err)
	defer export.Body.Close()
	assert.Equal(t, http.StatusOK, export.StatusCode)
	body, err := io.ReadAll(export.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "2025-04")
}

func TestRouter_AuthEnabled(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Auth.JWTSecret = "router-secret"
	cfg.Auth.PasswordHash = string(hash)
	srv := newTestServer(t, cfg)

	reservations := hostledgerv1.NewReservationServiceClient(srv.Client(), srv.URL)
	_, err = reservations.ImportFiles(context.Background(), importRequest())
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	export, err := srv.Client().Get(srv.URL + ExportMonthlyPath)
	require.NoError(t, err)
	_ = export.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, export.StatusCode)

	auth := hostledgerv1.NewAuthServiceClient(srv.Client(), srv.URL)
	login, err := auth.Login(context.Background(), connect.NewRequest(&hostledgerv1.LoginRequest{Password: "s3cret"}))
	require.NoError(t, err)

	req := importRequest()
	req.Header().Set("Authorization", "Bearer "+login.Msg.AccessToken)
	resp, err := reservations.ImportFiles(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Msg.Imported)

	_, err = auth.Login(context.Background(), connect.NewRequest(&hostledgerv1.LoginRequest{Password: "wrong"}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}

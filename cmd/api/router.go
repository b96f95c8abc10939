package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	c "connectrpc.com/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/host-ledger/pkg/interceptors"
	"github.com/FACorreiaa/host-ledger/pkg/observability"
	"github.com/FACorreiaa/host-ledger/pkg/rpc/hostledgerv1"
)

// ExportMonthlyPath serves the monthly breakdown as CSV
const ExportMonthlyPath = "/export/monthly.csv"

// SetupRouter configures all routes and returns the HTTP service
func SetupRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	jwtSecret := []byte(deps.Config.Auth.JWTSecret)
	authEnabled := deps.Config.Auth.Enabled()
	if !authEnabled {
		deps.Logger.Warn("JWT_SECRET or HOST_PASSWORD_HASH is empty; API is unauthenticated")
	}

	publicProcedures := []string{
		hostledgerv1.AuthServiceLoginProcedure,
	}

	tracer := otel.GetTracerProvider().Tracer("hostledger/api")

	chain := []connect.Interceptor{
		interceptors.NewRequestIDInterceptor("X-Request-ID"),
		interceptors.NewTracingInterceptor(tracer),
		interceptors.NewValidationInterceptor(nil),
	}
	if deps.Config.Server.RateLimitPerSecond > 0 && deps.Config.Server.RateLimitBurst > 0 {
		limiter := rate.NewLimiter(
			rate.Limit(float64(deps.Config.Server.RateLimitPerSecond)),
			deps.Config.Server.RateLimitBurst,
		)
		chain = append(chain, interceptors.NewRateLimitInterceptor(limiter))
	}
	chain = append(chain,
		interceptors.NewRecoveryInterceptor(deps.Logger),
		interceptors.NewLoggingInterceptor(deps.Logger),
	)
	if authEnabled {
		chain = append(chain, interceptors.NewAuthInterceptor(jwtSecret, publicProcedures...))
	}
	if deps.Config.Observability.MetricsEnabled {
		chain = append(chain, observability.NewMetricsInterceptor())
	}

	registerConnectRoutes(mux, deps, connect.WithInterceptors(chain...))
	registerExportRoutes(mux, deps, jwtSecret, authEnabled)
	registerUtilityRoutes(mux, deps)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   c.AllowedMethods(),
		AllowedHeaders:   append(c.AllowedHeaders(), "Authorization", "X-Request-ID"),
		ExposedHeaders:   append(c.ExposedHeaders(), "X-Request-ID", "Content-Disposition"),
		AllowCredentials: true,
		MaxAge:           7200,
	})

	return corsHandler.Handler(mux)
}

// registerConnectRoutes registers all Connect RPC services
func registerConnectRoutes(mux *http.ServeMux, deps *Dependencies, opts connect.HandlerOption) {
	authServicePath, authServiceHandler := hostledgerv1.NewAuthServiceHandler(deps.AuthHandler, opts)
	mux.Handle(authServicePath, noStore(limitBody(authServiceHandler, 1<<20)))
	deps.Logger.Info("registered Connect RPC service", "path", authServicePath)

	// base64 inflates uploads by a third, plus headroom for the JSON envelope
	maxUpload := deps.Config.Import.MaxFileBytes*int64(deps.Config.Import.MaxFiles)*4/3 + 1<<20
	reservationPath, reservationHandler := hostledgerv1.NewReservationServiceHandler(deps.ImportHandler, opts)
	mux.Handle(reservationPath, noStore(limitBody(reservationHandler, maxUpload)))
	deps.Logger.Info("registered Connect RPC service", "path", reservationPath, "max_body_bytes", maxUpload)

	deps.Logger.Info("Connect RPC routes configured")
}

func registerExportRoutes(mux *http.ServeMux, deps *Dependencies, secret []byte, authEnabled bool) {
	var export http.Handler = http.HandlerFunc(deps.ImportHandler.ExportMonthlyCSV)
	if authEnabled {
		export = interceptors.RequireBearer(secret, export)
	}
	mux.Handle(ExportMonthlyPath, export)
	deps.Logger.Info("registered export", "path", ExportMonthlyPath)
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

func limitBody(next http.Handler, maxBodyBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// registerUtilityRoutes registers health check, metrics, and other utility routes
func registerUtilityRoutes(mux *http.ServeMux, deps *Dependencies) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := deps.Health(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, writeErr := w.Write([]byte("storage unhealthy")); writeErr != nil {
				deps.Logger.Error("failed to write health response", slog.Any("error", writeErr))
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			deps.Logger.Error("failed to write health response", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered health check", "path", "/health")

	mux.HandleFunc("/health/details", func(w http.ResponseWriter, r *http.Request) {
		type status struct {
			Status string `json:"status"`
			Detail string `json:"detail,omitempty"`
		}
		result := map[string]status{
			"storage":    {Status: "ok", Detail: deps.Config.Database.Driver},
			"extraction": {Status: "ok", Detail: deps.Runner.Provider()},
			"auth":       {Status: "ok"},
			"ready":      {Status: "ok"},
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.Health(ctx); err != nil {
			result["storage"] = status{Status: "fail", Detail: err.Error()}
			result["ready"] = status{Status: "fail", Detail: "storage unavailable"}
		}

		if deps.Extractor == nil {
			result["extraction"] = status{Status: "warn", Detail: "no API key configured, image import disabled"}
		}
		if !deps.Config.Auth.Enabled() {
			result["auth"] = status{Status: "warn", Detail: "authentication disabled"}
		}

		w.Header().Set("Content-Type", "application/json")
		code := http.StatusOK
		if result["ready"].Status == "fail" {
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(result); err != nil {
			deps.Logger.Error("failed to encode health details", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered health details", "path", "/health/details")

	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ready")); err != nil {
			deps.Logger.Error("failed to write readiness response", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered readiness check", "path", "/ready")

	if deps.Config.Observability.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		deps.Logger.Info("registered metrics endpoint", "path", "/metrics")
	}
}

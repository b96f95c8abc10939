package hostledgerv1

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/FACorreiaa/host-ledger/pkg/rpcjson"
)

const (
	ReservationServiceName = "hostledger.v1.ReservationService"
	AuthServiceName        = "hostledger.v1.AuthService"
)

const (
	ReservationServiceImportFilesProcedure       = "/hostledger.v1.ReservationService/ImportFiles"
	ReservationServiceListReservationsProcedure  = "/hostledger.v1.ReservationService/ListReservations"
	ReservationServiceResetReservationsProcedure = "/hostledger.v1.ReservationService/ResetReservations"
	ReservationServiceGetSummaryProcedure        = "/hostledger.v1.ReservationService/GetSummary"
	AuthServiceLoginProcedure                    = "/hostledger.v1.AuthService/Login"
)

// ReservationServiceHandler is implemented by the import handler
type ReservationServiceHandler interface {
	ImportFiles(context.Context, *connect.Request[ImportFilesRequest]) (*connect.Response[ImportFilesResponse], error)
	ListReservations(context.Context, *connect.Request[ListReservationsRequest]) (*connect.Response[ListReservationsResponse], error)
	ResetReservations(context.Context, *connect.Request[ResetReservationsRequest]) (*connect.Response[ResetReservationsResponse], error)
	GetSummary(context.Context, *connect.Request[GetSummaryRequest]) (*connect.Response[GetSummaryResponse], error)
}

// AuthServiceHandler is implemented by the auth handler
type AuthServiceHandler interface {
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{rpcjson.WithCodec()}, opts...)
}

func route(prefix string, handlers map[string]http.Handler) (string, http.Handler) {
	return prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// NewReservationServiceHandler returns the mount path and handler for the reservation service
func NewReservationServiceHandler(svc ReservationServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	readOnly := append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))

	return route("/"+ReservationServiceName+"/", map[string]http.Handler{
		ReservationServiceImportFilesProcedure:       connect.NewUnaryHandler(ReservationServiceImportFilesProcedure, svc.ImportFiles, opts...),
		ReservationServiceListReservationsProcedure:  connect.NewUnaryHandler(ReservationServiceListReservationsProcedure, svc.ListReservations, readOnly...),
		ReservationServiceResetReservationsProcedure: connect.NewUnaryHandler(ReservationServiceResetReservationsProcedure, svc.ResetReservations, opts...),
		ReservationServiceGetSummaryProcedure:        connect.NewUnaryHandler(ReservationServiceGetSummaryProcedure, svc.GetSummary, readOnly...),
	})
}

// NewAuthServiceHandler returns the mount path and handler for the auth service
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return route("/"+AuthServiceName+"/", map[string]http.Handler{
		AuthServiceLoginProcedure: connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...),
	})
}

// ReservationServiceClient calls the reservation service over Connect
type ReservationServiceClient struct {
	importFiles       *connect.Client[ImportFilesRequest, ImportFilesResponse]
	listReservations  *connect.Client[ListReservationsRequest, ListReservationsResponse]
	resetReservations *connect.Client[ResetReservationsRequest, ResetReservationsResponse]
	getSummary        *connect.Client[GetSummaryRequest, GetSummaryResponse]
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{rpcjson.WithCodec()}, opts...)
}

func NewReservationServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ReservationServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &ReservationServiceClient{
		importFiles:       connect.NewClient[ImportFilesRequest, ImportFilesResponse](httpClient, baseURL+ReservationServiceImportFilesProcedure, opts...),
		listReservations:  connect.NewClient[ListReservationsRequest, ListReservationsResponse](httpClient, baseURL+ReservationServiceListReservationsProcedure, opts...),
		resetReservations: connect.NewClient[ResetReservationsRequest, ResetReservationsResponse](httpClient, baseURL+ReservationServiceResetReservationsProcedure, opts...),
		getSummary:        connect.NewClient[GetSummaryRequest, GetSummaryResponse](httpClient, baseURL+ReservationServiceGetSummaryProcedure, opts...),
	}
}

func (c *ReservationServiceClient) ImportFiles(ctx context.Context, req *connect.Request[ImportFilesRequest]) (*connect.Response[ImportFilesResponse], error) {
	return c.importFiles.CallUnary(ctx, req)
}

func (c *ReservationServiceClient) ListReservations(ctx context.Context, req *connect.Request[ListReservationsRequest]) (*connect.Response[ListReservationsResponse], error) {
	return c.listReservations.CallUnary(ctx, req)
}

func (c *ReservationServiceClient) ResetReservations(ctx context.Context, req *connect.Request[ResetReservationsRequest]) (*connect.Response[ResetReservationsResponse], error) {
	return c.resetReservations.CallUnary(ctx, req)
}

func (c *ReservationServiceClient) GetSummary(ctx context.Context, req *connect.Request[GetSummaryRequest]) (*connect.Response[GetSummaryResponse], error) {
	return c.getSummary.CallUnary(ctx, req)
}

// AuthServiceClient calls the auth service over Connect
type AuthServiceClient struct {
	login *connect.Client[LoginRequest, LoginResponse]
}

func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &AuthServiceClient{
		login: connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, clientOptions(opts)...),
	}
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/host-ledger/internal/domain/auth/service"
	"github.com/FACorreiaa/host-ledger/pkg/interceptors"
	"github.com/FACorreiaa/host-ledger/pkg/rpc/hostledgerv1"
)

var testSecret = []byte("handler-secret")

func newTestAuthHandler(t *testing.T, password string) *AuthHandler {
	t.Helper()
	hash := ""
	if password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		hash = string(b)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthHandler(service.NewAuthService(hash, service.NewTokenManager(testSecret, time.Hour), logger))
}

func TestAuthHandler_Login_Success(t *testing.T) {
	handler := newTestAuthHandler(t, "s3cret")

	resp, err := handler.Login(context.Background(), connect.NewRequest(&hostledgerv1.LoginRequest{Password: "s3cret"}))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Msg.TokenType != "Bearer" {
		t.Fatalf("expected bearer token type, got %q", resp.Msg.TokenType)
	}
	if resp.Msg.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("expected expiry in the future, got %d", resp.Msg.ExpiresAt)
	}

	sub, err := interceptors.ParseToken(testSecret, resp.Msg.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if sub != service.HostSubject {
		t.Fatalf("expected subject %q, got %q", service.HostSubject, sub)
	}
}

func TestAuthHandler_Login_InvalidInput(t *testing.T) {
	handler := NewAuthHandler(nil)

	_, err := handler.Login(context.Background(), connect.NewRequest(&hostledgerv1.LoginRequest{}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", connect.CodeOf(err))
	}
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	handler := newTestAuthHandler(t, "s3cret")

	_, err := handler.Login(context.Background(), connect.NewRequest(&hostledgerv1.LoginRequest{Password: "nope"}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", connect.CodeOf(err))
	}
}

func TestAuthHandler_Login_Disabled(t *testing.T) {
	handler := newTestAuthHandler(t, "")

	_, err := handler.Login(context.Background(), connect.NewRequest(&hostledgerv1.LoginRequest{Password: "anything"}))
	if connect.CodeOf(err) != connect.CodeFailedPrecondition {
		t.Fatalf("expected failed precondition, got %v", connect.CodeOf(err))
	}
}

func TestAuthService_OverConnect(t *testing.T) {
	handler := newTestAuthHandler(t, "s3cret")
	mux := http.NewServeMux()
	mux.Handle(hostledgerv1.NewAuthServiceHandler(handler,
		connect.WithInterceptors(interceptors.NewAuthInterceptor(testSecret, hostledgerv1.AuthServiceLoginProcedure)),
	))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := hostledgerv1.NewAuthServiceClient(srv.Client(), srv.URL)
	resp, err := client.Login(context.Background(), connect.NewRequest(&hostledgerv1.LoginRequest{Password: "s3cret"}))
	if err != nil {
		t.Fatalf("Login over connect: %v", err)
	}
	if resp.Msg.AccessToken == "" {
		t.Fatalf("expected access token")
	}
}

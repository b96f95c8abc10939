package handler

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/FACorreiaa/host-ledger/internal/domain/auth/service"
	"github.com/FACorreiaa/host-ledger/internal/domain/common"
	"github.com/FACorreiaa/host-ledger/pkg/rpc/hostledgerv1"
)

// AuthHandler implements the AuthService Connect handlers.
type AuthHandler struct {
	service *service.AuthService
}

var _ hostledgerv1.AuthServiceHandler = (*AuthHandler)(nil)

// NewAuthHandler constructs a new handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{
		service: svc,
	}
}

// Login exchanges the host password for an access token.
func (h *AuthHandler) Login(
	ctx context.Context,
	req *connect.Request[hostledgerv1.LoginRequest],
) (*connect.Response[hostledgerv1.LoginResponse], error) {
	if req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("password is required"))
	}

	pair, err := h.service.Login(ctx, req.Msg.Password)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&hostledgerv1.LoginResponse{
		AccessToken: pair.AccessToken,
		TokenType:   pair.TokenType,
		ExpiresAt:   pair.ExpiresAt.Unix(),
	}), nil
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, common.ErrUnauthenticated):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, service.ErrAuthDisabled):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

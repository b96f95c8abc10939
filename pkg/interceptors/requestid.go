package interceptors

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/google/uuid"
)

type requestIDKey struct{}

// RequestIDFromContext returns the request id set by the request-id interceptor
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// NewRequestIDInterceptor propagates the caller's request id, or mints one, and
// echoes it in the response header.
func NewRequestIDInterceptor(header string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			id := req.Header().Get(header)
			if id == "" {
				id = uuid.NewString()
			}
			ctx = context.WithValue(ctx, requestIDKey{}, id)

			resp, err := next(ctx, req)
			if err != nil {
				// resp is a typed nil on the error path
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					connectErr.Meta().Set(header, id)
				}
				return resp, err
			}
			if resp != nil {
				resp.Header().Set(header, id)
			}
			return resp, nil
		}
	}
}

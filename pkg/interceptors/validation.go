package interceptors

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"
)

// NewValidationInterceptor checks `validate` struct tags on request messages
// before they reach the handler.
func NewValidationInterceptor(v *validator.Validate) connect.UnaryInterceptorFunc {
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			msg := req.Any()
			if msg != nil && isStruct(msg) {
				if err := v.StructCtx(ctx, msg); err != nil {
					var invalid validator.ValidationErrors
					if errors.As(err, &invalid) {
						return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid request: %w", invalid))
					}
					return nil, connect.NewError(connect.CodeInternal, err)
				}
			}
			return next(ctx, req)
		}
	}
}

func isStruct(v any) bool {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

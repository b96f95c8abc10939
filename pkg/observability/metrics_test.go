package observability

import (
	"errors"
	"testing"

	"connectrpc.com/connect"
)

func TestCodeLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{connect.NewError(connect.CodeInvalidArgument, errors.New("bad")), "invalid_argument"},
		{errors.New("plain"), "unknown"},
	}
	for _, tt := range tests {
		if got := codeLabel(tt.err); got != tt.want {
			t.Errorf("codeLabel(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

package db

import (
	"errors"
	"testing"
)

func TestError_WrapsOp(t *testing.T) {
	inner := errors.New("connection reset")
	err := &Error{Op: OpGet, Err: inner}

	if err.Error() != "GET: connection reset" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to reach the wrapped error")
	}
}

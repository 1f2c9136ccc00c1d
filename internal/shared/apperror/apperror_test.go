package apperror

import (
	"context"
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestConstructorsWrapSentinels(t *testing.T) {
	if err := Invalid("latitude %v out of range", 91); !errors.Is(err, ErrInvalidSample) {
		t.Fatalf("expected invalid sample, got %v", err)
	}
	err := NotFound("trip", "abc")
	if !errors.Is(err, ErrNotFound) || err.Error() != "trip abc: not found" {
		t.Fatalf("unexpected not found error: %v", err)
	}
}

func TestUpstream(t *testing.T) {
	if Upstream("op", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	err := Upstream("latest sample", context.DeadlineExceeded)
	if !errors.Is(err, ErrUpstreamUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected both sentinel and cause: %v", err)
	}
	nf := NotFound("sample", 7)
	if Upstream("delete", nf) != nf {
		t.Fatalf("taxonomy errors must pass through")
	}
}

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, fiber.StatusOK},
		{Invalid("x"), fiber.StatusBadRequest},
		{NotFound("trip", 1), fiber.StatusNotFound},
		{Upstream("q", errors.New("conn refused")), fiber.StatusServiceUnavailable},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := Status(tc.err); got != tc.want {
			t.Fatalf("Status(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}

	var fe *fiber.Error
	if !errors.As(HTTP(NotFound("trip", 1)), &fe) || fe.Code != fiber.StatusNotFound {
		t.Fatalf("expected fiber 404")
	}
}

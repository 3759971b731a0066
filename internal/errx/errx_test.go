package errx

import (
	"errors"
	"fmt"
	"testing"
)

// TestE tests the E function constructor
func TestE(t *testing.T) {
	t.Run("returns nil when error is nil", func(t *testing.T) {
		got := E("op", NotFound, nil)
		if got != nil {
			t.Errorf("E() with nil error = %v, want nil", got)
		}
	})

	t.Run("constructs Error with all fields", func(t *testing.T) {
		root := errors.New("root cause")
		err := E("repo.GetByShortCode", NotFound, root)

		var e *Error
		if !errors.As(err, &e) {
			t.Fatal("expected error to be of type *errx.Error")
		}

		if got, want := e.Op, "repo.GetByShortCode"; got != want {
			t.Errorf("Op = %q, want %q", got, want)
		}
		if got, want := e.Kind, NotFound; got != want {
			t.Errorf("Kind = %v, want %v", got, want)
		}
		if !errors.Is(e.Err, root) {
			t.Errorf("Err = %v, want %v", e.Err, root)
		}
	})

	t.Run("preserves all error kinds", func(t *testing.T) {
		kinds := []Kind{
			Unknown, NotFound, Conflict, Invalid, Unauthorized,
			Forbidden, Unavailable, Internal, Disabled, RateLimited, LoopDetected,
		}
		root := errors.New("test error")

		for _, kind := range kinds {
			t.Run(fmt.Sprintf("kind_%d", kind), func(t *testing.T) {
				err := E("operation", kind, root)
				if got := KindOf(err); got != kind {
					t.Errorf("KindOf() = %v, want %v", got, kind)
				}
			})
		}
	})
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Unknown, "Unknown"},
		{NotFound, "NotFound"},
		{Conflict, "Conflict"},
		{Invalid, "Invalid"},
		{Unauthorized, "Unauthorized"},
		{Forbidden, "Forbidden"},
		{Unavailable, "Unavailable"},
		{Internal, "Internal"},
		{Disabled, "Disabled"},
		{RateLimited, "RateLimited"},
		{LoopDetected, "LoopDetected"},
		{Kind(200), "Kind(200)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	t.Run("formats op and cause", func(t *testing.T) {
		err := &Error{Op: "shortener.service.Resolve", Err: errors.New("boom")}
		if got, want := err.Error(), "shortener.service.Resolve: boom"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("op only when cause is nil", func(t *testing.T) {
		err := &Error{Op: "op-only"}
		if got := err.Error(); got != "op-only" {
			t.Errorf("Error() = %q, want %q", got, "op-only")
		}
	})

	t.Run("cause only when op is empty", func(t *testing.T) {
		err := &Error{Err: errors.New("bare cause")}
		if got := err.Error(); got != "bare cause" {
			t.Errorf("Error() = %q, want %q", got, "bare cause")
		}
	})
}

func TestUnwrap(t *testing.T) {
	root := errors.New("root")
	err := E("op", Internal, fmt.Errorf("wrapped: %w", root))

	if !errors.Is(err, root) {
		t.Error("errors.Is() should find the root cause through Unwrap")
	}
}

func TestKindOf_NonErrxError(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != Unknown {
		t.Errorf("KindOf(plain error) = %v, want Unknown", got)
	}
	if got := KindOf(nil); got != Unknown {
		t.Errorf("KindOf(nil) = %v, want Unknown", got)
	}
}

func TestOpOf(t *testing.T) {
	err := E("shortener.repo.CreateLink", Conflict, errors.New("duplicate"))
	if got := OpOf(err); got != "shortener.repo.CreateLink" {
		t.Errorf("OpOf() = %q, want %q", got, "shortener.repo.CreateLink")
	}
	if got := OpOf(errors.New("plain")); got != "" {
		t.Errorf("OpOf(plain error) = %q, want empty", got)
	}
}

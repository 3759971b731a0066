package httpx

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	var w io.Writer = io.Discard
	if buf != nil {
		w = buf
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRequestID(t *testing.T) {
	t.Run("generates request ID when absent", func(t *testing.T) {
		var captured string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest("GET", "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if captured == "" {
			t.Error("expected request ID in context, got empty string")
		}
		if got := rr.Header().Get(RequestIDHeader); got != captured {
			t.Errorf("response header = %q, want %q", got, captured)
		}
	})

	t.Run("preserves incoming request ID", func(t *testing.T) {
		var captured string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "upstream-id")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if captured != "upstream-id" {
			t.Errorf("request ID = %q, want %q", captured, "upstream-id")
		}
	})
}

func TestGetRequestID(t *testing.T) {
	t.Run("returns empty string when not set", func(t *testing.T) {
		if got := GetRequestID(context.Background()); got != "" {
			t.Errorf("GetRequestID() = %q, want empty", got)
		}
	})

	t.Run("round trips through WithRequestID", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "abc-123")
		if got := GetRequestID(ctx); got != "abc-123" {
			t.Errorf("GetRequestID() = %q, want %q", got, "abc-123")
		}
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := Logger(testLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/some/path", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	logged := buf.String()
	if !strings.Contains(logged, `"path":"/some/path"`) {
		t.Errorf("log output missing path: %s", logged)
	}
	if !strings.Contains(logged, `"status":418`) {
		t.Errorf("log output missing captured status: %s", logged)
	}
}

func TestRecovery(t *testing.T) {
	handler := Recovery(testLogger(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "internal_error") {
		t.Errorf("body = %s, want internal_error code", rr.Body.String())
	}
}

func TestCORS(t *testing.T) {
	t.Run("allows all origins by default", func(t *testing.T) {
		handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest("GET", "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Allow-Origin = %q, want *", got)
		}
	})

	t.Run("handles preflight", func(t *testing.T) {
		handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called for preflight")
		}))

		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rr.Code)
		}
	})

	t.Run("restricts to configured origins", func(t *testing.T) {
		handler := CORS([]string{"https://allowed.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Origin", "https://other.example")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty for disallowed origin", got)
		}
	})
}

func TestChain(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mk("outer"), mk("inner"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"outer", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("call order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("call order = %v, want %v", order, want)
		}
	}
}

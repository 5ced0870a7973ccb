package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/scuttlekit-go/internal/telemetry/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveFrom(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// TestRequestID tests the RequestID middleware.
func TestRequestID(t *testing.T) {
	middleware := RequestID()
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logger.RequestIDFromContext(r.Context()) == "" {
			t.Error("expected request ID in context")
		}
		if _, ok := r.Context().Value(ContextKeyStartTime).(time.Time); !ok {
			t.Error("expected start time in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("generates request ID when not provided", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		requestID := rec.Header().Get("X-Request-ID")
		if !strings.HasPrefix(requestID, "req-") {
			t.Errorf("expected request ID to start with 'req-', got %s", requestID)
		}
		if len(requestID) != len("req-")+26 {
			t.Errorf("expected a ULID suffix, got %s", requestID)
		}
	})

	t.Run("preserves existing request ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Request-ID", "existing-id-123")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "existing-id-123" {
			t.Errorf("expected 'existing-id-123', got %s", got)
		}
	})
}

// TestChain tests middleware chaining.
func TestChain(t *testing.T) {
	var order []int

	mark := func(n int) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, n)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			order = append(order, 4)
			w.WriteHeader(http.StatusOK)
		}),
		mark(1), mark(2), mark(3),
	)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/test", nil))

	expected := []int{1, 2, 3, 4}
	if len(order) != len(expected) {
		t.Fatalf("expected %d calls, got %d", len(expected), len(order))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("expected order[%d] = %d, got %d", i, v, order[i])
		}
	}
}

// TestNetworkACL tests the NetworkACL middleware.
func TestNetworkACL(t *testing.T) {
	tests := []struct {
		name       string
		allowList  []string
		remoteAddr string
		want       int
	}{
		{"allows all when allowlist is empty", nil, "192.168.1.100:12345", http.StatusOK},
		{"allows matching single IP", []string{"192.168.1.100"}, "192.168.1.100:12345", http.StatusOK},
		{"allows matching CIDR", []string{"10.0.0.0/8"}, "10.1.2.3:12345", http.StatusOK},
		{"denies non-matching IP", []string{"192.168.1.0/24"}, "10.0.0.1:12345", http.StatusForbidden},
		{"supports IPv6", []string{"2001:db8::/32"}, "[2001:db8::1]:12345", http.StatusOK},
		{"skips invalid entries", []string{"not-an-ip", "bad/cidr", "127.0.0.1"}, "127.0.0.1:1", http.StatusOK},
		{"denies unparsable client", []string{"127.0.0.1"}, "garbage", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := NetworkACL(&NetworkACLConfig{
				AllowList: tt.allowList,
				Logger:    logger.Discard(),
			})

			rec := serveFrom(middleware(okHandler()), tt.remoteAddr)

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusForbidden && rec.Header().Get("X-Error-Code") != codeForbiddenIP {
				t.Errorf("X-Error-Code = %q", rec.Header().Get("X-Error-Code"))
			}
		})
	}
}

func TestRateLimitConcurrency(t *testing.T) {
	handler := RateLimit(NewLimiterRegistry(100, time.Minute))(okHandler())

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount, failCount := 0, 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := serveFrom(handler, "192.168.1.1:12345")

			mu.Lock()
			defer mu.Unlock()
			if rec.Code == http.StatusOK {
				successCount++
			} else {
				failCount++
			}
		}()
	}
	wg.Wait()

	if successCount == 0 {
		t.Error("expected some successful requests")
	}
	if failCount == 0 {
		t.Error("expected some rate-limited requests")
	}
}

// TestRateLimit tests the RateLimit middleware.
func TestRateLimit(t *testing.T) {
	t.Run("limits requests from same IP", func(t *testing.T) {
		handler := RateLimit(NewLimiterRegistry(2, time.Minute))(okHandler())

		for i := 0; i < 2; i++ {
			if rec := serveFrom(handler, "10.0.0.99:12345"); rec.Code != http.StatusOK {
				t.Errorf("request %d: expected status 200, got %d", i+1, rec.Code)
			}
		}

		rec := serveFrom(handler, "10.0.0.99:12345")
		if rec.Code != http.StatusTooManyRequests {
			t.Errorf("expected status 429, got %d", rec.Code)
		}
		if rec.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After header")
		}
		if rec.Header().Get("X-Error-Code") != codeRateLimited {
			t.Errorf("X-Error-Code = %q", rec.Header().Get("X-Error-Code"))
		}
	})

	t.Run("different IPs have separate limits", func(t *testing.T) {
		handler := RateLimit(NewLimiterRegistry(1, time.Minute))(okHandler())

		if rec := serveFrom(handler, "192.168.100.1:12345"); rec.Code != http.StatusOK {
			t.Errorf("first IP: expected status 200, got %d", rec.Code)
		}
		if rec := serveFrom(handler, "192.168.100.2:12345"); rec.Code != http.StatusOK {
			t.Errorf("second IP: expected status 200, got %d", rec.Code)
		}
	})

	t.Run("tokens refill over time", func(t *testing.T) {
		handler := RateLimit(NewLimiterRegistry(10, time.Minute))(okHandler())

		for i := 0; i < 10; i++ {
			serveFrom(handler, "10.0.0.88:12345")
		}
		if rec := serveFrom(handler, "10.0.0.88:12345"); rec.Code != http.StatusTooManyRequests {
			t.Errorf("expected status 429, got %d", rec.Code)
		}

		time.Sleep(200 * time.Millisecond)

		if rec := serveFrom(handler, "10.0.0.88:12345"); rec.Code != http.StatusOK {
			t.Errorf("after refill: expected status 200, got %d", rec.Code)
		}
	})
}

func TestLimiterRegistry_EvictsIdleClients(t *testing.T) {
	reg := NewLimiterRegistry(5, time.Minute)
	now := time.Now()
	reg.now = func() time.Time { return now }

	reg.Allow("a")
	reg.Allow("b")
	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}

	now = now.Add(2 * time.Minute)
	reg.Allow("c")

	if reg.Len() != 1 {
		t.Errorf("Len() = %d after sweep, want 1", reg.Len())
	}
}

// TestRecover tests the Recover middleware.
func TestRecover(t *testing.T) {
	t.Run("recovers from panic", func(t *testing.T) {
		handler := Recover(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			panic("test panic")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "test panic") {
			t.Error("panic value leaked to client")
		}
	})

	t.Run("passes through normal requests", func(t *testing.T) {
		handler := Recover(logger.Discard())(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})
}

// TestCORS tests the CORS middleware.
func TestCORS(t *testing.T) {
	serve := func(origins []string, method, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/test", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		rec := httptest.NewRecorder()
		CORS(origins)(okHandler()).ServeHTTP(rec, req)
		return rec
	}

	t.Run("empty list allows every origin", func(t *testing.T) {
		rec := serve(nil, "GET", "http://example.com")
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "*" {
			t.Errorf("Access-Control-Allow-Headers = %q, want *", got)
		}
	})

	t.Run("adds CORS headers for allowed origin", func(t *testing.T) {
		rec := serve([]string{"http://example.com"}, "GET", "http://example.com")
		if rec.Header().Get("Access-Control-Allow-Origin") != "http://example.com" {
			t.Error("expected Access-Control-Allow-Origin header")
		}
	})

	t.Run("handles preflight OPTIONS request", func(t *testing.T) {
		rec := serve([]string{"*"}, "OPTIONS", "http://example.com")
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rec.Code)
		}
	})

	t.Run("does not add headers for non-allowed origin", func(t *testing.T) {
		rec := serve([]string{"http://allowed.com"}, "GET", "http://notallowed.com")
		if rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("should not add CORS header for non-allowed origin")
		}
	})
}

// TestGetClientIP tests the getClientIP function.
func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		value      string
		remoteAddr string
		want       string
	}{
		{"extracts from X-Forwarded-For", "X-Forwarded-For", "10.0.0.1, 10.0.0.2", "192.168.1.1:12345", "10.0.0.1"},
		{"extracts from X-Real-IP", "X-Real-IP", "10.0.0.5", "192.168.1.1:12345", "10.0.0.5"},
		{"falls back to RemoteAddr", "", "", "192.168.1.1:12345", "192.168.1.1"},
		{"handles IPv6 RemoteAddr", "", "", "[::1]:8080", "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			req.RemoteAddr = tt.remoteAddr

			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

type recordedRequest struct {
	method, status string
}

type requestRecorder struct {
	mu   sync.Mutex
	seen []recordedRequest
}

func (r *requestRecorder) RecordRequest(method, status string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, recordedRequest{method, status})
}

// TestAudit tests the Audit middleware.
func TestAudit(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			metrics := &requestRecorder{}
			handler := Chain(
				http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(status)
				}),
				RequestID(),
				Audit(logger.Discard(), metrics),
			)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest("POST", "/register", nil))

			if rec.Code != status {
				t.Errorf("expected status %d, got %d", status, rec.Code)
			}
			if len(metrics.seen) != 1 {
				t.Fatalf("expected one recorded request, got %d", len(metrics.seen))
			}
			want := recordedRequest{method: "POST", status: strconv.Itoa(status)}
			if got := metrics.seen[0]; got != want {
				t.Errorf("recorded %+v", got)
			}
		})
	}

	t.Run("nil metrics", func(t *testing.T) {
		handler := Audit(logger.Discard(), nil)(okHandler())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})
}

// TestResponseWriter tests the responseWriter wrapper.
func TestResponseWriter(t *testing.T) {
	t.Run("captures first status code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		w := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
		w.WriteHeader(http.StatusNotFound)
		w.WriteHeader(http.StatusInternalServerError)
		if w.statusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.statusCode)
		}
	})

	t.Run("defaults to 200", func(t *testing.T) {
		rec := httptest.NewRecorder()
		w := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
		w.Write([]byte("ok"))
		if w.statusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", w.statusCode)
		}
	})

	t.Run("unwraps to the underlying writer", func(t *testing.T) {
		rec := httptest.NewRecorder()
		w := &responseWriter{ResponseWriter: rec}
		if w.Unwrap() != rec {
			t.Error("Unwrap should return the wrapped writer")
		}
		if _, _, err := w.Hijack(); err == nil {
			t.Error("Hijack on a recorder should fail")
		}
	})
}

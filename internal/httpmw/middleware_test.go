package httpmw

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"github.com/vicompany/hardened-web/internal/log"
)

// spyLogger captures Info and Error calls. With returns the same spy so
// calls on derived loggers land here too.
type spyLogger struct {
	log.Logger
	mu     sync.Mutex
	infos  []spyEntry
	errors []spyEntry
	with   []any
}

type spyEntry struct {
	msg string
	err error
	kv  []any
}

func newSpyLogger() *spyLogger { return &spyLogger{Logger: log.Nop()} }

func (s *spyLogger) With(kv ...any) log.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.with = append(s.with, kv...)
	return s
}

func (s *spyLogger) Info(ctx context.Context, msg string, kv ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.infos = append(s.infos, spyEntry{msg: msg, kv: kv})
}

func (s *spyLogger) Error(ctx context.Context, err error, msg string, kv ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, spyEntry{msg: msg, err: err, kv: kv})
}

func kvValue(kv []any, key string) (any, bool) {
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i] == key {
			return kv[i+1], true
		}
	}
	return nil, false
}

// Chain

func TestChain_Order(t *testing.T) {
	var order []string
	mk := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mk("a"), nil, mk("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if got := strings.Join(order, ","); got != "a,b,handler" {
		t.Fatalf("order = %s", got)
	}
}

// Recover

func TestRecover_NoPanic(t *testing.T) {
	spy := newSpyLogger()
	rec := httptest.NewRecorder()
	Recover(spy, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(spy.errors) != 0 {
		t.Fatal("error logged without panic")
	}
}

func TestRecover_Panics(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"string", "boom"},
		{"error", errors.New("database connection lost")},
		{"int", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := newSpyLogger()
			called := false
			rec := httptest.NewRecorder()
			Recover(spy, func() { called = true })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(tt.value)
			})).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submit", http.NoBody))

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", rec.Code)
			}
			if !called {
				t.Fatal("onPanic not called")
			}
			if len(spy.errors) != 1 {
				t.Fatalf("errors logged = %d, want 1", len(spy.errors))
			}
			e := spy.errors[0]
			if e.msg != "httpserver panic recovered" || e.err == nil {
				t.Fatalf("unexpected log entry %+v", e)
			}
			if v, _ := kvValue(spy.with, "url.path"); v != "/submit" {
				t.Fatalf("url.path = %v", v)
			}
		})
	}
}

func TestRecover_AbortHandlerRepanics(t *testing.T) {
	defer func() {
		if v := recover(); v != http.ErrAbortHandler {
			t.Fatalf("recovered %v, want http.ErrAbortHandler", v)
		}
	}()
	Recover(newSpyLogger(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
}

func TestRecover_HardenedHeadersSurvive(t *testing.T) {
	h := Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") }),
		Harden(HardenOptions{AllowOrigin: testOrigin}),
		Recover(newSpyLogger(), nil),
	)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Content-Security-Policy") == "" || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("security headers missing from 500 response")
	}
}

// RequestID

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{"missing", "", false},
		{"valid", "abc-123", true},
		{"with space", "abc 123", false},
		{"newline", "abc\n123", false},
		{"too long", strings.Repeat("a", 129), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctxID string
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.incoming != "" {
				req.Header["X-Request-Id"] = []string{tt.incoming}
			}
			rec := httptest.NewRecorder()
			RequestID("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxID = RequestIDFromContext(r.Context())
			})).ServeHTTP(rec, req)

			if tt.reuse && ctxID != tt.incoming {
				t.Fatalf("id = %q, want %q", ctxID, tt.incoming)
			}
			if !tt.reuse && len(ctxID) != 32 {
				t.Fatalf("generated id = %q, want 32 hex chars", ctxID)
			}
			if got := rec.Header().Get("X-Request-Id"); got != ctxID {
				t.Fatalf("response header = %q, context = %q", got, ctxID)
			}
		})
	}
}

// ClientIP

func TestResolveClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		hops   int
		want   string
		keepXF bool
	}{
		{"public peer ignores xff", "203.0.113.9:1234", "10.0.0.1", 1, "203.0.113.9", false},
		{"private peer no hops", "10.0.0.5:1234", "198.51.100.7", 0, "10.0.0.5", false},
		{"private peer one hop", "10.0.0.5:1234", "198.51.100.7", 1, "198.51.100.7", true},
		{"two hops", "10.0.0.5:1234", "198.51.100.7, 203.0.113.1", 2, "198.51.100.7", true},
		{"too few entries", "10.0.0.5:1234", "198.51.100.7", 2, "10.0.0.5", false},
		{"garbage entry", "10.0.0.5:1234", "not-an-ip", 1, "10.0.0.5", true},
		{"loopback proxy", "127.0.0.1:1234", "198.51.100.7", 1, "198.51.100.7", true},
		{"no port", "10.0.0.5", "", 0, "10.0.0.5", true},
		{"empty remote", "", "", 0, "0.0.0.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := resolveClientIP(r, tt.hops); got != tt.want {
				t.Fatalf("ip = %q, want %q", got, tt.want)
			}
			if tt.xff != "" && !tt.keepXF && r.Header.Get("X-Forwarded-For") != "" {
				t.Fatal("X-Forwarded-For not cleared")
			}
		})
	}
}

func TestClientIPWithOptions_StoresInContext(t *testing.T) {
	var got string
	r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	r.RemoteAddr = "10.1.2.3:5555"
	r.Header.Set("X-Forwarded-For", "198.51.100.20")

	ClientIPWithOptions(ClientIPOptions{TrustedHops: 1})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIPFromContext(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), r)

	if got != "198.51.100.20" {
		t.Fatalf("client ip = %q", got)
	}
}

// Logging

func TestWithLogger_Fields(t *testing.T) {
	spy := newSpyLogger()
	var fromCtx log.Logger

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = log.FromContext(r.Context())
	}), RequestID(""), ClientIP, WithLogger(spy))

	req := httptest.NewRequest(http.MethodGet, "/about?q=secret", http.NoBody)
	req.Header.Set("X-Request-Id", "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if fromCtx != spy {
		t.Fatal("logger not stored in context")
	}
	for key, want := range map[string]any{
		"request_id":          "req-1",
		"client.address":      "192.0.2.1",
		"url.path":            "/about",
		"url.scheme":          "http",
		"http.request.method": http.MethodGet,
	} {
		if got, _ := kvValue(spy.with, key); got != want {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
	for i := 0; i < len(spy.with); i++ {
		if s, ok := spy.with[i].(string); ok && strings.Contains(s, "secret") {
			t.Fatal("query string leaked into log fields")
		}
	}
}

func TestAccessLog(t *testing.T) {
	tests := []struct {
		path   string
		logged bool
	}{
		{"/", true},
		{"/about/", true},
		{"/app.js", false},
		{"/img/logo.png", false},
		{"/-/healthy", false},
		{"/-/ready", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			spy := newSpyLogger()
			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			req = req.WithContext(log.WithContext(req.Context(), spy))

			AccessLog()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, "hello")
			})).ServeHTTP(httptest.NewRecorder(), req)

			if tt.logged != (len(spy.infos) == 1) {
				t.Fatalf("logged = %d entries, want logged=%v", len(spy.infos), tt.logged)
			}
			if !tt.logged {
				return
			}
			kv := spy.infos[0].kv
			if v, _ := kvValue(kv, "http.response.status_code"); v != http.StatusOK {
				t.Errorf("status = %v", v)
			}
			if v, _ := kvValue(kv, "http.response.body.size"); v != int64(5) {
				t.Errorf("body size = %v", v)
			}
		})
	}
}

func TestSchemeFromRequest(t *testing.T) {
	tests := []struct {
		xfp  string
		want string
	}{
		{"", "http"},
		{"https", "https"},
		{"HTTPS", "https"},
		{"https, http", "https"},
		{"javascript", "http"},
		{"https\r\nX-Evil: 1", "http"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		if tt.xfp != "" {
			r.Header["X-Forwarded-Proto"] = []string{tt.xfp}
		}
		if got := schemeFromRequest(r); got != tt.want {
			t.Errorf("scheme(%q) = %q, want %q", tt.xfp, got, tt.want)
		}
	}
}

// Trace headers

func TestTraceResponseHeaders(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	noop := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	TraceResponseHeaders("", "")(noop).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody).WithContext(ctx))
	if got := rec.Header().Get("X-Trace-Id"); got != traceID.String() {
		t.Errorf("X-Trace-Id = %q", got)
	}
	if got := rec.Header().Get("X-Span-Id"); got != spanID.String() {
		t.Errorf("X-Span-Id = %q", got)
	}

	rec = httptest.NewRecorder()
	TraceResponseHeaders("", "")(noop).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if rec.Header().Get("X-Trace-Id") != "" {
		t.Error("trace header set without span")
	}
}

// MaxBody

func TestMaxBody(t *testing.T) {
	var readErr error
	h := MaxBody(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abcd")))
	if readErr != nil {
		t.Fatalf("at limit: %v", readErr)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abcde")))
	var mbe *http.MaxBytesError
	if !errors.As(readErr, &mbe) {
		t.Fatalf("over limit err = %v, want *http.MaxBytesError", readErr)
	}
}

package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/miroapi/internal/auth/authctx"
	"github.com/kbukum/miroapi/internal/errors"
	"github.com/kbukum/miroapi/internal/logger"
	"github.com/kbukum/miroapi/internal/server/middleware"
)

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func TestRecovery_Panic(t *testing.T) {
	handler := middleware.Recovery(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("test panic")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/boom", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body errors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Error.Code != errors.ErrCodeInternal || body.Error.Message != errors.MsgInternal {
		t.Errorf("unexpected body %+v", body)
	}
	if strings.Contains(rr.Body.String(), "test panic") {
		t.Error("panic value leaked into the response")
	}
}

func TestRecovery_NoPanic(t *testing.T) {
	rr := httptest.NewRecorder()
	middleware.Recovery(logger.Nop())(http.HandlerFunc(ok)).ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))
	got := rr.Header().Get(middleware.HeaderRequestID)
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("expected generated uuid, got %q", got)
	}
	if seen != got {
		t.Errorf("context id %q differs from header %q", seen, got)
	}

	req := httptest.NewRequest("GET", "/", http.NoBody)
	req.Header.Set(middleware.HeaderRequestID, "abc-123")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Header().Get(middleware.HeaderRequestID) != "abc-123" {
		t.Errorf("expected existing id preserved, got %q", rr.Header().Get(middleware.HeaderRequestID))
	}
}

func TestCORS(t *testing.T) {
	cfg := middleware.CORSConfig{
		AllowedOrigins:   []string{"https://app.example.com"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
	}
	handler := middleware.CORS(cfg)(http.HandlerFunc(ok))

	req := httptest.NewRequest("GET", "/", http.NoBody)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Error("expected allowed origin echoed")
	}
	if rr.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("expected credentials header")
	}

	req = httptest.NewRequest("OPTIONS", "/api/v1/auth/token", http.NoBody)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204 preflight, got %d", rr.Code)
	}

	req = httptest.NewRequest("GET", "/", http.NoBody)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("disallowed origin must not get CORS headers")
	}
}

func TestBodySizeLimit(t *testing.T) {
	var readErr error
	handler := middleware.BodySizeLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/", bytes.NewReader(make([]byte, 64))))
	if readErr == nil {
		t.Error("expected read past the limit to fail")
	}
}

func TestRequestLogger_LevelsAndProbes(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, "test", &buf)

	chain := middleware.Chain(middleware.RequestID(), middleware.RequestLogger(log))
	handler := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", http.NoBody))
	if buf.Len() != 0 {
		t.Errorf("probe requests should not be logged, got %s", buf.String())
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/missing", http.NoBody))
	line := buf.String()
	for _, want := range []string{`"level":"warn"`, `"status":404`, `"path":"/missing"`, `"request_id"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %s: %s", want, line)
		}
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	middleware.Chain(mw("a"), mw("b"), mw("c"))(http.HandlerFunc(ok)).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", http.NoBody))
	if strings.Join(order, ",") != "a,b,c" {
		t.Errorf("unexpected order %v", order)
	}
}

type stubAuth struct {
	token string
	err   error
}

func (s stubAuth) Authenticate(_ context.Context, token string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if token != s.token {
		return "", errors.InvalidToken()
	}
	return "alice123", nil
}

func bearerRouter(a middleware.Authenticator[string]) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", middleware.Bearer[string](a, logger.Nop()), func(c *gin.Context) {
		name, _ := authctx.Get[string](c.Request.Context())
		c.String(http.StatusOK, name)
	})
	return r
}

func TestBearer(t *testing.T) {
	r := bearerRouter(stubAuth{token: "good"})

	cases := []struct {
		name   string
		header string
		status int
		code   errors.ErrorCode
	}{
		{"missing header", "", 401, errors.ErrCodeUnauthorized},
		{"wrong scheme", "Basic Zm9vOmJhcg==", 401, errors.ErrCodeUnauthorized},
		{"empty token", "Bearer ", 401, errors.ErrCodeUnauthorized},
		{"bad token", "Bearer nope", 401, errors.ErrCodeInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", http.NoBody)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if rr.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Error("expected WWW-Authenticate: Bearer")
			}
			var body errors.ErrorResponse
			_ = json.Unmarshal(rr.Body.Bytes(), &body)
			if body.Error.Code != tc.code {
				t.Errorf("expected %s, got %s", tc.code, body.Error.Code)
			}
		})
	}

	req := httptest.NewRequest("GET", "/me", http.NoBody)
	req.Header.Set("Authorization", "bearer good")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Body.String() != "alice123" {
		t.Errorf("expected identity passed through, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestBearer_BackendFailure(t *testing.T) {
	r := bearerRouter(stubAuth{err: io.ErrUnexpectedEOF})
	req := httptest.NewRequest("GET", "/me", http.NoBody)
	req.Header.Set("Authorization", "Bearer x")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}

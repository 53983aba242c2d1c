package httpx

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "keeps incoming id", incoming: "req-123"},
		{name: "generates id when missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(RequestIDMiddleware())

			var fromCtx string
			r.GET("/", func(c *gin.Context) {
				fromCtx = RequestIDFromContext(c.Request.Context())
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			r.ServeHTTP(w, req)

			got := w.Header().Get(RequestIDHeader)
			if got == "" {
				t.Fatal("expected response request id")
			}
			if tt.incoming != "" && got != tt.incoming {
				t.Fatalf("want request id %q, got %q", tt.incoming, got)
			}
			if fromCtx != got {
				t.Fatalf("want context id %q, got %q", got, fromCtx)
			}
		})
	}
}

func TestAccessLogMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestIDMiddleware(), AccessLogMiddleware(logger))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	line := buf.String()
	for _, want := range []string{`"msg":"http request"`, `"path":"/ping"`, `"status":418`} {
		if !strings.Contains(line, want) {
			t.Fatalf("want log to contain %s, got %s", want, line)
		}
	}
}

func TestNewEngine_RecoversAndLogs(t *testing.T) {
	var buf bytes.Buffer
	r := NewEngine(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer gin.SetMode(gin.TestMode)
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", w.Code)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected response request id")
	}
	if !strings.Contains(buf.String(), `"status":500`) {
		t.Fatalf("want access log for the recovered request, got %s", buf.String())
	}
}

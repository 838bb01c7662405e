package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grachmannico95/einvoice-sync/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, req *http.Request, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()

	seen := map[string]string{}
	e := echo.New()
	e.Use(mw...)
	e.GET("/", func(c echo.Context) error {
		ctx := c.Request().Context()
		seen["trace_id"] = logger.GetTraceID(ctx)
		seen["user_id"] = logger.GetUserID(ctx)
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec, seen
}

func TestRequestID_GeneratesTraceID(t *testing.T) {
	rec, seen := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), RequestID())

	require.NotEmpty(t, seen["trace_id"])
	assert.Equal(t, seen["trace_id"], rec.Header().Get(HeaderTraceID))
}

func TestRequestID_KeepsIncomingTraceID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderTraceID, "trace-123")

	rec, seen := serve(t, req, RequestID())

	assert.Equal(t, "trace-123", seen["trace_id"])
	assert.Equal(t, "trace-123", rec.Header().Get(HeaderTraceID))
}

func TestUserContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, " alice ")

	_, seen := serve(t, req, UserContext())
	assert.Equal(t, "alice", seen["user_id"])

	_, seen = serve(t, httptest.NewRequest(http.MethodGet, "/", nil), UserContext())
	assert.Empty(t, seen["user_id"])
}

func TestLogging_PassesThrough(t *testing.T) {
	rec, _ := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), Logging(logger.NewNop()))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

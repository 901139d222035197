package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSAllowsAllOriginsByDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(nil))
	r.POST("/api/chat/message", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/chat/message", nil)
	req.Header.Set("Origin", "http://widget.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRestrictsConfiguredOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:5173", true},
		{"http://evil.example.com", false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.origin, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS([]string{"http://localhost:5173"}))
			r.POST("/api/chat/message", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodOptions, "/api/chat/message", nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if tc.allowed {
				assert.Equal(t, http.StatusNoContent, rec.Code)
				assert.Equal(t, tc.origin, rec.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Equal(t, http.StatusForbidden, rec.Code)
			}
		})
	}
}

func TestRecoveryReturnsGeneric500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("database exploded") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotContains(t, rec.Body.String(), "database exploded")
}

func TestRequestLoggerPreservesBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.POST("/echo", func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		require.NoError(t, err)
		c.String(http.StatusOK, string(b))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"message":"hi"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"message":"hi"}`, rec.Body.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate([]byte("short")))
	long := strings.Repeat("x", maxLoggedBody+10)
	got := truncate([]byte(long))
	assert.True(t, strings.HasSuffix(got, "...(truncated)"))
	assert.Len(t, got, maxLoggedBody+len("...(truncated)"))
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"participations-app/internal/infra/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func guarded(secret string) *gin.Engine {
	r := gin.New()
	r.GET("/sync", SyncGuard(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("role"))
	})
	return r
}

func TestSyncGuard(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"wrong key", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"role": "sync", "exp": exp}), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"role": "sync", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"unsigned", "Bearer " + sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"role": "sync"}), http.StatusUnauthorized},
		{"wrong role", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"role": "user", "exp": exp}), http.StatusForbidden},
		{"no role", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"exp": exp}), http.StatusForbidden},
		{"sync role", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"role": "sync", "exp": exp}), http.StatusOK},
		{"admin role", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"role": "admin"}), http.StatusOK},
	}

	r := guarded(secret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/sync", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestSyncGuardDisabledWithoutSecret(t *testing.T) {
	w := httptest.NewRecorder()
	guarded("").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sync", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.GET("/slow", Timeout(10*time.Millisecond), func(c *gin.Context) {
		select {
		case <-c.Request.Context().Done():
			c.String(http.StatusGatewayTimeout, c.Request.Context().Err().Error())
		case <-time.After(time.Second):
			c.String(http.StatusOK, "done")
		}
	})
	r.GET("/unbounded", Timeout(0), func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		if ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "context deadline exceeded", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/unbounded", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetrics(t *testing.T) {
	m := telemetry.NewMetrics()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/participations/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, path := range []string{"/participations/1", "/participations/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, promtest.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/participations/:id", "404")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}

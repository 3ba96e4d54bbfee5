package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	syncapi "participations-app/internal/api/collectionsync"
	participationsapi "participations-app/internal/api/participations"
	"participations-app/internal/domain/collection"
	"participations-app/internal/domain/embedding"
	"participations-app/internal/infra/store"
	"participations-app/internal/infra/telemetry"
	"participations-app/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deadlineRunner struct {
	hadDeadline bool
}

func (r *deadlineRunner) Run(ctx context.Context) (collection.Result, error) {
	_, r.hadDeadline = ctx.Deadline()
	return collection.Result{}, nil
}

func newEngine(t *testing.T, runner syncapi.Runner, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	db := testutil.OpenSQLite(t)
	testutil.InsertParticipation(t, db, 1, 7, `{"titles":{"en":"Red Fox"}}`)
	repo := store.NewRepository(db, 2)

	r := gin.New()
	RegisterRoutes(r, Dependencies{
		Participations: participationsapi.NewHandler(repo, embedding.New(repo), nil),
		Sync:           syncapi.NewHandler(runner, nil),
		Metrics:        telemetry.NewMetrics(),
		RequestTimeout: time.Second,
		SyncTimeout:    time.Minute,
		SyncSecret:     secret,
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	r := newEngine(t, &deadlineRunner{}, "")

	tests := []struct {
		path   string
		status int
	}{
		{"/health", http.StatusOK},
		{"/participations", http.StatusOK},
		{"/participations/embedded", http.StatusOK},
		{"/participations/1", http.StatusOK},
		{"/participations/1/embedded", http.StatusOK},
		{"/participations/42", http.StatusNotFound},
		{"/sync", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.status, do(r, tt.path, "").Code)
		})
	}

	w := do(r, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `participations_http_requests_total{method="GET",route="/participations/:id",status="404"} 1`)
}

func TestSyncRouteIsGuardedAndBounded(t *testing.T) {
	runner := &deadlineRunner{}
	r := newEngine(t, runner, "s3cret")

	assert.Equal(t, http.StatusUnauthorized, do(r, "/sync", "").Code)
	assert.False(t, runner.hadDeadline)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "sync"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, do(r, "/sync", token).Code)
	assert.True(t, runner.hadDeadline)

	// Only /sync is guarded.
	assert.Equal(t, http.StatusOK, do(r, "/participations", "").Code)
}

package syncapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"participations-app/internal/domain/collection"
	"participations-app/internal/domain/participations"

	"github.com/gin-gonic/gin"
)

const MsgSyncFailed = "An error occurred while retrieving data."

type Runner interface {
	Run(ctx context.Context) (collection.Result, error)
}

type Handler struct {
	runner Runner
	logger *slog.Logger
}

func NewHandler(runner Runner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{runner: runner, logger: logger}
}

// GET /sync
// Runs the collection sync and answers with the embedded participations.
func (h *Handler) Sync(c *gin.Context) {
	res, err := h.runner.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("collection sync failed", "error", err)
		c.String(http.StatusInternalServerError, MsgSyncFailed)
		return
	}

	c.Header("X-Sync-Created", strconv.Itoa(res.Created))
	c.Header("X-Sync-Replaced", strconv.Itoa(res.Replaced))
	c.Header("X-Sync-Patched", strconv.Itoa(res.Patched))
	c.Header("X-Sync-Failed", strconv.Itoa(res.Failed))

	out := res.Participations
	if out == nil {
		out = []participations.EmbeddedParticipation{}
	}
	c.JSON(http.StatusOK, out)
}

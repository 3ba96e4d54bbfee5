package participationsapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"participations-app/internal/domain/participations"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const (
	MsgNotFound      = "No record found with the provided ID."
	MsgInternalError = "An error occurred while retrieving data."
)

type Source interface {
	ListParticipations(ctx context.Context) ([]participations.Participation, error)
	GetParticipation(ctx context.Context, id uint) (participations.Participation, error)
}

type Embedder interface {
	Embed(ctx context.Context, row participations.Participation) (*participations.EmbeddedParticipation, error)
	EmbedAll(ctx context.Context, rows []participations.Participation) ([]participations.EmbeddedParticipation, error)
}

type Handler struct {
	source   Source
	embedder Embedder
	logger   *slog.Logger
}

func NewHandler(source Source, embedder Embedder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{source: source, embedder: embedder, logger: logger}
}

// ------------------------------
// GET /participations
// ------------------------------
func (h *Handler) List(c *gin.Context) {
	rows, err := h.source.ListParticipations(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(rows))
}

// ------------------------------
// GET /participations/embedded
// ------------------------------
func (h *Handler) ListEmbedded(c *gin.Context) {
	ctx := c.Request.Context()

	rows, err := h.source.ListParticipations(ctx)
	if err != nil {
		h.internalError(c, err)
		return
	}
	embedded, err := h.embedder.EmbedAll(ctx, rows)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(embedded))
}

// ------------------------------
// GET /participations/:id
// ------------------------------
func (h *Handler) Get(c *gin.Context) {
	row, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, row)
}

// ------------------------------
// GET /participations/:id/embedded
// ------------------------------
func (h *Handler) GetEmbedded(c *gin.Context) {
	row, ok := h.load(c)
	if !ok {
		return
	}
	embedded, err := h.embedder.Embed(c.Request.Context(), row)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, embedded)
}

// load fetches the participation named by the :id param. Ids that are not
// unsigned integers cannot match a row and are answered with 404.
func (h *Handler) load(c *gin.Context) (participations.Participation, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil {
		c.String(http.StatusNotFound, MsgNotFound)
		return participations.Participation{}, false
	}

	row, err := h.source.GetParticipation(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, participations.ErrNotFound) {
			c.String(http.StatusNotFound, MsgNotFound)
			return row, false
		}
		h.internalError(c, err)
		return row, false
	}
	return row, true
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.logger.Error("An error occurred while retrieving data",
		"path", c.Request.URL.Path,
		"error", err,
	)
	c.String(http.StatusInternalServerError, MsgInternalError)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

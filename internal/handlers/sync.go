package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"reccord/internal/models"
	"reccord/internal/services"
	syncengine "reccord/internal/sync"
)

// SyncHandler exposes the sync engine over HTTP. It is a thin adapter:
// request parsing and response shaping only.
type SyncHandler struct {
	engine *syncengine.Engine
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(engine *syncengine.Engine) *SyncHandler {
	return &SyncHandler{engine: engine}
}

// RegisterRoutes wires the handler into a gin router
func (h *SyncHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/lists/:id/sync", h.SyncList)
	api.POST("/sync/:mode/run", h.SyncAllDue)
	router.GET("/health", h.Health)
}

type sourceErrorPayload struct {
	Service           models.Service `json:"service"`
	Reason            string         `json:"reason"`
	ReconnectRequired bool           `json:"reconnect_required"`
}

type syncResponse struct {
	ListID    string               `json:"list_id"`
	ItemCount int                  `json:"item_count"`
	Empty     bool                 `json:"empty"`
	Errors    []sourceErrorPayload `json:"errors,omitempty"`
}

// SyncList triggers an on-demand sync for one list
func (h *SyncHandler) SyncList(c *gin.Context) {
	listID := c.Param("id")

	result, err := h.engine.SyncList(c.Request.Context(), listID)
	if err != nil {
		if errors.Is(err, syncengine.ErrConfigNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "list has no sync config"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := syncResponse{
		ListID:    result.ListID,
		ItemCount: result.ItemCount,
		Empty:     result.Empty,
	}
	for _, srcErr := range result.Errors {
		resp.Errors = append(resp.Errors, sourceErrorPayload{
			Service:           srcErr.Service,
			Reason:            srcErr.Err.Error(),
			ReconnectRequired: reconnectRequired(srcErr.Err),
		})
	}

	c.JSON(http.StatusOK, resp)
}

// SyncAllDue triggers a sweep over all due lists of one mode
func (h *SyncHandler) SyncAllDue(c *gin.Context) {
	var mode models.SyncMode
	switch c.Param("mode") {
	case "top-songs":
		mode = models.ModeTopSongs
	case "playlist":
		mode = models.ModePlaylist
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sync mode, want top-songs or playlist"})
		return
	}

	sweep, err := h.engine.SyncAllDue(c.Request.Context(), mode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sweep)
}

// Health reports liveness
func (h *SyncHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// reconnectRequired reports whether the failure needs the user to
// re-authorize the service rather than a retry
func reconnectRequired(err error) bool {
	return errors.Is(err, services.ErrCredentialNotFound) ||
		errors.Is(err, services.ErrExpiredCredential) ||
		errors.Is(err, services.ErrAuthenticationFailed)
}

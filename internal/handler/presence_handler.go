package handler

import (
	"net/http"

	"pulse-chat/internal/services"
	"pulse-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type PresenceHandler struct {
	presenceService *services.PresenceService
}

func NewPresenceHandler(presenceService *services.PresenceService) *PresenceHandler {
	return &PresenceHandler{presenceService: presenceService}
}

// Heartbeat is fired by live clients on a fixed interval. Failures are
// swallowed: the next beat self-heals, and presence must never error a user.
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	_ = h.presenceService.Heartbeat(c.Request.Context(), userID)
	c.Status(http.StatusNoContent)
}

// Offline records a graceful sign-out.
func (h *PresenceHandler) Offline(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	_ = h.presenceService.SetOffline(c.Request.Context(), userID)
	c.Status(http.StatusNoContent)
}

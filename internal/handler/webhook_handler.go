package handler

import (
	"net/http"

	"pulse-chat/internal/services"
	"pulse-chat/internal/transport/httpdto"
	"pulse-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	userService *services.UserService
	log         *logger.Logger
}

func NewWebhookHandler(userService *services.UserService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{userService: userService, log: log}
}

// Identity consumes "user.created" events from the identity provider. The
// shared-secret check happens in middleware; unknown event types are
// acknowledged and dropped so the provider stops retrying them.
func (h *WebhookHandler) Identity(c *gin.Context) {
	var req httpdto.IdentityWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid webhook", "INVALID_REQUEST"))
		return
	}

	if req.Type != "user.created" {
		c.Status(http.StatusNoContent)
		return
	}

	userID, err := h.userService.UpsertUser(c.Request.Context(), services.UpsertUserInput{
		AuthSubjectID: req.Data.AuthSubjectID,
		Name:          req.Data.Name,
		Email:         req.Data.Email,
		AvatarURL:     req.Data.AvatarURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if h.log != nil {
		h.log.Infof("identity webhook synced user %s", userID)
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UpsertUserResponse{UserID: userID.String()}))
}

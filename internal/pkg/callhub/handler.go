package callhub

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/baghban/guardian/internal/pkg/apperrors"
)

// PartyChecker reports whether a user is a party to a consultation. The
// consultation service satisfies this.
type PartyChecker interface {
	IsCallParty(ctx context.Context, consultationID, userID int64) (bool, error)
}

// Handler upgrades HTTP requests into call room connections.
type Handler struct {
	hub     *Hub
	parties PartyChecker
	logger  zerolog.Logger
}

// NewHandler creates a new call room handler
func NewHandler(hub *Hub, parties PartyChecker, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:     hub,
		parties: parties,
		logger:  logger,
	}
}

// HandleConnection godoc
// @Summary Establish a WebSocket connection for a consultation call room
// @Description Upgrades the HTTP connection to WebSocket for in-call chat and signaling
// @Tags consultations, websocket
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Consultation ID"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 400 {object} gin.H "Invalid consultation ID"
// @Failure 401 {object} gin.H "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} gin.H "Forbidden: caller is not a party to the consultation"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /consultations/{id}/call/ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	consultationIDStr := c.Param("id")
	consultationID, err := strconv.ParseInt(consultationIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid consultation ID",
		})
		return
	}

	userIDInterface, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in context",
		})
		return
	}

	userID, ok := userIDInterface.(int64)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Invalid user ID format",
		})
		return
	}

	isParty, err := h.parties.IsCallParty(c, consultationID, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("consultationID", consultationID).
			Int64("userID", userID).
			Msg("Failed to check call room access")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to check call room access",
		})
		return
	}

	if !isParty {
		c.JSON(http.StatusForbidden, gin.H{
			"error": apperrors.NewForbiddenError("Caller is not a party to this consultation").Error(),
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("consultationID", consultationID).
			Int64("userID", userID).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:            h.hub,
		conn:           conn,
		send:           make(chan []byte, 256),
		userID:         userID,
		consultationID: consultationID,
		addr:           conn.RemoteAddr().String(),
		logger:         h.logger,
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Int64("consultationID", consultationID).
		Int64("userID", userID).
		Str("remoteAddr", client.addr).
		Msg("Call room connection established")
}

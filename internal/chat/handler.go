package chat

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tokenbook/internal/api"
	"tokenbook/internal/apperr"
	"tokenbook/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// SendMessage godoc
// @Summary      Send chat message
// @Description  Posts to the booking chat. Messages matching the moderation vocabulary are delivered and flagged.
// @Tags         chat
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        bookingId  path      int          true  "Booking ID"
// @Param        request    body      SendRequest  true  "Message"
// @Success      201        {object}  MessageResponse
// @Failure      400        {object}  api.ErrorResponse
// @Failure      403        {object}  api.ErrorResponse
// @Router       /chat/{bookingId}/messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	actor, ok := auth.GetActor(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	bookingID, err := api.ParamID(c, "bookingId")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	var req SendRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondError(c, err)
		return
	}

	msg, err := h.service.Send(c.Request.Context(), actor, bookingID, Outgoing{Content: req.Content, MediaURL: req.MediaURL})
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Success: true, Message: msg})
}

// ListMessages godoc
// @Summary      Chat history
// @Tags         chat
// @Security     BearerAuth
// @Produce      json
// @Param        bookingId  path      int  true   "Booking ID"
// @Param        beforeId   query     int  false  "Return messages older than this id"
// @Param        limit      query     int  false  "Page size (max 200)"
// @Success      200        {object}  MessagesResponse
// @Failure      403        {object}  api.ErrorResponse
// @Router       /chat/{bookingId}/messages [get]
func (h *Handler) ListMessages(c *gin.Context) {
	actor, ok := auth.GetActor(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	bookingID, err := api.ParamID(c, "bookingId")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	beforeID, _ := strconv.Atoi(c.DefaultQuery("beforeId", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	msgs, err := h.service.History(c.Request.Context(), actor, bookingID, beforeID, limit)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessagesResponse{Success: true, Messages: msgs})
}

// SetFlag godoc
// @Summary      Override message flag
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int          true  "Message ID"
// @Param        request  body      FlagRequest  true  "Flag state"
// @Success      200      {object}  MessageResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /admin/messages/{id}/flag [patch]
func (h *Handler) SetFlag(c *gin.Context) {
	id, err := api.ParamID(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	var req FlagRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondError(c, err)
		return
	}

	msg, err := h.service.SetFlag(c.Request.Context(), id, *req.Flagged, req.Reason)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: msg})
}

package dispute

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

// FileDispute godoc
// @Summary      File a dispute
// @Description  Freezes the booking in DISPUTED. Escrow stays held until an admin resolves the dispute.
// @Tags         disputes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int          true  "Booking ID"
// @Param        request  body      FileRequest  true  "Dispute"
// @Success      200      {object}  DisputeResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Router       /bookings/{id}/dispute [post]
func (h *Handler) FileDispute(c *gin.Context) {
	actor, ok := auth.GetActor(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	bookingID, err := api.ParamID(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	var req FileRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondError(c, err)
		return
	}

	d, err := h.service.File(c.Request.Context(), actor, bookingID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, DisputeResponse{Success: true, Dispute: d})
}

// GetBookingDispute godoc
// @Summary      Get the dispute of a booking
// @Tags         disputes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {object}  DisputeResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /bookings/{id}/dispute [get]
func (h *Handler) GetBookingDispute(c *gin.Context) {
	actor, ok := auth.GetActor(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	bookingID, err := api.ParamID(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	d, err := h.service.ForBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, DisputeResponse{Success: true, Dispute: d})
}

// ListDisputes godoc
// @Summary      List disputes
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "OPEN, UNDER_REVIEW or RESOLVED"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Param        offset  query     int     false  "Offset"
// @Success      200     {object}  DisputesResponse
// @Router       /admin/disputes [get]
func (h *Handler) ListDisputes(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	disputes, err := h.service.List(c.Request.Context(), ListFilter{
		Status: Status(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, DisputesResponse{Success: true, Disputes: disputes})
}

// ReviewDispute godoc
// @Summary      Start reviewing a dispute
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Dispute ID"
// @Success      200  {object}  DisputeResponse
// @Failure      400  {object}  api.ErrorResponse
// @Router       /admin/disputes/{id}/review [post]
func (h *Handler) ReviewDispute(c *gin.Context) {
	actor, ok := auth.GetActor(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	id, err := api.ParamID(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	d, err := h.service.Review(c.Request.Context(), actor, id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, DisputeResponse{Success: true, Dispute: d})
}

// ResolveDispute godoc
// @Summary      Resolve a dispute
// @Description  RELEASE_TO_PROVIDER completes the booking and pays the provider; REFUND_TO_SEEKER cancels it and returns the escrow.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int             true  "Dispute ID"
// @Param        request  body      ResolveRequest  true  "Outcome"
// @Success      200      {object}  DisputeResponse
// @Failure      400      {object}  api.ErrorResponse
// @Router       /admin/disputes/{id}/resolve [post]
func (h *Handler) ResolveDispute(c *gin.Context) {
	actor, ok := auth.GetActor(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	id, err := api.ParamID(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	var req ResolveRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondError(c, err)
		return
	}

	d, err := h.service.Resolve(c.Request.Context(), actor, id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, DisputeResponse{Success: true, Dispute: d})
}

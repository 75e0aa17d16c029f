package booking

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

// CreateBooking godoc
// @Summary      Create booking
// @Description  Seeker books a provider; the token amount moves into escrow.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateRequest  true  "Booking details"
// @Success      201      {object}  BookingResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Router       /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	actor, ok := auth.GetActor(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	var req CreateRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondError(c, err)
		return
	}

	b, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, BookingResponse{Success: true, Booking: b})
}

// GetBooking godoc
// @Summary      Get booking
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {object}  BookingResponse
// @Failure      403  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
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

	b, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BookingResponse{Success: true, Booking: b})
}

// ListMyBookings godoc
// @Summary      List my bookings
// @Description  Bookings where the caller is seeker or provider.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Param        offset  query     int     false  "Offset"
// @Success      200     {object}  BookingsResponse
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	actor, ok := auth.GetActor(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	bookings, err := h.service.List(c.Request.Context(), actor, filterFromQuery(c))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BookingsResponse{Success: true, Bookings: bookings})
}

// ListAllBookings godoc
// @Summary      List all bookings (admin)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Param        offset  query     int     false  "Offset"
// @Success      200     {object}  BookingsResponse
// @Failure      403     {object}  api.ErrorResponse
// @Router       /admin/bookings [get]
func (h *Handler) ListAllBookings(c *gin.Context) {
	bookings, err := h.service.ListAll(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BookingsResponse{Success: true, Bookings: bookings})
}

// UpdateStatus godoc
// @Summary      Update booking status
// @Description  Moves a booking along its lifecycle. Requesting the current status is a no-op.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int            true  "Booking ID"
// @Param        request  body      StatusRequest  true  "Target status"
// @Success      200      {object}  BookingResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /bookings/{id}/status [put]
func (h *Handler) UpdateStatus(c *gin.Context) {
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

	var req StatusRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondError(c, err)
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BookingResponse{Success: true, Booking: b})
}

func filterFromQuery(c *gin.Context) ListFilter {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return ListFilter{
		Status: Status(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	}
}

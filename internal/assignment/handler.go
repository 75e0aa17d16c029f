package assignment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tokenbook/internal/api"
)

type AssignRequest struct {
	StaffID int `json:"staffId" validate:"required,gt=0"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AssignMonitor godoc
// @Summary      Assign chat monitor
// @Description  Routes flagged-message alerts for the booking to the given staff member.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int            true  "Booking ID"
// @Param        request  body      AssignRequest  true  "Staff member"
// @Success      200      {object}  api.MessageResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /admin/bookings/{id}/monitor [put]
func (h *Handler) AssignMonitor(c *gin.Context) {
	bookingID, err := api.ParamID(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	var req AssignRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondError(c, err)
		return
	}

	if err := h.service.AssignMonitor(c.Request.Context(), bookingID, req.StaffID); err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Success: true, Message: "monitor assigned"})
}

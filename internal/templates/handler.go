package templates

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tokenbook/internal/api"
	"tokenbook/internal/apperr"
	"tokenbook/internal/auth"
	"tokenbook/internal/chat"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListTemplates godoc
// @Summary      List active chat templates
// @Tags         templates
// @Security     BearerAuth
// @Produce      json
// @Param        category  query     string  false  "Category"
// @Success      200       {object}  TemplatesResponse
// @Router       /templates [get]
func (h *Handler) ListTemplates(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, TemplatesResponse{Success: true, Templates: list})
}

// SendTemplate godoc
// @Summary      Send a template message
// @Description  Renders the template and posts it through the booking chat, including moderation.
// @Tags         templates
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      SendRequest  true  "Template and variables"
// @Success      201      {object}  chat.MessageResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /templates/send [post]
func (h *Handler) SendTemplate(c *gin.Context) {
	actor, ok := auth.GetActor(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	var req SendRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondError(c, err)
		return
	}

	msg, err := h.service.Send(c.Request.Context(), actor, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, chat.MessageResponse{Success: true, Message: msg})
}

// AdminListTemplates godoc
// @Summary      List all chat templates
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        category  query     string  false  "Category"
// @Success      200       {object}  TemplatesResponse
// @Router       /admin/templates [get]
func (h *Handler) AdminListTemplates(c *gin.Context) {
	list, err := h.service.ListAll(c.Request.Context(), c.Query("category"))
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, TemplatesResponse{Success: true, Templates: list})
}

// CreateTemplate godoc
// @Summary      Create chat template
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateRequest  true  "Template"
// @Success      201      {object}  TemplateResponse
// @Failure      400      {object}  api.ErrorResponse
// @Router       /admin/templates [post]
func (h *Handler) CreateTemplate(c *gin.Context) {
	var req CreateRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondError(c, err)
		return
	}

	t, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, TemplateResponse{Success: true, Template: t})
}

// UpdateTemplate godoc
// @Summary      Update chat template
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int            true  "Template ID"
// @Param        request  body      UpdateRequest  true  "Fields to change"
// @Success      200      {object}  TemplateResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /admin/templates/{id} [put]
func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, err := api.ParamID(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	var req UpdateRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondError(c, err)
		return
	}

	t, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, TemplateResponse{Success: true, Template: t})
}

// DeleteTemplate godoc
// @Summary      Delete chat template
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Template ID"
// @Success      200  {object}  api.MessageResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /admin/templates/{id} [delete]
func (h *Handler) DeleteTemplate(c *gin.Context) {
	id, err := api.ParamID(c, "id")
	if err != nil {
		api.RespondError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Success: true, Message: "template deleted"})
}

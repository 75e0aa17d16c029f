package wallet

import (
	"context"
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

// GetWallet godoc
// @Summary      Get my wallet
// @Tags         tokens
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  WalletResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /tokens/wallet [get]
func (h *Handler) GetWallet(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	w, err := h.service.GetWallet(c.Request.Context(), userID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, WalletResponse{Success: true, Wallet: w})
}

// Purchase godoc
// @Summary      Credit purchased tokens
// @Tags         tokens
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      AmountRequest  true  "Token amount"
// @Success      200      {object}  WalletResponse
// @Failure      400      {object}  api.ErrorResponse
// @Router       /tokens/purchase [post]
func (h *Handler) Purchase(c *gin.Context) {
	h.move(c, h.service.Purchase)
}

// Withdraw godoc
// @Summary      Withdraw tokens
// @Tags         tokens
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      AmountRequest  true  "Token amount"
// @Success      200      {object}  WalletResponse
// @Failure      400      {object}  api.ErrorResponse
// @Router       /tokens/withdraw [post]
func (h *Handler) Withdraw(c *gin.Context) {
	h.move(c, h.service.Withdraw)
}

func (h *Handler) move(c *gin.Context, op func(ctx context.Context, userID int, amount int64) (*Wallet, error)) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	var req AmountRequest
	if err := api.BindJSON(c, &req); err != nil {
		api.RespondError(c, err)
		return
	}

	w, err := op(c.Request.Context(), userID, req.Amount)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, WalletResponse{Success: true, Wallet: w})
}

// ListTransactions godoc
// @Summary      List my token transactions
// @Tags         tokens
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size (max 200)"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   Transaction
// @Router       /tokens/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := h.service.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "transactions": txs})
}

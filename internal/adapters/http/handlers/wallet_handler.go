// Package handlers - Wallet HTTP handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/walletledger/internal/adapters/http/common"
	"github.com/Haleralex/walletledger/internal/application/dtos"
)

// ============================================
// Use Case Interfaces
// ============================================

// CreateWalletUseCase - создание кошелька (один на пользователя).
type CreateWalletUseCase interface {
	Execute(ctx context.Context, cmd dtos.CreateWalletCommand) (*dtos.WalletDTO, error)
}

// GetWalletUseCase - получение кошелька по ID и по пользователю.
type GetWalletUseCase interface {
	Execute(ctx context.Context, query dtos.GetWalletQuery) (*dtos.WalletDTO, error)
	ByUser(ctx context.Context, query dtos.GetWalletByUserQuery) (*dtos.WalletDTO, error)
}

// ListWalletsUseCase - список кошельков.
type ListWalletsUseCase interface {
	Execute(ctx context.Context, query dtos.ListWalletsQuery) (*dtos.WalletListDTO, error)
}

// SetWalletActiveUseCase - включение/выключение кошелька.
type SetWalletActiveUseCase interface {
	Execute(ctx context.Context, cmd dtos.SetWalletActiveCommand) (*dtos.WalletDTO, error)
}

// ReconcileWalletUseCase - сверка баланса с журналом.
type ReconcileWalletUseCase interface {
	Execute(ctx context.Context, query dtos.ReconcileWalletQuery) (*dtos.ReconciliationDTO, error)
}

// ============================================
// Wallet Handler
// ============================================

// WalletHandler обрабатывает HTTP запросы для кошельков.
type WalletHandler struct {
	createWallet    CreateWalletUseCase
	getWallet       GetWalletUseCase
	listWallets     ListWalletsUseCase
	setWalletActive SetWalletActiveUseCase
	reconcile       ReconcileWalletUseCase
}

// NewWalletHandler создаёт новый WalletHandler.
func NewWalletHandler(
	createWallet CreateWalletUseCase,
	getWallet GetWalletUseCase,
	listWallets ListWalletsUseCase,
	setWalletActive SetWalletActiveUseCase,
	reconcile ReconcileWalletUseCase,
) *WalletHandler {
	return &WalletHandler{
		createWallet:    createWallet,
		getWallet:       getWallet,
		listWallets:     listWallets,
		setWalletActive: setWalletActive,
		reconcile:       reconcile,
	}
}

// ============================================
// Request DTOs
// ============================================

// CreateWalletRequest - запрос на создание кошелька.
//
// @Description Create wallet request body
type CreateWalletRequest struct {
	UserID       string `json:"user_id" binding:"required,uuid"`
	CurrencyCode string `json:"currency_code" binding:"required,currency"`
}

// SetWalletActiveRequest - включение/выключение кошелька.
type SetWalletActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// WalletIDParam - параметр ID кошелька из URL.
type WalletIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ListWalletsParams - фильтры списка кошельков.
type ListWalletsParams struct {
	CurrencyCode string `form:"currency_code" binding:"omitempty,currency"`
	Active       *bool  `form:"active"`
}

// ============================================
// HTTP Handlers
// ============================================

// CreateWallet создаёт кошелёк пользователю, у которого его ещё нет.
//
// @Summary Create a wallet
// @Tags Wallets
// @Accept json
// @Produce json
// @Param request body CreateWalletRequest true "Wallet data"
// @Success 201 {object} common.APIResponse{data=dtos.WalletDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "User not found"
// @Failure 409 {object} common.APIResponse "Wallet already exists"
// @Router /api/v1/wallets [post]
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req CreateWalletRequest
	if !BindJSON(c, &req) {
		return
	}
	if !authorizeUser(c, req.UserID) {
		return
	}

	result, err := h.createWallet.Execute(c.Request.Context(), dtos.CreateWalletCommand{
		UserID:       req.UserID,
		CurrencyCode: req.CurrencyCode,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, result)
}

// GetWallet возвращает кошелёк по ID.
//
// @Summary Get wallet by ID
// @Tags Wallets
// @Produce json
// @Param id path string true "Wallet ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.WalletDTO}
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /api/v1/wallets/{id} [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	var params WalletIDParam
	if !BindURI(c, &params) {
		return
	}

	result, err := h.getWallet.Execute(c.Request.Context(), dtos.GetWalletQuery{WalletID: params.ID})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}
	if !authorizeUser(c, result.UserID) {
		return
	}

	common.Success(c, http.StatusOK, result)
}

// GetUserWallet возвращает кошелёк пользователя.
//
// @Summary Get the wallet of a user
// @Tags Wallets
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.WalletDTO}
// @Failure 404 {object} common.APIResponse
// @Router /api/v1/users/{id}/wallet [get]
func (h *WalletHandler) GetUserWallet(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}
	if !authorizeUser(c, params.ID) {
		return
	}

	result, err := h.getWallet.ByUser(c.Request.Context(), dtos.GetWalletByUserQuery{UserID: params.ID})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// ListWallets возвращает список кошельков с фильтрацией.
//
// @Summary List wallets
// @Tags Wallets
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20) maximum(100)
// @Param currency_code query string false "Filter by currency code"
// @Param active query bool false "Filter by active flag"
// @Success 200 {object} common.APIResponse{data=dtos.WalletListDTO}
// @Router /api/v1/wallets [get]
func (h *WalletHandler) ListWallets(c *gin.Context) {
	var filters ListWalletsParams
	if !BindQuery(c, &filters) {
		return
	}
	pagination := ParsePagination(c)

	result, err := h.listWallets.Execute(c.Request.Context(), dtos.ListWalletsQuery{
		CurrencyCode: optional(filters.CurrencyCode),
		Active:       filters.Active,
		Offset:       pagination.Offset(),
		Limit:        pagination.PerPage,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.SuccessWithMeta(c, http.StatusOK, result, BuildMeta(pagination, -1))
}

// SetWalletActive включает или выключает кошелёк.
// Выключенный кошелёк не принимает движения по балансу.
//
// @Summary Activate or deactivate a wallet
// @Tags Wallets
// @Accept json
// @Produce json
// @Param id path string true "Wallet ID" format(uuid)
// @Param request body SetWalletActiveRequest true "Active flag"
// @Success 200 {object} common.APIResponse{data=dtos.WalletDTO}
// @Failure 404 {object} common.APIResponse
// @Failure 409 {object} common.APIResponse
// @Router /api/v1/wallets/{id}/active [put]
func (h *WalletHandler) SetWalletActive(c *gin.Context) {
	var params WalletIDParam
	if !BindURI(c, &params) {
		return
	}
	var req SetWalletActiveRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.setWalletActive.Execute(c.Request.Context(), dtos.SetWalletActiveCommand{
		WalletID: params.ID,
		Active:   *req.Active,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Reconcile сверяет баланс кошелька с суммой успешных транзакций.
//
// @Summary Reconcile wallet balance
// @Tags Wallets
// @Produce json
// @Param id path string true "Wallet ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.ReconciliationDTO}
// @Failure 404 {object} common.APIResponse
// @Router /api/v1/wallets/{id}/reconciliation [get]
func (h *WalletHandler) Reconcile(c *gin.Context) {
	var params WalletIDParam
	if !BindURI(c, &params) {
		return
	}

	result, err := h.reconcile.Execute(c.Request.Context(), dtos.ReconcileWalletQuery{WalletID: params.ID})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RegisterRoutes регистрирует маршруты для WalletHandler.
//
// Routes:
//   - POST /wallets                    - Create wallet
//   - GET  /wallets                    - List wallets (admin, service)
//   - GET  /wallets/:id                - Get wallet by ID
//   - PUT  /wallets/:id/active         - Activate/deactivate (admin, service)
//   - GET  /wallets/:id/reconciliation - Reconcile (admin, service)
//   - GET  /users/:id/wallet           - Wallet of a user
func (h *WalletHandler) RegisterRoutes(router *gin.RouterGroup, privileged ...gin.HandlerFunc) {
	wallets := router.Group("/wallets")
	{
		wallets.POST("", h.CreateWallet)
		wallets.GET("", chain(privileged, h.ListWallets)...)
		wallets.GET("/:id", h.GetWallet)
		wallets.PUT("/:id/active", chain(privileged, h.SetWalletActive)...)
		wallets.GET("/:id/reconciliation", chain(privileged, h.Reconcile)...)
	}
	router.GET("/users/:id/wallet", h.GetUserWallet)
}

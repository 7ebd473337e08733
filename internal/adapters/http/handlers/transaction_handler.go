// Package handlers - Transaction HTTP handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/walletledger/internal/adapters/http/common"
	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/domain/entities"
)

// ============================================
// Use Case Interfaces
// ============================================

// CreateTransactionUseCase - создание транзакции (идемпотентно по reference).
type CreateTransactionUseCase interface {
	Execute(ctx context.Context, cmd dtos.CreateTransactionCommand) (*dtos.TransactionDTO, error)
}

// UpdateTransactionStatusUseCase - смена статуса pending транзакции.
type UpdateTransactionStatusUseCase interface {
	Execute(ctx context.Context, cmd dtos.UpdateTransactionStatusCommand) (*dtos.TransactionDTO, error)
}

// GetTransactionUseCase - получение транзакции по ID и по reference.
type GetTransactionUseCase interface {
	Execute(ctx context.Context, query dtos.GetTransactionQuery) (*dtos.TransactionDTO, error)
	ByReference(ctx context.Context, query dtos.GetTransactionByReferenceQuery) (*dtos.TransactionDTO, error)
}

// ListTransactionsUseCase - список транзакций с фильтрами.
type ListTransactionsUseCase interface {
	Execute(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.TransactionListDTO, error)
}

// ============================================
// Transaction Handler
// ============================================

// TransactionHandler обрабатывает HTTP запросы для транзакций.
type TransactionHandler struct {
	createTransaction CreateTransactionUseCase
	updateStatus      UpdateTransactionStatusUseCase
	getTransaction    GetTransactionUseCase
	listTransactions  ListTransactionsUseCase
}

// NewTransactionHandler создаёт новый TransactionHandler.
func NewTransactionHandler(
	createTransaction CreateTransactionUseCase,
	updateStatus UpdateTransactionStatusUseCase,
	getTransaction GetTransactionUseCase,
	listTransactions ListTransactionsUseCase,
) *TransactionHandler {
	return &TransactionHandler{
		createTransaction: createTransaction,
		updateStatus:      updateStatus,
		getTransaction:    getTransaction,
		listTransactions:  listTransactions,
	}
}

// ============================================
// Request DTOs
// ============================================

// CreateTransactionRequest - запрос на создание транзакции.
//
// @Description Create transaction request body
type CreateTransactionRequest struct {
	UserID        string                 `json:"user_id" binding:"required,uuid"`
	WalletID      string                 `json:"wallet_id,omitempty" binding:"omitempty,uuid"`
	Type          string                 `json:"type" binding:"required,oneof=deposit withdrawal transfer payment refund savings_funding"`
	Amount        string                 `json:"amount" binding:"required,amount=CurrencyCode"`
	CurrencyCode  string                 `json:"currency_code,omitempty" binding:"omitempty,currency"`
	Reference     string                 `json:"reference" binding:"required,max=255"`
	Status        string                 `json:"status,omitempty" binding:"omitempty,oneof=pending successful"`
	SavingsPlanID string                 `json:"savings_plan_id,omitempty" binding:"omitempty,uuid"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// UpdateTransactionStatusRequest - новый статус транзакции.
//
// @Description Update transaction status request body
type UpdateTransactionStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending successful failed cancelled"`
	Reason string `json:"reason,omitempty" binding:"max=500"`
}

// TransactionIDParam - параметр ID транзакции из URL.
type TransactionIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ReferenceParam - reference транзакции из URL.
type ReferenceParam struct {
	Reference string `uri:"reference" binding:"required,max=255"`
}

// ListTransactionsParams - параметры фильтрации для списка транзакций.
type ListTransactionsParams struct {
	UserID        string `form:"user_id" binding:"omitempty,uuid"`
	WalletID      string `form:"wallet_id" binding:"omitempty,uuid"`
	SavingsPlanID string `form:"savings_plan_id" binding:"omitempty,uuid"`
	Type          string `form:"type" binding:"omitempty,oneof=deposit withdrawal transfer payment refund savings_funding"`
	Status        string `form:"status" binding:"omitempty,oneof=pending successful failed cancelled"`
}

// ============================================
// HTTP Handlers
// ============================================

// CreateTransaction создаёт транзакцию.
//
// Повтор с тем же reference возвращает сохранённую транзакцию без изменений.
// Обычный пользователь не может сам зачислить средства: пополнение идёт через
// платёжный шлюз (/deposits) или оператора.
//
// @Summary Create a transaction
// @Tags Transactions
// @Accept json
// @Produce json
// @Param request body CreateTransactionRequest true "Transaction data"
// @Success 201 {object} common.APIResponse{data=dtos.TransactionDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Wallet not found"
// @Failure 422 {object} common.APIResponse "Insufficient funds or wallet not usable"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if !BindJSON(c, &req) {
		return
	}
	if !authorizeUser(c, req.UserID) {
		return
	}
	if callerScope(c) != nil && entities.TransactionType(req.Type).IsCredit() {
		common.ForbiddenResponse(c, "Credits must go through the payment gateway")
		return
	}

	result, err := h.createTransaction.Execute(c.Request.Context(), dtos.CreateTransactionCommand{
		UserID:        req.UserID,
		WalletID:      req.WalletID,
		Type:          req.Type,
		Amount:        req.Amount,
		CurrencyCode:  req.CurrencyCode,
		Reference:     req.Reference,
		Status:        req.Status,
		SavingsPlanID: req.SavingsPlanID,
		Metadata:      req.Metadata,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, result)
}

// UpdateStatus переводит транзакцию в новый статус.
// Переход в successful применяет её к балансу ровно один раз.
//
// @Summary Update transaction status
// @Tags Transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID" format(uuid)
// @Param request body UpdateTransactionStatusRequest true "New status"
// @Success 200 {object} common.APIResponse{data=dtos.TransactionDTO}
// @Failure 404 {object} common.APIResponse
// @Failure 409 {object} common.APIResponse "Invalid status transition"
// @Failure 422 {object} common.APIResponse "Insufficient funds"
// @Router /api/v1/transactions/{id}/status [put]
func (h *TransactionHandler) UpdateStatus(c *gin.Context) {
	var params TransactionIDParam
	if !BindURI(c, &params) {
		return
	}
	var req UpdateTransactionStatusRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.updateStatus.Execute(c.Request.Context(), dtos.UpdateTransactionStatusCommand{
		TransactionID: params.ID,
		Status:        req.Status,
		Reason:        req.Reason,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// GetTransaction возвращает транзакцию по ID.
//
// @Summary Get transaction by ID
// @Tags Transactions
// @Produce json
// @Param id path string true "Transaction ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.TransactionDTO}
// @Failure 404 {object} common.APIResponse
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	var params TransactionIDParam
	if !BindURI(c, &params) {
		return
	}

	result, err := h.getTransaction.Execute(c.Request.Context(), dtos.GetTransactionQuery{TransactionID: params.ID})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}
	if !authorizeUser(c, result.UserID) {
		return
	}

	common.Success(c, http.StatusOK, result)
}

// GetTransactionByReference возвращает транзакцию по reference.
//
// @Summary Get transaction by reference
// @Tags Transactions
// @Produce json
// @Param reference path string true "Transaction reference"
// @Success 200 {object} common.APIResponse{data=dtos.TransactionDTO}
// @Failure 404 {object} common.APIResponse
// @Router /api/v1/transactions/reference/{reference} [get]
func (h *TransactionHandler) GetTransactionByReference(c *gin.Context) {
	var params ReferenceParam
	if !BindURI(c, &params) {
		return
	}

	result, err := h.getTransaction.ByReference(c.Request.Context(), dtos.GetTransactionByReferenceQuery{Reference: params.Reference})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}
	if !authorizeUser(c, result.UserID) {
		return
	}

	common.Success(c, http.StatusOK, result)
}

// ListTransactions возвращает список транзакций.
// Обычный пользователь видит только свои транзакции.
//
// @Summary List transactions
// @Tags Transactions
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20) maximum(100)
// @Param user_id query string false "Filter by user ID" format(uuid)
// @Param wallet_id query string false "Filter by wallet ID" format(uuid)
// @Param savings_plan_id query string false "Filter by savings plan ID" format(uuid)
// @Param type query string false "Filter by type"
// @Param status query string false "Filter by status"
// @Success 200 {object} common.APIResponse{data=dtos.TransactionListDTO}
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var filters ListTransactionsParams
	if !BindQuery(c, &filters) {
		return
	}
	pagination := ParsePagination(c)

	query := dtos.ListTransactionsQuery{
		UserID:        optional(filters.UserID),
		WalletID:      optional(filters.WalletID),
		SavingsPlanID: optional(filters.SavingsPlanID),
		Type:          optional(filters.Type),
		Status:        optional(filters.Status),
		Offset:        pagination.Offset(),
		Limit:         pagination.PerPage,
	}
	if scope := callerScope(c); scope != nil {
		query.UserID = scope
	}

	result, err := h.listTransactions.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.SuccessWithMeta(c, http.StatusOK, result, BuildMeta(pagination, int(result.TotalCount)))
}

// RegisterRoutes регистрирует маршруты для TransactionHandler.
//
// Routes:
//   - POST /transactions                       - Create transaction (financial limit)
//   - GET  /transactions                       - List transactions
//   - GET  /transactions/:id                   - Get by ID
//   - GET  /transactions/reference/:reference  - Get by reference
//   - PUT  /transactions/:id/status            - Update status (admin, service)
func (h *TransactionHandler) RegisterRoutes(router *gin.RouterGroup, financial gin.HandlerFunc, privileged ...gin.HandlerFunc) {
	transactions := router.Group("/transactions")
	{
		transactions.POST("", financial, h.CreateTransaction)
		transactions.GET("", h.ListTransactions)
		transactions.GET("/:id", h.GetTransaction)
		transactions.GET("/reference/:reference", h.GetTransactionByReference)
		transactions.PUT("/:id/status", chain(privileged, h.UpdateStatus)...)
	}
}

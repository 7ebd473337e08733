// Package handlers - пополнения через платёжный шлюз и его webhook.
package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/walletledger/internal/adapters/http/common"
	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/domain/entities"
)

// maxWebhookBody - предел тела webhook'а.
const maxWebhookBody = 1 << 20

// InitiateDepositUseCase - открытие пополнения через шлюз.
type InitiateDepositUseCase interface {
	Execute(ctx context.Context, cmd dtos.InitiateDepositCommand) (*dtos.DepositInitiatedDTO, error)
}

// HandleGatewayCallbackUseCase - обработка webhook'а шлюза.
type HandleGatewayCallbackUseCase interface {
	Execute(ctx context.Context, cmd dtos.GatewayCallbackCommand) (*dtos.GatewayCallbackResultDTO, error)
}

// WebhookConfig - как проверять и разбирать webhook конкретного провайдера.
type WebhookConfig struct {
	Provider        string
	SignatureHeader string
	// Verify проверяет подпись сырого тела
	Verify func(body []byte, signature string) bool
	// Parse превращает тело в команду (Provider заполняет handler)
	Parse func(body []byte) (dtos.GatewayCallbackCommand, error)
}

// PaymentHandler обрабатывает пополнения и callbacks шлюза.
type PaymentHandler struct {
	initiateDeposit InitiateDepositUseCase
	handleCallback  HandleGatewayCallbackUseCase
	webhook         WebhookConfig
}

// NewPaymentHandler создаёт новый PaymentHandler.
func NewPaymentHandler(
	initiateDeposit InitiateDepositUseCase,
	handleCallback HandleGatewayCallbackUseCase,
	webhook WebhookConfig,
) *PaymentHandler {
	return &PaymentHandler{
		initiateDeposit: initiateDeposit,
		handleCallback:  handleCallback,
		webhook:         webhook,
	}
}

// InitiateDepositRequest - запрос на пополнение.
//
// @Description Initiate deposit request body
type InitiateDepositRequest struct {
	UserID       string `json:"user_id" binding:"required,uuid"`
	Amount       string `json:"amount" binding:"required,amount=CurrencyCode"`
	CurrencyCode string `json:"currency_code,omitempty" binding:"omitempty,currency"`
	Reference    string `json:"reference,omitempty" binding:"max=255"`
}

// InitiateDeposit создаёт pending депозит и checkout-сессию у шлюза.
//
// Если шлюз ответил ошибкой, транзакция остаётся pending с ответом шлюза
// в metadata.gateway_error, а клиент получает 502 с этой транзакцией.
//
// @Summary Initiate a deposit through the payment gateway
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body InitiateDepositRequest true "Deposit data"
// @Success 201 {object} common.APIResponse{data=dtos.DepositInitiatedDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 502 {object} common.APIResponse
// @Router /api/v1/deposits [post]
func (h *PaymentHandler) InitiateDeposit(c *gin.Context) {
	var req InitiateDepositRequest
	if !BindJSON(c, &req) {
		return
	}
	if !authorizeUser(c, req.UserID) {
		return
	}

	result, err := h.initiateDeposit.Execute(c.Request.Context(), dtos.InitiateDepositCommand{
		UserID:       req.UserID,
		Amount:       req.Amount,
		CurrencyCode: req.CurrencyCode,
		Reference:    req.Reference,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	if gatewayErr, failed := result.Transaction.Metadata[entities.MetadataGatewayError]; failed && result.AuthorizationURL == "" {
		common.Error(c, http.StatusBadGateway, &common.APIError{
			Code:    common.ErrCodeGateway,
			Message: "Payment gateway rejected the deposit",
			Details: map[string]interface{}{
				"transaction":   result.Transaction,
				"gateway_error": gatewayErr,
			},
		})
		return
	}

	common.Success(c, http.StatusCreated, result)
}

// Webhook принимает callback шлюза.
//
// Подпись проверяется по сырому телу. Повторная доставка того же события
// отвечает 200 с duplicate=true, чтобы шлюз перестал ретраить.
//
// @Summary Payment gateway webhook
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} common.APIResponse{data=dtos.GatewayCallbackResultDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 401 {object} common.APIResponse
// @Router /api/v1/webhooks/{provider} [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		common.BadRequestResponse(c, "Unable to read webhook body")
		return
	}

	if h.webhook.Verify == nil || !h.webhook.Verify(body, c.GetHeader(h.webhook.SignatureHeader)) {
		common.Error(c, http.StatusUnauthorized, &common.APIError{
			Code:    common.ErrCodeInvalidSignature,
			Message: "Webhook signature is invalid",
		})
		return
	}

	cmd, err := h.webhook.Parse(body)
	if err != nil {
		common.BadRequestResponse(c, err.Error())
		return
	}
	cmd.Provider = h.webhook.Provider

	result, err := h.handleCallback.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RegisterRoutes регистрирует защищённые маршруты.
//
// Routes:
//   - POST /deposits - Initiate deposit (financial limit)
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup, financial gin.HandlerFunc) {
	router.POST("/deposits", financial, h.InitiateDeposit)
}

// RegisterWebhookRoutes регистрирует webhook вне auth: шлюз подписывает тело сам.
//
// Routes:
//   - POST /webhooks/<provider>
func (h *PaymentHandler) RegisterWebhookRoutes(router *gin.RouterGroup) {
	router.POST("/webhooks/"+h.webhook.Provider, h.Webhook)
}

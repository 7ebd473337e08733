// Package handlers - Savings plan и notification HTTP handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/walletledger/internal/adapters/http/common"
	"github.com/Haleralex/walletledger/internal/application/dtos"
)

// ============================================
// Use Case Interfaces
// ============================================

// CreateSavingsPlanUseCase - создание плана накоплений.
type CreateSavingsPlanUseCase interface {
	Execute(ctx context.Context, cmd dtos.CreateSavingsPlanCommand) (*dtos.SavingsPlanDTO, error)
}

// GetSavingsPlanUseCase - план по ID.
type GetSavingsPlanUseCase interface {
	Execute(ctx context.Context, query dtos.GetSavingsPlanQuery) (*dtos.SavingsPlanDTO, error)
}

// ListSavingsPlansUseCase - планы пользователя.
type ListSavingsPlansUseCase interface {
	Execute(ctx context.Context, query dtos.ListSavingsPlansQuery) (*dtos.SavingsPlanListDTO, error)
}

// ReschedulePlanUseCase - новая цель и расписание.
type ReschedulePlanUseCase interface {
	Execute(ctx context.Context, cmd dtos.ReschedulePlanCommand) (*dtos.SavingsPlanDTO, error)
}

// FundSavingsPlanUseCase - пополнение плана из кошелька.
type FundSavingsPlanUseCase interface {
	Execute(ctx context.Context, cmd dtos.FundSavingsPlanCommand) (*dtos.FundingResultDTO, error)
}

// CancelSavingsPlanUseCase - отмена плана.
type CancelSavingsPlanUseCase interface {
	Execute(ctx context.Context, cmd dtos.CancelSavingsPlanCommand) (*dtos.SavingsPlanDTO, error)
}

// ProcessRecurringDeductionsUseCase - прогон плановых списаний.
type ProcessRecurringDeductionsUseCase interface {
	Execute(ctx context.Context, cmd dtos.ProcessRecurringDeductionsCommand) (*dtos.DeductionReportDTO, error)
}

// ListNotificationsUseCase - уведомления пользователя.
type ListNotificationsUseCase interface {
	Execute(ctx context.Context, query dtos.ListNotificationsQuery) (*dtos.NotificationListDTO, error)
}

// MarkNotificationReadUseCase - отметка о прочтении.
type MarkNotificationReadUseCase interface {
	Execute(ctx context.Context, cmd dtos.MarkNotificationReadCommand) (*dtos.NotificationDTO, error)
}

// SavingsUseCases - зависимости SavingsHandler.
type SavingsUseCases struct {
	Create            CreateSavingsPlanUseCase
	Get               GetSavingsPlanUseCase
	List              ListSavingsPlansUseCase
	Reschedule        ReschedulePlanUseCase
	Fund              FundSavingsPlanUseCase
	Cancel            CancelSavingsPlanUseCase
	ProcessDeductions ProcessRecurringDeductionsUseCase
	ListNotifications ListNotificationsUseCase
	MarkRead          MarkNotificationReadUseCase
}

// ============================================
// Savings Handler
// ============================================

// SavingsHandler обрабатывает HTTP запросы для планов накоплений.
type SavingsHandler struct {
	uc SavingsUseCases
}

// NewSavingsHandler создаёт новый SavingsHandler.
func NewSavingsHandler(uc SavingsUseCases) *SavingsHandler {
	return &SavingsHandler{uc: uc}
}

// ============================================
// Request DTOs
// ============================================

// CreateSavingsPlanRequest - запрос на создание плана.
//
// @Description Create savings plan request body
type CreateSavingsPlanRequest struct {
	UserID       string `json:"user_id" binding:"required,uuid"`
	Name         string `json:"name" binding:"required,max=120"`
	TargetAmount string `json:"target_amount" binding:"required,amount"`
	Frequency    string `json:"frequency" binding:"required,oneof=one_time daily weekly monthly"`
	StartDate    string `json:"start_date" binding:"required,date"`
	EndDate      string `json:"end_date,omitempty" binding:"omitempty,date"`
}

// ReschedulePlanRequest - новая цель и расписание.
//
// @Description Reschedule savings plan request body
type ReschedulePlanRequest struct {
	TargetAmount string `json:"target_amount" binding:"required,amount"`
	Frequency    string `json:"frequency" binding:"required,oneof=one_time daily weekly monthly"`
	StartDate    string `json:"start_date" binding:"required,date"`
	EndDate      string `json:"end_date,omitempty" binding:"omitempty,date"`
}

// FundSavingsPlanRequest - пополнение плана. Пустая сумма - очередное плановое списание.
//
// @Description Fund savings plan request body
type FundSavingsPlanRequest struct {
	Amount    string `json:"amount,omitempty" binding:"omitempty,amount"`
	Reference string `json:"reference,omitempty" binding:"max=255"`
}

// PlanIDParam - параметр ID плана из URL.
type PlanIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// NotificationParams - пользователь и уведомление из URL.
type NotificationParams struct {
	UserID         string `uri:"id" binding:"required,uuid"`
	NotificationID string `uri:"notification_id" binding:"required,uuid"`
}

// ListPlansParams - фильтры списка планов.
type ListPlansParams struct {
	Status string `form:"status" binding:"omitempty,oneof=active completed cancelled"`
}

// ListNotificationsParams - фильтры списка уведомлений.
type ListNotificationsParams struct {
	UnreadOnly bool `form:"unread_only"`
}

// RunDeductionsParams - дата прогона (по умолчанию сегодня, UTC).
type RunDeductionsParams struct {
	AsOf string `form:"as_of" binding:"omitempty,date"`
}

// ============================================
// HTTP Handlers
// ============================================

// CreatePlan создаёт план накоплений.
//
// @Summary Create a savings plan
// @Tags Savings
// @Accept json
// @Produce json
// @Param request body CreateSavingsPlanRequest true "Plan data"
// @Success 201 {object} common.APIResponse{data=dtos.SavingsPlanDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Wallet not found"
// @Router /api/v1/savings-plans [post]
func (h *SavingsHandler) CreatePlan(c *gin.Context) {
	var req CreateSavingsPlanRequest
	if !BindJSON(c, &req) {
		return
	}
	if !authorizeUser(c, req.UserID) {
		return
	}

	result, err := h.uc.Create.Execute(c.Request.Context(), dtos.CreateSavingsPlanCommand{
		UserID:       req.UserID,
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		Frequency:    req.Frequency,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, result)
}

// GetPlan возвращает план по ID.
//
// @Summary Get savings plan
// @Tags Savings
// @Produce json
// @Param id path string true "Plan ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.SavingsPlanDTO}
// @Failure 404 {object} common.APIResponse
// @Router /api/v1/savings-plans/{id} [get]
func (h *SavingsHandler) GetPlan(c *gin.Context) {
	plan, ok := h.loadOwnedPlan(c)
	if !ok {
		return
	}
	common.Success(c, http.StatusOK, plan)
}

// ListUserPlans возвращает планы пользователя.
//
// @Summary List savings plans of a user
// @Tags Savings
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Param status query string false "Filter by status" Enums(active, completed, cancelled)
// @Success 200 {object} common.APIResponse{data=dtos.SavingsPlanListDTO}
// @Router /api/v1/users/{id}/savings-plans [get]
func (h *SavingsHandler) ListUserPlans(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}
	var filters ListPlansParams
	if !BindQuery(c, &filters) {
		return
	}
	if !authorizeUser(c, params.ID) {
		return
	}
	pagination := ParsePagination(c)

	result, err := h.uc.List.Execute(c.Request.Context(), dtos.ListSavingsPlansQuery{
		UserID: params.ID,
		Status: optional(filters.Status),
		Offset: pagination.Offset(),
		Limit:  pagination.PerPage,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.SuccessWithMeta(c, http.StatusOK, result, BuildMeta(pagination, -1))
}

// ReschedulePlan меняет цель и расписание; плановое списание пересчитывается.
//
// @Summary Reschedule savings plan
// @Tags Savings
// @Accept json
// @Produce json
// @Param id path string true "Plan ID" format(uuid)
// @Param request body ReschedulePlanRequest true "New schedule"
// @Success 200 {object} common.APIResponse{data=dtos.SavingsPlanDTO}
// @Failure 422 {object} common.APIResponse "Plan not active"
// @Router /api/v1/savings-plans/{id}/schedule [put]
func (h *SavingsHandler) ReschedulePlan(c *gin.Context) {
	var req ReschedulePlanRequest
	if !BindJSON(c, &req) {
		return
	}
	plan, ok := h.loadOwnedPlan(c)
	if !ok {
		return
	}

	result, err := h.uc.Reschedule.Execute(c.Request.Context(), dtos.ReschedulePlanCommand{
		PlanID:       plan.ID,
		TargetAmount: req.TargetAmount,
		Frequency:    req.Frequency,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// FundPlan переводит деньги из кошелька в план.
//
// @Summary Fund savings plan from the wallet
// @Tags Savings
// @Accept json
// @Produce json
// @Param id path string true "Plan ID" format(uuid)
// @Param request body FundSavingsPlanRequest false "Funding"
// @Success 201 {object} common.APIResponse{data=dtos.FundingResultDTO}
// @Failure 422 {object} common.APIResponse "Insufficient funds or plan not active"
// @Router /api/v1/savings-plans/{id}/fund [post]
func (h *SavingsHandler) FundPlan(c *gin.Context) {
	var req FundSavingsPlanRequest
	if c.Request.ContentLength != 0 && !BindJSON(c, &req) {
		return
	}
	plan, ok := h.loadOwnedPlan(c)
	if !ok {
		return
	}

	result, err := h.uc.Fund.Execute(c.Request.Context(), dtos.FundSavingsPlanCommand{
		PlanID:    plan.ID,
		Amount:    req.Amount,
		Reference: req.Reference,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, result)
}

// CancelPlan отменяет план. Накопленное остаётся в плане.
//
// @Summary Cancel savings plan
// @Tags Savings
// @Produce json
// @Param id path string true "Plan ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.SavingsPlanDTO}
// @Failure 422 {object} common.APIResponse "Plan not active"
// @Router /api/v1/savings-plans/{id}/cancel [post]
func (h *SavingsHandler) CancelPlan(c *gin.Context) {
	plan, ok := h.loadOwnedPlan(c)
	if !ok {
		return
	}

	result, err := h.uc.Cancel.Execute(c.Request.Context(), dtos.CancelSavingsPlanCommand{PlanID: plan.ID})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RunDeductions запускает плановые списания вручную (backoffice, догон после простоя).
//
// @Summary Run recurring savings deductions
// @Tags Savings
// @Produce json
// @Param as_of query string false "Run date (YYYY-MM-DD)"
// @Success 200 {object} common.APIResponse{data=dtos.DeductionReportDTO}
// @Router /api/v1/savings-plans/deductions/run [post]
func (h *SavingsHandler) RunDeductions(c *gin.Context) {
	var params RunDeductionsParams
	if !BindQuery(c, &params) {
		return
	}

	asOf := time.Now().UTC()
	if params.AsOf != "" {
		parsed, err := time.Parse(time.DateOnly, params.AsOf)
		if err != nil {
			common.ValidationErrorResponse(c, []common.FieldError{
				{Field: "as_of", Message: "Invalid date (use YYYY-MM-DD)", Code: "date"},
			})
			return
		}
		asOf = parsed
	}

	result, err := h.uc.ProcessDeductions.Execute(c.Request.Context(), dtos.ProcessRecurringDeductionsCommand{AsOf: asOf})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// ListNotifications возвращает уведомления пользователя.
//
// @Summary List notifications of a user
// @Tags Notifications
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Param unread_only query bool false "Only unread"
// @Success 200 {object} common.APIResponse{data=dtos.NotificationListDTO}
// @Router /api/v1/users/{id}/notifications [get]
func (h *SavingsHandler) ListNotifications(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}
	var filters ListNotificationsParams
	if !BindQuery(c, &filters) {
		return
	}
	if !authorizeUser(c, params.ID) {
		return
	}
	pagination := ParsePagination(c)

	result, err := h.uc.ListNotifications.Execute(c.Request.Context(), dtos.ListNotificationsQuery{
		UserID:     params.ID,
		UnreadOnly: filters.UnreadOnly,
		Offset:     pagination.Offset(),
		Limit:      pagination.PerPage,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.SuccessWithMeta(c, http.StatusOK, result, BuildMeta(pagination, -1))
}

// MarkNotificationRead отмечает уведомление прочитанным.
//
// @Summary Mark notification as read
// @Tags Notifications
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Param notification_id path string true "Notification ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.NotificationDTO}
// @Failure 404 {object} common.APIResponse
// @Router /api/v1/users/{id}/notifications/{notification_id}/read [post]
func (h *SavingsHandler) MarkNotificationRead(c *gin.Context) {
	var params NotificationParams
	if !BindURI(c, &params) {
		return
	}
	if !authorizeUser(c, params.UserID) {
		return
	}

	result, err := h.uc.MarkRead.Execute(c.Request.Context(), dtos.MarkNotificationReadCommand{
		UserID:         params.UserID,
		NotificationID: params.NotificationID,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// loadOwnedPlan загружает план из :id и проверяет владельца.
func (h *SavingsHandler) loadOwnedPlan(c *gin.Context) (*dtos.SavingsPlanDTO, bool) {
	var params PlanIDParam
	if !BindURI(c, &params) {
		return nil, false
	}

	plan, err := h.uc.Get.Execute(c.Request.Context(), dtos.GetSavingsPlanQuery{PlanID: params.ID})
	if err != nil {
		common.HandleDomainError(c, err)
		return nil, false
	}
	if !authorizeUser(c, plan.UserID) {
		return nil, false
	}
	return plan, true
}

// RegisterRoutes регистрирует маршруты для SavingsHandler.
//
// Routes:
//   - POST /savings-plans                          - Create plan
//   - POST /savings-plans/deductions/run           - Run deductions (admin, service)
//   - GET  /savings-plans/:id                      - Get plan
//   - PUT  /savings-plans/:id/schedule             - Reschedule
//   - POST /savings-plans/:id/fund                 - Fund from wallet (financial limit)
//   - POST /savings-plans/:id/cancel               - Cancel
//   - GET  /users/:id/savings-plans                - Plans of a user
//   - GET  /users/:id/notifications                - Notifications of a user
//   - POST /users/:id/notifications/:nid/read      - Mark read
func (h *SavingsHandler) RegisterRoutes(router *gin.RouterGroup, financial gin.HandlerFunc, privileged ...gin.HandlerFunc) {
	plans := router.Group("/savings-plans")
	{
		plans.POST("", h.CreatePlan)
		plans.POST("/deductions/run", chain(privileged, h.RunDeductions)...)
		plans.GET("/:id", h.GetPlan)
		plans.PUT("/:id/schedule", h.ReschedulePlan)
		plans.POST("/:id/fund", financial, h.FundPlan)
		plans.POST("/:id/cancel", h.CancelPlan)
	}

	router.GET("/users/:id/savings-plans", h.ListUserPlans)
	router.GET("/users/:id/notifications", h.ListNotifications)
	router.POST("/users/:id/notifications/:notification_id/read", h.MarkNotificationRead)
}

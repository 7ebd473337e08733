// Package handlers - User HTTP handlers.
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

// CreateUserUseCase - создание пользователя вместе с кошельком.
type CreateUserUseCase interface {
	Execute(ctx context.Context, cmd dtos.CreateUserCommand) (*dtos.UserCreatedDTO, error)
}

// GetUserUseCase - получение пользователя (query).
type GetUserUseCase interface {
	Execute(ctx context.Context, query dtos.GetUserQuery) (*dtos.UserDTO, error)
}

// ListUsersUseCase - список пользователей.
type ListUsersUseCase interface {
	Execute(ctx context.Context, query dtos.ListUsersQuery) (*dtos.UserListDTO, error)
}

// ============================================
// User Handler
// ============================================

// UserHandler обрабатывает HTTP запросы для пользователей.
//
// Pattern: Adapter (Hexagonal Architecture)
//   - Преобразует HTTP запросы в Use Case вызовы
//   - Преобразует результаты в HTTP ответы
type UserHandler struct {
	createUser CreateUserUseCase
	getUser    GetUserUseCase
	listUsers  ListUsersUseCase
}

// NewUserHandler создаёт новый UserHandler.
func NewUserHandler(createUser CreateUserUseCase, getUser GetUserUseCase, listUsers ListUsersUseCase) *UserHandler {
	return &UserHandler{
		createUser: createUser,
		getUser:    getUser,
		listUsers:  listUsers,
	}
}

// ============================================
// Request DTOs (HTTP layer)
// ============================================

// CreateUserRequest - запрос на создание пользователя.
//
// @Description Create user request body
type CreateUserRequest struct {
	Email        string `json:"email" binding:"required,email,max=255"`
	FullName     string `json:"full_name" binding:"required,min=2,max=100"`
	CurrencyCode string `json:"currency_code,omitempty" binding:"omitempty,currency"`
}

// UserIDParam - параметр ID пользователя из URL.
type UserIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ============================================
// HTTP Handlers
// ============================================

// CreateUser создаёт пользователя и его кошелёк.
//
// @Summary Create a new user
// @Description Create a user with email and full name; a wallet in the given (or default) currency is opened in the same transaction
// @Tags Users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User data"
// @Success 201 {object} common.APIResponse{data=dtos.UserCreatedDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 409 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.createUser.Execute(c.Request.Context(), dtos.CreateUserCommand{
		Email:        req.Email,
		FullName:     req.FullName,
		CurrencyCode: req.CurrencyCode,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, result)
}

// GetUser возвращает пользователя по ID.
//
// @Summary Get user by ID
// @Tags Users
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.UserDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	var params UserIDParam
	if !BindURI(c, &params) {
		return
	}
	if !authorizeUser(c, params.ID) {
		return
	}

	result, err := h.getUser.Execute(c.Request.Context(), dtos.GetUserQuery{UserID: params.ID})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// ListUsers возвращает список пользователей с пагинацией.
//
// @Summary List users
// @Tags Users
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20) maximum(100)
// @Success 200 {object} common.APIResponse{data=dtos.UserListDTO}
// @Router /api/v1/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	pagination := ParsePagination(c)

	result, err := h.listUsers.Execute(c.Request.Context(), dtos.ListUsersQuery{
		Offset: pagination.Offset(),
		Limit:  pagination.PerPage,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.SuccessWithMeta(c, http.StatusOK, result, BuildMeta(pagination, -1))
}

// RegisterRoutes регистрирует маршруты для UserHandler.
//
// Routes:
//   - POST /users     - Create user (admin, service)
//   - GET  /users     - List users (admin, service)
//   - GET  /users/:id - Get user by ID
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, privileged ...gin.HandlerFunc) {
	users := router.Group("/users")
	{
		users.POST("", chain(privileged, h.CreateUser)...)
		users.GET("", chain(privileged, h.ListUsers)...)
		users.GET("/:id", h.GetUser)
	}
}

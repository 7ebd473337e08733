package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/walletledger/internal/adapters/http/middleware"
	"github.com/Haleralex/walletledger/internal/application/dtos"
	domainerrors "github.com/Haleralex/walletledger/internal/domain/errors"
)

func userRouter(who *caller, h *UserHandler, privileged ...gin.HandlerFunc) *gin.Engine {
	router := newTestRouter(who)
	h.RegisterRoutes(router.Group("/api/v1"), privileged...)
	return router
}

func TestUserHandler_CreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		userID := uuid.NewString()
		var got dtos.CreateUserCommand
		create := &mockCreateUserUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.CreateUserCommand) (*dtos.UserCreatedDTO, error) {
				got = cmd
				return &dtos.UserCreatedDTO{
					User:   dtos.UserDTO{ID: userID, Email: cmd.Email, FullName: cmd.FullName, CreatedAt: time.Now()},
					Wallet: dtos.WalletDTO{ID: uuid.NewString(), UserID: userID, CurrencyCode: "NGN", Balance: "0.00", IsActive: true},
				}, nil
			},
		}
		router := userRouter(nil, NewUserHandler(create, nil, nil))

		w := doJSON(router, http.MethodPost, "/api/v1/users", CreateUserRequest{
			Email: "ada@example.com", FullName: "Ada Lovelace", CurrencyCode: "NGN",
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var result dtos.UserCreatedDTO
		decodeData(t, w, &result)
		assert.Equal(t, userID, result.User.ID)
		assert.Equal(t, "0.00", result.Wallet.Balance)
		assert.Equal(t, "NGN", got.CurrencyCode)
		assert.Equal(t, "test-request-123", decode(t, w).RequestID)
	})

	t.Run("Validation", func(t *testing.T) {
		router := userRouter(nil, NewUserHandler(&mockCreateUserUseCase{}, nil, nil))

		tests := []struct {
			name  string
			body  CreateUserRequest
			field string
		}{
			{"missing email", CreateUserRequest{FullName: "Ada Lovelace"}, "email"},
			{"bad email", CreateUserRequest{Email: "nope", FullName: "Ada Lovelace"}, "email"},
			{"short name", CreateUserRequest{Email: "ada@example.com", FullName: "A"}, "full_name"},
			{"bad currency", CreateUserRequest{Email: "ada@example.com", FullName: "Ada Lovelace", CurrencyCode: "XYZ"}, "currency_code"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := doJSON(router, http.MethodPost, "/api/v1/users", tt.body)

				require.Equal(t, http.StatusBadRequest, w.Code)
				resp := decode(t, w)
				require.NotNil(t, resp.Error)
				require.NotEmpty(t, resp.Error.Fields)
				assert.Equal(t, tt.field, resp.Error.Fields[0].Field)
			})
		}
	})

	t.Run("AlreadyExists", func(t *testing.T) {
		create := &mockCreateUserUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.CreateUserCommand) (*dtos.UserCreatedDTO, error) {
				return nil, domainerrors.ErrUserAlreadyExists
			},
		}
		router := userRouter(nil, NewUserHandler(create, nil, nil))

		w := doJSON(router, http.MethodPost, "/api/v1/users", CreateUserRequest{Email: "ada@example.com", FullName: "Ada Lovelace"})

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("PrivilegedOnly", func(t *testing.T) {
		router := userRouter(asUser(uuid.NewString()), NewUserHandler(&mockCreateUserUseCase{}, nil, nil),
			middleware.RequireRole(middleware.RoleAdmin, middleware.RoleService))

		w := doJSON(router, http.MethodPost, "/api/v1/users", CreateUserRequest{Email: "ada@example.com", FullName: "Ada Lovelace"})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestUserHandler_GetUser(t *testing.T) {
	owner := uuid.NewString()
	get := &mockGetUserUseCase{
		ExecuteFn: func(ctx context.Context, query dtos.GetUserQuery) (*dtos.UserDTO, error) {
			if query.UserID != owner {
				return nil, domainerrors.ErrUserNotFound
			}
			return &dtos.UserDTO{ID: owner, Email: "ada@example.com"}, nil
		},
	}

	t.Run("Owner", func(t *testing.T) {
		w := doJSON(userRouter(asUser(owner), NewUserHandler(nil, get, nil)), http.MethodGet, "/api/v1/users/"+owner, nil)

		require.Equal(t, http.StatusOK, w.Code)
		var user dtos.UserDTO
		decodeData(t, w, &user)
		assert.Equal(t, owner, user.ID)
	})

	t.Run("OtherUser", func(t *testing.T) {
		w := doJSON(userRouter(asUser(uuid.NewString()), NewUserHandler(nil, get, nil)), http.MethodGet, "/api/v1/users/"+owner, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("AdminSeesEveryone", func(t *testing.T) {
		w := doJSON(userRouter(asAdmin(), NewUserHandler(nil, get, nil)), http.MethodGet, "/api/v1/users/"+owner, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		w := doJSON(userRouter(nil, NewUserHandler(nil, get, nil)), http.MethodGet, "/api/v1/users/"+uuid.NewString(), nil)

		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "User not found", decode(t, w).Error.Message)
	})

	t.Run("InvalidUUID", func(t *testing.T) {
		w := doJSON(userRouter(nil, NewUserHandler(nil, get, nil)), http.MethodGet, "/api/v1/users/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUserHandler_ListUsers(t *testing.T) {
	var got dtos.ListUsersQuery
	list := &mockListUsersUseCase{
		ExecuteFn: func(ctx context.Context, query dtos.ListUsersQuery) (*dtos.UserListDTO, error) {
			got = query
			return &dtos.UserListDTO{Users: []dtos.UserDTO{{ID: uuid.NewString()}}, Offset: query.Offset, Limit: query.Limit}, nil
		},
	}
	router := userRouter(nil, NewUserHandler(nil, nil, list))

	w := doJSON(router, http.MethodGet, "/api/v1/users?page=3&per_page=10", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, got.Offset)
	assert.Equal(t, 10, got.Limit)
	meta := decode(t, w).Meta
	require.NotNil(t, meta)
	assert.Equal(t, 3, meta.Page)
	assert.Zero(t, meta.Total)
}

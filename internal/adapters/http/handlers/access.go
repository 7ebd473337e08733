package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Haleralex/walletledger/internal/adapters/http/common"
	"github.com/Haleralex/walletledger/internal/adapters/http/middleware"
)

// authorizeUser проверяет, что вызывающий может работать с данными userID.
// При отказе отправляет 403 и возвращает false.
func authorizeUser(c *gin.Context, userID string) bool {
	id, err := uuid.Parse(userID)
	if err != nil || !middleware.CanAccessUser(c, id) {
		common.ForbiddenResponse(c, "Access to another user's resources is not allowed")
		return false
	}
	return true
}

// callerScope - ID пользователя, которым ограничены списки.
// nil для admin/service и при выключенной аутентификации.
func callerScope(c *gin.Context) *string {
	if !middleware.IsAuthenticated(c) {
		return nil
	}
	switch middleware.GetAuthUserRole(c) {
	case middleware.RoleAdmin, middleware.RoleService:
		return nil
	}
	id := middleware.GetAuthUserID(c).String()
	return &id
}

// optional - nil для пустой строки.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// chain - middleware маршрута плюс сам handler (без алиасинга слайса).
func chain(mw []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(mw)+1)
	out = append(out, mw...)
	return append(out, h)
}

// Package middleware - Authentication middleware.
//
// Bearer JWT (HS256) от внешнего identity provider. Сервис только проверяет
// подпись, issuer и срок действия; subject токена - ID пользователя.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Haleralex/walletledger/internal/pkg/logger"
)

const (
	// AuthUserIDKey - ключ для хранения User ID в контексте
	AuthUserIDKey = "auth_user_id"
	// AuthUserEmailKey - ключ для хранения email пользователя
	AuthUserEmailKey = "auth_user_email"
	// AuthUserRoleKey - ключ для хранения роли пользователя
	AuthUserRoleKey = "auth_user_role"
)

// Роли
const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleService = "service" // внутренние вызовы (scheduler, backoffice)
)

// TokenValidator проверяет токен и возвращает его claims.
type TokenValidator func(token string) (*AuthClaims, error)

// AuthConfig - конфигурация для authentication middleware.
type AuthConfig struct {
	TokenValidator TokenValidator
	// SkipPaths - пути, которые не требуют авторизации
	SkipPaths []string
}

// AuthClaims - данные из токена авторизации.
type AuthClaims struct {
	UserID string
	Email  string
	Role   string
	Exp    time.Time
}

// jwtClaims - формат payload токена.
type jwtClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// NewJWTValidator создаёт валидатор HS256 токенов.
func NewJWTValidator(secret, issuer string) TokenValidator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(tokenString string) (*AuthClaims, error) {
		claims := &jwtClaims{}
		_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil {
			return nil, fmt.Errorf("invalid token: %w", err)
		}
		if claims.Subject == "" {
			return nil, errors.New("invalid token: missing subject")
		}

		role := claims.Role
		if role == "" {
			role = RoleUser
		}

		return &AuthClaims{
			UserID: claims.Subject,
			Email:  claims.Email,
			Role:   role,
			Exp:    claims.ExpiresAt.Time,
		}, nil
	}
}

// IssueToken подписывает токен (тесты, локальная разработка).
func IssueToken(secret, issuer string, claims AuthClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		Email: claims.Email,
		Role:  claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}

// Auth middleware для проверки авторизации.
//
// Схема работы:
//  1. Извлекает токен из заголовка Authorization
//  2. Валидирует токен через TokenValidator
//  3. Добавляет данные пользователя в контекст (gin и request context для логов)
//  4. Продолжает обработку или возвращает 401
func Auth(config *AuthConfig) gin.HandlerFunc {
	skipMap := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipMap[path] = true
	}

	return func(c *gin.Context) {
		if skipMap[c.Request.URL.Path] {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithUnauthorized(c, "Authorization header is required")
			return
		}

		// Формат "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithUnauthorized(c, "Invalid authorization header format")
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			abortWithUnauthorized(c, "Token is required")
			return
		}

		claims, err := config.TokenValidator(token)
		if err != nil {
			abortWithUnauthorized(c, "Invalid or expired token")
			return
		}

		if !claims.Exp.IsZero() && claims.Exp.Before(time.Now()) {
			abortWithUnauthorized(c, "Token has expired")
			return
		}

		c.Set(AuthUserIDKey, claims.UserID)
		c.Set(AuthUserEmailKey, claims.Email)
		c.Set(AuthUserRoleKey, claims.Role)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))

		c.Next()
	}
}

// abortWithUnauthorized отправляет 401 ответ.
func abortWithUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
		"request_id": GetRequestID(c),
		"timestamp":  time.Now().UTC(),
	})
}

// RequireRole middleware проверяет роль пользователя.
//
// Используется после Auth middleware для проверки разрешений.
func RequireRole(roles ...string) gin.HandlerFunc {
	roleMap := make(map[string]bool)
	for _, role := range roles {
		roleMap[role] = true
	}

	return func(c *gin.Context) {
		userRole := GetAuthUserRole(c)
		if userRole == "" {
			abortWithForbidden(c, "User role not found")
			return
		}

		if !roleMap[userRole] {
			abortWithForbidden(c, "Insufficient permissions")
			return
		}

		c.Next()
	}
}

// abortWithForbidden отправляет 403 ответ.
func abortWithForbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "FORBIDDEN",
			"message": message,
		},
		"request_id": GetRequestID(c),
		"timestamp":  time.Now().UTC(),
	})
}

// ============================================
// Helper functions для извлечения auth данных
// ============================================

// GetAuthUserID возвращает ID авторизованного пользователя.
func GetAuthUserID(c *gin.Context) uuid.UUID {
	if uid, err := uuid.Parse(c.GetString(AuthUserIDKey)); err == nil {
		return uid
	}
	return uuid.Nil
}

// GetAuthUserEmail возвращает email авторизованного пользователя.
func GetAuthUserEmail(c *gin.Context) string {
	return c.GetString(AuthUserEmailKey)
}

// GetAuthUserRole возвращает роль авторизованного пользователя.
func GetAuthUserRole(c *gin.Context) string {
	return c.GetString(AuthUserRoleKey)
}

// IsAuthenticated - прошёл ли запрос через Auth.
func IsAuthenticated(c *gin.Context) bool {
	_, ok := c.Get(AuthUserIDKey)
	return ok
}

// CanAccessUser - может ли вызывающий работать с данными пользователя.
// Без аутентификации (auth выключен) доступ открыт; admin и service видят всех.
func CanAccessUser(c *gin.Context, userID uuid.UUID) bool {
	if !IsAuthenticated(c) {
		return true
	}
	switch GetAuthUserRole(c) {
	case RoleAdmin, RoleService:
		return true
	}
	return GetAuthUserID(c) == userID
}

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lfk/lfk-backend/internal/app/model"
	apperrors "github.com/lfk/lfk-backend/internal/errors"
	"github.com/lfk/lfk-backend/pkg/logger"
	"github.com/lfk/lfk-backend/pkg/util"
)

// Context keys for user information
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserRoleKey  = "user_role"
)

// AuthMiddleware checks bearer tokens issued by util.GenerateTokenPair.
type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret}
}

// reject logs why the request was refused and aborts with the error body.
func reject(c *gin.Context, status int, code, message, reason string, fields logger.Fields) {
	if fields == nil {
		fields = logger.Fields{}
	}
	fields["reason"] = reason
	fields["route"] = c.FullPath()
	GetLoggerFromContext(c).Warn("Request not authorized", fields)

	apperrors.RespondWithError(c, status, code, message)
	c.Abort()
}

// Authenticate requires a valid access token and stores its claims on the
// context. Refresh tokens are refused.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apperrors.Unauthorized(c, "Authorization header is required")
			GetLoggerFromContext(c).Debug("Anonymous request to protected route", logger.Fields{"route": c.FullPath()})
			c.Abort()
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			reject(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid,
				"Authorization header must be: Bearer <token>", "malformed header", nil)
			return
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err == nil && claims.TokenType != util.TokenTypeAccess {
			err = fmt.Errorf("%w: %s token used for access", util.ErrInvalidToken, claims.TokenType)
		}
		if err != nil {
			code := apperrors.AuthTokenInvalid
			if errors.Is(err, util.ErrExpiredToken) {
				code = apperrors.AuthTokenExpired
			}
			reject(c, http.StatusUnauthorized, code, "Invalid or expired token", err.Error(), nil)
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, model.UserRole(claims.Role))
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	allowed := make(map[model.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			reject(c, http.StatusForbidden, apperrors.AuthzRoleNotFound, "Role information not found", "no role on context", nil)
			return
		}
		if _, ok := allowed[role]; !ok {
			userID, _ := GetUserID(c)
			GetLoggerFromContext(c).Warn("Role not allowed", logger.Fields{
				"user_id": userID,
				"role":    role,
				"route":   c.FullPath(),
			})
			apperrors.Forbidden(c, "Insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	s, ok := email.(string)
	return s, ok
}

func GetUserRole(c *gin.Context) (model.UserRole, bool) {
	role, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	r, ok := role.(model.UserRole)
	return r, ok
}

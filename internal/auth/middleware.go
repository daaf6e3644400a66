package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"trekbook/internal/api"
)

// identityKey holds the caller's Identity on the gin context.
const identityKey = "trekbook.identity"

// Identity is the caller as proven by a verified access token.
type Identity struct {
	UserID int
	Email  string
	Role   string
}

func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// AuthMiddleware verifies the bearer access token and stores the caller's
// Identity for the handlers behind it.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, problem := bearerToken(c.GetHeader("Authorization"))
		if problem != "" {
			unauthorized(c, problem)
			return
		}

		claims, err := ValidateToken(token, secret)
		switch {
		case errors.Is(err, ErrTokenExpired):
			unauthorized(c, "Token expired")
			return
		case err != nil:
			unauthorized(c, "Invalid or malformed token")
			return
		case claims.TokenType != "access":
			unauthorized(c, "Access token required")
			return
		case claims.UserID <= 0 || !knownRole(claims.Role):
			unauthorized(c, "Token carries no valid identity")
			return
		}

		c.Set(identityKey, Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role})
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header. A non-empty
// problem is the client-facing reason the header was rejected.
func bearerToken(header string) (token, problem string) {
	if header == "" {
		return "", "Authorization header required"
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", "Invalid authorization header format"
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", "Token is empty"
	}
	return token, ""
}

func knownRole(role string) bool {
	return role == RoleCustomer || role == RoleAdmin
}

// RequireRole lets through only callers with the given role. It must run
// after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			unauthorized(c, "User not authenticated")
			return
		}

		if id.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, api.ErrorResponse{Error: "Insufficient permissions"})
			return
		}

		c.Next()
	}
}

func GetIdentity(c *gin.Context) (Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

func GetUserID(c *gin.Context) (int, bool) {
	id, ok := GetIdentity(c)
	if !ok {
		return 0, false
	}
	return id.UserID, true
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: msg})
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contacthub/api/internal/models"
	"contacthub/api/internal/security"
)

// ContextUserKey is where the auth guard stores the resolved user.
const ContextUserKey = "current_user"

type UserResolver interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// Auth rejects the request unless the bearer token parses, resolves to
// an existing user, and equals that user's stored session token. The
// equality check is what makes logout and re-login revoke earlier
// tokens immediately.
func Auth(jwtSecret string, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseSessionToken(tokenStr, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			return
		}

		if user.SessionToken == nil || *user.SessionToken != tokenStr {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token_revoked"})
			return
		}

		c.Set(ContextUserKey, user)

		c.Next()
	}
}

// CurrentUser fetches the user attached by Auth. The second return is
// false on routes that never passed through the guard.
func CurrentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get(ContextUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	return user, ok
}

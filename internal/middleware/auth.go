package middleware

import (
	"errors"
	"net/http"
	"strings"

	"blogapi/internal/auth"
	"blogapi/internal/policy"
	"blogapi/internal/utils"

	"github.com/gin-gonic/gin"
)

const IdentityKey = "identity"

// AuthRequired resolves the bearer token and stores the caller identity in the
// context. Requests without a valid token stop here with 401.
func AuthRequired(provider *auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
			return
		}

		identity, err := provider.Resolve(c.Request.Context(), raw)
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthenticated) {
				utils.LogError(err, "Failed to resolve bearer token")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// CurrentIdentity returns the caller set by AuthRequired, or nil.
func CurrentIdentity(c *gin.Context) *policy.Identity {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*policy.Identity)
	return identity
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.Trim(parts[1], "\"'")
	return token, token != ""
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const userKey = "userID"

// AuthMiddleware requires an X-User-ID header carrying the buyer's order
// owner id. The id is parsed here so handlers downstream work with a typed
// uuid, and a malformed header is rejected like a missing one.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.GetHeader("X-User-ID"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(userKey, userID)
		c.Next()
	}
}

// GetUserID returns the authenticated buyer id, or uuid.Nil when the
// middleware did not run.
func GetUserID(c *gin.Context) uuid.UUID {
	if val, exists := c.Get(userKey); exists {
		if id, ok := val.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

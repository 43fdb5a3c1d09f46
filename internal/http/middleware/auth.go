// README: Bearer token middleware; resolves the calling actor from the JWT.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rideloop/internal/auth"
)

const actorKey = "rideloop.actor"

// Auth verifies the bearer credential and stores the resolved actor on the
// request context. The actor identity always comes from the token; request
// payloads never name the caller.
func Auth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}
		actor, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// bearerToken reads the Authorization header, falling back to the token query
// parameter for websocket clients that cannot set headers.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}

// CallerActor returns the actor set by Auth. The second return is false on
// routes that skipped the middleware.
func CallerActor(c *gin.Context) (auth.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return auth.Actor{}, false
	}
	actor, ok := v.(auth.Actor)
	return actor, ok
}

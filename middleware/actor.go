package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	model "github.com/servana/action-center/models"
)

const actorKey = "actor"

// RequireActor extracts the acting admin from the X-Admin-Id / X-Admin-Name
// headers set by the dashboard's auth proxy. Mutating routes refuse requests
// without an identity so every audit note has an author.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Admin-Id")
		if id == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Admin-Id header required"})
			c.Abort()
			return
		}
		name := c.GetHeader("X-Admin-Name")
		if name == "" {
			name = id
		}
		c.Set(actorKey, model.Actor{ID: id, Name: name})
		c.Next()
	}
}

// ActorFrom returns the actor attached by RequireActor. The zero actor is
// returned on routes that did not pass through it.
func ActorFrom(c *gin.Context) model.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(model.Actor); ok {
			return actor
		}
	}
	return model.Actor{}
}

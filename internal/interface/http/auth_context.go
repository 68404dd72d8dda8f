package http

import (
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

func setIdentity(c *gin.Context, email string) {
	c.Set(identityKey, email)
}

// identity returns the caller resolved by identityMiddleware.
func identity(c *gin.Context) (string, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return "", false
	}
	email, ok := value.(string)
	return email, ok && email != ""
}

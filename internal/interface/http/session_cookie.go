package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type sessionCookie struct {
	name   string
	ttl    time.Duration
	secure bool
}

func (s sessionCookie) set(c *gin.Context, sessionID string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.name, sessionID, int(s.ttl.Seconds()), "/", "", s.secure || c.Request.TLS != nil, true)
}

func (s sessionCookie) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.name, "", -1, "/", "", s.secure || c.Request.TLS != nil, true)
}

func (s sessionCookie) read(c *gin.Context) string {
	value, err := c.Cookie(s.name)
	if err != nil {
		return ""
	}
	return value
}

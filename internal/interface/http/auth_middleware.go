package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/edusolve/internal/domain/auth"
	apperrors "github.com/yanqian/edusolve/pkg/errors"
)

// identityMiddleware resolves the caller from a bearer token or the web session cookie.
// A bad bearer token always fails; a missing identity only fails when required is set.
func identityMiddleware(svc auth.Service, required bool, cookieName string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "invalid authorization header", nil))
				return
			}
			claims, err := svc.ValidateToken(c.Request.Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				status := http.StatusUnauthorized
				code := apperrors.CodeInvalidToken
				if !apperrors.IsCode(err, apperrors.CodeInvalidToken) {
					status = http.StatusInternalServerError
					code = "auth_failed"
				}
				abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
				return
			}
			subject := claims.Email
			if subject == "" {
				subject = claims.Subject
			}
			setIdentity(c, subject)
			c.Next()
			return
		}

		if sessionID, err := c.Cookie(cookieName); err == nil && sessionID != "" {
			email, ok, err := svc.SessionEmail(c.Request.Context(), sessionID)
			if err != nil {
				logger.Warn("session lookup failed", "error", err)
			} else if ok {
				setIdentity(c, email)
			}
		}

		if _, ok := identity(c); !ok && required {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "sign in or provide a bearer token", nil))
			return
		}
		c.Next()
	}
}

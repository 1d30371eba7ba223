package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionManager issues and validates the signed session cookie.
type SessionManager interface {
	Issue() (id, token string, err error)
	Parse(token string) (string, error)
	TTL() time.Duration
}

// sessionMiddleware attaches a session id to every request, issuing a cookie on first visit.
// Without a manager requests run sessionless and no selection is persisted.
func sessionMiddleware(sessions SessionManager, cookieName string, logger *slog.Logger) gin.HandlerFunc {
	if sessions == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			if id, err := sessions.Parse(token); err == nil {
				setSessionID(c, id)
				c.Next()
				return
			}
			logger.Info("discarding invalid session cookie", "path", c.Request.URL.Path)
		}

		id, token, err := sessions.Issue()
		if err != nil {
			logger.Error("issue session failed", "error", err)
			c.Next()
			return
		}
		setSessionCookie(c, cookieName, token, sessions.TTL())
		setSessionID(c, id)
		c.Next()
	}
}

func setSessionCookie(c *gin.Context, name, token string, ttl time.Duration) {
	secure := c.Request.TLS != nil
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, token, int(ttl.Seconds()), "/", "", secure, true)
}

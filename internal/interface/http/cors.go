package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// originPolicy decides which Origin value is echoed back to the browser.
type originPolicy struct {
	wildcard bool
	allowed  map[string]struct{}
	fallback string
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{}, len(origins))}
	if len(origins) == 0 {
		p.wildcard = true
		return p
	}
	p.fallback = origins[0]
	for _, o := range origins {
		if o == "*" {
			p.wildcard = true
		}
		p.allowed[strings.ToLower(o)] = struct{}{}
	}
	return p
}

func (p originPolicy) resolve(origin string) string {
	if p.wildcard {
		return "*"
	}
	if _, ok := p.allowed[strings.ToLower(origin)]; ok && origin != "" {
		return origin
	}
	return p.fallback
}

// corsMiddleware lets the configured frontends call the API with the session cookie.
// Credentials are only allowed for named origins; browsers reject them alongside "*".
func corsMiddleware(origins []string) gin.HandlerFunc {
	policy := newOriginPolicy(origins)
	return func(c *gin.Context) {
		headers := c.Writer.Header()
		origin := policy.resolve(c.GetHeader("Origin"))
		headers.Set("Access-Control-Allow-Origin", origin)
		if origin != "*" {
			headers.Set("Access-Control-Allow-Credentials", "true")
			headers.Add("Vary", "Origin")
		}
		headers.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		headers.Set("Access-Control-Allow-Headers", "Content-Type")
		headers.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

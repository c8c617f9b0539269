package links

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Root returns the absolute root URL of the site, always ending in "/".
// publicURL wins when set; otherwise it is derived from the request.
func Root(c *gin.Context, publicURL string) string {
	if publicURL != "" {
		return strings.TrimRight(publicURL, "/") + "/"
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/"
}

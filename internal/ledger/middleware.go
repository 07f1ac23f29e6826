package ledger

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saheer07/portfolio/internal/logging"
)

var untrackedPrefixes = []string{
	"/static/",
	"/images/",
	"/favicon",
	"/nav",
	"/contact",
	"/healthz",
}

// Middleware records successful page views. Requests carrying DNT: 1 and
// fragment or asset requests are not recorded.
func (l *Ledger) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet || c.Writer.Status() >= 400 {
			return
		}
		for _, prefix := range untrackedPrefixes {
			if strings.HasPrefix(path, prefix) {
				return
			}
		}
		if c.GetHeader("DNT") == "1" {
			return
		}

		if err := l.RecordVisit(c.Request.Context(), c.ClientIP(), c.GetHeader("User-Agent"), path); err != nil {
			logging.Warn("Error recording visitor", zap.Error(err))
		}
	}
}

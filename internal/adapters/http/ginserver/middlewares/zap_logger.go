package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger logs one http_request entry per request. 5xx responses log at
// error level and 4xx at warn. Successful requests to a quiet path log at debug.
func ZapLogger(l *zap.Logger, quiet ...string) gin.HandlerFunc {
	quieted := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		quieted[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		uri := c.Request.RequestURI

		c.Next()

		status := c.Writer.Status()
		lvl := zapcore.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			lvl = zapcore.ErrorLevel
		case status >= http.StatusBadRequest:
			lvl = zapcore.WarnLevel
		default:
			if _, ok := quieted[path]; ok {
				lvl = zapcore.DebugLevel
			}
		}

		l.Log(lvl, "http_request",
			zap.String("method", method),
			zap.String("uri", uri),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("status", status),
			zap.Int("size", max(c.Writer.Size(), 0)),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

package middlewares

import "github.com/gin-gonic/gin"

// NoStore marks every response of the group as non-cacheable.
func NoStore(value string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}

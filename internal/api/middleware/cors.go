package middleware

import (
	"Pulseboard/internal/pkg/consts"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware 看板与 API 不同源时放行跨域请求
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+consts.TraceHeader)
			c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type, "+consts.TraceHeader)
		}

		// 预检请求
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"
)

// CORSMiddleware CORS設定用のmiddleware
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// TODO: 本番環境ではフロントエンドのオリジンに限定すること
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Max-Age", "86400") // 24時間

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

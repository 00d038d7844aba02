package middleware

import (
	"net/http"
	"strings"

	"todo-app/src/logger"
	"todo-app/src/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthMiddleware ユーザー認証用のmiddleware。Bearerトークンを検証し、
// 認証済みユーザーのIDをコンテキストに設定する。所有者IDは必ずここで
// 検証済みトークンから導出し、リクエストボディからは受け取らない。
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Authorizationヘッダーを取得
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.WithField("client_ip", c.ClientIP()).Warn("認証失敗: Authorizationヘッダーがありません")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Bearer tokenの形式をチェック
		if !strings.HasPrefix(authHeader, "Bearer ") {
			logger.WithField("client_ip", c.ClientIP()).Warn("認証失敗: Bearer tokenの形式が正しくありません")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
			c.Abort()
			return
		}

		// tokenを抽出
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			logger.WithField("client_ip", c.ClientIP()).Warn("認証失敗: tokenが空です")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is empty"})
			c.Abort()
			return
		}

		// トークン検証とユーザー取得
		user, err := authService.ValidateToken(token)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"client_ip": c.ClientIP(),
				"error":     err.Error(),
			}).Warn("認証失敗: 無効なトークン")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		// リクエストコンテキストにユーザー情報を設定
		c.Set("user", user)
		c.Set("user_id", user.ID)

		c.Next()
	}
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/insure-ai/internal/service"
)

// RequireAuth 要求有效认证的中间件
// 必须提供有效的管理员 JWT token，否则返回 401
func RequireAuth(svc *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Missing Authorization header",
			})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Invalid Authorization header format",
			})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		username, err := svc.Auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			svc.Audit.LogAccessFrom("unknown", "admin_access", c.FullPath(), c.ClientIP(), false)
			c.JSON(401, gin.H{
				"code":    -1,
				"message": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("admin_user", username)
		c.Next()
	}
}

// GetAdminUser 从上下文获取当前管理员用户名
func GetAdminUser(c *gin.Context) (string, bool) {
	user, exists := c.Get("admin_user")
	if !exists {
		return "", false
	}
	name, ok := user.(string)
	return name, ok
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/insure-ai/internal/service/security"
)

const sessionCookieName = "session_token"

// sessionCookieMaxAge 会话 Cookie 有效期（24小时）
const sessionCookieMaxAge = 24 * 60 * 60

// SessionMiddleware 会话中间件
// 请求没有有效会话令牌时生成一个并种 Cookie；令牌同时作为限流和会话的键
// 本次请求新发的令牌会标记为非客户端提供，限流不得以它为键
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookieName)
		presented := err == nil && security.ValidateSessionToken(token) == nil
		if !presented {
			token, err = security.GenerateSessionToken()
			if err != nil {
				c.JSON(500, gin.H{
					"code":    -1,
					"message": "failed to establish session",
				})
				c.Abort()
				return
			}
			c.SetCookie(sessionCookieName, token, sessionCookieMaxAge, "/", "", false, true)
		}

		c.Set("session_token", token)
		c.Set("session_presented", presented)
		c.Next()
	}
}

// GetSessionToken 从上下文获取会话令牌
func GetSessionToken(c *gin.Context) string {
	if token, exists := c.Get("session_token"); exists {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}

// SessionPresented 会话令牌是否由客户端 Cookie 提供而非本次请求新发
func SessionPresented(c *gin.Context) bool {
	if v, exists := c.Get("session_presented"); exists {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitStore 限流计数存储，*redis.Client 满足该接口
type RateLimitStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimitMiddleware 限流中间件
// Redis 固定窗口计数：每个限流主体每小时最多 maxPerHour 次
// Redis 不可用时放行，限流是保护手段而不是功能依赖
func RateLimitMiddleware(store RateLimitStore, maxPerHour int, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || maxPerHour <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:%s:%s", rateLimitSubject(c), time.Now().Format("2006010215"))

		count, err := store.Incr(ctx, key).Result()
		if err != nil {
			log.Warn("rate limit check failed, allowing request", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			store.Expire(ctx, key, time.Hour)
		}

		if count > int64(maxPerHour) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    -1,
				"message": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// rateLimitSubject 限流主体：客户端带来的会话令牌，否则客户端 IP
// 本次请求新发的令牌不能作为键，不然无 Cookie 的客户端每次都拿到新计数器
func rateLimitSubject(c *gin.Context) string {
	if SessionPresented(c) {
		if token := GetSessionToken(c); token != "" {
			return token
		}
	}
	return c.ClientIP()
}

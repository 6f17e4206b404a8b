package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ashwinyue/insure-ai/internal/model"
	"github.com/ashwinyue/insure-ai/internal/service/monitor"
)

// RecoveryMiddleware 恢复中间件
// panic 进错误追踪，严重级别 critical
func RecoveryMiddleware(log *zap.Logger, mon *monitor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic recovered",
					zap.Any("error", err),
					zap.ByteString("stack", debug.Stack()))
				if mon != nil {
					_, _ = mon.LogError(model.SeverityCritical, model.ErrCategorySystem,
						"http", "panic", fmt.Sprint(err), &monitor.ErrorContext{
							IPAddress: c.ClientIP(),
						})
				}
				c.JSON(http.StatusInternalServerError, gin.H{
					"code":    -1,
					"message": "internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

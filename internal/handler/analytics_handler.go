package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/insure-ai/internal/service"
	"github.com/ashwinyue/insure-ai/internal/service/analytics"
)

// AnalyticsHandler 分析处理器
type AnalyticsHandler struct {
	svc *service.Services
}

// NewAnalyticsHandler 创建分析处理器
func NewAnalyticsHandler(svc *service.Services) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// GetInsights 生成并返回统计结果，同时刷新仪表盘图片
func (h *AnalyticsHandler) GetInsights(c *gin.Context) {
	insights, err := h.svc.Analytics.GenerateInsights()
	if err != nil {
		errorResponse(c, err)
		return
	}
	if insights.TotalQueries == 0 {
		c.JSON(http.StatusNotFound, Response{Code: -1, Message: "No data available for analysis"})
		return
	}
	success(c, insights)
}

// GetDashboardImage 返回仪表盘图片
func (h *AnalyticsHandler) GetDashboardImage(c *gin.Context) {
	path := filepath.Join(h.svc.Config.Analytics.StaticDir, analytics.DashboardFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, Response{Code: -1, Message: "dashboard image not generated yet"})
		return
	}
	c.File(path)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/insure-ai/internal/service"
)

// PagesHandler 页面处理器
type PagesHandler struct {
	svc *service.Services
}

// NewPagesHandler 创建页面处理器
func NewPagesHandler(svc *service.Services) *PagesHandler {
	return &PagesHandler{svc: svc}
}

// Index 聊天主页
func (h *PagesHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title": h.svc.Config.App.Name,
	})
}

// AnalyticsDashboard 分析仪表盘页面
func (h *PagesHandler) AnalyticsDashboard(c *gin.Context) {
	c.HTML(http.StatusOK, "analytics.html", gin.H{
		"title": h.svc.Config.App.Name + " Analytics",
	})
}

// Health 健康检查
func (h *PagesHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"name":    h.svc.Config.App.Name,
		"version": h.svc.Config.App.Version,
	})
}

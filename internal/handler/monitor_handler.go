package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/insure-ai/internal/middleware"
	"github.com/ashwinyue/insure-ai/internal/service"
)

// MonitorHandler 监控处理器
type MonitorHandler struct {
	svc *service.Services
}

// NewMonitorHandler 创建监控处理器
func NewMonitorHandler(svc *service.Services) *MonitorHandler {
	return &MonitorHandler{svc: svc}
}

// GetSummary 监控汇总
func (h *MonitorHandler) GetSummary(c *gin.Context) {
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "24"))

	summary, err := h.svc.Monitor.GetSummary(hours)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, summary)
}

// ListAlerts 未确认的告警
func (h *MonitorHandler) ListAlerts(c *gin.Context) {
	alerts, err := h.svc.Monitor.ActiveAlerts()
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, alerts)
}

// AcknowledgeAlert 确认告警
func (h *MonitorHandler) AcknowledgeAlert(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid alert id")
		return
	}

	admin, _ := middleware.GetAdminUser(c)
	if err := h.svc.Monitor.AcknowledgeAlert(uint(id), admin); err != nil {
		errorResponse(c, err)
		return
	}
	success(c, gin.H{"acknowledged": true})
}

// ResolveErrorRequest 标记错误已解决的请求
type ResolveErrorRequest struct {
	Notes string `json:"notes"`
}

// ResolveError 标记错误已解决
func (h *MonitorHandler) ResolveError(c *gin.Context) {
	errorID := c.Param("id")

	var req ResolveErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	admin, _ := middleware.GetAdminUser(c)
	if err := h.svc.Monitor.ResolveError(errorID, req.Notes, admin); err != nil {
		errorResponse(c, err)
		return
	}
	success(c, gin.H{"resolved": true})
}

package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/insure-ai/internal/middleware"
	"github.com/ashwinyue/insure-ai/internal/service"
)

// SecurityHandler 安全管理处理器
type SecurityHandler struct {
	svc *service.Services
}

// NewSecurityHandler 创建安全管理处理器
func NewSecurityHandler(svc *service.Services) *SecurityHandler {
	return &SecurityHandler{svc: svc}
}

// GetStatus 安全状态
func (h *SecurityHandler) GetStatus(c *gin.Context) {
	status, err := h.svc.Security.GetStatus()
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, status)
}

// GetAuditLogs 最近的审计日志
func (h *SecurityHandler) GetAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	logs, err := h.svc.Audit.Recent(limit)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, gin.H{"audit_logs": logs})
}

// RotateKey 强制轮换加密密钥并重加密历史数据
func (h *SecurityHandler) RotateKey(c *gin.Context) {
	admin, _ := middleware.GetAdminUser(c)

	if err := h.svc.Security.RotateKey(); err != nil {
		h.svc.Audit.LogAccess(admin, "key_rotation", "security", false)
		errorResponse(c, err)
		return
	}

	h.svc.Audit.LogAccess(admin, "key_rotation", "security", true)
	status, err := h.svc.Security.GetStatus()
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, status)
}

// PurgeExpired 清理超过保留期的查询日志
func (h *SecurityHandler) PurgeExpired(c *gin.Context) {
	admin, _ := middleware.GetAdminUser(c)

	deleted, err := h.svc.Security.CheckDataRetention()
	if err != nil {
		h.svc.Audit.LogAccess(admin, "data_retention", "security", false)
		errorResponse(c, err)
		return
	}

	h.svc.Audit.LogAccess(admin, "data_retention", "security", true)
	success(c, gin.H{"deleted": deleted})
}

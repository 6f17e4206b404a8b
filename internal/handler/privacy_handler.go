package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/insure-ai/internal/middleware"
	"github.com/ashwinyue/insure-ai/internal/service"
)

// PrivacyHandler 合规处理器
type PrivacyHandler struct {
	svc *service.Services
}

// NewPrivacyHandler 创建合规处理器
func NewPrivacyHandler(svc *service.Services) *PrivacyHandler {
	return &PrivacyHandler{svc: svc}
}

// GetPolicy 隐私政策
func (h *PrivacyHandler) GetPolicy(c *gin.Context) {
	success(c, h.svc.Privacy.GetPolicy())
}

// RequestConsent 同意征询内容
func (h *PrivacyHandler) RequestConsent(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		badRequest(c, "user_id is required")
		return
	}
	consentType := c.DefaultQuery("consent_type", "data_processing")
	sessionToken := middleware.GetSessionToken(c)

	success(c, h.svc.Privacy.RequestConsent(userID, sessionToken, consentType))
}

// RecordConsentRequest 记录同意决定的请求
type RecordConsentRequest struct {
	UserID      string   `json:"user_id" binding:"required"`
	ConsentType string   `json:"consent_type"`
	Given       *bool    `json:"consent_given" binding:"required"`
	Purposes    []string `json:"purposes"`
}

// RecordConsent 记录同意决定
func (h *PrivacyHandler) RecordConsent(c *gin.Context) {
	var req RecordConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.ConsentType == "" {
		req.ConsentType = "data_processing"
	}

	sessionToken := middleware.GetSessionToken(c)
	err := h.svc.Privacy.RecordConsent(req.UserID, sessionToken, req.ConsentType,
		*req.Given, c.ClientIP(), c.Request.UserAgent(), req.Purposes)
	if err != nil {
		errorResponse(c, err)
		return
	}

	if err := h.svc.SessionMgr.SetConsent(c.Request.Context(), sessionToken, *req.Given); err != nil {
		h.svc.Logger.Warn("failed to update session consent state")
	}

	success(c, gin.H{"recorded": true, "consent_given": *req.Given})
}

// CheckConsent 查询同意状态
func (h *PrivacyHandler) CheckConsent(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		badRequest(c, "user_id is required")
		return
	}
	consentType := c.DefaultQuery("consent_type", "data_processing")

	success(c, gin.H{
		"user_id":      userID,
		"consent_type": consentType,
		"has_consent":  h.svc.Privacy.CheckConsent(userID, consentType),
	})
}

// WithdrawConsentRequest 撤回同意的请求
type WithdrawConsentRequest struct {
	UserID      string `json:"user_id" binding:"required"`
	ConsentType string `json:"consent_type"`
	Reason      string `json:"reason"`
}

// WithdrawConsent 撤回同意
func (h *PrivacyHandler) WithdrawConsent(c *gin.Context) {
	var req WithdrawConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.ConsentType == "" {
		req.ConsentType = "data_processing"
	}

	if err := h.svc.Privacy.WithdrawConsent(req.UserID, req.ConsentType, req.Reason); err != nil {
		errorResponse(c, err)
		return
	}
	success(c, gin.H{"withdrawn": true})
}

// ExportData 导出用户数据
func (h *PrivacyHandler) ExportData(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		badRequest(c, "user_id is required")
		return
	}

	export, err := h.svc.Privacy.ExportUserData(userID)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, export)
}

// DeleteDataRequest 删除用户数据的请求
type DeleteDataRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Reason string `json:"reason"`
}

// DeleteData 删除用户数据
func (h *PrivacyHandler) DeleteData(c *gin.Context) {
	var req DeleteDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	report, err := h.svc.Privacy.DeleteUserData(req.UserID, req.Reason)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, report)
}

// AnonymizeData 匿名化用户数据
func (h *PrivacyHandler) AnonymizeData(c *gin.Context) {
	var req DeleteDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	count, err := h.svc.Privacy.AnonymizeUserData(req.UserID)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, gin.H{"anonymized": count})
}

// GetComplianceStatus 合规状态
func (h *PrivacyHandler) GetComplianceStatus(c *gin.Context) {
	status, err := h.svc.Privacy.GetComplianceStatus()
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, status)
}

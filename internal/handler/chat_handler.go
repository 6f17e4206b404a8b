package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ashwinyue/insure-ai/internal/middleware"
	"github.com/ashwinyue/insure-ai/internal/model"
	"github.com/ashwinyue/insure-ai/internal/service"
	"github.com/ashwinyue/insure-ai/internal/service/chatbot"
	"github.com/ashwinyue/insure-ai/internal/service/monitor"
	"github.com/ashwinyue/insure-ai/internal/service/security"
)

// ChatHandler 问答处理器
type ChatHandler struct {
	svc *service.Services
}

// NewChatHandler 创建问答处理器
func NewChatHandler(svc *service.Services) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// ChatRequest 问答请求
type ChatRequest struct {
	Question string `json:"question" binding:"required"`
	UserID   string `json:"user_id"`
}

// ChatResponse 问答响应
type ChatResponse struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Category   string    `json:"category,omitempty"`
	Source     string    `json:"source"`
	Confidence float64   `json:"confidence"`
	SessionID  string    `json:"session_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// Chat 处理一次问答
func (h *ChatHandler) Chat(c *gin.Context) {
	sessionToken := middleware.GetSessionToken(c)

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.svc.Audit.LogAccessFrom("anonymous", "chat_query", "invalid_request", c.ClientIP(), false)
		badRequest(c, "Invalid request format")
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = "anonymous"
	}

	// 输入校验：空输入、超长、SQL 元字符
	if err := h.svc.Security.ValidateInput(req.Question); err != nil {
		h.svc.Audit.LogAccessFrom(userID, "chat_query", "invalid_input", c.ClientIP(), false)
		if errors.Is(err, security.ErrUnsafeInput) {
			_, _ = h.svc.Monitor.LogError(model.SeverityMedium, model.ErrCategorySecurity,
				"chat", "unsafe_input", err.Error(), &monitor.ErrorContext{
					UserID:    userID,
					SessionID: sessionToken,
					IPAddress: c.ClientIP(),
				})
		}
		badRequest(c, err.Error())
		return
	}

	h.svc.Audit.LogAccessFrom(userID, "chat_query", "chat_interface", c.ClientIP(), true)

	start := time.Now()
	result, err := h.svc.Chatbot.Answer(c.Request.Context(), req.Question)
	if err != nil {
		h.svc.Audit.LogAccessFrom(userID, "chat_error", "chat_interface", c.ClientIP(), false)
		_, _ = h.svc.Monitor.LogError(model.SeverityHigh, model.ErrCategorySystem,
			"chat", "answer_failed", err.Error(), &monitor.ErrorContext{
				UserID:    userID,
				SessionID: sessionToken,
				IPAddress: c.ClientIP(),
			})
		errorResponse(c, err)
		return
	}
	_ = h.svc.Monitor.LogMetric("chat", "answer_latency_ms",
		float64(time.Since(start).Milliseconds()), "ms")

	// 加密落库；存储失败不吞掉回答，但要进错误追踪
	meta := chatbot.Meta{
		UserID:    userID,
		SessionID: sessionToken,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if err := h.svc.Chatbot.Record(req.Question, result, meta); err != nil {
		h.svc.Logger.Error("failed to record chat interaction", zap.Error(err))
		_, _ = h.svc.Monitor.LogError(model.SeverityHigh, model.ErrCategoryData,
			"chat", "record_failed", err.Error(), &monitor.ErrorContext{
				UserID:    userID,
				SessionID: sessionToken,
				IPAddress: c.ClientIP(),
			})
	}

	if _, err := h.svc.SessionMgr.Touch(c.Request.Context(), sessionToken); err != nil {
		h.svc.Logger.Warn("failed to update session", zap.Error(err))
	}

	h.svc.Audit.LogAccessFrom(userID, "query_processed", "chat_interface", c.ClientIP(), true)

	success(c, ChatResponse{
		Question:   req.Question,
		Answer:     result.Answer,
		Category:   result.Category,
		Source:     result.Source,
		Confidence: result.Confidence,
		SessionID:  sessionToken,
		Timestamp:  time.Now(),
	})
}

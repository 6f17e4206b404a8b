package handler

import (
	"github.com/ashwinyue/insure-ai/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Chat      *ChatHandler
	FAQ       *FAQHandler
	Analytics *AnalyticsHandler
	Security  *SecurityHandler
	Privacy   *PrivacyHandler
	Monitor   *MonitorHandler
	Auth      *AuthHandler
	Pages     *PagesHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Chat:      NewChatHandler(svc),
		FAQ:       NewFAQHandler(svc),
		Analytics: NewAnalyticsHandler(svc),
		Security:  NewSecurityHandler(svc),
		Privacy:   NewPrivacyHandler(svc),
		Monitor:   NewMonitorHandler(svc),
		Auth:      NewAuthHandler(svc),
		Pages:     NewPagesHandler(svc),
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cloudwego/eino-ext/components/model/openai"
	ecomodel "github.com/cloudwego/eino/components/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ashwinyue/insure-ai/internal/config"
	"github.com/ashwinyue/insure-ai/internal/repository"
	"github.com/ashwinyue/insure-ai/internal/service/analytics"
	"github.com/ashwinyue/insure-ai/internal/service/audit"
	"github.com/ashwinyue/insure-ai/internal/service/auth"
	"github.com/ashwinyue/insure-ai/internal/service/chatbot"
	"github.com/ashwinyue/insure-ai/internal/service/classifier"
	"github.com/ashwinyue/insure-ai/internal/service/dataset"
	"github.com/ashwinyue/insure-ai/internal/service/faq"
	"github.com/ashwinyue/insure-ai/internal/service/monitor"
	"github.com/ashwinyue/insure-ai/internal/service/privacy"
	"github.com/ashwinyue/insure-ai/internal/service/security"
	"github.com/ashwinyue/insure-ai/internal/service/session"
)

// Services 服务集合
type Services struct {
	// 业务服务
	Chatbot   *chatbot.Service
	FAQ       *faq.Service
	Analytics *analytics.Service
	Privacy   *privacy.Service
	Monitor   *monitor.Service
	Auth      *auth.Service

	// 安全与审计
	Security *security.Manager
	Audit    *audit.Logger

	// 基础设施
	Config     *config.Config
	SessionMgr *session.Manager
	Classifier *classifier.Classifier
	ChatModel  ecomodel.ChatModel
	Logger     *zap.Logger

	repo *repository.Repositories
}

// NewServices 创建所有服务
func NewServices(repo *repository.Repositories, cfg *config.Config, redisClient *redis.Client, log *zap.Logger) (*Services, error) {
	ctx := context.Background()

	// 加密密钥：加载磁盘上的密钥，没有时生成并持久化
	keyMgr := security.NewKeyManager(cfg.Security.KeyDir, cfg.Security.KeyRotationDays)
	if _, err := keyMgr.LoadOrCreate(); err != nil {
		return nil, fmt.Errorf("failed to initialize encryption key: %w", err)
	}
	secMgr := security.NewManager(&cfg.Security, keyMgr, repo.QueryLog, log)

	// 审计日志
	auditLog, err := audit.NewLogger(cfg.Security.AuditLogPath, repo.Audit)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit log: %w", err)
	}

	// 分类器可选：模型文件不存在时跳过分类，问答链路仍然可用
	clf, err := classifier.Load(cfg.Classifier.ModelDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("classifier model not found, category prediction disabled",
				zap.String("model_dir", cfg.Classifier.ModelDir))
		} else {
			log.Warn("failed to load classifier", zap.Error(err))
		}
		clf = nil
	}

	// ChatModel 可选：没有 API Key 时问答走兜底回答
	chatModel, err := newChatModel(ctx, cfg)
	if err != nil {
		log.Warn("chat model unavailable, falling back to canned answers", zap.Error(err))
		chatModel = nil
	}

	authSvc, err := auth.NewService(cfg.Security.AdminUser, cfg.Security.AdminPassword, auditLog)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	return &Services{
		Chatbot:   chatbot.NewService(repo, secMgr, clf, chatModel, cfg.AI.ConfidenceThreshold, log),
		FAQ:       faq.NewService(repo),
		Analytics: analytics.NewService(repo.QueryLog, secMgr, clf, cfg.Analytics.StaticDir, cfg.Analytics.RecentQueries, log),
		Privacy:   privacy.NewService(repo.Consent, repo.QueryLog, secMgr, auditLog, cfg.Security.DataRetentionDays, log),
		Monitor:   monitor.NewService(repo.Monitor, log),
		Auth:      authSvc,

		Security: secMgr,
		Audit:    auditLog,

		Config:     cfg,
		SessionMgr: session.NewManager(redisClient, log),
		Classifier: clf,
		ChatModel:  chatModel,
		Logger:     log,

		repo: repo,
	}, nil
}

// SeedDataset 启动时把训练 CSV 导入 FAQ 库，文件不存在时跳过
func (s *Services) SeedDataset(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.Logger.Warn("dataset file not found, skipping FAQ seed", zap.String("path", path))
		return nil
	}

	ds, err := dataset.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	seeder := dataset.NewSeeder(s.repo.FAQ, s.Logger)
	if _, err := seeder.Seed(ds); err != nil {
		return err
	}
	return nil
}

// newChatModel 创建 ChatModel（OpenAI 兼容接口）
func newChatModel(ctx context.Context, cfg *config.Config) (ecomodel.ChatModel, error) {
	aiCfg := cfg.AI

	var apiKey, baseURL, modelName string

	switch aiCfg.Provider {
	case "openai":
		apiKey = aiCfg.OpenAI.APIKey
		baseURL = aiCfg.OpenAI.BaseURL
		modelName = aiCfg.OpenAI.Model
	case "deepseek":
		apiKey = aiCfg.DeepSeek.APIKey
		baseURL = aiCfg.DeepSeek.BaseURL
		modelName = aiCfg.DeepSeek.Model
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", aiCfg.Provider)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("api_key is required for provider: %s", aiCfg.Provider)
	}

	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   modelName,
	})
}

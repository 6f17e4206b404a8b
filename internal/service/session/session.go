// Package session 会话管理：内存缓存 + Redis 直写
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// 会话在 Redis 中的过期时间（24小时）
	sessionTTL = 24 * time.Hour
	// Redis key 前缀
	sessionKeyPrefix = "session:"
)

// Session 一次用户会话
type Session struct {
	Token        string    `json:"token"`
	UserID       string    `json:"user_id"`
	QueryCount   int       `json:"query_count"`
	ConsentGiven bool      `json:"consent_given"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// cacheEntry 内存缓存条目，过期后在写路径顺带清理
type cacheEntry struct {
	sess      *Session
	expiresAt time.Time
}

// Manager 会话管理器
// Redis 不可用时退化为纯内存模式，重启后会话丢失但服务可用
// 内存缓存与 Redis 使用相同的 TTL，过期条目在写入时清理，缓存不会无限增长
type Manager struct {
	mu     sync.RWMutex
	memory map[string]cacheEntry
	redis  *redis.Client
	log    *zap.Logger
	now    func() time.Time
}

// NewManager 创建会话管理器
func NewManager(redisClient *redis.Client, log *zap.Logger) *Manager {
	return &Manager{
		memory: make(map[string]cacheEntry),
		redis:  redisClient,
		log:    log,
		now:    time.Now,
	}
}

// Get 按令牌取会话，内存命中优先，其次 Redis，都没有时新建
func (m *Manager) Get(ctx context.Context, token string) (*Session, error) {
	now := m.now()
	m.mu.RLock()
	e, ok := m.memory[token]
	m.mu.RUnlock()
	if ok && now.Before(e.expiresAt) {
		return e.sess, nil
	}

	if m.redis != nil {
		if sess := m.loadFromRedis(ctx, token); sess != nil {
			m.store(sess)
			return sess, nil
		}
	}

	sess := &Session{
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.store(sess)
	m.save(ctx, sess)
	return sess, nil
}

// store 写入内存缓存，顺带清理已过期的条目
func (m *Manager) store(sess *Session) {
	now := m.now()
	m.mu.Lock()
	for token, e := range m.memory {
		if !now.Before(e.expiresAt) {
			delete(m.memory, token)
		}
	}
	m.memory[sess.Token] = cacheEntry{sess: sess, expiresAt: now.Add(sessionTTL)}
	m.mu.Unlock()
}

// Touch 累加会话查询数并持久化
func (m *Manager) Touch(ctx context.Context, token string) (*Session, error) {
	sess, err := m.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	sess.QueryCount++
	sess.UpdatedAt = m.now()
	m.mu.Unlock()

	m.store(sess)
	m.save(ctx, sess)
	return sess, nil
}

// BindUser 把会话绑定到用户
func (m *Manager) BindUser(ctx context.Context, token, userID string) error {
	sess, err := m.Get(ctx, token)
	if err != nil {
		return err
	}

	m.mu.Lock()
	sess.UserID = userID
	sess.UpdatedAt = m.now()
	m.mu.Unlock()

	m.store(sess)
	m.save(ctx, sess)
	return nil
}

// SetConsent 记录会话内的同意状态
func (m *Manager) SetConsent(ctx context.Context, token string, given bool) error {
	sess, err := m.Get(ctx, token)
	if err != nil {
		return err
	}

	m.mu.Lock()
	sess.ConsentGiven = given
	sess.UpdatedAt = m.now()
	m.mu.Unlock()

	m.store(sess)
	m.save(ctx, sess)
	return nil
}

// Clear 删除会话
func (m *Manager) Clear(ctx context.Context, token string) error {
	m.mu.Lock()
	delete(m.memory, token)
	m.mu.Unlock()

	if m.redis != nil {
		if err := m.redis.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
			m.log.Warn("failed to delete session from redis", zap.Error(err))
		}
	}
	return nil
}

// save Redis 直写，失败只告警不影响主流程
func (m *Manager) save(ctx context.Context, sess *Session) {
	if m.redis == nil {
		return
	}

	m.mu.RLock()
	data, err := json.Marshal(sess)
	m.mu.RUnlock()
	if err != nil {
		m.log.Warn("failed to encode session", zap.Error(err))
		return
	}

	if err := m.redis.Set(ctx, sessionKeyPrefix+sess.Token, data, sessionTTL).Err(); err != nil {
		m.log.Warn("failed to save session to redis", zap.Error(err))
	}
}

// loadFromRedis 从 Redis 加载会话，任何失败都按未命中处理
func (m *Manager) loadFromRedis(ctx context.Context, token string) *Session {
	data, err := m.redis.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return nil
	}
	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil
	}
	return &sess
}

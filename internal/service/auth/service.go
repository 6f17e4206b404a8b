// Package auth 管理端认证：配置内置管理员 + JWT
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ashwinyue/insure-ai/internal/service/audit"
)

var (
	jwtSecretOnce sync.Once
	jwtSecret     string
)

// getJwtSecret 获取 JWT 密钥
func getJwtSecret() string {
	jwtSecretOnce.Do(func() {
		if envSecret := strings.TrimSpace(os.Getenv("JWT_SECRET")); envSecret != "" {
			jwtSecret = envSecret
			return
		}

		randomBytes := make([]byte, 32)
		if _, err := rand.Read(randomBytes); err != nil {
			panic(fmt.Sprintf("failed to generate JWT secret: %v", err))
		}
		jwtSecret = base64.StdEncoding.EncodeToString(randomBytes)
	})

	return jwtSecret
}

// tokenTTL 管理端令牌有效期
const tokenTTL = 24 * time.Hour

var ErrInvalidCredentials = errors.New("invalid username or password")

// Service 认证服务
// 单管理员模式：账号密码来自配置，启动时只保留 bcrypt 哈希
type Service struct {
	adminUser    string
	passwordHash []byte
	audit        *audit.Logger
}

// NewService 创建认证服务
func NewService(adminUser, adminPassword string, auditLog *audit.Logger) (*Service, error) {
	if adminUser == "" || adminPassword == "" {
		return nil, errors.New("admin credentials are not configured")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	return &Service{
		adminUser:    adminUser,
		passwordHash: hash,
		audit:        auditLog,
	}, nil
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Login 管理员登录
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if req.Username != s.adminUser ||
		bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)) != nil {
		s.audit.LogAccess(req.Username, "admin_login", "auth", false)
		return &LoginResponse{
			Success: false,
			Message: "Invalid username or password",
		}, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(tokenTTL)
	claims := jwt.MapClaims{
		"sub":  s.adminUser,
		"role": "admin",
		"exp":  expiresAt.Unix(),
		"iat":  time.Now().Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err := tokenObj.SignedString([]byte(getJwtSecret()))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.audit.LogAccess(s.adminUser, "admin_login", "auth", true)
	return &LoginResponse{
		Success:   true,
		Message:   "Login successful",
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken 验证管理端令牌，返回用户名
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(getJwtSecret()), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub != s.adminUser {
		return "", errors.New("unknown subject in token")
	}
	if role, _ := claims["role"].(string); role != "admin" {
		return "", errors.New("insufficient role")
	}
	return sub, nil
}

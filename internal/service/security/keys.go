package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
)

var ErrNoActiveKey = errors.New("no active encryption key")

const (
	keyFileExt      = ".key"
	pbkdf2Iters     = 100000
	pbkdf2KeyLength = 32
)

// keyRecord 密钥文件内容
type keyRecord struct {
	KeyID     string    `json:"key_id"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Algorithm string    `json:"algorithm"`
}

// KeyManager 管理磁盘上的加密密钥
// 密钥以 JSON 文件形式存放在密钥目录，启动时加载最新的未过期密钥；
// 一个都没有时生成新密钥并落盘，而不是每次启动重新生成
type KeyManager struct {
	dir          string
	rotationDays int

	mu      sync.RWMutex
	current *keyRecord
}

// NewKeyManager 创建密钥管理器
func NewKeyManager(dir string, rotationDays int) *KeyManager {
	if rotationDays <= 0 {
		rotationDays = 90
	}
	return &KeyManager{dir: dir, rotationDays: rotationDays}
}

// LoadOrCreate 加载当前密钥，没有可用密钥时生成并持久化一个新密钥
func (km *KeyManager) LoadOrCreate() (*Cipher, error) {
	km.mu.Lock()
	defer km.mu.Unlock()

	rec, err := km.loadNewest()
	if err == nil {
		km.current = rec
		return NewCipher(rec.Key)
	}
	if !errors.Is(err, ErrNoActiveKey) {
		return nil, err
	}

	rec, cipher, err := km.generateAndStore()
	if err != nil {
		return nil, err
	}
	km.current = rec
	return cipher, nil
}

// Cipher 返回基于当前密钥的加密组件，未加载密钥时返回 nil
func (km *KeyManager) Cipher() *Cipher {
	km.mu.RLock()
	defer km.mu.RUnlock()
	if km.current == nil {
		return nil
	}
	c, err := NewCipher(km.current.Key)
	if err != nil {
		return nil
	}
	return c
}

// loadNewest 按创建时间找最新的未过期密钥
func (km *KeyManager) loadNewest() (*keyRecord, error) {
	entries, err := os.ReadDir(km.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoActiveKey
		}
		return nil, fmt.Errorf("failed to read key dir: %w", err)
	}

	var records []*keyRecord
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), keyFileExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(km.dir, e.Name()))
		if err != nil {
			continue
		}
		var rec keyRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}
	if len(records) == 0 {
		return nil, ErrNoActiveKey
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	newest := records[0]
	if time.Now().After(newest.ExpiresAt) {
		return nil, ErrNoActiveKey
	}
	return newest, nil
}

// generateAndStore 生成新密钥并写入密钥文件（0600 权限）
func (km *KeyManager) generateAndStore() (*keyRecord, *Cipher, error) {
	cipher, err := GenerateCipher()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key: %w", err)
	}

	now := time.Now()
	rec := &keyRecord{
		KeyID:     uuid.New().String(),
		Key:       cipher.KeyString(),
		CreatedAt: now,
		ExpiresAt: now.AddDate(0, 0, km.rotationDays),
		Algorithm: "fernet",
	}

	if err := os.MkdirAll(km.dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create key dir: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	path := filepath.Join(km.dir, rec.KeyID+keyFileExt)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, nil, fmt.Errorf("failed to write key file: %w", err)
	}

	return rec, cipher, nil
}

// Rotate 强制轮换：生成新密钥并替换当前密钥，返回新旧 Cipher
func (km *KeyManager) Rotate() (oldCipher, newCipher *Cipher, err error) {
	km.mu.Lock()
	defer km.mu.Unlock()

	if km.current != nil {
		oldCipher, err = NewCipher(km.current.Key)
		if err != nil {
			return nil, nil, err
		}
	}

	rec, cipher, err := km.generateAndStore()
	if err != nil {
		return nil, nil, err
	}
	km.current = rec
	return oldCipher, cipher, nil
}

// RotationDue 当前密钥是否已到期
func (km *KeyManager) RotationDue() bool {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.current != nil && time.Now().After(km.current.ExpiresAt)
}

// CurrentKeyID 当前密钥ID
func (km *KeyManager) CurrentKeyID() string {
	km.mu.RLock()
	defer km.mu.RUnlock()
	if km.current == nil {
		return ""
	}
	return km.current.KeyID
}

// ExpiresAt 当前密钥到期时间
func (km *KeyManager) ExpiresAt() time.Time {
	km.mu.RLock()
	defer km.mu.RUnlock()
	if km.current == nil {
		return time.Time{}
	}
	return km.current.ExpiresAt
}

// DeriveKey 从口令派生 Fernet 密钥（PBKDF2-SHA256，10 万次迭代）
// salt 为空时生成随机 salt，随密钥一起返回供调用方保存
func DeriveKey(password string, salt []byte) (encodedKey string, usedSalt []byte, err error) {
	if password == "" {
		return "", nil, errors.New("password must not be empty")
	}
	if len(salt) == 0 {
		salt = make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return "", nil, err
		}
	}
	raw := pbkdf2.Key([]byte(password), salt, pbkdf2Iters, pbkdf2KeyLength, sha256.New)
	return base64.URLEncoding.EncodeToString(raw), salt, nil
}

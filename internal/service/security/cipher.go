// Package security 提供静态加密、密钥管理、输入校验等安全能力
package security

import (
	"errors"

	"github.com/fernet/fernet-go"
)

var (
	ErrEncryptFailed = errors.New("encryption failed")
	ErrDecryptFailed = errors.New("decryption failed: invalid token or wrong key")
)

// Cipher Fernet 对称加密封装，按字段加密存储
type Cipher struct {
	key *fernet.Key
}

// NewCipher 从编码后的密钥创建 Cipher
func NewCipher(encodedKey string) (*Cipher, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, err
	}
	return &Cipher{key: key}, nil
}

// GenerateCipher 生成随机密钥的 Cipher
func GenerateCipher() (*Cipher, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return nil, err
	}
	return &Cipher{key: &key}, nil
}

// KeyString 返回编码后的密钥（用于持久化）
func (c *Cipher) KeyString() string {
	return c.key.Encode()
}

// Encrypt 加密明文，返回 Fernet token 字符串
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(plaintext), c.key)
	if err != nil {
		return "", ErrEncryptFailed
	}
	return string(tok), nil
}

// Decrypt 解密 Fernet token
// token 不设 TTL：静态数据的生命周期由保留策略管理
func (c *Cipher) Decrypt(token string) (string, error) {
	msg := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{c.key})
	if msg == nil {
		return "", ErrDecryptFailed
	}
	return string(msg), nil
}

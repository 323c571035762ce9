package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Stored values carry a version prefix so a future scheme change can still
// decrypt rows written under the current one.
const encryptedValuePrefix = "enc:v1:"

var ErrInvalidSecretCipherKey = errors.New("invalid secret cipher key")

// SecretCipher encrypts admin TOTP secrets before they reach the bot-local
// database. AES-256-GCM with a fresh nonce per value; the key comes from
// SECRET_CIPHER_KEY.
type SecretCipher struct {
	aead cipher.AEAD
}

func NewSecretCipher(rawKey string) (*SecretCipher, error) {
	key, err := parseCipherKey(rawKey)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return &SecretCipher{aead: aead}, nil
}

func (c *SecretCipher) Encrypt(plain string) (string, error) {
	if c == nil || c.aead == nil {
		return "", ErrInvalidSecretCipherKey
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plain), nil)
	payload := append(nonce, sealed...)
	return encryptedValuePrefix + base64.StdEncoding.EncodeToString(payload), nil
}

// Decrypt accepts both sealed and bare values: TOTP rows written before
// encryption was enabled come back unchanged.
func (c *SecretCipher) Decrypt(value string) (string, error) {
	if c == nil || c.aead == nil {
		return "", ErrInvalidSecretCipherKey
	}
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, encryptedValuePrefix) {
		return trimmed, nil
	}

	encoded := strings.TrimPrefix(trimmed, encryptedValuePrefix)
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode encrypted secret: %w", err)
	}
	nonceSize := c.aead.NonceSize()
	if len(payload) <= nonceSize {
		return "", fmt.Errorf("invalid encrypted secret payload")
	}
	plain, err := c.aead.Open(nil, payload[:nonceSize], payload[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt secret: %w", err)
	}
	return string(plain), nil
}

// parseCipherKey accepts a 32-byte key written as std or raw base64, hex, or
// the raw bytes themselves.
func parseCipherKey(raw string) ([]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrInvalidSecretCipherKey
	}

	if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil && len(decoded) == 32 {
		return decoded, nil
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(trimmed); err == nil && len(decoded) == 32 {
		return decoded, nil
	}
	if decoded, err := hex.DecodeString(trimmed); err == nil && len(decoded) == 32 {
		return decoded, nil
	}

	if len(trimmed) == 32 {
		return []byte(trimmed), nil
	}
	return nil, ErrInvalidSecretCipherKey
}

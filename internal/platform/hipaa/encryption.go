package hipaa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// FieldEncryptor encrypts single PHI values for storage.
type FieldEncryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// PHIEncryptor is an AES-256-GCM FieldEncryptor. Ciphertexts are base64
// with the nonce prepended.
type PHIEncryptor struct {
	aead cipher.AEAD
}

// NewPHIEncryptor requires a 32-byte key.
func NewPHIEncryptor(key []byte) (*PHIEncryptor, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("phi encryptor: key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("phi encryptor: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("phi encryptor: create GCM: %w", err)
	}
	return &PHIEncryptor{aead: aead}, nil
}

func (e *PHIEncryptor) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("phi encrypt: generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (e *PHIEncryptor) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("phi decrypt: base64 decode: %w", err)
	}
	n := e.aead.NonceSize()
	if len(data) < n {
		return "", fmt.Errorf("phi decrypt: ciphertext too short")
	}
	plain, err := e.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("phi decrypt: %w", err)
	}
	return string(plain), nil
}

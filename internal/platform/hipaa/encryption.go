// Package hipaa holds field-level protection for identifiers that must never
// be stored in the clear.
package hipaa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	infoEncryption = "medpass/phi/aes-256-gcm"
	infoBlindIndex = "medpass/phi/blind-index"
)

// PHIEncryptor encrypts identifier fields with AES-256-GCM and computes blind
// indexes for exact-match lookup. Both keys are derived from one master key
// with HKDF so an index can never be used to decrypt.
type PHIEncryptor struct {
	aead     cipher.AEAD
	indexKey []byte
}

// NewPHIEncryptor creates a PHIEncryptor from a 32-byte master key.
func NewPHIEncryptor(masterKey []byte) (*PHIEncryptor, error) {
	if len(masterKey) != 32 {
		return nil, fmt.Errorf("phi encryptor: key must be 32 bytes, got %d", len(masterKey))
	}

	encKey, err := deriveKey(masterKey, infoEncryption)
	if err != nil {
		return nil, err
	}
	indexKey, err := deriveKey(masterKey, infoBlindIndex)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("phi encryptor: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("phi encryptor: create GCM: %w", err)
	}

	return &PHIEncryptor{aead: aead, indexKey: indexKey}, nil
}

func deriveKey(master []byte, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("phi encryptor: derive %s: %w", info, err)
	}
	return key, nil
}

// Encrypt returns base64(nonce || ciphertext).
func (e *PHIEncryptor) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("phi encrypt: generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (e *PHIEncryptor) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("phi decrypt: base64 decode: %w", err)
	}

	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("phi decrypt: ciphertext too short")
	}
	plaintext, err := e.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("phi decrypt: %w", err)
	}
	return string(plaintext), nil
}

// BlindIndex returns a keyed hash of the normalized value. Equal identifiers
// always produce the same index, regardless of spacing, dashes or case.
func (e *PHIEncryptor) BlindIndex(value string) string {
	mac := hmac.New(sha256.New, e.indexKey)
	mac.Write([]byte(NormalizeIdentifier(value)))
	return hex.EncodeToString(mac.Sum(nil))
}

// NormalizeIdentifier upper-cases value and strips whitespace, dashes and dots.
func NormalizeIdentifier(value string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(value) {
		switch r {
		case ' ', '\t', '\n', '-', '.', '/':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Mask keeps the last four characters of an identifier for display.
func Mask(value string) string {
	v := NormalizeIdentifier(value)
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return strings.Repeat("*", len(v)-4) + v[len(v)-4:]
}

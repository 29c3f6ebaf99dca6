// Package encryption seals short secrets (cookie values, tokens) with
// AES-256-GCM for storage at rest.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// gcmPrefix versions the sealed format.
const gcmPrefix = "gcm1"

var (
	ErrTooShort  = errors.New("ciphertext too short")
	ErrBadFormat = errors.New("ciphertext has unknown format")
)

// randReader is swapped in tests.
var randReader io.Reader = rand.Reader

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptValue seals value as prefix || nonce || ciphertext.
func EncryptValue(value string, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(gcmPrefix)+len(nonce)+len(value)+gcm.Overhead())
	out = append(out, gcmPrefix...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, []byte(value), nil), nil
}

// DecryptValue opens a value sealed by EncryptValue.
func DecryptValue(ciphertext []byte, key []byte) ([]byte, error) {
	if len(ciphertext) < len(gcmPrefix) {
		return nil, ErrTooShort
	}
	if string(ciphertext[:len(gcmPrefix)]) != gcmPrefix {
		return nil, ErrBadFormat
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	rest := ciphertext[len(gcmPrefix):]
	if len(rest) < gcm.NonceSize() {
		return nil, ErrTooShort
	}
	return gcm.Open(nil, rest[:gcm.NonceSize()], rest[gcm.NonceSize():], nil)
}

// Sealer encrypts strings into base64 text suitable for a TEXT column.
type Sealer struct {
	key []byte
}

// NewSealer validates key (16, 24 or 32 bytes).
func NewSealer(key []byte) (*Sealer, error) {
	if _, err := aes.NewCipher(key); err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	return &Sealer{key: append([]byte(nil), key...)}, nil
}

func (s *Sealer) Seal(plain string) (string, error) {
	b, err := EncryptValue(plain, s.key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (s *Sealer) Open(sealed string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	plain, err := DecryptValue(b, s.key)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

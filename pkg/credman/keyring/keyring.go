// Package keyring stores the session-store encryption key in the operating
// system keyring, with a file fallback for headless machines.
package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeySize is the length of generated keys (AES-256).
const KeySize = 32

// Provider can load and generate the encryption key.
type Provider interface {
	GetKey() ([]byte, error)
	SetKey() ([]byte, error)
}

type Keyring struct {
	AppName  string
	KeyField string
}

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
	randRead      = rand.Read
)

func NewKeyring() *Keyring {
	return &Keyring{
		AppName:  "parkdl",
		KeyField: "session-store",
	}
}

func (k *Keyring) SetKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := randRead(key); err != nil {
		return nil, err
	}
	if err := keyringSet(k.AppName, k.KeyField, hex.EncodeToString(key)); err != nil {
		return nil, err
	}
	return key, nil
}

// GetKey returns the hex-decoded key held by the keyring.
func (k *Keyring) GetKey() ([]byte, error) {
	stored, err := keyringGet(k.AppName, k.KeyField)
	if err != nil {
		return nil, err
	}
	return decodeKey(stored)
}

func (k *Keyring) DeleteKey() error {
	return keyringDelete(k.AppName, k.KeyField)
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid key format: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key length: expected %d, got %d", KeySize, len(key))
	}
	return key, nil
}

// LoadOrCreate returns the first key any provider already holds. When none
// has one, it generates a key with the first provider that can store it.
// The returned error joins every failure when nothing works.
func LoadOrCreate(providers ...Provider) ([]byte, error) {
	var errs []error
	for _, p := range providers {
		key, err := p.GetKey()
		if err == nil {
			return key, nil
		}
		errs = append(errs, err)
	}
	for _, p := range providers {
		key, err := p.SetKey()
		if err == nil {
			return key, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("no key provider available: %w", errors.Join(errs...))
}

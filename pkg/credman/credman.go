// Package credman resolves the key that protects stored session
// credentials.
package credman

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/afero"

	"github.com/warpdl/parkdl/pkg/credman/encryption"
	"github.com/warpdl/parkdl/pkg/credman/keyring"
)

var newProviders = func(configDir string) []keyring.Provider {
	return []keyring.Provider{
		keyring.NewKeyring(),
		keyring.NewFileKeyStore(afero.NewOsFs(), configDir),
	}
}

// ResolveKey returns the encryption key. A hex key in envHex (from
// PARKDL_COOKIE_KEY) takes precedence; otherwise the OS keyring is tried,
// then a key file in configDir. A key is generated on first use.
func ResolveKey(envHex, configDir string) ([]byte, error) {
	if envHex != "" {
		key, err := hex.DecodeString(envHex)
		if err != nil {
			return nil, fmt.Errorf("invalid cookie key: %w", err)
		}
		return key, nil
	}
	return keyring.LoadOrCreate(newProviders(configDir)...)
}

// NewSealer resolves the key and wraps it in an encryption.Sealer.
func NewSealer(envHex, configDir string) (*encryption.Sealer, error) {
	key, err := ResolveKey(envHex, configDir)
	if err != nil {
		return nil, err
	}
	return encryption.NewSealer(key)
}

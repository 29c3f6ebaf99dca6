package keyring

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	KeyFileName = "session.key"
	keyFileMode = 0600
)

// ErrNoKeyFile is returned by FileKeyStore.GetKey before a key was written.
var ErrNoKeyFile = errors.New("no key file")

// FileKeyStore keeps the key hex-encoded in <dir>/session.key for machines
// without a usable system keyring (containers, CI, SSH without D-Bus).
type FileKeyStore struct {
	fs  afero.Fs
	dir string
}

func NewFileKeyStore(fsys afero.Fs, dir string) *FileKeyStore {
	return &FileKeyStore{fs: fsys, dir: dir}
}

func (f *FileKeyStore) Path() string {
	return filepath.Join(f.dir, KeyFileName)
}

// SetKey generates a key and replaces the key file in one rename, so a
// crash never leaves a truncated key behind.
func (f *FileKeyStore) SetKey() ([]byte, error) {
	if err := f.fs.MkdirAll(f.dir, 0700); err != nil {
		return nil, fmt.Errorf("key dir: %w", err)
	}
	key := make([]byte, KeySize)
	if _, err := randRead(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	tmp, err := afero.TempFile(f.fs, f.dir, "."+KeyFileName+".*")
	if err != nil {
		return nil, fmt.Errorf("key file: %w", err)
	}
	name := tmp.Name()
	_, err = tmp.WriteString(hex.EncodeToString(key))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = f.fs.Chmod(name, keyFileMode)
	}
	if err == nil {
		err = f.fs.Rename(name, f.Path())
	}
	if err != nil {
		_ = f.fs.Remove(name)
		return nil, fmt.Errorf("write key file: %w", err)
	}
	return key, nil
}

func (f *FileKeyStore) GetKey() ([]byte, error) {
	data, err := afero.ReadFile(f.fs, f.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoKeyFile
	}
	if err != nil {
		return nil, err
	}
	return decodeKey(strings.TrimSpace(string(data)))
}

func (f *FileKeyStore) DeleteKey() error {
	err := f.fs.Remove(f.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LoadOrCreateFile returns the contents of path. When the file does not
// exist, generate is called and its output written with 0600 permissions so
// the next start picks up the same secret.
func LoadOrCreateFile(path string, generate func() ([]byte, error)) ([]byte, error) {
	path = filepath.Clean(path)

	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("cryptox: read %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("cryptox: create dir for %s: %w", path, err)
	}

	data, err = generate()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("cryptox: write %s: %w", path, err)
	}
	return data, nil
}

// LoadPepper loads the password pepper from path, generating a random one on
// first start.
func LoadPepper(path string) (string, error) {
	data, err := LoadOrCreateFile(path, func() ([]byte, error) {
		buf := make([]byte, keyLength)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		return []byte(base64.RawURLEncoding.EncodeToString(buf)), nil
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// filePrefix marks a credential stored in a local file.
const filePrefix = "file:"

// TokenFile stores an access token in a local file.
type TokenFile struct {
	path string
}

// NewTokenFile creates a new TokenFile that reads/writes to the given path.
func NewTokenFile(path string) (*TokenFile, error) {
	if path == "" {
		return nil, fmt.Errorf("token file path is required")
	}
	return &TokenFile{path: path}, nil
}

// Reference returns the credential reference a connection stores for this file.
func (f *TokenFile) Reference() string {
	return filePrefix + f.path
}

// Token returns the access token from the file.
func (f *TokenFile) Token(_ context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("token file not found: %s (run 'booksync connect' to store a token)", f.path)
		}
		return "", fmt.Errorf("reading token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file is empty: %s", f.path)
	}

	return token, nil
}

// SaveToken writes the access token to the file.
func (f *TokenFile) SaveToken(_ context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token cannot be empty")
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	if err := os.WriteFile(f.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}

	return nil
}

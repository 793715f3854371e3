// Package creds provides bearer-credential providers. Every core
// operation takes a Provider explicitly instead of reaching into
// shared session state, so tests can swap in a fixed token and a
// missing credential is a typed result, not a nil surprise.
package creds

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNoToken means the provider has no credential to offer. Callers
// translate it to an auth-required failure.
var ErrNoToken = errors.New("no token available")

type Provider interface {
	// Token returns a bearer token or ErrNoToken.
	Token(ctx context.Context) (string, error)
}

// Static always returns the same token. Test and one-shot use.
type Static string

func (s Static) Token(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// None never has a token.
type None struct{}

func (None) Token(ctx context.Context) (string, error) {
	return "", ErrNoToken
}

type tokenData struct {
	Token string `json:"token"`
}

// FileProvider reads the token from a JSON file on disk
// (~/.shelfsync/token.json by default) and caches it.
type FileProvider struct {
	Path string

	mu     sync.Mutex
	cached string
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

func (f *FileProvider) Token(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached != "" {
		return f.cached, nil
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", ErrNoToken
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", ErrNoToken
	}
	token := strings.TrimSpace(td.Token)
	if token == "" {
		return "", ErrNoToken
	}
	f.cached = token
	return token, nil
}

// Save writes a fresh token to disk and updates the cache.
func (f *FileProvider) Save(token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.Path, data, 0o600); err != nil {
		return err
	}

	f.mu.Lock()
	f.cached = token
	f.mu.Unlock()
	return nil
}

// Clear removes the token file. Missing file is not an error.
func (f *FileProvider) Clear() error {
	f.mu.Lock()
	f.cached = ""
	f.mu.Unlock()

	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

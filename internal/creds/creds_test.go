package creds

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileProviderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	p := NewFileProvider(path)
	ctx := context.Background()

	_, err := p.Token(ctx)
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, p.Save("abc123"))

	token, err := p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	// token file is private to the user
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, p.Clear())
	_, err = p.Token(ctx)
	assert.ErrorIs(t, err, ErrNoToken)

	// clearing twice is fine
	assert.NoError(t, p.Clear())
}

func TestFileProviderRejectsEmptySave(t *testing.T) {
	p := NewFileProvider(filepath.Join(t.TempDir(), "token.json"))
	assert.Error(t, p.Save(""))
}

func TestFileProviderBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	p := NewFileProvider(path)
	_, err := p.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestStaticProvider(t *testing.T) {
	token, err := Static("tok").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	_, err = Static("").Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = (None{}).Token(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

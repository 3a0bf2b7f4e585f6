package qrcode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureGeneratesTokenAndImage(t *testing.T) {
	dir := t.TempDir()
	issuer := NewIssuer(dir)

	token, imagePath, generated, err := issuer.Ensure("abc-123", nil, nil)
	require.NoError(t, err)
	assert.True(t, generated)
	assert.Equal(t, "QR-abc-123", token)
	assert.Equal(t, "uploads/abc-123.png", imagePath)

	info, err := os.Stat(filepath.Join(dir, "abc-123.png"))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestEnsureIsIdempotentWhileArtifactExists(t *testing.T) {
	dir := t.TempDir()
	issuer := NewIssuer(dir)

	token, imagePath, _, err := issuer.Ensure("abc-123", nil, nil)
	require.NoError(t, err)

	token2, imagePath2, generated, err := issuer.Ensure("abc-123", &token, &imagePath)
	require.NoError(t, err)
	assert.False(t, generated)
	assert.Equal(t, token, token2)
	assert.Equal(t, imagePath, imagePath2)
}

func TestEnsureRegeneratesMissingFile(t *testing.T) {
	dir := t.TempDir()
	issuer := NewIssuer(dir)

	token, imagePath, _, err := issuer.Ensure("abc-123", nil, nil)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "abc-123.png")))

	_, _, generated, err := issuer.Ensure("abc-123", &token, &imagePath)
	require.NoError(t, err)
	assert.True(t, generated)
	assert.FileExists(t, filepath.Join(dir, "abc-123.png"))
}

func TestTokenIsDeterministic(t *testing.T) {
	issuer := NewIssuer(t.TempDir())
	assert.Equal(t, issuer.Token("x"), issuer.Token("x"))
	assert.NotEqual(t, issuer.Token("x"), issuer.Token("y"))
}

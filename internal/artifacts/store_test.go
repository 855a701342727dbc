package artifacts

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"fula-deployer/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Load(t *testing.T) {
	dir := t.TempDir()
	wasm := []byte("\x00asm\x01\x00\x00\x00token")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fula_token.wasm"), wasm, 0o600))

	a, err := (&Store{Dir: dir}).Load("fula_token")
	require.NoError(t, err)
	assert.Equal(t, "fula_token", a.Name)
	assert.Equal(t, sha256.Sum256(wasm), [32]byte(a.Hash))
	assert.Len(t, a.HashHex(), 64)
}

func TestStore_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.wasm"), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "text.wasm"), []byte("hello"), 0o600))

	for name, reason := range map[string]string{
		"missing": "artifact not found",
		"empty":   "empty binary",
		"text":    "not a wasm binary",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := (&Store{Dir: dir}).Load(name)
			var cfgErr *config.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, reason, cfgErr.Reason)
		})
	}
}

package artifacts

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"

	"fula-deployer/internal/config"

	"github.com/stellar/go/xdr"
)

var wasmMagic = []byte{0x00, 'a', 's', 'm'}

// Artifact is a compiled contract binary located by conventional name.
type Artifact struct {
	Name string
	Wasm []byte
	Hash xdr.Hash
}

// HashHex returns the hex form of the artifact's SHA-256.
func (a *Artifact) HashHex() string {
	return hex.EncodeToString(a.Hash[:])
}

// Store loads <Dir>/<name>.wasm.
type Store struct {
	Dir string
}

// NewStore creates a Store over the configured artifacts directory.
func NewStore(cfg config.ArtifactsConfig) *Store {
	return &Store{Dir: cfg.Dir}
}

// Load reads the artifact and computes its hash.
func (s *Store) Load(name string) (*Artifact, error) {
	path := filepath.Join(s.Dir, name+".wasm")
	wasm, err := os.ReadFile(path)
	if err != nil {
		reason := "cannot read artifact"
		if errors.Is(err, os.ErrNotExist) {
			reason = "artifact not found"
		}
		return nil, &config.ConfigurationError{Field: "artifacts." + name, Reason: reason, Err: err}
	}
	return FromBytes(name, wasm)
}

// FromBytes wraps an in-memory binary, validating it the same way Load does.
func FromBytes(name string, wasm []byte) (*Artifact, error) {
	if len(wasm) == 0 {
		return nil, &config.ConfigurationError{Field: "artifacts." + name, Reason: "empty binary"}
	}
	if !bytes.HasPrefix(wasm, wasmMagic) {
		return nil, &config.ConfigurationError{Field: "artifacts." + name, Reason: "not a wasm binary"}
	}
	return &Artifact{Name: name, Wasm: wasm, Hash: sha256.Sum256(wasm)}, nil
}

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"fula-deployer/internal/artifacts"
	"fula-deployer/internal/chain"
	"fula-deployer/internal/config"
	"fula-deployer/internal/signer"

	"github.com/stellar/go/xdr"
)

// PublisherService uploads contract code
type PublisherService struct {
	client chain.Client
}

// NewPublisherService creates a new PublisherService instance
func NewPublisherService(client chain.Client) *PublisherService {
	return &PublisherService{client: client}
}

// Publish uploads the binary and waits for inclusion. The returned hash is
// the one the chain reported, checked against the local SHA-256.
// Uploading identical bytes again yields the same hash.
func (s *PublisherService) Publish(ctx context.Context, sg *signer.Signer, artifact *artifacts.Artifact) (xdr.Hash, error) {
	upload, err := s.Upload(ctx, sg, artifact)
	if err != nil {
		return xdr.Hash{}, err
	}
	return upload.CodeHash, nil
}

// Upload is Publish that also reports the upload transaction.
func (s *PublisherService) Upload(ctx context.Context, sg *signer.Signer, artifact *artifacts.Artifact) (*CodeUpload, error) {
	if artifact == nil || len(artifact.Wasm) == 0 {
		name := "<nil>"
		if artifact != nil {
			name = artifact.Name
		}
		return nil, &config.ConfigurationError{Field: "artifacts." + name, Reason: "empty binary"}
	}
	op := "upload " + artifact.Name
	local := xdr.Hash(sha256.Sum256(artifact.Wasm))

	slog.Info("Uploading contract code",
		"artifact", artifact.Name,
		"size_bytes", len(artifact.Wasm),
		"local_hash", hex.EncodeToString(local[:]),
	)

	outcome, err := s.client.SubmitAndWait(ctx, sg, chain.UploadWasm(artifact.Wasm))
	if err != nil {
		return nil, &chain.TransactionError{Op: op, Err: err}
	}
	if !outcome.Included {
		return nil, chain.OutcomeError(op, outcome)
	}

	remote, err := chain.ToHash(outcome.ReturnValue)
	if err != nil {
		return nil, &chain.TransactionError{Op: op, Hash: outcome.Hash, Err: fmt.Errorf("decode code hash: %w", err)}
	}
	if remote != local {
		return nil, &chain.TransactionError{
			Op:   op,
			Hash: outcome.Hash,
			Err:  fmt.Errorf("%w: chain reported %x, local %x", ErrHashMismatch, remote[:], local[:]),
		}
	}

	slog.Info("Contract code uploaded", "artifact", artifact.Name, "code_hash", hex.EncodeToString(remote[:]), "tx_hash", outcome.Hash)
	return &CodeUpload{CodeHash: remote, TxHash: outcome.Hash}, nil
}

// Name returns the service name
func (s *PublisherService) Name() string {
	return "PublisherService"
}

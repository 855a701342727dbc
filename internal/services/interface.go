package services

import (
	"context"
	"errors"
	"math/big"

	"fula-deployer/internal/artifacts"
	"fula-deployer/internal/signer"

	"github.com/stellar/go/xdr"
)

// ErrHashMismatch is wrapped in the TransactionError of an upload whose
// chain-reported code hash differs from the local SHA-256 of the binary.
var ErrHashMismatch = errors.New("code hash mismatch")

// Service defines what every pipeline step exposes
type Service interface {
	// Name returns the service name for logging
	Name() string
}

// Publisher uploads a contract binary and returns its code hash
type Publisher interface {
	Service
	Publish(ctx context.Context, s *signer.Signer, artifact *artifacts.Artifact) (xdr.Hash, error)
}

// Deployer instantiates the proxy bound to an implementation code hash
type Deployer interface {
	Service
	Deploy(ctx context.Context, s *signer.Signer, proxy *artifacts.Artifact, implHash xdr.Hash) (*ProxyDeployment, error)
}

// Initializer runs the one-time setup of a deployed token
type Initializer interface {
	Service
	Initialize(ctx context.Context, s *signer.Signer, address string, supply *big.Int) error
}

// CodeUpload is the output of a code upload
type CodeUpload struct {
	CodeHash xdr.Hash
	TxHash   string
}

// ProxyDeployment is the output of the proxy step
type ProxyDeployment struct {
	Address       string
	ProxyCodeHash xdr.Hash
	TxHash        string
}

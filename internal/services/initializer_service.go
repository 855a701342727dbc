package services

import (
	"context"
	"log/slog"
	"math/big"

	"fula-deployer/internal/chain"
	"fula-deployer/internal/config"
	"fula-deployer/internal/contracts/fulatoken"
	"fula-deployer/internal/signer"
)

// InitializerService runs the token's one-time setup through the proxy
type InitializerService struct {
	client chain.Client
}

// NewInitializerService creates a new InitializerService instance
func NewInitializerService(client chain.Client) *InitializerService {
	return &InitializerService{client: client}
}

// Initialize mints supply to the signer. A token that was already
// initialized rejects the call and the rejection is returned as a
// *chain.TransactionError.
func (s *InitializerService) Initialize(ctx context.Context, sg *signer.Signer, address string, supply *big.Int) error {
	_, err := s.InitializeTx(ctx, sg, address, supply)
	return err
}

// InitializeTx is Initialize that also returns the transaction hash.
func (s *InitializerService) InitializeTx(ctx context.Context, sg *signer.Signer, address string, supply *big.Int) (string, error) {
	if supply == nil || supply.Sign() < 0 {
		return "", &config.ConfigurationError{Field: "token.initialSupply", Reason: "must not be negative"}
	}

	token, err := fulatoken.New(s.client, address, sg.Address)
	if err != nil {
		return "", err
	}

	outcome, err := token.Initialize(ctx, sg, supply)
	if err != nil {
		return "", &chain.TransactionError{Op: "initialize", Err: err}
	}
	if !outcome.Included {
		return "", chain.OutcomeError("initialize", outcome)
	}

	slog.Info("Token initialized", "address", address, "owner", sg.Address, "supply", supply.String(), "tx_hash", outcome.Hash)
	return outcome.Hash, nil
}

// Name returns the service name
func (s *InitializerService) Name() string {
	return "InitializerService"
}

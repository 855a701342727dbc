package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"

	"fula-deployer/internal/artifacts"
	"fula-deployer/internal/chain"
	"fula-deployer/internal/contracts/fulaproxy"
	"fula-deployer/internal/signer"

	"github.com/stellar/go/xdr"
)

// ProxyService instantiates the upgradeable proxy
type ProxyService struct {
	client    chain.Client
	publisher *PublisherService
	salt      func() ([32]byte, error)
}

// NewProxyService creates a new ProxyService instance
func NewProxyService(client chain.Client, publisher *PublisherService) *ProxyService {
	return &ProxyService{client: client, publisher: publisher, salt: randomSalt}
}

// Deploy installs the proxy code and creates a proxy instance whose
// constructor receives implHash. Every call uses a fresh salt, so every
// deployment gets a new address.
func (s *ProxyService) Deploy(ctx context.Context, sg *signer.Signer, proxy *artifacts.Artifact, implHash xdr.Hash) (*ProxyDeployment, error) {
	proxyHash, err := s.publisher.Publish(ctx, sg, proxy)
	if err != nil {
		return nil, err
	}

	deployer, err := chain.ScAddress(sg.Address)
	if err != nil {
		return nil, err
	}
	salt, err := s.salt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	slog.Info("Creating proxy contract", "proxy_code_hash", fmt.Sprintf("%x", proxyHash[:]), "implementation", fmt.Sprintf("%x", implHash[:]))

	fn := chain.CreateContract(deployer, salt, proxyHash, fulaproxy.ConstructorArgs(implHash)...)
	outcome, err := s.client.SubmitAndWait(ctx, sg, fn)
	if err != nil {
		return nil, &chain.TransactionError{Op: "create proxy", Err: err}
	}
	if !outcome.Included {
		return nil, chain.OutcomeError("create proxy", outcome)
	}

	address, err := chain.ToAddress(outcome.ReturnValue)
	if err != nil {
		return nil, &chain.TransactionError{Op: "create proxy", Hash: outcome.Hash, Err: fmt.Errorf("decode proxy address: %w", err)}
	}

	slog.Info("Proxy contract created", "address", address, "tx_hash", outcome.Hash)
	return &ProxyDeployment{Address: address, ProxyCodeHash: proxyHash, TxHash: outcome.Hash}, nil
}

// Name returns the service name
func (s *ProxyService) Name() string {
	return "ProxyService"
}

func randomSalt() ([32]byte, error) {
	var salt [32]byte
	_, err := rand.Read(salt[:])
	return salt, err
}

package signer

import (
	"fmt"
	"log/slog"
	"strings"

	"fula-deployer/internal/config"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
)

// Resolver turns the account pool of the active network into signers.
type Resolver struct {
	network config.Network
}

// NewResolver creates a Resolver for the given network profile.
func NewResolver(network config.Network) *Resolver {
	return &Resolver{network: network}
}

// Resolve returns the first configured account of the network.
func (r *Resolver) Resolve() (*Signer, error) {
	if len(r.network.Accounts) == 0 {
		return nil, &config.ConfigurationError{
			Field:  "networks." + r.network.Name + ".accounts",
			Reason: "no account configured for network",
		}
	}
	s, err := r.parse(0, r.network.Accounts[0])
	if err != nil {
		return nil, err
	}
	slog.Debug("Signer resolved", "network", r.network.Name, "address", s.Address)
	return s, nil
}

// ResolveAll returns every configured account, in configuration order.
func (r *Resolver) ResolveAll() ([]*Signer, error) {
	if len(r.network.Accounts) == 0 {
		return nil, &config.ConfigurationError{
			Field:  "networks." + r.network.Name + ".accounts",
			Reason: "no account configured for network",
		}
	}
	signers := make([]*Signer, 0, len(r.network.Accounts))
	for i, raw := range r.network.Accounts {
		s, err := r.parse(i, raw)
		if err != nil {
			return nil, err
		}
		signers = append(signers, s)
	}
	return signers, nil
}

func (r *Resolver) parse(index int, raw string) (*Signer, error) {
	raw = strings.TrimSpace(raw)

	var (
		kp  *keypair.Full
		err error
	)
	switch {
	case strings.HasPrefix(raw, rootAccount):
		kp, err = fromDevAccount(raw, r.network.Passphrase)
	case strkey.IsValidEd25519SecretSeed(raw):
		kp, err = keypair.ParseFull(raw)
	case len(strings.Fields(raw)) >= 12:
		kp, err = fromMnemonic(raw, 0)
	default:
		err = fmt.Errorf("unrecognised account format")
	}
	if err != nil {
		// never echo the credential itself
		return nil, &config.ConfigurationError{
			Field:  fmt.Sprintf("networks.%s.accounts[%d]", r.network.Name, index),
			Reason: "invalid account",
			Err:    err,
		}
	}
	return New(kp), nil
}

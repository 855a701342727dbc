// Package verify deploys fresh FULA tokens and checks their on-chain
// behaviour: query results, state changes, emitted events and rejections.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fula-deployer/internal/chain"
	"fula-deployer/internal/config"
	"fula-deployer/internal/contracts/fulatoken"
	"fula-deployer/internal/orchestrator"
	"fula-deployer/internal/signer"

	"github.com/stellar/go/xdr"
)

// Harness runs scenarios against one chain connection. Every scenario
// gets its own deployment.
type Harness struct {
	cfg    *config.Config
	client *serialClient
}

// NewHarness uses client for every scenario. The caller keeps ownership
// of client and closes it.
func NewHarness(cfg *config.Config, client chain.Client) *Harness {
	return &Harness{
		cfg:    cfg,
		client: newSerialClient(client),
	}
}

// NewScenario deploys a fresh token through the full pipeline and binds
// it to the deployer as owner.
func (h *Harness) NewScenario(ctx context.Context, name string) (*Scenario, error) {
	network, err := h.cfg.ActiveNetwork()
	if err != nil {
		return nil, err
	}
	pool, err := signer.NewResolver(network).ResolveAll()
	if err != nil {
		return nil, err
	}
	owner := pool[0]

	o := orchestrator.New(h.cfg, h.dialer())
	result, err := o.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("deploy for scenario %q: %w", name, err)
	}

	token, err := fulatoken.New(h.client, result.ProxyAddress, owner.Address)
	if err != nil {
		return nil, err
	}

	slog.Debug("Scenario ready", "scenario", name, "token", result.ProxyAddress)
	return &Scenario{
		Name:    name,
		Token:   token,
		Owner:   owner,
		Result:  result,
		network: network.Name,
		actors:  pool[1:],
		client:  h.client,
	}, nil
}

// checkActors fails when the account pool has fewer than n accounts
// besides the deployer, before anything is deployed.
func (h *Harness) checkActors(n int) error {
	if n <= 0 {
		return nil
	}
	network, err := h.cfg.ActiveNetwork()
	if err != nil {
		return err
	}
	pool, err := signer.NewResolver(network).ResolveAll()
	if err != nil {
		return err
	}
	if have := len(pool) - 1; have < n {
		return tooFewAccounts(network.Name, n, have)
	}
	return nil
}

// dialer hands the orchestrator the shared client. Its Close is a no-op
// so one run does not end the connection of the others.
func (h *Harness) dialer() chain.Dialer {
	return func(ctx context.Context) (chain.Client, error) {
		return borrowed{h.client}, nil
	}
}

type borrowed struct {
	chain.Client
}

func (borrowed) Close() error { return nil }

// serialClient keeps the submissions of one source account in order. Two
// in-flight transactions from the same account would race for its
// sequence number.
type serialClient struct {
	chain.Client

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSerialClient(c chain.Client) *serialClient {
	return &serialClient{Client: c, locks: map[string]*sync.Mutex{}}
}

func (c *serialClient) SubmitAndWait(ctx context.Context, s *signer.Signer, fn xdr.HostFunction) (*chain.TransactionOutcome, error) {
	lock := c.lockFor(s.Address)
	lock.Lock()
	defer lock.Unlock()
	return c.Client.SubmitAndWait(ctx, s, fn)
}

func (c *serialClient) lockFor(address string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[address]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[address] = lock
	}
	return lock
}

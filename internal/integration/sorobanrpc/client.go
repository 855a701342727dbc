package sorobanrpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fula-deployer/internal/chain"
	"fula-deployer/internal/debug"
	"fula-deployer/internal/metrics"
	"fula-deployer/internal/poll"
	"fula-deployer/internal/signer"

	protocol "github.com/stellar/go/protocols/rpc"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
	"golang.org/x/time/rate"
)

// rpcAPI is the subset of rpcclient.Client the adapter uses
type rpcAPI interface {
	GetHealth(ctx context.Context) (protocol.GetHealthResponse, error)
	GetLedgerEntries(ctx context.Context, request protocol.GetLedgerEntriesRequest) (protocol.GetLedgerEntriesResponse, error)
	SimulateTransaction(ctx context.Context, request protocol.SimulateTransactionRequest) (protocol.SimulateTransactionResponse, error)
	SendTransaction(ctx context.Context, request protocol.SendTransactionRequest) (protocol.SendTransactionResponse, error)
	GetTransaction(ctx context.Context, request protocol.GetTransactionRequest) (protocol.GetTransactionResponse, error)
	Close() error
}

// Client implements chain.Client over Soroban RPC. Submissions are never
// retried; only the wait for inclusion polls.
type Client struct {
	cfg     ClientConfig
	rpc     rpcAPI
	limiter *rate.Limiter
	poller  poll.Strategy
}

var _ chain.Client = (*Client)(nil)

func newClient(cfg ClientConfig, rpc rpcAPI) *Client {
	c := &Client{
		cfg: cfg,
		rpc: rpc,
		poller: poll.NewStrategy(poll.Config{
			Enabled:         true,
			InitialInterval: cfg.TimeoutConfig.PollInterval,
			MaxInterval:     cfg.TimeoutConfig.PollMaxInterval,
		}),
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c
}

// simulation is the part of a simulateTransaction response needed to
// assemble the final transaction
type simulation struct {
	data           xdr.SorobanTransactionData
	auth           []xdr.SorobanAuthorizationEntry
	minResourceFee int64
	returnValue    xdr.ScVal
}

// SubmitAndWait builds, simulates, signs and submits fn, then waits for a
// terminal status.
func (c *Client) SubmitAndWait(ctx context.Context, s *signer.Signer, fn xdr.HostFunction) (*chain.TransactionOutcome, error) {
	op := chain.OpName(fn)

	seq, err := c.loadSequence(ctx, s.Address)
	if err != nil {
		return nil, err
	}

	draft, err := c.buildTx(s.Address, seq, fn, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s transaction: %w", op, err)
	}
	sim, revert, err := c.simulate(ctx, draft)
	if err != nil {
		return nil, err
	}
	if revert != nil {
		c.recordSubmission(op, "simulation_failed")
		slog.Warn("Transaction rejected in simulation", "op", op, "reason", revert.String())
		return &chain.TransactionOutcome{Revert: revert}, nil
	}

	metrics.ResourceFee.Observe(float64(sim.minResourceFee))
	if sim.minResourceFee > c.cfg.GasLimit {
		c.recordSubmission(op, "gas_limit_exceeded")
		return &chain.TransactionOutcome{Revert: &chain.RevertReason{
			Kind:    "Budget",
			Message: fmt.Sprintf("resource fee %d exceeds gas limit %d", sim.minResourceFee, c.cfg.GasLimit),
		}}, nil
	}

	tx, err := c.buildTx(s.Address, seq, fn, sim)
	if err != nil {
		return nil, fmt.Errorf("assemble %s transaction: %w", op, err)
	}
	tx, err = tx.Sign(c.cfg.NetworkPassphrase, s.Credential)
	if err != nil {
		return nil, fmt.Errorf("sign %s transaction: %w", op, err)
	}
	hash, err := tx.HashHex(c.cfg.NetworkPassphrase)
	if err != nil {
		return nil, err
	}
	envelope, err := tx.Base64()
	if err != nil {
		return nil, err
	}

	var sent protocol.SendTransactionResponse
	err = c.call(ctx, "sendTransaction", func() error {
		var err error
		sent, err = c.rpc.SendTransaction(ctx, protocol.SendTransactionRequest{Transaction: envelope})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("send %s transaction %s: %w", op, hash, err)
	}

	slog.Info("Transaction submitted", "op", op, "tx_hash", hash, "status", sent.Status)

	switch sent.Status {
	case sendStatusPending, sendStatusDuplicate:
	case sendStatusError:
		c.recordSubmission(op, "rejected")
		return &chain.TransactionOutcome{Hash: hash, Revert: revertFromSend(sent)}, nil
	case sendStatusTryAgainLater:
		c.recordSubmission(op, "rejected")
		return &chain.TransactionOutcome{Hash: hash, Revert: &chain.RevertReason{Message: sent.Status}}, nil
	default:
		return nil, fmt.Errorf("send %s transaction %s: unexpected status %q", op, hash, sent.Status)
	}

	result, err := c.waitForInclusion(ctx, hash)
	if err != nil {
		c.recordSubmission(op, "timeout")
		return nil, err
	}

	outcome, err := outcomeFromTransaction(hash, result)
	if err != nil {
		return nil, err
	}
	if outcome.Included {
		c.recordSubmission(op, "included")
		slog.Info("Transaction included", "op", op, "tx_hash", hash, "ledger", outcome.Ledger, "events", len(outcome.Events))
	} else {
		c.recordSubmission(op, "failed")
		slog.Warn("Transaction failed", "op", op, "tx_hash", hash, "reason", outcome.Revert.String())
	}
	debug.PrintOutcome(op, outcome)
	return outcome, nil
}

// Query simulates fn and returns its return value. A simulation error is a
// chain rejection and comes back as *chain.TransactionError.
func (c *Client) Query(ctx context.Context, source string, fn xdr.HostFunction) (xdr.ScVal, error) {
	tx, err := c.buildTx(source, 0, fn, nil)
	if err != nil {
		return xdr.ScVal{}, fmt.Errorf("build query: %w", err)
	}
	sim, revert, err := c.simulate(ctx, tx)
	if err != nil {
		return xdr.ScVal{}, err
	}
	if revert != nil {
		return xdr.ScVal{}, &chain.TransactionError{Op: "query " + chain.OpName(fn), Reason: revert}
	}
	return sim.returnValue, nil
}

// Health reports the latest ledger known to the endpoint.
func (c *Client) Health(ctx context.Context) (uint32, error) {
	var resp protocol.GetHealthResponse
	err := c.call(ctx, "getHealth", func() error {
		var err error
		resp, err = c.rpc.GetHealth(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	if resp.Status != "healthy" {
		return resp.LatestLedger, fmt.Errorf("rpc endpoint is %s", resp.Status)
	}
	return resp.LatestLedger, nil
}

// Close releases the RPC client
func (c *Client) Close() error {
	return c.rpc.Close()
}

func (c *Client) loadSequence(ctx context.Context, address string) (int64, error) {
	var aid xdr.AccountId
	if err := aid.SetAddress(address); err != nil {
		return 0, err
	}
	key, err := xdr.MarshalBase64(xdr.LedgerKey{
		Type:    xdr.LedgerEntryTypeAccount,
		Account: &xdr.LedgerKeyAccount{AccountId: aid},
	})
	if err != nil {
		return 0, err
	}

	var resp protocol.GetLedgerEntriesResponse
	err = c.call(ctx, "getLedgerEntries", func() error {
		var err error
		resp, err = c.rpc.GetLedgerEntries(ctx, protocol.GetLedgerEntriesRequest{Keys: []string{key}})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("load account %s: %w", address, err)
	}
	if len(resp.Entries) == 0 {
		return 0, fmt.Errorf("load account %s: account not found", address)
	}

	var data xdr.LedgerEntryData
	if err := xdr.SafeUnmarshalBase64(resp.Entries[0].DataXDR, &data); err != nil {
		return 0, fmt.Errorf("decode account %s: %w", address, err)
	}
	account, ok := data.GetAccount()
	if !ok {
		return 0, fmt.Errorf("decode account %s: unexpected entry type %s", address, data.Type)
	}
	return int64(account.SeqNum), nil
}

func (c *Client) buildTx(source string, seq int64, fn xdr.HostFunction, sim *simulation) (*txnbuild.Transaction, error) {
	op := &txnbuild.InvokeHostFunction{
		HostFunction:  fn,
		SourceAccount: source,
	}
	fee := int64(txnbuild.MinBaseFee)
	if sim != nil {
		data := sim.data
		op.Auth = sim.auth
		op.Ext = xdr.TransactionExt{V: 1, SorobanData: &data}
		fee += sim.minResourceFee
	}

	timeout := int64(300)
	if t := int64(c.cfg.TimeoutConfig.InclusionTimeout / time.Second); t+60 > timeout {
		timeout = t + 60
	}

	return txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &txnbuild.SimpleAccount{AccountID: source, Sequence: seq},
		IncrementSequenceNum: true,
		Operations:           []txnbuild.Operation{op},
		BaseFee:              fee,
		Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(timeout)},
	})
}

func (c *Client) simulate(ctx context.Context, tx *txnbuild.Transaction) (*simulation, *chain.RevertReason, error) {
	envelope, err := tx.Base64()
	if err != nil {
		return nil, nil, err
	}

	var resp protocol.SimulateTransactionResponse
	err = c.call(ctx, "simulateTransaction", func() error {
		var err error
		resp, err = c.rpc.SimulateTransaction(ctx, protocol.SimulateTransactionRequest{Transaction: envelope})
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("simulate transaction: %w", err)
	}
	if resp.Error != "" {
		return nil, chain.ParseHostError(resp.Error), nil
	}
	return decodeSimulation(resp)
}

func decodeSimulation(resp protocol.SimulateTransactionResponse) (*simulation, *chain.RevertReason, error) {
	sim := &simulation{minResourceFee: resp.MinResourceFee, returnValue: chain.Void()}
	if err := xdr.SafeUnmarshalBase64(resp.TransactionDataXDR, &sim.data); err != nil {
		return nil, nil, fmt.Errorf("decode soroban data: %w", err)
	}
	if len(resp.Results) == 0 {
		return sim, nil, nil
	}

	result := resp.Results[0]
	if result.AuthXDR != nil {
		for _, raw := range *result.AuthXDR {
			var entry xdr.SorobanAuthorizationEntry
			if err := xdr.SafeUnmarshalBase64(raw, &entry); err != nil {
				return nil, nil, fmt.Errorf("decode auth entry: %w", err)
			}
			sim.auth = append(sim.auth, entry)
		}
	}
	if result.ReturnValueXDR != nil {
		if err := xdr.SafeUnmarshalBase64(*result.ReturnValueXDR, &sim.returnValue); err != nil {
			return nil, nil, fmt.Errorf("decode return value: %w", err)
		}
	}
	return sim, nil, nil
}

func (c *Client) waitForInclusion(ctx context.Context, hash string) (protocol.GetTransactionResponse, error) {
	timeout := c.cfg.TimeoutConfig.InclusionTimeout
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var result protocol.GetTransactionResponse
	err := c.poller.Execute(waitCtx, func() error {
		var resp protocol.GetTransactionResponse
		err := c.call(waitCtx, "getTransaction", func() error {
			var err error
			resp, err = c.rpc.GetTransaction(waitCtx, protocol.GetTransactionRequest{Hash: hash})
			return err
		})
		if err != nil {
			return err
		}
		if resp.Status == txStatusNotFound {
			return poll.ErrPending
		}
		result = resp
		return nil
	})
	metrics.InclusionWait.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return result, fmt.Errorf("%w: tx %s after %s", chain.ErrInclusionTimeout, hash, timeout)
		}
		return result, fmt.Errorf("wait for tx %s: %w", hash, err)
	}
	return result, nil
}

func (c *Client) call(ctx context.Context, method string, fn func() error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	metrics.RPCRequests.WithLabelValues(method).Inc()
	if err := fn(); err != nil {
		metrics.RPCErrors.WithLabelValues(method).Inc()
		return err
	}
	return nil
}

func (c *Client) recordSubmission(op, outcome string) {
	metrics.TransactionsSubmitted.WithLabelValues(op, outcome).Inc()
}

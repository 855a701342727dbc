// Package fakechain is an in-memory Soroban ledger implementing chain.Client.
// It installs code, creates contracts and runs the FULA token and proxy
// logic so the deployment pipeline and the verification harness can be
// exercised without a node.
package fakechain

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"fula-deployer/internal/chain"
	"fula-deployer/internal/contracts/fulaproxy"
	"fula-deployer/internal/signer"

	"github.com/stellar/go/xdr"
)

// Binaries the fake recognises as the token and the proxy
var (
	TokenWasm = []byte("\x00asm\x01\x00\x00\x00fula_token")
	ProxyWasm = []byte("\x00asm\x01\x00\x00\x00fula_proxy")
)

type codeKind int

const (
	kindOther codeKind = iota
	kindToken
	kindProxy
)

// Call is one submitted transaction as seen by the fake.
type Call struct {
	Op       string
	Signer   string
	Included bool
}

type contract struct {
	address string
	kind    codeKind
	impl    xdr.Hash
	token   *tokenState
}

// Chain is safe for concurrent use.
type Chain struct {
	mu        sync.Mutex
	codes     map[xdr.Hash]codeKind
	contracts map[string]*contract
	ledger    uint32
	txCount   int
	calls     []Call
	closes    int

	failures        map[string][]chain.RevertReason
	transportErrors map[string]error
	stalls          map[string]bool
	wrongUploadHash bool
}

var _ chain.Client = (*Chain)(nil)

// New creates an empty ledger.
func New() *Chain {
	return &Chain{
		codes:           map[xdr.Hash]codeKind{},
		contracts:       map[string]*contract{},
		ledger:          1,
		failures:        map[string][]chain.RevertReason{},
		transportErrors: map[string]error{},
		stalls:          map[string]bool{},
	}
}

// Dialer returns a chain.Dialer handing out this ledger.
func (c *Chain) Dialer() chain.Dialer {
	return func(ctx context.Context) (chain.Client, error) {
		return c, nil
	}
}

// FailNext makes the next submission of op come back not included with reason.
func (c *Chain) FailNext(op string, reason chain.RevertReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[op] = append(c.failures[op], reason)
}

// ErrorNext makes the next submission of op fail with a transport error.
func (c *Chain) ErrorNext(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transportErrors[op] = err
}

// StallNext makes the next submission of op never reach inclusion.
func (c *Chain) StallNext(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stalls[op] = true
}

// ReportWrongUploadHash makes uploads return a hash that differs from the
// SHA-256 of the binary.
func (c *Chain) ReportWrongUploadHash() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wrongUploadHash = true
}

// Calls returns every submission in order.
func (c *Chain) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Ops returns the op names of every submission in order.
func (c *Chain) Ops() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := make([]string, len(c.calls))
	for i, call := range c.calls {
		ops[i] = call.Op
	}
	return ops
}

// Closes returns how many times Close was called.
func (c *Chain) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// Installed reports whether code with hash was uploaded.
func (c *Chain) Installed(hash xdr.Hash) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.codes[hash]
	return ok
}

// ContractCount returns the number of created contracts.
func (c *Chain) ContractCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.contracts)
}

// SubmitAndWait applies fn atomically: a revert leaves the ledger unchanged.
func (c *Chain) SubmitAndWait(ctx context.Context, s *signer.Signer, fn xdr.HostFunction) (*chain.TransactionOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	op := chain.OpName(fn)

	c.mu.Lock()
	stall := c.stalls[op]
	delete(c.stalls, op)
	c.mu.Unlock()
	if stall {
		c.record(op, s.Address, false)
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %w", chain.ErrInclusionTimeout, ctx.Err())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.txCount++
	hash := txHash(c.txCount)

	if err, ok := c.transportErrors[op]; ok {
		delete(c.transportErrors, op)
		c.calls = append(c.calls, Call{Op: op, Signer: s.Address})
		return nil, err
	}
	if queued := c.failures[op]; len(queued) > 0 {
		c.failures[op] = queued[1:]
		c.calls = append(c.calls, Call{Op: op, Signer: s.Address})
		reason := queued[0]
		return &chain.TransactionOutcome{Hash: hash, Revert: &reason}, nil
	}

	c.ledger++
	ret, events, revert := c.apply(s.Address, fn, true)
	if revert != nil {
		c.calls = append(c.calls, Call{Op: op, Signer: s.Address})
		return &chain.TransactionOutcome{Hash: hash, Ledger: c.ledger, Revert: revert}, nil
	}

	c.calls = append(c.calls, Call{Op: op, Signer: s.Address, Included: true})
	return &chain.TransactionOutcome{
		Included:    true,
		Hash:        hash,
		Ledger:      c.ledger,
		ReturnValue: ret,
		Events:      events,
	}, nil
}

// Query runs fn against a copy of the ledger state.
func (c *Chain) Query(ctx context.Context, source string, fn xdr.HostFunction) (xdr.ScVal, error) {
	if err := ctx.Err(); err != nil {
		return xdr.ScVal{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if fn.Type != xdr.HostFunctionTypeHostFunctionTypeInvokeContract {
		return xdr.ScVal{}, fmt.Errorf("query of %s is not supported", fn.Type)
	}
	ret, _, revert := c.apply(source, fn, false)
	if revert != nil {
		return xdr.ScVal{}, &chain.TransactionError{Op: "query " + chain.OpName(fn), Reason: revert}
	}
	return ret, nil
}

// Close counts disconnections.
func (c *Chain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *Chain) record(op, address string, included bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Op: op, Signer: address, Included: included})
}

func (c *Chain) apply(invoker string, fn xdr.HostFunction, commit bool) (xdr.ScVal, []chain.Event, *chain.RevertReason) {
	switch fn.Type {
	case xdr.HostFunctionTypeHostFunctionTypeUploadContractWasm:
		return c.upload(*fn.Wasm)
	case xdr.HostFunctionTypeHostFunctionTypeCreateContractV2:
		return c.create(*fn.CreateContractV2)
	case xdr.HostFunctionTypeHostFunctionTypeInvokeContract:
		return c.invoke(invoker, *fn.InvokeContract, commit)
	default:
		return xdr.ScVal{}, nil, hostError("Value", xdr.ScErrorCodeScecUnexpectedType)
	}
}

func (c *Chain) upload(wasm []byte) (xdr.ScVal, []chain.Event, *chain.RevertReason) {
	if len(wasm) == 0 {
		return xdr.ScVal{}, nil, hostError("WasmVm", xdr.ScErrorCodeScecInvalidInput)
	}
	hash := xdr.Hash(sha256.Sum256(wasm))
	kind := kindOther
	switch {
	case bytes.Equal(wasm, TokenWasm):
		kind = kindToken
	case bytes.Equal(wasm, ProxyWasm):
		kind = kindProxy
	}
	c.codes[hash] = kind

	if c.wrongUploadHash {
		hash[0] ^= 0xff
	}
	return chain.Bytes(hash[:]), nil, nil
}

func (c *Chain) create(args xdr.CreateContractArgsV2) (xdr.ScVal, []chain.Event, *chain.RevertReason) {
	from, ok := args.ContractIdPreimage.GetFromAddress()
	if !ok {
		return xdr.ScVal{}, nil, hostError("Value", xdr.ScErrorCodeScecUnexpectedType)
	}
	wasmHash, ok := args.Executable.GetWasmHash()
	if !ok {
		return xdr.ScVal{}, nil, hostError("Value", xdr.ScErrorCodeScecUnexpectedType)
	}
	kind, installed := c.codes[wasmHash]
	if !installed {
		return xdr.ScVal{}, nil, hostError("Storage", xdr.ScErrorCodeScecMissingValue)
	}

	deployer, err := chain.AddressString(from.Address)
	if err != nil {
		return xdr.ScVal{}, nil, hostError("Value", xdr.ScErrorCodeScecInvalidInput)
	}
	id := xdr.ContractId(sha256.Sum256(append([]byte(deployer), from.Salt[:]...)))
	address, err := chain.ContractAddress(id)
	if err != nil {
		return xdr.ScVal{}, nil, hostError("Value", xdr.ScErrorCodeScecInvalidInput)
	}
	if _, exists := c.contracts[address]; exists {
		return xdr.ScVal{}, nil, hostError("Storage", xdr.ScErrorCodeScecExistingValue)
	}

	ct := &contract{address: address, kind: kind}
	switch kind {
	case kindProxy:
		if len(args.ConstructorArgs) != 1 {
			return xdr.ScVal{}, nil, revert(fulaproxy.ErrInvalidImplementation)
		}
		impl, err := chain.ToHash(args.ConstructorArgs[0])
		if err != nil {
			return xdr.ScVal{}, nil, revert(fulaproxy.ErrInvalidImplementation)
		}
		if implKind, ok := c.codes[impl]; !ok || implKind != kindToken {
			return xdr.ScVal{}, nil, revert(fulaproxy.ErrInvalidImplementation)
		}
		ct.impl = impl
		ct.token = newTokenState()
	case kindToken:
		ct.token = newTokenState()
	}
	c.contracts[address] = ct

	return chain.MustAddress(address), nil, nil
}

func (c *Chain) invoke(invoker string, args xdr.InvokeContractArgs, commit bool) (xdr.ScVal, []chain.Event, *chain.RevertReason) {
	address, err := chain.AddressString(args.ContractAddress)
	if err != nil {
		return xdr.ScVal{}, nil, hostError("Value", xdr.ScErrorCodeScecInvalidInput)
	}
	ct, ok := c.contracts[address]
	if !ok {
		return xdr.ScVal{}, nil, hostError("Storage", xdr.ScErrorCodeScecMissingValue)
	}
	name := string(args.FunctionName)

	if ct.kind == kindProxy && name == "implementation" {
		return chain.Bytes(ct.impl[:]), nil, nil
	}
	if ct.token == nil {
		return xdr.ScVal{}, nil, hostError("WasmVm", xdr.ScErrorCodeScecMissingValue)
	}

	state := ct.token.clone()
	run := &tokenCall{state: state, contract: address, invoker: invoker}
	ret, revert := run.dispatch(name, args.Args)
	if revert != nil {
		return xdr.ScVal{}, nil, revert
	}
	if commit {
		ct.token = state
	}
	return ret, run.events, nil
}

func hostError(kind string, code xdr.ScErrorCode) *chain.RevertReason {
	return &chain.RevertReason{Kind: kind, Code: uint32(code), Message: code.String()}
}

func revert(r chain.RevertReason) *chain.RevertReason {
	return &r
}

func txHash(n int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("fakechain-tx-%d", n)))
	return hex.EncodeToString(sum[:])
}

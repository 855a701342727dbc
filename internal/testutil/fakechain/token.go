package fakechain

import (
	"math/big"

	"fula-deployer/internal/chain"
	"fula-deployer/internal/contracts/fulatoken"

	"github.com/stellar/go/xdr"
)

type allowanceKey struct {
	owner   string
	spender string
}

type tokenState struct {
	initialized bool
	owner       string
	supply      *big.Int
	balances    map[string]*big.Int
	allowances  map[allowanceKey]*big.Int
}

func newTokenState() *tokenState {
	return &tokenState{
		supply:     new(big.Int),
		balances:   map[string]*big.Int{},
		allowances: map[allowanceKey]*big.Int{},
	}
}

func (s *tokenState) clone() *tokenState {
	out := &tokenState{
		initialized: s.initialized,
		owner:       s.owner,
		supply:      new(big.Int).Set(s.supply),
		balances:    make(map[string]*big.Int, len(s.balances)),
		allowances:  make(map[allowanceKey]*big.Int, len(s.allowances)),
	}
	for k, v := range s.balances {
		out.balances[k] = new(big.Int).Set(v)
	}
	for k, v := range s.allowances {
		out.allowances[k] = new(big.Int).Set(v)
	}
	return out
}

func (s *tokenState) balance(account string) *big.Int {
	if b, ok := s.balances[account]; ok {
		return b
	}
	return new(big.Int)
}

func (s *tokenState) allowance(owner, spender string) *big.Int {
	if a, ok := s.allowances[allowanceKey{owner, spender}]; ok {
		return a
	}
	return new(big.Int)
}

// tokenCall executes one token entry point against a cloned state
type tokenCall struct {
	state    *tokenState
	contract string
	invoker  string
	events   []chain.Event
}

func (t *tokenCall) dispatch(name string, args []xdr.ScVal) (xdr.ScVal, *chain.RevertReason) {
	switch name {
	case "initialize":
		return t.initialize(args)
	case "total_supply":
		return amount(t.state.supply)
	case "balance":
		var account string
		if r := decode(args, &account); r != nil {
			return xdr.ScVal{}, r
		}
		return amount(t.state.balance(account))
	case "allowance":
		var owner, spender string
		if r := decode(args, &owner, &spender); r != nil {
			return xdr.ScVal{}, r
		}
		return amount(t.state.allowance(owner, spender))
	case "transfer":
		return t.transfer(args)
	case "approve":
		return t.approve(args)
	case "transfer_from":
		return t.transferFrom(args)
	case "mint":
		return t.mint(args)
	case "name":
		return t.metadata(chain.String(fulatoken.TokenName))
	case "symbol":
		return t.metadata(chain.String(fulatoken.TokenSymbol))
	case "decimals":
		return t.metadata(chain.U32(fulatoken.TokenDecimals))
	case "owner":
		if !t.state.initialized {
			return xdr.ScVal{}, revert(fulatoken.ErrNotInitialized)
		}
		return chain.MustAddress(t.state.owner), nil
	default:
		return xdr.ScVal{}, hostError("WasmVm", xdr.ScErrorCodeScecMissingValue)
	}
}

func (t *tokenCall) initialize(args []xdr.ScVal) (xdr.ScVal, *chain.RevertReason) {
	var owner string
	var supply *big.Int
	if r := decode(args, &owner, &supply); r != nil {
		return xdr.ScVal{}, r
	}
	if t.state.initialized {
		return xdr.ScVal{}, revert(fulatoken.ErrAlreadyInitialized)
	}
	if r := t.requireAuth(owner); r != nil {
		return xdr.ScVal{}, r
	}
	if supply.Sign() < 0 {
		return xdr.ScVal{}, revert(fulatoken.ErrNegativeAmount)
	}

	t.state.initialized = true
	t.state.owner = owner
	t.credit(owner, supply)
	t.emit(fulatoken.EventMint, supply, owner)
	return chain.Void(), nil
}

func (t *tokenCall) transfer(args []xdr.ScVal) (xdr.ScVal, *chain.RevertReason) {
	var from, to string
	var value *big.Int
	if r := decode(args, &from, &to, &value); r != nil {
		return xdr.ScVal{}, r
	}
	if r := t.requireAuth(from); r != nil {
		return xdr.ScVal{}, r
	}
	if r := t.move(from, to, value); r != nil {
		return xdr.ScVal{}, r
	}
	return chain.Void(), nil
}

func (t *tokenCall) approve(args []xdr.ScVal) (xdr.ScVal, *chain.RevertReason) {
	var owner, spender string
	var value *big.Int
	if r := decode(args, &owner, &spender, &value); r != nil {
		return xdr.ScVal{}, r
	}
	if r := t.requireAuth(owner); r != nil {
		return xdr.ScVal{}, r
	}
	if value.Sign() < 0 {
		return xdr.ScVal{}, revert(fulatoken.ErrNegativeAmount)
	}
	t.state.allowances[allowanceKey{owner, spender}] = new(big.Int).Set(value)
	t.emit(fulatoken.EventApprove, value, owner, spender)
	return chain.Void(), nil
}

func (t *tokenCall) transferFrom(args []xdr.ScVal) (xdr.ScVal, *chain.RevertReason) {
	var spender, from, to string
	var value *big.Int
	if r := decode(args, &spender, &from, &to, &value); r != nil {
		return xdr.ScVal{}, r
	}
	if r := t.requireAuth(spender); r != nil {
		return xdr.ScVal{}, r
	}
	if value.Sign() < 0 {
		return xdr.ScVal{}, revert(fulatoken.ErrNegativeAmount)
	}
	allowed := t.state.allowance(from, spender)
	if allowed.Cmp(value) < 0 {
		return xdr.ScVal{}, revert(fulatoken.ErrInsufficientAllowance)
	}
	if r := t.move(from, to, value); r != nil {
		return xdr.ScVal{}, r
	}
	t.state.allowances[allowanceKey{from, spender}] = new(big.Int).Sub(allowed, value)
	return chain.Void(), nil
}

func (t *tokenCall) mint(args []xdr.ScVal) (xdr.ScVal, *chain.RevertReason) {
	var to string
	var value *big.Int
	if r := decode(args, &to, &value); r != nil {
		return xdr.ScVal{}, r
	}
	if !t.state.initialized {
		return xdr.ScVal{}, revert(fulatoken.ErrNotInitialized)
	}
	if t.invoker != t.state.owner {
		return xdr.ScVal{}, revert(fulatoken.ErrNotOwner)
	}
	if value.Sign() < 0 {
		return xdr.ScVal{}, revert(fulatoken.ErrNegativeAmount)
	}
	t.credit(to, value)
	t.emit(fulatoken.EventMint, value, to)
	return chain.Void(), nil
}

func (t *tokenCall) metadata(v xdr.ScVal) (xdr.ScVal, *chain.RevertReason) {
	if !t.state.initialized {
		return xdr.ScVal{}, revert(fulatoken.ErrNotInitialized)
	}
	return v, nil
}

func (t *tokenCall) move(from, to string, value *big.Int) *chain.RevertReason {
	if value.Sign() < 0 {
		return revert(fulatoken.ErrNegativeAmount)
	}
	balance := t.state.balance(from)
	if balance.Cmp(value) < 0 {
		return revert(fulatoken.ErrInsufficientBalance)
	}
	t.state.balances[from] = new(big.Int).Sub(balance, value)
	t.state.balances[to] = new(big.Int).Add(t.state.balance(to), value)
	t.emit(fulatoken.EventTransfer, value, from, to)
	return nil
}

func (t *tokenCall) credit(to string, value *big.Int) {
	t.state.balances[to] = new(big.Int).Add(t.state.balance(to), value)
	t.state.supply = new(big.Int).Add(t.state.supply, value)
}

func (t *tokenCall) requireAuth(address string) *chain.RevertReason {
	if address != t.invoker {
		return hostError("Auth", xdr.ScErrorCodeScecInvalidAction)
	}
	return nil
}

func (t *tokenCall) emit(name string, data *big.Int, addresses ...string) {
	topics := []xdr.ScVal{chain.Symbol(name)}
	for _, a := range addresses {
		topics = append(topics, chain.MustAddress(a))
	}
	value, _ := chain.I128(data)
	t.events = append(t.events, chain.Event{
		ContractID: t.contract,
		Name:       name,
		Topics:     topics,
		Data:       value,
	})
}

func amount(v *big.Int) (xdr.ScVal, *chain.RevertReason) {
	out, err := chain.I128(v)
	if err != nil {
		return xdr.ScVal{}, hostError("Object", xdr.ScErrorCodeScecArithDomain)
	}
	return out, nil
}

// decode reads positional arguments into *string (addresses) and
// **big.Int (i128 amounts).
func decode(args []xdr.ScVal, targets ...interface{}) *chain.RevertReason {
	if len(args) != len(targets) {
		return hostError("WasmVm", xdr.ScErrorCodeScecUnexpectedSize)
	}
	for i, target := range targets {
		switch p := target.(type) {
		case *string:
			a, err := chain.ToAddress(args[i])
			if err != nil {
				return hostError("Value", xdr.ScErrorCodeScecUnexpectedType)
			}
			*p = a
		case **big.Int:
			n, err := chain.ToBig(args[i])
			if err != nil {
				return hostError("Value", xdr.ScErrorCodeScecUnexpectedType)
			}
			*p = n
		}
	}
	return nil
}

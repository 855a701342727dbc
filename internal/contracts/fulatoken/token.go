package fulatoken

import (
	"context"
	"fmt"
	"math/big"

	"fula-deployer/internal/chain"
	"fula-deployer/internal/signer"

	"github.com/stellar/go/xdr"
)

// Contract entry points
const (
	fnInitialize   = "initialize"
	fnTotalSupply  = "total_supply"
	fnBalance      = "balance"
	fnAllowance    = "allowance"
	fnTransfer     = "transfer"
	fnApprove      = "approve"
	fnTransferFrom = "transfer_from"
	fnMint         = "mint"
	fnName         = "name"
	fnSymbol       = "symbol"
	fnDecimals     = "decimals"
	fnOwner        = "owner"
)

// Token is the typed interface of a FULA token instance, usually reached
// through its proxy address.
type Token struct {
	client   chain.Client
	address  string
	contract xdr.ScAddress
	reader   string
}

// New binds the token at address. Queries are simulated from reader.
func New(client chain.Client, address, reader string) (*Token, error) {
	contract, err := chain.ScAddress(address)
	if err != nil {
		return nil, err
	}
	if contract.Type != xdr.ScAddressTypeScAddressTypeContract {
		return nil, fmt.Errorf("%s is not a contract address", address)
	}
	return &Token{client: client, address: address, contract: contract, reader: reader}, nil
}

// Address returns the contract address the token is bound to.
func (t *Token) Address() string {
	return t.address
}

// Initialize mints supply to owner and sets the token metadata. The
// contract rejects a second call with ErrAlreadyInitialized.
func (t *Token) Initialize(ctx context.Context, owner *signer.Signer, supply *big.Int) (*chain.TransactionOutcome, error) {
	amount, err := chain.I128(supply)
	if err != nil {
		return nil, err
	}
	return t.submit(ctx, owner, fnInitialize, chain.MustAddress(owner.Address), amount)
}

// Transfer moves amount from the signer to to.
func (t *Token) Transfer(ctx context.Context, from *signer.Signer, to string, amount *big.Int) (*chain.TransactionOutcome, error) {
	args, err := addressesAndAmount(amount, from.Address, to)
	if err != nil {
		return nil, err
	}
	return t.submit(ctx, from, fnTransfer, args...)
}

// Approve sets the allowance of spender over the signer's balance.
func (t *Token) Approve(ctx context.Context, owner *signer.Signer, spender string, amount *big.Int) (*chain.TransactionOutcome, error) {
	args, err := addressesAndAmount(amount, owner.Address, spender)
	if err != nil {
		return nil, err
	}
	return t.submit(ctx, owner, fnApprove, args...)
}

// TransferFrom moves amount from from to to, spending the signer's allowance.
func (t *Token) TransferFrom(ctx context.Context, spender *signer.Signer, from, to string, amount *big.Int) (*chain.TransactionOutcome, error) {
	args, err := addressesAndAmount(amount, spender.Address, from, to)
	if err != nil {
		return nil, err
	}
	return t.submit(ctx, spender, fnTransferFrom, args...)
}

// Mint creates amount new tokens for to. Owner only.
func (t *Token) Mint(ctx context.Context, owner *signer.Signer, to string, amount *big.Int) (*chain.TransactionOutcome, error) {
	args, err := addressesAndAmount(amount, to)
	if err != nil {
		return nil, err
	}
	return t.submit(ctx, owner, fnMint, args...)
}

// TotalSupply returns the amount of tokens in existence.
func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	return t.queryAmount(ctx, fnTotalSupply)
}

// BalanceOf returns the balance of account.
func (t *Token) BalanceOf(ctx context.Context, account string) (*big.Int, error) {
	id, err := chain.Address(account)
	if err != nil {
		return nil, err
	}
	return t.queryAmount(ctx, fnBalance, id)
}

// Allowance returns how much spender may still transfer from owner.
func (t *Token) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	args, err := addresses(owner, spender)
	if err != nil {
		return nil, err
	}
	return t.queryAmount(ctx, fnAllowance, args...)
}

// Name returns the token name set by initialize.
func (t *Token) Name(ctx context.Context) (string, error) {
	return t.queryString(ctx, fnName)
}

// Symbol returns the token symbol.
func (t *Token) Symbol(ctx context.Context) (string, error) {
	return t.queryString(ctx, fnSymbol)
}

// Decimals returns the number of decimals of one whole token.
func (t *Token) Decimals(ctx context.Context) (uint32, error) {
	v, err := t.client.Query(ctx, t.reader, chain.Invoke(t.contract, fnDecimals))
	if err != nil {
		return 0, err
	}
	d, ok := v.GetU32()
	if !ok {
		return 0, fmt.Errorf("%s: expected u32, got %s", fnDecimals, v.Type)
	}
	return uint32(d), nil
}

// Owner returns the account allowed to mint.
func (t *Token) Owner(ctx context.Context) (string, error) {
	v, err := t.client.Query(ctx, t.reader, chain.Invoke(t.contract, fnOwner))
	if err != nil {
		return "", err
	}
	return chain.ToAddress(v)
}

func (t *Token) submit(ctx context.Context, s *signer.Signer, fn string, args ...xdr.ScVal) (*chain.TransactionOutcome, error) {
	return t.client.SubmitAndWait(ctx, s, chain.Invoke(t.contract, fn, args...))
}

func (t *Token) queryAmount(ctx context.Context, fn string, args ...xdr.ScVal) (*big.Int, error) {
	v, err := t.client.Query(ctx, t.reader, chain.Invoke(t.contract, fn, args...))
	if err != nil {
		return nil, err
	}
	amount, err := chain.ToBig(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return amount, nil
}

func (t *Token) queryString(ctx context.Context, fn string) (string, error) {
	v, err := t.client.Query(ctx, t.reader, chain.Invoke(t.contract, fn))
	if err != nil {
		return "", err
	}
	s, ok := v.GetStr()
	if !ok {
		return "", fmt.Errorf("%s: expected string, got %s", fn, v.Type)
	}
	return string(s), nil
}

func addresses(accounts ...string) ([]xdr.ScVal, error) {
	vals := make([]xdr.ScVal, 0, len(accounts)+1)
	for _, a := range accounts {
		v, err := chain.Address(a)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func addressesAndAmount(amount *big.Int, accounts ...string) ([]xdr.ScVal, error) {
	vals, err := addresses(accounts...)
	if err != nil {
		return nil, err
	}
	v, err := chain.I128(amount)
	if err != nil {
		return nil, err
	}
	return append(vals, v), nil
}

package verify

import (
	"context"
	"math/big"

	"fula-deployer/internal/contracts/fulatoken"
)

// StandardCases are the behaviours every deployed FULA token must show.
func StandardCases() []Case {
	return []Case{
		{Name: "initial supply held by deployer", Check: checkInitialSupply},
		{Name: "token metadata", Check: checkMetadata},
		{Name: "transfer moves balance", Check: checkTransfer},
		{Name: "transfer beyond balance reverts", Check: checkOverdraft},
		{Name: "second initialize is rejected", Check: checkDoubleInitialize},
		{Name: "allowance spending", Check: checkAllowance, Actors: 1},
		{Name: "mint is owner only", Check: checkMintOwnerOnly, Actors: 2},
	}
}

func checkInitialSupply(ctx context.Context, s *Scenario) error {
	supply := s.Result.InitialSupply
	if err := s.ExpectBalance(ctx, s.Owner.Address, supply); err != nil {
		return err
	}
	return s.ExpectTotalSupply(ctx, supply)
}

func checkMetadata(ctx context.Context, s *Scenario) error {
	name, err := s.Token.Name(ctx)
	if err := ExpectQuery("name", name, err, fulatoken.TokenName); err != nil {
		return err
	}
	symbol, err := s.Token.Symbol(ctx)
	if err := ExpectQuery("symbol", symbol, err, fulatoken.TokenSymbol); err != nil {
		return err
	}
	decimals, err := s.Token.Decimals(ctx)
	if err := ExpectQuery("decimals", decimals, err, uint32(fulatoken.TokenDecimals)); err != nil {
		return err
	}
	owner, err := s.Token.Owner(ctx)
	return ExpectQuery("owner", owner, err, s.Owner.Address)
}

func checkTransfer(ctx context.Context, s *Scenario) error {
	receiver := s.NewAccount()
	amount := big.NewInt(10)
	supply := s.Result.InitialSupply

	outcome, err := s.Token.Transfer(ctx, s.Owner, receiver.Address, amount)
	if err := s.ExpectIncluded(outcome, err); err != nil {
		return err
	}
	if err := s.ExpectEvents(outcome, []ExpectedEvent{TransferEvent(s.Owner.Address, receiver.Address, amount)}); err != nil {
		return err
	}
	if err := s.ExpectBalance(ctx, receiver.Address, amount); err != nil {
		return err
	}
	if err := s.ExpectBalance(ctx, s.Owner.Address, new(big.Int).Sub(supply, amount)); err != nil {
		return err
	}
	return s.ExpectTotalSupply(ctx, supply)
}

func checkOverdraft(ctx context.Context, s *Scenario) error {
	receiver := s.NewAccount()
	tooMuch := new(big.Int).Add(s.Result.InitialSupply, big.NewInt(1))

	outcome, err := s.Token.Transfer(ctx, s.Owner, receiver.Address, tooMuch)
	if err := s.ExpectRevert(outcome, err, ExactPayload(fulatoken.ErrInsufficientBalance)); err != nil {
		return err
	}
	return s.ExpectBalance(ctx, receiver.Address, big.NewInt(0))
}

func checkDoubleInitialize(ctx context.Context, s *Scenario) error {
	supply := s.Result.InitialSupply

	outcome, err := s.Token.Initialize(ctx, s.Owner, big.NewInt(1))
	if err := s.ExpectRevert(outcome, err, ExactPayload(fulatoken.ErrAlreadyInitialized)); err != nil {
		return err
	}
	if err := s.ExpectTotalSupply(ctx, supply); err != nil {
		return err
	}
	return s.ExpectBalance(ctx, s.Owner.Address, supply)
}

func checkAllowance(ctx context.Context, s *Scenario) error {
	spender, err := s.Actor(0)
	if err != nil {
		return err
	}
	receiver := s.NewAccount()
	amount := big.NewInt(50)

	outcome, err := s.Token.Approve(ctx, s.Owner, spender.Address, amount)
	if err := s.ExpectIncluded(outcome, err); err != nil {
		return err
	}
	if err := s.ExpectEvents(outcome, []ExpectedEvent{ApproveEvent(s.Owner.Address, spender.Address, amount)}); err != nil {
		return err
	}

	outcome, err = s.Token.TransferFrom(ctx, spender, s.Owner.Address, receiver.Address, big.NewInt(51))
	if err := s.ExpectRevert(outcome, err, ExactPayload(fulatoken.ErrInsufficientAllowance)); err != nil {
		return err
	}

	outcome, err = s.Token.TransferFrom(ctx, spender, s.Owner.Address, receiver.Address, big.NewInt(20))
	if err := s.ExpectIncluded(outcome, err); err != nil {
		return err
	}
	if err := s.ExpectEvents(outcome, []ExpectedEvent{TransferEvent(s.Owner.Address, receiver.Address, big.NewInt(20))}); err != nil {
		return err
	}
	allowance, err := s.Token.Allowance(ctx, s.Owner.Address, spender.Address)
	if err := ExpectQuery("remaining allowance", allowance, err, big.NewInt(30)); err != nil {
		return err
	}
	return s.ExpectBalance(ctx, receiver.Address, big.NewInt(20))
}

func checkMintOwnerOnly(ctx context.Context, s *Scenario) error {
	stranger, err := s.Actor(1)
	if err != nil {
		return err
	}
	supply := s.Result.InitialSupply

	outcome, err := s.Token.Mint(ctx, stranger, stranger.Address, big.NewInt(5))
	if err := s.ExpectRevert(outcome, err, ExactPayload(fulatoken.ErrNotOwner)); err != nil {
		return err
	}

	outcome, err = s.Token.Mint(ctx, s.Owner, stranger.Address, big.NewInt(5))
	if err := s.ExpectIncluded(outcome, err); err != nil {
		return err
	}
	if err := s.ExpectEvents(outcome, []ExpectedEvent{MintEvent(stranger.Address, big.NewInt(5))}); err != nil {
		return err
	}
	return s.ExpectTotalSupply(ctx, new(big.Int).Add(supply, big.NewInt(5)))
}

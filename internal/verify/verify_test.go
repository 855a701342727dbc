package verify

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fula-deployer/internal/chain"
	"fula-deployer/internal/config"
	"fula-deployer/internal/contracts/fulatoken"
	"fula-deployer/internal/testutil/fakechain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHarness(t *testing.T) (*Harness, *fakechain.Chain) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.TokenArtifactName+".wasm"), fakechain.TokenWasm, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ProxyArtifactName+".wasm"), fakechain.ProxyWasm, 0o600))

	cfg := config.Default()
	cfg.Artifacts.Dir = dir
	cfg.StepTimeout = 5 * time.Second

	fake := fakechain.New()
	return NewHarness(cfg, fake), fake
}

func newScenario(t *testing.T) (*Scenario, *fakechain.Chain) {
	t.Helper()
	h, fake := newHarness(t)
	s, err := h.NewScenario(context.Background(), t.Name())
	require.NoError(t, err)
	return s, fake
}

func TestStandardCases_PassOnFreshDeployments(t *testing.T) {
	h, fake := newHarness(t)
	cases := StandardCases()

	reports, err := NewSuite(h, 3).Run(context.Background(), cases)
	require.NoError(t, err)
	require.Len(t, reports, len(cases))
	for i, r := range reports {
		assert.Equal(t, cases[i].Name, r.Name)
		assert.True(t, r.Passed(), r.Name)
		assert.Empty(t, r.Warnings)
	}

	assert.Equal(t, len(cases), fake.ContractCount())
	assert.Zero(t, fake.Closes())
}

func TestSuite_FailingCaseDoesNotStopOthers(t *testing.T) {
	h, _ := newHarness(t)
	boom := errors.New("boom")
	ran := make(chan string, 3)

	cases := []Case{
		{Name: "a", Check: func(ctx context.Context, s *Scenario) error { ran <- "a"; return nil }},
		{Name: "b", Check: func(ctx context.Context, s *Scenario) error { ran <- "b"; return boom }},
		{Name: "c", Check: func(ctx context.Context, s *Scenario) error { ran <- "c"; return nil }},
	}

	reports, err := NewSuite(h, 0).Run(context.Background(), cases)
	close(ran)

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "b: boom")
	assert.Len(t, ran, 3)
	assert.True(t, reports[0].Passed())
	assert.False(t, reports[1].Passed())
	assert.True(t, reports[2].Passed())
}

func TestNewScenario_DeployFailure(t *testing.T) {
	h, fake := newHarness(t)
	fake.FailNext("initialize", fulatoken.ErrAlreadyInitialized)

	_, err := h.NewScenario(context.Background(), "broken")

	var txErr *chain.TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Contains(t, err.Error(), `scenario "broken"`)
}

func TestExpectRevert(t *testing.T) {
	ctx := context.Background()
	s, fake := newScenario(t)
	receiver := s.NewAccount()
	tooMuch := new(big.Int).Add(s.Result.InitialSupply, big.NewInt(1))

	overdraft := func() (*chain.TransactionOutcome, error) {
		return s.Token.Transfer(ctx, s.Owner, receiver.Address, tooMuch)
	}

	t.Run("exact payload", func(t *testing.T) {
		outcome, err := overdraft()
		assert.NoError(t, s.ExpectRevert(outcome, err, ExactPayload(fulatoken.ErrInsufficientBalance)))
	})

	t.Run("exact payload mismatch", func(t *testing.T) {
		outcome, err := overdraft()
		err = s.ExpectRevert(outcome, err, ExactPayload(fulatoken.ErrNotOwner))

		var assertErr *AssertionError
		require.ErrorAs(t, err, &assertErr)
		assert.Equal(t, "revert reason", assertErr.Check)
		assert.Equal(t, "Error(Contract, #2)", assertErr.Expected)
		assert.Equal(t, "Error(Contract, #3)", assertErr.Actual)
	})

	t.Run("message substring", func(t *testing.T) {
		outcome, err := overdraft()
		assert.NoError(t, s.ExpectRevert(outcome, err, MessageSubstring("#3")))

		outcome, err = overdraft()
		var assertErr *AssertionError
		assert.ErrorAs(t, s.ExpectRevert(outcome, err, MessageSubstring("Budget")), &assertErr)
	})

	t.Run("unchecked warns", func(t *testing.T) {
		before := len(s.Warnings())
		outcome, err := overdraft()
		require.NoError(t, s.ExpectRevert(outcome, err, Unchecked()))

		warnings := s.Warnings()
		require.Len(t, warnings, before+1)
		assert.Contains(t, warnings[len(warnings)-1], "Error(Contract, #3)")
	})

	t.Run("zero value is a failure", func(t *testing.T) {
		outcome, err := overdraft()
		var assertErr *AssertionError
		assert.ErrorAs(t, s.ExpectRevert(outcome, err, ExpectedError{}), &assertErr)
	})

	t.Run("should have reverted", func(t *testing.T) {
		outcome, err := s.Token.Transfer(ctx, s.Owner, receiver.Address, big.NewInt(1))
		err = s.ExpectRevert(outcome, err, Unchecked())

		var assertErr *AssertionError
		require.ErrorAs(t, err, &assertErr)
		assert.Equal(t, "should have reverted", assertErr.Check)
		assert.Equal(t, "assertion failed: should have reverted", err.Error())
	})

	t.Run("transport error returned unchanged", func(t *testing.T) {
		cause := errors.New("connection refused")
		fake.ErrorNext("transfer", cause)

		outcome, err := overdraft()
		assert.Same(t, cause, s.ExpectRevert(outcome, err, Unchecked()))
	})

	t.Run("invalid argument returned unchanged", func(t *testing.T) {
		_, err := s.Token.Allowance(ctx, "not-an-address", receiver.Address)
		require.Error(t, err)
		assert.Equal(t, err, s.ExpectRevert(nil, err, Unchecked()))
	})

	t.Run("rejection carried by error", func(t *testing.T) {
		err := &chain.TransactionError{Op: "transfer", Reason: &chain.RevertReason{Kind: "Contract", Code: 3}}
		assert.NoError(t, s.ExpectRevert(nil, err, ExactPayload(fulatoken.ErrInsufficientBalance)))
	})
}

func TestExpectEvents(t *testing.T) {
	ctx := context.Background()
	s, _ := newScenario(t)
	receiver := s.NewAccount()
	amount := big.NewInt(7)

	outcome, err := s.Token.Transfer(ctx, s.Owner, receiver.Address, amount)
	require.NoError(t, s.ExpectIncluded(outcome, err))

	assert.NoError(t, s.ExpectEvents(outcome, []ExpectedEvent{TransferEvent(s.Owner.Address, receiver.Address, amount)}))

	var assertErr *AssertionError
	err = s.ExpectEvents(outcome, []ExpectedEvent{TransferEvent(receiver.Address, s.Owner.Address, amount)})
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, "event 0", assertErr.Check)

	err = s.ExpectEvents(outcome, nil)
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, "event count", assertErr.Check)

	err = s.ExpectEvents(outcome, []ExpectedEvent{MintEvent(receiver.Address, amount)})
	assert.ErrorAs(t, err, &assertErr)
}

func TestExpectIncluded_Rejected(t *testing.T) {
	ctx := context.Background()
	s, _ := newScenario(t)

	outcome, err := s.Token.Initialize(ctx, s.Owner, big.NewInt(1))
	err = s.ExpectIncluded(outcome, err)

	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, "Error(Contract, #1)", assertErr.Actual)
}

func TestExpectQuery(t *testing.T) {
	assert.NoError(t, ExpectQuery("big", big.NewInt(5), nil, new(big.Int).SetInt64(5)))
	assert.NoError(t, ExpectQuery("string", "FULA", nil, "FULA"))
	assert.NoError(t, ExpectQuery("scval", chain.Symbol("x"), nil, chain.Symbol("x")))

	var assertErr *AssertionError
	err := ExpectQuery("decimals", uint32(7), nil, uint32(18))
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, "assertion failed: decimals: expected 18, got 7", err.Error())

	cause := errors.New("simulation failed")
	err = ExpectQuery("name", "", cause, "Fula Token")
	assert.ErrorIs(t, err, cause)
	assert.False(t, errors.As(err, &assertErr))
}

func TestScenario_Actor(t *testing.T) {
	s, _ := newScenario(t)

	require.Len(t, s.actors, 2)
	actor, err := s.Actor(0)
	require.NoError(t, err)
	assert.Equal(t, s.actors[0], actor)
	assert.NotEqual(t, s.Owner.Address, actor.Address)

	_, err = s.Actor(5)
	var cfgErr *config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "networks.development.accounts", cfgErr.Field)
}

func TestStandardCases_SingleAccountNetwork(t *testing.T) {
	h, fake := newHarness(t)
	n := h.cfg.Networks["development"]
	n.Accounts = []string{"//root"}
	h.cfg.Networks["development"] = n

	cases := StandardCases()
	reports, err := NewSuite(h, 2).Run(context.Background(), cases)
	require.Error(t, err)

	deployed := 0
	for i, r := range reports {
		if cases[i].Actors == 0 {
			assert.True(t, r.Passed(), r.Name)
			deployed++
			continue
		}
		var cfgErr *config.ConfigurationError
		require.ErrorAs(t, r.Err, &cfgErr, r.Name)
		assert.Equal(t, "networks.development.accounts", cfgErr.Field)
	}
	assert.Equal(t, deployed, fake.ContractCount())
}

func TestCheck_MissingActorIsConfigurationError(t *testing.T) {
	h, _ := newHarness(t)
	n := h.cfg.Networks["development"]
	n.Accounts = []string{"//root"}
	h.cfg.Networks["development"] = n

	s, err := h.NewScenario(context.Background(), t.Name())
	require.NoError(t, err)

	for _, check := range []Check{checkAllowance, checkMintOwnerOnly} {
		err := check(context.Background(), s)
		var cfgErr *config.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Reason, "have 0")
	}
}

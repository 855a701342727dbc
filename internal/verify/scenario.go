package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"reflect"
	"strings"
	"sync"

	"fula-deployer/internal/chain"
	"fula-deployer/internal/config"
	"fula-deployer/internal/contracts/fulatoken"
	"fula-deployer/internal/orchestrator"
	"fula-deployer/internal/signer"

	"github.com/stellar/go/xdr"
)

// Scenario is one freshly deployed token and the assertions run against it.
// Calls within a scenario are sequential.
type Scenario struct {
	Name   string
	Token  *fulatoken.Token
	Owner  *signer.Signer
	Result *orchestrator.DeploymentResult

	network string
	actors  []*signer.Signer
	client  chain.Client

	mu       sync.Mutex
	warnings []string
}

// ExpectedEvent is an event name with its positional arguments.
type ExpectedEvent struct {
	Name string
	Args []xdr.ScVal
}

func (e ExpectedEvent) String() string {
	return formatEvent(e.Name, e.Args)
}

// TransferEvent is the event a transfer of amount from → to emits.
func TransferEvent(from, to string, amount *big.Int) ExpectedEvent {
	return ExpectedEvent{Name: fulatoken.EventTransfer, Args: []xdr.ScVal{chain.MustAddress(from), chain.MustAddress(to), mustI128(amount)}}
}

// ApproveEvent is the event an approval emits.
func ApproveEvent(owner, spender string, amount *big.Int) ExpectedEvent {
	return ExpectedEvent{Name: fulatoken.EventApprove, Args: []xdr.ScVal{chain.MustAddress(owner), chain.MustAddress(spender), mustI128(amount)}}
}

// MintEvent is the event a mint to to emits.
func MintEvent(to string, amount *big.Int) ExpectedEvent {
	return ExpectedEvent{Name: fulatoken.EventMint, Args: []xdr.ScVal{chain.MustAddress(to), mustI128(amount)}}
}

// NewAccount returns a throwaway account with no balance. It can receive
// tokens but cannot submit transactions on a real network.
func (s *Scenario) NewAccount() *signer.Signer {
	return signer.Random()
}

// Actor returns the i-th configured account after the owner, for calls
// that need a funded signer other than the owner. A pool without it is a
// *config.ConfigurationError naming the network's account list.
func (s *Scenario) Actor(i int) (*signer.Signer, error) {
	if i >= 0 && i < len(s.actors) {
		return s.actors[i], nil
	}
	return nil, tooFewAccounts(s.network, i+1, len(s.actors))
}

func tooFewAccounts(network string, need, have int) *config.ConfigurationError {
	return &config.ConfigurationError{
		Field:  "networks." + network + ".accounts",
		Reason: fmt.Sprintf("need %d funded accounts besides the deployer, have %d", need, have),
	}
}

// Client returns the chain client the scenario submits through.
func (s *Scenario) Client() chain.Client {
	return s.client
}

// Warnings returns the warnings recorded by Unchecked revert assertions.
func (s *Scenario) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.warnings...)
}

func (s *Scenario) warn(msg string) {
	s.mu.Lock()
	s.warnings = append(s.warnings, msg)
	s.mu.Unlock()
	slog.Warn(msg, "scenario", s.Name)
}

// ExpectBalance checks the balance of account.
func (s *Scenario) ExpectBalance(ctx context.Context, account string, want *big.Int) error {
	got, err := s.Token.BalanceOf(ctx, account)
	return ExpectQuery("balance of "+account, got, err, want)
}

// ExpectTotalSupply checks the total supply.
func (s *Scenario) ExpectTotalSupply(ctx context.Context, want *big.Int) error {
	got, err := s.Token.TotalSupply(ctx)
	return ExpectQuery("total supply", got, err, want)
}

// ExpectIncluded fails when the call was not included.
func (s *Scenario) ExpectIncluded(outcome *chain.TransactionOutcome, err error) error {
	if err != nil {
		return err
	}
	if outcome == nil || !outcome.Included {
		reason := "no outcome"
		if outcome != nil && outcome.Revert != nil {
			reason = outcome.Revert.String()
		} else if outcome != nil {
			reason = "not included"
		}
		return &AssertionError{Check: "call included", Expected: "included", Actual: reason}
	}
	return nil
}

// ExpectEvents checks the events of an included call, in order, by name
// and positional arguments.
func (s *Scenario) ExpectEvents(outcome *chain.TransactionOutcome, want []ExpectedEvent) error {
	if err := s.ExpectIncluded(outcome, nil); err != nil {
		return err
	}
	got := outcome.Events
	if len(got) != len(want) {
		return mismatch("event count", fmt.Sprintf("%d %v", len(want), want), fmt.Sprintf("%d %v", len(got), formatEvents(got)))
	}
	for i := range want {
		if got[i].Name != want[i].Name || !sameArgs(got[i].Args(), want[i].Args) {
			return mismatch(fmt.Sprintf("event %d", i), want[i], formatEvent(got[i].Name, got[i].Args()))
		}
	}
	return nil
}

// ExpectRevert checks that a call was rejected with the expected reason.
// A rejection is either a not-included outcome or a *chain.TransactionError
// carrying a reason. Any other error is returned unchanged.
func (s *Scenario) ExpectRevert(outcome *chain.TransactionOutcome, err error, expected ExpectedError) error {
	var reason *chain.RevertReason

	switch {
	case err != nil:
		var txErr *chain.TransactionError
		if !errors.As(err, &txErr) || txErr.Reason == nil {
			return err
		}
		reason = txErr.Reason
	case outcome == nil:
		return &AssertionError{Check: "revert", Expected: expected.String(), Actual: "no outcome"}
	case outcome.Included:
		return &AssertionError{Check: "should have reverted"}
	default:
		reason = outcome.Revert
	}

	if expected.kind == expectUnset {
		return &AssertionError{Check: "revert", Expected: "an expected error (ExactPayload, MessageSubstring or Unchecked)", Actual: describe(reason)}
	}
	if !expected.match(reason) {
		return mismatch("revert reason", expected, describe(reason))
	}
	if expected.kind == expectAny {
		s.warn("revert accepted without checking the reason: " + describe(reason))
	}
	return nil
}

// ExpectQuery compares a query result with want. Big integers and ScVals
// are compared by value.
func ExpectQuery[T any](check string, got T, err error, want T) error {
	if err != nil {
		return fmt.Errorf("%s: %w", check, err)
	}
	if !equal(got, want) {
		return mismatch(check, want, got)
	}
	return nil
}

func equal(a, b interface{}) bool {
	switch av := a.(type) {
	case *big.Int:
		bv, ok := b.(*big.Int)
		if av == nil || bv == nil {
			return ok && av == bv
		}
		return ok && av.Cmp(bv) == 0
	case xdr.ScVal:
		bv, ok := b.(xdr.ScVal)
		return ok && chain.Equal(av, bv)
	default:
		return reflect.DeepEqual(a, b)
	}
}

func sameArgs(got, want []xdr.ScVal) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !chain.Equal(got[i], want[i]) {
			return false
		}
	}
	return true
}

func describe(reason *chain.RevertReason) string {
	if reason == nil {
		return "revert without reason"
	}
	return reason.String()
}

func formatEvent(name string, args []xdr.ScVal) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(chain.ToInterface(a))
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

func formatEvents(events []chain.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = formatEvent(ev.Name, ev.Args())
	}
	return out
}

func mustI128(v *big.Int) xdr.ScVal {
	val, err := chain.I128(v)
	if err != nil {
		panic(err)
	}
	return val
}

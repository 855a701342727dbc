package chain

import (
	"context"

	"fula-deployer/internal/signer"

	"github.com/stellar/go/xdr"
)

// Client is the submit-and-wait view of a Soroban chain.
type Client interface {
	// SubmitAndWait signs fn with s, submits it and blocks until the
	// transaction reaches a terminal status or ctx expires. A transaction
	// that is rejected or fails on chain comes back as an outcome with
	// Included == false and a revert reason; err is reserved for transport
	// failures and inclusion timeouts.
	SubmitAndWait(ctx context.Context, s *signer.Signer, fn xdr.HostFunction) (*TransactionOutcome, error)

	// Query simulates fn from source without submitting it and returns
	// the simulated return value.
	Query(ctx context.Context, source string, fn xdr.HostFunction) (xdr.ScVal, error)

	Close() error
}

// TransactionOutcome is the result of one submitted transaction.
type TransactionOutcome struct {
	Included    bool
	Hash        string
	Ledger      uint32
	ReturnValue xdr.ScVal
	Events      []Event
	Revert      *RevertReason
}

// Event is a contract event emitted by an included transaction.
type Event struct {
	ContractID string
	Name       string
	Topics     []xdr.ScVal
	Data       xdr.ScVal
}

// Args returns the positional arguments of the event: the topics after
// the name followed by the data value (omitted when void).
func (e Event) Args() []xdr.ScVal {
	var args []xdr.ScVal
	if len(e.Topics) > 1 {
		args = append(args, e.Topics[1:]...)
	}
	if e.Data.Type != xdr.ScValTypeScvVoid {
		args = append(args, e.Data)
	}
	return args
}

// EventFromXDR converts a contract event from transaction meta.
func EventFromXDR(ev xdr.ContractEvent) (Event, error) {
	body, ok := ev.Body.GetV0()
	if !ok {
		return Event{}, errUnsupportedEventBody
	}

	out := Event{
		Topics: body.Topics,
		Data:   body.Data,
	}
	if ev.ContractId != nil {
		id, err := ContractAddress(xdr.ContractId(*ev.ContractId))
		if err != nil {
			return Event{}, err
		}
		out.ContractID = id
	}
	if len(body.Topics) > 0 {
		if sym, ok := body.Topics[0].GetSym(); ok {
			out.Name = string(sym)
		}
	}
	return out, nil
}

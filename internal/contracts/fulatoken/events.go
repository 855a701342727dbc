package fulatoken

import (
	"fmt"
	"math/big"

	"fula-deployer/internal/chain"
)

// Event names emitted by the token
const (
	EventTransfer = "transfer"
	EventApprove  = "approve"
	EventMint     = "mint"
)

// Transfer is a decoded transfer event: topics (transfer, from, to), data amount.
type Transfer struct {
	From   string
	To     string
	Amount *big.Int
}

// Mint is a decoded mint event: topics (mint, to), data amount.
type Mint struct {
	To     string
	Amount *big.Int
}

// DecodeTransfer decodes a transfer event.
func DecodeTransfer(ev chain.Event) (*Transfer, error) {
	if ev.Name != EventTransfer || len(ev.Topics) != 3 {
		return nil, fmt.Errorf("not a transfer event: %q with %d topics", ev.Name, len(ev.Topics))
	}
	from, err := chain.ToAddress(ev.Topics[1])
	if err != nil {
		return nil, fmt.Errorf("transfer from: %w", err)
	}
	to, err := chain.ToAddress(ev.Topics[2])
	if err != nil {
		return nil, fmt.Errorf("transfer to: %w", err)
	}
	amount, err := chain.ToBig(ev.Data)
	if err != nil {
		return nil, fmt.Errorf("transfer amount: %w", err)
	}
	return &Transfer{From: from, To: to, Amount: amount}, nil
}

// DecodeMint decodes a mint event.
func DecodeMint(ev chain.Event) (*Mint, error) {
	if ev.Name != EventMint || len(ev.Topics) != 2 {
		return nil, fmt.Errorf("not a mint event: %q with %d topics", ev.Name, len(ev.Topics))
	}
	to, err := chain.ToAddress(ev.Topics[1])
	if err != nil {
		return nil, fmt.Errorf("mint to: %w", err)
	}
	amount, err := chain.ToBig(ev.Data)
	if err != nil {
		return nil, fmt.Errorf("mint amount: %w", err)
	}
	return &Mint{To: to, Amount: amount}, nil
}

// Transfers decodes every transfer event of an outcome, in emission order.
func Transfers(events []chain.Event) ([]*Transfer, error) {
	var out []*Transfer
	for _, ev := range events {
		if ev.Name != EventTransfer {
			continue
		}
		tr, err := DecodeTransfer(ev)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

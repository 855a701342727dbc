package chain

import (
	"errors"
	"testing"

	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHostError(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want *RevertReason
	}{
		{"empty", "  ", nil},
		{
			"contract error",
			"HostError: Error(Contract, #1)\n\nEvent log (newest first):\n   0: [Diagnostic Event] ...",
			&RevertReason{Kind: "Contract", Code: 1, Message: "HostError: Error(Contract, #1)"},
		},
		{
			"named code",
			"HostError: Error(Auth, InvalidAction)",
			&RevertReason{Kind: "Auth", Message: "InvalidAction"},
		},
		{
			"no payload",
			"transaction simulation failed: account not found",
			&RevertReason{Message: "transaction simulation failed: account not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseHostError(tt.msg))
		})
	}
}

func TestRevertReason_Payload(t *testing.T) {
	r := ContractError(3)
	assert.Equal(t, "Error(Contract, #3)", r.Payload())
	assert.True(t, r.SamePayload(RevertReason{Kind: "Contract", Code: 3, Message: "ignored"}))
	assert.False(t, r.SamePayload(ContractError(4)))
	assert.Equal(t, "tx_failed", RevertReason{Message: "tx_failed"}.String())
}

func TestRevertFromScError(t *testing.T) {
	code := xdr.Uint32(2)
	r := RevertFromScError(xdr.ScError{Type: xdr.ScErrorTypeSceContract, ContractCode: &code})
	assert.Equal(t, ContractError(2), *r)

	budget := xdr.ScErrorCodeScecExceededLimit
	r = RevertFromScError(xdr.ScError{Type: xdr.ScErrorTypeSceBudget, Code: &budget})
	assert.Equal(t, "Budget", r.Kind)
	assert.Equal(t, uint32(budget), r.Code)
}

func TestTransactionError(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&TransactionError{Op: "upload", Hash: "abcd", Err: cause})

	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "transaction error: upload (tx abcd): connection refused", err.Error())

	reason := ContractError(1)
	err = OutcomeError("initialize", &TransactionOutcome{Hash: "ef", Revert: &reason})
	assert.Equal(t, "transaction error: initialize (tx ef): reverted: Error(Contract, #1)", err.Error())
}

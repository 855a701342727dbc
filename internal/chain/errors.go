package chain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/stellar/go/xdr"
)

var (
	// ErrInclusionTimeout is returned when a submitted transaction does not
	// reach a terminal status within the inclusion timeout.
	ErrInclusionTimeout = errors.New("transaction not included before timeout")

	errUnsupportedEventBody = errors.New("unsupported contract event body")
)

// RevertReason is the chain-reported reason a transaction was rejected.
// Kind and Code form the structured payload, e.g. Error(Contract, #3).
// Message carries whatever the node said in addition, for operators.
type RevertReason struct {
	Kind    string
	Code    uint32
	Message string
}

// ContractError builds the payload a contract returns with panic_with_error.
func ContractError(code uint32) RevertReason {
	return RevertReason{Kind: "Contract", Code: code}
}

// Payload renders the structured part as the host formats it.
func (r RevertReason) Payload() string {
	if r.Kind == "" {
		return ""
	}
	return fmt.Sprintf("Error(%s, #%d)", r.Kind, r.Code)
}

// SamePayload reports whether two reasons carry the same structured payload.
func (r RevertReason) SamePayload(other RevertReason) bool {
	return r.Kind == other.Kind && r.Code == other.Code
}

func (r RevertReason) String() string {
	switch {
	case r.Kind == "":
		return r.Message
	case r.Message == "":
		return r.Payload()
	default:
		return r.Payload() + ": " + r.Message
	}
}

var hostErrorPattern = regexp.MustCompile(`Error\((\w+), #?(\w+)\)`)

// ParseHostError extracts the structured payload from a host error message
// such as "HostError: Error(Contract, #3)". When no payload is present the
// whole message is kept as Message.
func ParseHostError(msg string) *RevertReason {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return nil
	}
	first, _, _ := strings.Cut(msg, "\n")

	m := hostErrorPattern.FindStringSubmatch(first)
	if m == nil {
		return &RevertReason{Message: first}
	}
	reason := &RevertReason{Kind: m[1], Message: first}
	if code, err := strconv.ParseUint(m[2], 10, 32); err == nil {
		reason.Code = uint32(code)
	} else {
		reason.Message = m[2]
	}
	return reason
}

// RevertFromScError converts an ScError carried by a diagnostic event.
func RevertFromScError(e xdr.ScError) *RevertReason {
	reason := &RevertReason{Kind: scErrorKind(e.Type)}
	switch {
	case e.ContractCode != nil:
		reason.Code = uint32(*e.ContractCode)
	case e.Code != nil:
		reason.Code = uint32(*e.Code)
		reason.Message = e.Code.String()
	}
	return reason
}

func scErrorKind(t xdr.ScErrorType) string {
	switch t {
	case xdr.ScErrorTypeSceContract:
		return "Contract"
	case xdr.ScErrorTypeSceWasmVm:
		return "WasmVm"
	case xdr.ScErrorTypeSceContext:
		return "Context"
	case xdr.ScErrorTypeSceStorage:
		return "Storage"
	case xdr.ScErrorTypeSceObject:
		return "Object"
	case xdr.ScErrorTypeSceCrypto:
		return "Crypto"
	case xdr.ScErrorTypeSceEvents:
		return "Events"
	case xdr.ScErrorTypeSceBudget:
		return "Budget"
	case xdr.ScErrorTypeSceValue:
		return "Value"
	case xdr.ScErrorTypeSceAuth:
		return "Auth"
	default:
		return "Unknown"
	}
}

// TransactionError reports that the chain rejected a transaction or failed
// to include it. Reason is the chain-reported detail when one exists; Err
// is the transport cause when there is one.
type TransactionError struct {
	Op     string
	Hash   string
	Reason *RevertReason
	Err    error
}

func (e *TransactionError) Error() string {
	var b strings.Builder
	b.WriteString("transaction error: ")
	b.WriteString(e.Op)
	if e.Hash != "" {
		b.WriteString(" (tx ")
		b.WriteString(e.Hash)
		b.WriteString(")")
	}
	if e.Reason != nil {
		b.WriteString(": reverted: ")
		b.WriteString(e.Reason.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// OutcomeError converts a not-included outcome into a TransactionError.
func OutcomeError(op string, outcome *TransactionOutcome) *TransactionError {
	return &TransactionError{Op: op, Hash: outcome.Hash, Reason: outcome.Revert}
}

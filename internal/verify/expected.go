package verify

import (
	"strings"

	"fula-deployer/internal/chain"
)

type expectedKind int

const (
	expectUnset expectedKind = iota
	expectPayload
	expectSubstring
	expectAny
)

// ExpectedError describes the rejection a call must produce. Build it with
// ExactPayload, MessageSubstring or Unchecked; the zero value matches
// nothing and fails the assertion.
type ExpectedError struct {
	kind    expectedKind
	payload chain.RevertReason
	text    string
}

// ExactPayload matches a revert whose structured payload (kind and code)
// equals reason.
func ExactPayload(reason chain.RevertReason) ExpectedError {
	return ExpectedError{kind: expectPayload, payload: reason}
}

// MessageSubstring matches a revert whose rendered reason contains text.
func MessageSubstring(text string) ExpectedError {
	return ExpectedError{kind: expectSubstring, text: text}
}

// Unchecked accepts any revert and records a warning on the scenario.
func Unchecked() ExpectedError {
	return ExpectedError{kind: expectAny}
}

func (e ExpectedError) String() string {
	switch e.kind {
	case expectPayload:
		return e.payload.Payload()
	case expectSubstring:
		return "message containing " + `"` + e.text + `"`
	case expectAny:
		return "any revert"
	default:
		return "unspecified"
	}
}

// match reports whether reason satisfies e. reason is nil when the chain
// rejected the call without saying why.
func (e ExpectedError) match(reason *chain.RevertReason) bool {
	switch e.kind {
	case expectPayload:
		return reason != nil && reason.SamePayload(e.payload)
	case expectSubstring:
		return reason != nil && e.text != "" && strings.Contains(reason.String(), e.text)
	case expectAny:
		return true
	default:
		return false
	}
}

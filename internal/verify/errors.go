package verify

import "fmt"

// AssertionError reports an observed on-chain outcome that differs from
// the expected one. It only occurs in verification runs.
type AssertionError struct {
	Check    string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	if e.Expected == "" && e.Actual == "" {
		return "assertion failed: " + e.Check
	}
	return fmt.Sprintf("assertion failed: %s: expected %s, got %s", e.Check, e.Expected, e.Actual)
}

func mismatch(check string, expected, actual interface{}) *AssertionError {
	return &AssertionError{
		Check:    check,
		Expected: fmt.Sprint(expected),
		Actual:   fmt.Sprint(actual),
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"fula-deployer/internal/config"
	"fula-deployer/internal/verify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintReports(t *testing.T) {
	var out bytes.Buffer
	printReports(&out, []verify.Report{
		{Name: "ok", Duration: 1500 * time.Millisecond, Warnings: []string{"revert accepted"}},
		{Name: "bad", Err: &verify.AssertionError{Check: "should have reverted"}},
		{Name: "broken", Err: errors.New("rpc down")},
	})

	text := out.String()
	assert.Contains(t, text, "PASS  ok (1.5s)")
	assert.Contains(t, text, "warning: revert accepted")
	assert.Contains(t, text, "FAIL  bad")
	assert.Contains(t, text, "assertion failed: should have reverted")
	assert.Contains(t, text, "error: rpc down")
	assert.Contains(t, text, "1 passed, 2 failed")
}

// Runs the full suite against a live network, e.g. FULA_E2E_NETWORK=development
// with a local quickstart node and artifacts built into ./artifacts.
func TestStandardCases_EndToEnd(t *testing.T) {
	network := os.Getenv("FULA_E2E_NETWORK")
	if network == "" {
		t.Skip("FULA_E2E_NETWORK not set")
	}

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.DefaultNetwork = network
	if dir := os.Getenv("FULA_E2E_ARTIFACTS"); dir != "" {
		cfg.Artifacts.Dir = dir
	}
	require.NoError(t, cfg.Validate())

	var out bytes.Buffer
	err = runSuite(context.Background(), cfg, 1, &out)
	t.Log(out.String())
	require.NoError(t, err)
}

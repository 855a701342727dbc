package models

import (
	"time"

	"github.com/google/uuid"
)

// Deployment is one run of the deploy pipeline as recorded in the journal
type Deployment struct {
	// Identification
	RunID   uuid.UUID `json:"run_id"`
	Network string    `json:"network"`

	// Pipeline state ( NotStarted, CodeUploaded, ProxyDeployed, Initialized, Complete, Failed )
	State string `json:"state"`

	// Outputs, filled as steps complete
	CodeHash      string `json:"code_hash,omitempty"`
	ProxyCodeHash string `json:"proxy_code_hash,omitempty"`
	ProxyAddress  string `json:"proxy_address,omitempty"`

	// Inputs
	Deployer      string `json:"deployer"`
	InitialSupply string `json:"initial_supply"` // base units, decimal string

	// Failure message of the failing step, if any
	Error string `json:"error,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// DeploymentStep is the audit record of a single pipeline step
type DeploymentStep struct {
	RunID    uuid.UUID     `json:"run_id"`
	Step     string        `json:"step"`    // upload, deploy_proxy, initialize
	Outcome  string        `json:"outcome"` // ok, failed
	TxHash   string        `json:"tx_hash,omitempty"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`

	// Step outputs ( code hash, proxy address, revert reason )
	Detail map[string]interface{} `json:"detail,omitempty"`

	RecordedAt time.Time `json:"recorded_at"`
}

// IsTerminal reports whether the run has finished, successfully or not
func (d *Deployment) IsTerminal() bool {
	return d.State == "Complete" || d.State == "Failed"
}

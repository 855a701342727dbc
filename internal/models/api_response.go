package models

import (
	"time"
)

// DeploymentResponse represents a deployment with its steps for API responses
type DeploymentResponse struct {
	RunID   string `json:"run_id"`
	Network string `json:"network"`
	State   string `json:"state"`

	CodeHash      string `json:"code_hash,omitempty"`
	ProxyCodeHash string `json:"proxy_code_hash,omitempty"`
	ProxyAddress  string `json:"proxy_address,omitempty"`

	Deployer      string `json:"deployer"`
	InitialSupply string `json:"initial_supply"`
	Error         string `json:"error,omitempty"`

	// Initial supply in whole tokens
	InitialSupplyTokens string `json:"initial_supply_tokens,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Seconds between start and finish, 0 while running
	DurationSeconds float64 `json:"duration_seconds,omitempty"`

	Steps []StepResponse `json:"steps,omitempty"`
}

// StepResponse represents a pipeline step for timeline views
type StepResponse struct {
	Step            string                 `json:"step"`
	Outcome         string                 `json:"outcome"`
	TxHash          string                 `json:"tx_hash,omitempty"`
	DurationSeconds float64                `json:"duration_seconds"`
	Error           string                 `json:"error,omitempty"`
	Detail          map[string]interface{} `json:"detail,omitempty"`
	RecordedAt      time.Time              `json:"recorded_at"`
}

// DeploymentListResponse represents a paginated list of deployments
type DeploymentListResponse struct {
	Deployments []DeploymentSummary `json:"deployments"`
	Total       int                 `json:"total"`
	Limit       int                 `json:"limit"`
	Offset      int                 `json:"offset"`
}

// DeploymentSummary represents a deployment for list views
type DeploymentSummary struct {
	RunID        string    `json:"run_id"`
	Network      string    `json:"network"`
	State        string    `json:"state"`
	ProxyAddress string    `json:"proxy_address,omitempty"`
	StartedAt    time.Time `json:"started_at"`
}

// StepsResponse represents the steps of one deployment
type StepsResponse struct {
	RunID string         `json:"run_id"`
	Steps []StepResponse `json:"steps"`
	Total int            `json:"total"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// NewDeploymentResponse converts a journal record into its API shape
func NewDeploymentResponse(d *Deployment, steps []*DeploymentStep) DeploymentResponse {
	resp := DeploymentResponse{
		RunID:         d.RunID.String(),
		Network:       d.Network,
		State:         d.State,
		CodeHash:      d.CodeHash,
		ProxyCodeHash: d.ProxyCodeHash,
		ProxyAddress:  d.ProxyAddress,
		Deployer:      d.Deployer,
		InitialSupply: d.InitialSupply,
		Error:         d.Error,
		StartedAt:     d.StartedAt,
		FinishedAt:    d.FinishedAt,
	}
	if d.FinishedAt != nil {
		resp.DurationSeconds = d.FinishedAt.Sub(d.StartedAt).Seconds()
	}
	for _, s := range steps {
		resp.Steps = append(resp.Steps, NewStepResponse(s))
	}
	return resp
}

// NewStepResponse converts a journal step into its API shape
func NewStepResponse(s *DeploymentStep) StepResponse {
	return StepResponse{
		Step:            s.Step,
		Outcome:         s.Outcome,
		TxHash:          s.TxHash,
		DurationSeconds: s.Duration.Seconds(),
		Error:           s.Error,
		Detail:          s.Detail,
		RecordedAt:      s.RecordedAt,
	}
}

// NewDeploymentSummary converts a journal record into its list shape
func NewDeploymentSummary(d *Deployment) DeploymentSummary {
	return DeploymentSummary{
		RunID:        d.RunID.String(),
		Network:      d.Network,
		State:        d.State,
		ProxyAddress: d.ProxyAddress,
		StartedAt:    d.StartedAt,
	}
}

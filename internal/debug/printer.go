package debug

import (
	"context"
	"encoding/json"
	"log/slog"

	"fula-deployer/internal/chain"
	"fula-deployer/internal/models"
)

// PrintDeployment prints the journal record of a run in JSON format
func PrintDeployment(deployment *models.Deployment) {
	jsonData, err := json.MarshalIndent(deployment, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal deployment to JSON", "error", err)
		return
	}

	slog.Debug("Deployment details", "json", string(jsonData))
}

type outcomeView struct {
	Op          string      `json:"op"`
	Included    bool        `json:"included"`
	Hash        string      `json:"hash"`
	Ledger      uint32      `json:"ledger,omitempty"`
	ReturnValue interface{} `json:"return_value,omitempty"`
	Events      []eventView `json:"events,omitempty"`
	Revert      *revertView `json:"revert,omitempty"`
}

type eventView struct {
	ContractID string        `json:"contract_id"`
	Name       string        `json:"name"`
	Args       []interface{} `json:"args"`
}

type revertView struct {
	Kind    string `json:"kind,omitempty"`
	Code    uint32 `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// PrintOutcome prints a transaction outcome with its ScVals decoded
func PrintOutcome(op string, outcome *chain.TransactionOutcome) {
	if outcome == nil || !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	view := outcomeView{
		Op:       op,
		Included: outcome.Included,
		Hash:     outcome.Hash,
		Ledger:   outcome.Ledger,
	}
	if outcome.Included {
		view.ReturnValue = chain.ToInterface(outcome.ReturnValue)
	}
	for _, ev := range outcome.Events {
		args := make([]interface{}, 0, len(ev.Args()))
		for _, a := range ev.Args() {
			args = append(args, chain.ToInterface(a))
		}
		view.Events = append(view.Events, eventView{ContractID: ev.ContractID, Name: ev.Name, Args: args})
	}
	if outcome.Revert != nil {
		view.Revert = &revertView{Kind: outcome.Revert.Kind, Code: outcome.Revert.Code, Message: outcome.Revert.Message}
	}

	jsonData, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal outcome to JSON", "error", err)
		return
	}

	slog.Debug("Transaction outcome details", "json", string(jsonData))
}

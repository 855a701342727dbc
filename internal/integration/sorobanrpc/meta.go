package sorobanrpc

import (
	"fmt"

	"fula-deployer/internal/chain"

	protocol "github.com/stellar/go/protocols/rpc"
	"github.com/stellar/go/xdr"
)

// outcomeFromTransaction converts a terminal getTransaction response
func outcomeFromTransaction(hash string, resp protocol.GetTransactionResponse) (*chain.TransactionOutcome, error) {
	outcome := &chain.TransactionOutcome{
		Hash:        hash,
		Ledger:      resp.Ledger,
		ReturnValue: chain.Void(),
	}

	var meta *xdr.TransactionMeta
	if resp.ResultMetaXDR != "" {
		meta = &xdr.TransactionMeta{}
		if err := xdr.SafeUnmarshalBase64(resp.ResultMetaXDR, meta); err != nil {
			return nil, fmt.Errorf("decode meta of tx %s: %w", hash, err)
		}
	}

	switch resp.Status {
	case txStatusSuccess:
		if meta == nil {
			return nil, fmt.Errorf("tx %s: missing result meta", hash)
		}
		ret, events, err := decodeMeta(*meta)
		if err != nil {
			return nil, fmt.Errorf("tx %s: %w", hash, err)
		}
		outcome.Included = true
		outcome.ReturnValue = ret
		outcome.Events = events
		return outcome, nil

	case txStatusFailed:
		var diagnostics []xdr.DiagnosticEvent
		if meta != nil {
			diagnostics = metaDiagnostics(*meta)
		}
		outcome.Revert = revertFromFailure(resp.ResultXDR, diagnostics)
		return outcome, nil

	default:
		return nil, fmt.Errorf("tx %s: unexpected status %q", hash, resp.Status)
	}
}

// decodeMeta extracts the return value and contract events of a successful
// invocation. V3 keeps events in the soroban meta, V4 per operation.
func decodeMeta(meta xdr.TransactionMeta) (xdr.ScVal, []chain.Event, error) {
	ret := chain.Void()
	var raw []xdr.ContractEvent

	switch meta.V {
	case 3:
		v3 := meta.MustV3()
		if v3.SorobanMeta != nil {
			ret = v3.SorobanMeta.ReturnValue
			raw = v3.SorobanMeta.Events
		}
	case 4:
		v4 := meta.MustV4()
		if v4.SorobanMeta != nil && v4.SorobanMeta.ReturnValue != nil {
			ret = *v4.SorobanMeta.ReturnValue
		}
		for _, op := range v4.Operations {
			raw = append(raw, op.Events...)
		}
	default:
		return ret, nil, fmt.Errorf("unsupported transaction meta version %d", meta.V)
	}

	events := make([]chain.Event, 0, len(raw))
	for _, ev := range raw {
		if ev.Type != xdr.ContractEventTypeContract {
			continue
		}
		decoded, err := chain.EventFromXDR(ev)
		if err != nil {
			return ret, nil, err
		}
		events = append(events, decoded)
	}
	return ret, events, nil
}

func metaDiagnostics(meta xdr.TransactionMeta) []xdr.DiagnosticEvent {
	switch meta.V {
	case 3:
		if v3 := meta.MustV3(); v3.SorobanMeta != nil {
			return v3.SorobanMeta.DiagnosticEvents
		}
	case 4:
		return meta.MustV4().DiagnosticEvents
	}
	return nil
}

func revertFromSend(resp protocol.SendTransactionResponse) *chain.RevertReason {
	var diagnostics []xdr.DiagnosticEvent
	for _, raw := range resp.DiagnosticEventsXDR {
		var ev xdr.DiagnosticEvent
		if err := xdr.SafeUnmarshalBase64(raw, &ev); err == nil {
			diagnostics = append(diagnostics, ev)
		}
	}
	return revertFromFailure(resp.ErrorResultXDR, diagnostics)
}

// revertFromFailure prefers the structured error of an "error" diagnostic
// event and falls back to the transaction result code.
func revertFromFailure(resultXDR string, diagnostics []xdr.DiagnosticEvent) *chain.RevertReason {
	for _, ev := range diagnostics {
		body, ok := ev.Event.Body.GetV0()
		if !ok || len(body.Topics) < 2 {
			continue
		}
		if sym, ok := body.Topics[0].GetSym(); !ok || sym != "error" {
			continue
		}
		if scErr, ok := body.Topics[1].GetError(); ok {
			reason := chain.RevertFromScError(scErr)
			if reason.Message == "" {
				reason.Message = chain.ToString(body.Data)
			}
			return reason
		}
	}

	reason := &chain.RevertReason{Message: "transaction failed"}
	if resultXDR == "" {
		return reason
	}
	var result xdr.TransactionResult
	if err := xdr.SafeUnmarshalBase64(resultXDR, &result); err != nil {
		return reason
	}
	reason.Message = result.Result.Code.String()
	if results, ok := result.Result.GetResults(); ok && len(results) > 0 && results[0].Tr != nil {
		if ihf, ok := results[0].Tr.GetInvokeHostFunctionResult(); ok {
			reason.Message += ": " + ihf.Code.String()
		}
	}
	return reason
}

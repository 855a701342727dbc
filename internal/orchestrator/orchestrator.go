package orchestrator

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"fula-deployer/internal/artifacts"
	"fula-deployer/internal/chain"
	"fula-deployer/internal/config"
	"fula-deployer/internal/debug"
	"fula-deployer/internal/metrics"
	"fula-deployer/internal/models"
	"fula-deployer/internal/services"
	"fula-deployer/internal/signer"

	"github.com/google/uuid"
	"github.com/stellar/go/xdr"
)

// Step names used in logs, metrics and the journal
const (
	StepUpload      = "upload"
	StepDeployProxy = "deploy_proxy"
	StepInitialize  = "initialize"
)

const journalTimeout = 5 * time.Second

// Journal is a write-only audit trail of runs. It is never read back to
// resume a run.
type Journal interface {
	SaveDeployment(ctx context.Context, d *models.Deployment) error
	UpdateDeploymentState(ctx context.Context, d *models.Deployment) error
	SaveStep(ctx context.Context, step *models.DeploymentStep) error
}

// DeploymentResult is what a completed run produced
type DeploymentResult struct {
	RunID         uuid.UUID
	Network       string
	CodeHash      xdr.Hash
	ProxyCodeHash xdr.Hash
	ProxyAddress  string
	InitialSupply *big.Int
	Deployer      string
}

// CodeHashHex returns the implementation code hash as lowercase hex
func (r *DeploymentResult) CodeHashHex() string {
	return hex.EncodeToString(r.CodeHash[:])
}

// Orchestrator runs upload, proxy deployment and initialization in order.
// Any failing step ends the run in Failed and no later step runs.
type Orchestrator struct {
	cfg     *config.Config
	dial    chain.Dialer
	journal Journal
	out     io.Writer

	mu    sync.Mutex
	state State
}

// New creates an orchestrator for the active network of cfg
func New(cfg *config.Config, dial chain.Dialer) *Orchestrator {
	return &Orchestrator{
		cfg:  cfg,
		dial: dial,
		out:  io.Discard,
	}
}

// SetJournal records every run and step in j
func (o *Orchestrator) SetJournal(j Journal) {
	o.journal = j
}

// SetOutput sets where progress lines are printed
func (o *Orchestrator) SetOutput(w io.Writer) {
	o.out = w
}

// State returns the current pipeline state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

type runInputs struct {
	network  config.Network
	deployer *signer.Signer
	token    *artifacts.Artifact
	proxy    *artifacts.Artifact
	supply   *big.Int
}

// prepare resolves everything the run needs before the chain is contacted
func (o *Orchestrator) prepare() (*runInputs, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	network, err := o.cfg.ActiveNetwork()
	if err != nil {
		return nil, err
	}
	deployer, err := signer.NewResolver(network).Resolve()
	if err != nil {
		return nil, err
	}
	supply, err := o.cfg.InitialSupply()
	if err != nil {
		return nil, err
	}

	store := artifacts.NewStore(o.cfg.Artifacts)
	token, err := store.Load(o.cfg.Artifacts.Token)
	if err != nil {
		return nil, err
	}
	proxy, err := store.Load(o.cfg.Artifacts.Proxy)
	if err != nil {
		return nil, err
	}

	return &runInputs{
		network:  network,
		deployer: deployer,
		token:    token,
		proxy:    proxy,
		supply:   supply,
	}, nil
}

// Run executes one deployment. The chain connection is dialed once and
// closed once whatever the outcome. Step errors are returned unchanged.
func (o *Orchestrator) Run(ctx context.Context) (*DeploymentResult, error) {
	o.mu.Lock()
	o.state = NotStarted
	o.mu.Unlock()

	in, err := o.prepare()
	if err != nil {
		o.fail(nil, err)
		return nil, err
	}

	result := &DeploymentResult{
		RunID:         uuid.New(),
		Network:       in.network.Name,
		InitialSupply: in.supply,
		Deployer:      in.deployer.Address,
	}
	run := &models.Deployment{
		RunID:         result.RunID,
		Network:       result.Network,
		State:         NotStarted.String(),
		Deployer:      result.Deployer,
		InitialSupply: in.supply.String(),
		StartedAt:     time.Now().UTC(),
	}
	o.record(ctx, func(jctx context.Context) error { return o.journal.SaveDeployment(jctx, run) })

	slog.Info("Starting deployment",
		"run_id", result.RunID,
		"network", result.Network,
		"deployer", result.Deployer,
		"supply", in.supply.String(),
	)

	err = chain.WithConnection(ctx, o.dial, func(client chain.Client) error {
		return o.pipeline(ctx, client, in, run, result)
	})
	if err != nil {
		o.fail(run, err)
		o.finish(ctx, run)
		return nil, err
	}

	if err := o.advance(Complete); err != nil {
		return nil, err
	}
	run.State = Complete.String()
	o.finish(ctx, run)
	metrics.DeploymentsTotal.WithLabelValues(Complete.String()).Inc()

	slog.Info("Deployment complete",
		"run_id", result.RunID,
		"proxy_address", result.ProxyAddress,
		"code_hash", result.CodeHashHex(),
	)
	return result, nil
}

func (o *Orchestrator) pipeline(ctx context.Context, client chain.Client, in *runInputs, run *models.Deployment, result *DeploymentResult) error {
	publisher := services.NewPublisherService(client)
	deployer := services.NewProxyService(client, publisher)
	initializer := services.NewInitializerService(client)

	err := o.step(ctx, run, StepUpload, func(stepCtx context.Context) (map[string]interface{}, string, error) {
		upload, err := publisher.Upload(stepCtx, in.deployer, in.token)
		if err != nil {
			return nil, "", err
		}
		result.CodeHash = upload.CodeHash
		return map[string]interface{}{"code_hash": result.CodeHashHex()}, upload.TxHash, nil
	})
	if err != nil {
		return err
	}
	run.CodeHash = result.CodeHashHex()
	if err := o.transition(ctx, run, CodeUploaded); err != nil {
		return err
	}
	fmt.Fprintf(o.out, "TOKEN CODE HASH: %s\n", result.CodeHashHex())

	err = o.step(ctx, run, StepDeployProxy, func(stepCtx context.Context) (map[string]interface{}, string, error) {
		deployment, err := deployer.Deploy(stepCtx, in.deployer, in.proxy, result.CodeHash)
		if err != nil {
			return nil, "", err
		}
		result.ProxyAddress = deployment.Address
		result.ProxyCodeHash = deployment.ProxyCodeHash
		return map[string]interface{}{
			"proxy_address":   deployment.Address,
			"proxy_code_hash": hex.EncodeToString(deployment.ProxyCodeHash[:]),
		}, deployment.TxHash, nil
	})
	if err != nil {
		return err
	}
	run.ProxyAddress = result.ProxyAddress
	run.ProxyCodeHash = hex.EncodeToString(result.ProxyCodeHash[:])
	if err := o.transition(ctx, run, ProxyDeployed); err != nil {
		return err
	}
	fmt.Fprintf(o.out, "PROXY ADDRESS: %s\n", result.ProxyAddress)

	err = o.step(ctx, run, StepInitialize, func(stepCtx context.Context) (map[string]interface{}, string, error) {
		txHash, err := initializer.InitializeTx(stepCtx, in.deployer, result.ProxyAddress, in.supply)
		if err != nil {
			return nil, "", err
		}
		return map[string]interface{}{"supply": in.supply.String()}, txHash, nil
	})
	if err != nil {
		return err
	}
	if err := o.transition(ctx, run, Initialized); err != nil {
		return err
	}
	fmt.Fprintf(o.out, "Initialized FULA token at %s\n", result.ProxyAddress)

	return nil
}

type stepFunc func(ctx context.Context) (detail map[string]interface{}, txHash string, err error)

// step runs fn under the step timeout and records its outcome
func (o *Orchestrator) step(ctx context.Context, run *models.Deployment, name string, fn stepFunc) error {
	stepCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	defer cancel()

	slog.Debug("Step started", "step", name, "run_id", run.RunID)
	start := time.Now()
	detail, txHash, err := fn(stepCtx)
	elapsed := time.Since(start)

	metrics.StepDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	record := &models.DeploymentStep{
		RunID:      run.RunID,
		Step:       name,
		Outcome:    "ok",
		TxHash:     txHash,
		Duration:   elapsed,
		Detail:     detail,
		RecordedAt: time.Now().UTC(),
	}
	if err != nil {
		record.Outcome = "failed"
		record.Error = err.Error()
		if reason := revertDetail(err); reason != nil {
			record.Detail = reason
		}
		metrics.ErrorsTotal.WithLabelValues(name).Inc()
		slog.Error("Step failed", "step", name, "run_id", run.RunID, "duration", elapsed, "error", err)
	} else {
		slog.Info("Step finished", "step", name, "run_id", run.RunID, "duration", elapsed)
	}
	metrics.StepsTotal.WithLabelValues(name, record.Outcome).Inc()
	o.record(ctx, func(jctx context.Context) error { return o.journal.SaveStep(jctx, record) })

	return err
}

func (o *Orchestrator) transition(ctx context.Context, run *models.Deployment, to State) error {
	if err := o.advance(to); err != nil {
		return err
	}
	run.State = to.String()
	o.record(ctx, func(jctx context.Context) error { return o.journal.UpdateDeploymentState(jctx, run) })
	return nil
}

// fail moves the run to Failed; run is nil when the chain was never contacted
func (o *Orchestrator) fail(run *models.Deployment, err error) {
	if advErr := o.advance(Failed); advErr != nil {
		slog.Warn("Could not mark run failed", "error", advErr)
	}
	metrics.DeploymentsTotal.WithLabelValues(Failed.String()).Inc()
	if run != nil {
		run.State = Failed.String()
		run.Error = err.Error()
	}
}

func (o *Orchestrator) finish(ctx context.Context, run *models.Deployment) {
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	debug.PrintDeployment(run)
	o.record(ctx, func(jctx context.Context) error { return o.journal.UpdateDeploymentState(jctx, run) })
}

// record writes to the journal when one is set. Failures are logged only.
func (o *Orchestrator) record(ctx context.Context, write func(context.Context) error) {
	if o.journal == nil {
		return
	}
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	if err := write(jctx); err != nil {
		slog.Warn("Journal write failed", "error", err)
	}
}

func revertDetail(err error) map[string]interface{} {
	var txErr *chain.TransactionError
	if !errors.As(err, &txErr) || txErr.Reason == nil {
		return nil
	}
	return map[string]interface{}{
		"revert_kind":    txErr.Reason.Kind,
		"revert_code":    txErr.Reason.Code,
		"revert_message": txErr.Reason.Message,
		"tx_hash":        txErr.Hash,
	}
}

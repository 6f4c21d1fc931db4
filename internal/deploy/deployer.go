// Package deploy implements the sequential worker provisioning loop.
package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edgefleet/fleetctl/internal/keys"
	"github.com/edgefleet/fleetctl/internal/progress"
	"github.com/edgefleet/fleetctl/internal/provider"
	"github.com/edgefleet/fleetctl/internal/registry"
	"github.com/edgefleet/fleetctl/internal/script"
)

// Uploader pushes one script to the provider. *provider.Client satisfies
// this interface; tests substitute fakes.
type Uploader interface {
	UploadScript(ctx context.Context, name string, meta provider.Metadata, src script.Source) error
}

// Config controls Deployer behavior.
type Config struct {
	// Workers is the fleet size; names run prefix-1 through prefix-N.
	Workers int
	// NamePrefix is the deterministic worker name prefix.
	NamePrefix string
	// ZoneHost is the authority suffix public worker URLs are derived from.
	ZoneHost string
	// BindingName is the environment binding the per-worker key is exposed
	// under inside the deployed script.
	BindingName string
}

// Result summarizes a deployment run.
type Result struct {
	Attempted     int
	Deployed      int
	Failed        int
	KeysGenerated int
}

// Deployer drives the provisioning loop. Deployments are strictly
// sequential; key generation and registry updates depend on deterministic
// iteration order, so the loop must not be parallelized.
type Deployer struct {
	uploader Uploader
	keys     keys.Generator
	store    registry.Store
	emitter  progress.Emitter
	logger   *zap.Logger
	cfg      Config
}

// New constructs a Deployer. A nil emitter disables progress events and a
// nil logger disables logging.
func New(
	uploader Uploader,
	keyGen keys.Generator,
	store registry.Store,
	emitter progress.Emitter,
	logger *zap.Logger,
	cfg Config,
) *Deployer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = "worker"
	}
	if cfg.ZoneHost == "" {
		cfg.ZoneHost = "workers.dev"
	}
	if cfg.BindingName == "" {
		cfg.BindingName = "WORKER_API_KEY"
	}
	return &Deployer{
		uploader: uploader,
		keys:     keyGen,
		store:    store,
		emitter:  emitter,
		logger:   logger,
		cfg:      cfg,
	}
}

// WorkerName returns the deterministic name for the i-th worker (1-indexed).
func (d *Deployer) WorkerName(i int) string {
	return fmt.Sprintf("%s-%d", d.cfg.NamePrefix, i)
}

// PublicURL derives the public URL a deployed worker is reachable at.
func (d *Deployer) PublicURL(name string) string {
	return fmt.Sprintf("https://%s.%s/", name, d.cfg.ZoneHost)
}

// Run executes one full deployment pass: load the registry, deploy workers
// 1..N in order, and persist the registry. A worker whose deployment fails
// is logged and skipped; its registry entry is left exactly as it was
// before the run. Run only returns an error for registry access failures
// and key-generation failures; per-worker deploy failures are reflected in
// the Result.
func (d *Deployer) Run(ctx context.Context, src script.Source) (Result, *registry.Registry, error) {
	reg, err := d.store.Load(ctx)
	if err != nil {
		return Result{}, nil, err
	}

	runID := uuid.NewString()
	runStart := time.Now()
	d.emit(ctx, progress.Event{RunID: runID, TS: runStart.UTC(), Stage: progress.StageRunStart})
	d.logger.Info("starting deployment run",
		zap.String("run_id", runID),
		zap.Int("workers", d.cfg.Workers),
		zap.String("prefix", d.cfg.NamePrefix),
	)

	var res Result
	for i := 1; i <= d.cfg.Workers; i++ {
		name := d.WorkerName(i)
		res.Attempted++

		rec, found := reg.FindByName(name)
		key := rec.APIKey
		generated := false
		if !found {
			key, err = d.keys.NewKey()
			if err != nil {
				return res, reg, fmt.Errorf("worker %s: %w", name, err)
			}
			generated = true
			d.logger.Info("generated api key", zap.String("worker", name), zap.String("key", key))
		}

		d.emit(ctx, progress.Event{
			RunID: runID, TS: time.Now().UTC(),
			Stage: progress.StageDeployStart, Worker: name, KeyGenerated: generated,
		})

		start := time.Now()
		meta := provider.Metadata{
			MainModule: src.FileName,
			Bindings:   []provider.Binding{provider.PlainTextBinding(d.cfg.BindingName, key)},
		}
		if err := d.uploader.UploadScript(ctx, name, meta, src); err != nil {
			res.Failed++
			d.emit(ctx, progress.Event{
				RunID: runID, TS: time.Now().UTC(),
				Stage: progress.StageDeployError, Worker: name,
				Dur: time.Since(start), Note: err.Error(),
			})
			d.logger.Warn("worker deployment failed", zap.String("worker", name), zap.Error(err))
			continue
		}

		res.Deployed++
		if generated {
			res.KeysGenerated++
		}
		url := d.PublicURL(name)
		reg.Upsert(registry.Record{Name: name, APIKey: key, PublicURL: url})
		d.emit(ctx, progress.Event{
			RunID: runID, TS: time.Now().UTC(),
			Stage: progress.StageDeployDone, Worker: name, KeyGenerated: generated,
			Dur: time.Since(start),
		})
		d.logger.Info("worker deployed", zap.String("worker", name), zap.String("url", url))

		// Persist after every success so a crash mid-run keeps the
		// bookkeeping for workers that already deployed.
		if err := d.store.Save(ctx, reg); err != nil {
			d.logger.Warn("registry save failed", zap.String("worker", name), zap.Error(err))
		}
	}

	if err := d.store.Save(ctx, reg); err != nil {
		return res, reg, fmt.Errorf("persist registry: %w", err)
	}

	d.emit(ctx, progress.Event{
		RunID: runID, TS: time.Now().UTC(),
		Stage: progress.StageRunDone, Dur: time.Since(runStart),
		Note: fmt.Sprintf("deployed=%d failed=%d", res.Deployed, res.Failed),
	})
	d.logger.Info("deployment run complete",
		zap.String("run_id", runID),
		zap.Int("attempted", res.Attempted),
		zap.Int("deployed", res.Deployed),
		zap.Int("failed", res.Failed),
		zap.Int("keys_generated", res.KeysGenerated),
	)
	return res, reg, nil
}

func (d *Deployer) emit(ctx context.Context, evt progress.Event) {
	if d.emitter == nil {
		return
	}
	d.emitter.Emit(ctx, evt)
}

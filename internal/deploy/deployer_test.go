package deploy

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgefleet/fleetctl/internal/progress"
	"github.com/edgefleet/fleetctl/internal/provider"
	"github.com/edgefleet/fleetctl/internal/registry"
	"github.com/edgefleet/fleetctl/internal/registry/memory"
	"github.com/edgefleet/fleetctl/internal/script"
)

// fakeUploader records upload calls and fails the workers listed in fail.
type fakeUploader struct {
	calls []uploadCall
	fail  map[string]error
}

type uploadCall struct {
	name string
	meta provider.Metadata
}

func (f *fakeUploader) UploadScript(_ context.Context, name string, meta provider.Metadata, _ script.Source) error {
	f.calls = append(f.calls, uploadCall{name: name, meta: meta})
	if err, ok := f.fail[name]; ok {
		return err
	}
	return nil
}

// seqKeyGen returns key-1, key-2, ... deterministically.
type seqKeyGen struct {
	n int
}

func (g *seqKeyGen) NewKey() (string, error) {
	g.n++
	return fmt.Sprintf("key-%d", g.n), nil
}

// captureEmitter collects progress events.
type captureEmitter struct {
	events []progress.Event
}

func (c *captureEmitter) Emit(_ context.Context, evt progress.Event) {
	c.events = append(c.events, evt)
}

func testScript() script.Source {
	return script.Source{FileName: "worker.js", Body: []byte("export default {}\n")}
}

func newTestDeployer(uploader *fakeUploader, store registry.Store, workers int) *Deployer {
	return New(uploader, &seqKeyGen{}, store, nil, nil, Config{
		Workers:     workers,
		NamePrefix:  "worker",
		ZoneHost:    "example.workers.dev",
		BindingName: "WORKER_API_KEY",
	})
}

func TestRunDeploysDeterministicNames(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{}
	store := memory.NewStore()
	d := newTestDeployer(uploader, store, 3)

	res, reg, err := d.Run(context.Background(), testScript())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Attempted)
	assert.Equal(t, 3, res.Deployed)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 3, res.KeysGenerated)

	require.Len(t, uploader.calls, 3)
	for i, call := range uploader.calls {
		assert.Equal(t, fmt.Sprintf("worker-%d", i+1), call.name)
	}

	require.Equal(t, 3, reg.Len())
	rec, ok := reg.FindByName("worker-2")
	require.True(t, ok)
	assert.Equal(t, "key-2", rec.APIKey)
	assert.Equal(t, "https://worker-2.example.workers.dev/", rec.PublicURL)
}

func TestRunZeroWorkers(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{}
	store := memory.NewStore()
	d := newTestDeployer(uploader, store, 0)

	res, reg, err := d.Run(context.Background(), testScript())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Attempted)
	assert.Empty(t, uploader.calls)
	assert.Equal(t, 0, reg.Len())
}

func TestRunReusesExistingKeys(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{}
	store := memory.NewStore()

	// First run assigns fresh keys.
	first := newTestDeployer(uploader, store, 2)
	_, firstReg, err := first.Run(context.Background(), testScript())
	require.NoError(t, err)

	// Second run against the same registry must reuse every key verbatim.
	second := newTestDeployer(uploader, store, 2)
	res, secondReg, err := second.Run(context.Background(), testScript())
	require.NoError(t, err)

	assert.Equal(t, 0, res.KeysGenerated)
	for i := range firstReg.Workers {
		assert.Equal(t, firstReg.Workers[i].APIKey, secondReg.Workers[i].APIKey)
	}

	// The reused key is what gets bound into the deployed script.
	require.Len(t, uploader.calls, 4)
	assert.Equal(t, uploader.calls[0].meta.Bindings[0].Text, uploader.calls[2].meta.Bindings[0].Text)
	assert.Equal(t, uploader.calls[1].meta.Bindings[0].Text, uploader.calls[3].meta.Bindings[0].Text)
}

func TestRunFailureLeavesNewWorkerAbsent(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{fail: map[string]error{
		"worker-2": errors.New("provider returned status 500"),
	}}
	store := memory.NewStore()
	d := newTestDeployer(uploader, store, 3)

	res, reg, err := d.Run(context.Background(), testScript())
	require.NoError(t, err, "per-worker failures must not fail the run")

	assert.Equal(t, 3, res.Attempted)
	assert.Equal(t, 2, res.Deployed)
	assert.Equal(t, 1, res.Failed)

	_, ok := reg.FindByName("worker-2")
	assert.False(t, ok, "failed worker must not be recorded")
	_, ok = reg.FindByName("worker-1")
	assert.True(t, ok)
	_, ok = reg.FindByName("worker-3")
	assert.True(t, ok)
}

func TestRunFailureLeavesExistingRecordUnchanged(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seeded := registry.New()
	seeded.Upsert(registry.Record{
		Name:      "worker-1",
		APIKey:    "preexisting",
		PublicURL: "https://worker-1.old-zone.dev/",
	})
	store.Seed(seeded)

	uploader := &fakeUploader{fail: map[string]error{
		"worker-1": errors.New("provider returned status 500"),
	}}
	d := newTestDeployer(uploader, store, 1)

	_, reg, err := d.Run(context.Background(), testScript())
	require.NoError(t, err)

	rec, ok := reg.FindByName("worker-1")
	require.True(t, ok)
	assert.Equal(t, "preexisting", rec.APIKey)
	assert.Equal(t, "https://worker-1.old-zone.dev/", rec.PublicURL, "URL must not update on failure")
}

func TestRunRefreshesURLForExistingWorker(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	seeded := registry.New()
	seeded.Upsert(registry.Record{
		Name:      "worker-1",
		APIKey:    "preexisting",
		PublicURL: "https://worker-1.old-zone.dev/",
	})
	store.Seed(seeded)

	uploader := &fakeUploader{}
	d := newTestDeployer(uploader, store, 1)

	_, reg, err := d.Run(context.Background(), testScript())
	require.NoError(t, err)

	rec, ok := reg.FindByName("worker-1")
	require.True(t, ok)
	assert.Equal(t, "preexisting", rec.APIKey)
	assert.Equal(t, "https://worker-1.example.workers.dev/", rec.PublicURL)
}

func TestRunPersistsAfterEachSuccess(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{}
	store := memory.NewStore()
	d := newTestDeployer(uploader, store, 2)

	_, _, err := d.Run(context.Background(), testScript())
	require.NoError(t, err)

	// One save per successful deploy plus the final save.
	assert.Equal(t, 3, store.Saves())
}

func TestRunEmitsLifecycleEvents(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{fail: map[string]error{
		"worker-2": errors.New("boom"),
	}}
	store := memory.NewStore()
	emitter := &captureEmitter{}
	d := New(uploader, &seqKeyGen{}, store, emitter, nil, Config{Workers: 2})

	_, _, err := d.Run(context.Background(), testScript())
	require.NoError(t, err)

	var stages []progress.Stage
	for _, evt := range emitter.events {
		stages = append(stages, evt.Stage)
	}
	assert.Equal(t, []progress.Stage{
		progress.StageRunStart,
		progress.StageDeployStart,
		progress.StageDeployDone,
		progress.StageDeployStart,
		progress.StageDeployError,
		progress.StageRunDone,
	}, stages)

	assert.Equal(t, "worker-2", emitter.events[4].Worker)
	assert.Contains(t, emitter.events[4].Note, "boom")
}

func TestRunPropagatesRegistryLoadError(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{}
	d := New(uploader, &seqKeyGen{}, failingStore{}, nil, nil, Config{Workers: 2})

	_, _, err := d.Run(context.Background(), testScript())
	require.Error(t, err)
	assert.Empty(t, uploader.calls, "no network call may happen when the registry is unreadable")
}

type failingStore struct{}

func (failingStore) Load(context.Context) (*registry.Registry, error) {
	return nil, errors.New("registry corrupt")
}

func (failingStore) Save(context.Context, *registry.Registry) error {
	return errors.New("registry corrupt")
}

func TestDeployerDefaults(t *testing.T) {
	t.Parallel()

	d := New(&fakeUploader{}, &seqKeyGen{}, memory.NewStore(), nil, nil, Config{Workers: 1})
	assert.Equal(t, "worker-1", d.WorkerName(1))
	assert.Equal(t, "https://worker-1.workers.dev/", d.PublicURL("worker-1"))
}

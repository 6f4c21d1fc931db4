// Package progress defines the event stream emitted by deployment runs.
package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart    Stage = "RUN_START"
	StageRunDone     Stage = "RUN_DONE"
	StageDeployStart Stage = "DEPLOY_START"
	StageDeployDone  Stage = "DEPLOY_DONE"
	StageDeployError Stage = "DEPLOY_ERROR"
)

// Event captures a single milestone of a deployment run.
type Event struct {
	// RunID identifies the run that produced the event.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle milestone occurred.
	Stage Stage
	// Worker scopes deploy events to a worker name.
	Worker string
	// KeyGenerated marks deploys that minted a fresh API key.
	KeyGenerated bool
	// Dur captures execution latency for deploys and run completions.
	Dur time.Duration
	// Note lets emitters attach low-volume context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StageDeployStart, StageDeployDone, StageDeployError:
		if e.Worker == "" {
			return errors.New("deploy events require a worker name")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"context"
	"sync"
	"time"

	"github.com/lightning-platform/lightning-installer/internal/config"
)

type RunStatus int

const (
	RunStatusNotStarted RunStatus = iota
	RunStatusRunning
	RunStatusSucceeded
	RunStatusFailed
)

func (s RunStatus) String() string {
	switch s {
	case RunStatusNotStarted:
		return "NOT_STARTED"
	case RunStatusRunning:
		return "RUNNING"
	case RunStatusSucceeded:
		return "SUCCEEDED"
	case RunStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// RunState is the process-wide state of one orchestrator invocation.
// It is owned exclusively by the orchestrator and discarded once the
// summary has been emitted.
type RunState struct {
	RunID       string
	StartedAt   time.Time
	CurrentStep int
	Status      RunStatus
	FailedStep  string
	Results     []StepResult
}

// Orchestrator executes the plan strictly in order: one step at a
// time, aborting on the first non-optional failure. Nothing is rolled
// back on failure; compensating cleanup is a separate, explicitly
// invoked operation.
type Orchestrator struct {
	plan   *Plan
	runner *StepRunner
	state  RunState

	mutex     sync.Mutex
	cancelled bool
}

func NewOrchestrator(plan *Plan, runID string) *Orchestrator {
	return &Orchestrator{
		plan:   plan,
		runner: &StepRunner{},
		state: RunState{
			RunID:  runID,
			Status: RunStatusNotStarted,
		},
	}
}

// Run executes every step of the plan in declared order and returns
// the terminal run state. A returned error carries the failed step's
// message; the run state holds the per-step record either way.
func (o *Orchestrator) Run(ctx context.Context, cfg *config.InstallerConfig) (*RunState, *InstallerError) {
	logger := Logger()
	o.state.StartedAt = time.Now()
	o.state.Status = RunStatusRunning

	for i, step := range o.plan.Steps {
		if o.Cancelled() {
			logger.Info("Installation cancelled")
			o.state.Status = RunStatusFailed
			return &o.state, nil
		}
		o.state.CurrentStep = i

		result := o.runner.Run(ctx, step, cfg)
		o.state.Results = append(o.state.Results, result)

		if !result.Result.Success && !step.Optional {
			o.state.Status = RunStatusFailed
			o.state.FailedStep = step.Name
			return &o.state, &InstallerError{
				ErrorCode: InstallerErrorCodeInternal,
				ErrorMsg:  "Failed step: " + step.Name + ": " + result.Result.Message,
			}
		}
	}

	o.state.Status = RunStatusSucceeded
	return &o.state, nil
}

func (o *Orchestrator) Cancel() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.cancelled = true
}

func (o *Orchestrator) Cancelled() bool {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.cancelled
}

// ExitCode maps the terminal run status to the process exit code.
func (s *RunState) ExitCode() int {
	if s.Status == RunStatusSucceeded {
		return 0
	}
	return 1
}

// Summary emits the final per-step report and points at the log file.
func (s *RunState) Summary(logFile string) {
	logger := Logger()
	logger.Infof("==== Deployment %s: %s", s.RunID, s.Status)
	for _, result := range s.Results {
		glyph := "🟢"
		if !result.Result.Success {
			glyph = "❌"
			if result.Optional {
				glyph = "🟡"
			}
		}
		logger.Infof("  %s %-22s %10s  %s", glyph, result.Name, result.Duration, result.Result.Message)
	}
	if s.Status == RunStatusFailed {
		if s.FailedStep != "" {
			logger.Errorf("Failed step: %s. See %s for details", s.FailedStep, logFile)
		} else {
			logger.Errorf("Run did not complete. See %s for details", logFile)
		}
	} else {
		logger.Infof("Total time: %s. Full log: %s", time.Since(s.StartedAt).Truncate(time.Second), logFile)
	}
}

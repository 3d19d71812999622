// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"context"
	"fmt"

	"github.com/lightning-platform/lightning-installer/internal/config"
	"github.com/lightning-platform/lightning-installer/internal/diag"
)

// InstallResult is the uniform outcome of a single installer call.
type InstallResult struct {
	Success bool
	Message string
}

func Success(format string, args ...any) InstallResult {
	return InstallResult{Success: true, Message: fmt.Sprintf(format, args...)}
}

func Failure(format string, args ...any) InstallResult {
	return InstallResult{Success: false, Message: fmt.Sprintf(format, args...)}
}

// ComponentInstaller is the contract every platform component exposes
// to the orchestrator. The orchestrator applies a uniform
// install-then-confirm protocol across heterogeneous components
// through this interface and never special-cases an individual one.
type ComponentInstaller interface {
	// Install applies the component to the cluster. It must be
	// idempotent: an existing healthy deployment short-circuits to
	// success, an unhealthy one is upgraded in place. Install blocks
	// until the apply completes or the component's timeout elapses.
	Install(ctx context.Context, cfg *config.InstallerConfig) InstallResult

	// Verify is read-only. It checks the component's namespace, at
	// least one ready replica, and a reachable service entry point.
	Verify(ctx context.Context, cfg *config.InstallerConfig) InstallResult

	// CollectDiagnostics reads recent logs and events and classifies
	// error-like lines. It never mutates state and never fails the run.
	CollectDiagnostics(ctx context.Context, cfg *config.InstallerConfig) diag.Report

	// Cleanup removes the component's release and owned persistent
	// resources, best effort. Already-absent resources are a no-op.
	Cleanup(ctx context.Context, cfg *config.InstallerConfig) error
}

// Step is one entry in the deployment plan.
type Step struct {
	Name      string
	Installer ComponentInstaller

	// Optional steps log a failure as a warning and do not abort the
	// plan. This is the explicit criticality flag for advisory steps
	// such as smoke diagnostics.
	Optional bool

	// Requires names the steps that must appear earlier in the plan.
	// The edges exist so the plan can be validated up front instead of
	// relying on call order alone.
	Requires []string
}

// Plan is the fixed, ordered list of steps executed by the
// orchestrator. Steps run in declared order with no parallelism.
type Plan struct {
	Steps []Step
}

// NewPlan validates that every dependency edge points at an earlier
// step and that step names are unique.
func NewPlan(steps []Step) (*Plan, error) {
	seen := make(map[string]bool, len(steps))
	for _, step := range steps {
		if step.Name == "" {
			return nil, &InstallerError{
				ErrorCode: InstallerErrorCodeInvalidArgument,
				ErrorMsg:  "step name must not be empty",
			}
		}
		if step.Installer == nil {
			return nil, &InstallerError{
				ErrorCode: InstallerErrorCodeInvalidArgument,
				ErrorMsg:  fmt.Sprintf("step %s has no installer", step.Name),
			}
		}
		if seen[step.Name] {
			return nil, &InstallerError{
				ErrorCode: InstallerErrorCodeInvalidArgument,
				ErrorMsg:  fmt.Sprintf("duplicate step name: %s", step.Name),
			}
		}
		for _, req := range step.Requires {
			if !seen[req] {
				return nil, &InstallerError{
					ErrorCode: InstallerErrorCodeInvalidArgument,
					ErrorMsg:  fmt.Sprintf("step %s requires %s, which does not precede it", step.Name, req),
				}
			}
		}
		seen[step.Name] = true
	}
	return &Plan{Steps: steps}, nil
}

func ReverseSteps(steps []Step) []Step {
	reversed := make([]Step, 0, len(steps))
	for i := len(steps) - 1; i >= 0; i-- {
		reversed = append(reversed, steps[i])
	}
	return reversed
}

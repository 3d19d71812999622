// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"context"
	"time"

	"github.com/lightning-platform/lightning-installer/internal/config"
)

// StepResult records the outcome of exactly one step invocation.
type StepResult struct {
	Name     string
	Optional bool
	Result   InstallResult
	Duration time.Duration
}

// StepRunner executes a single step: one start record before, one
// complete or fail record after, and the installer outcome normalized
// into the orchestrator's pass/fail vocabulary.
type StepRunner struct{}

func (r *StepRunner) Run(ctx context.Context, step Step, cfg *config.InstallerConfig) StepResult {
	logger := Logger()
	logger.Infof("---- Step %s: starting", step.Name)
	start := time.Now()

	result := step.Installer.Install(ctx, cfg)
	if result.Success {
		// Verification is a gate, not advisory. A failed verify is the
		// step's hard failure unless the step is marked optional.
		result = step.Installer.Verify(ctx, cfg)
	}

	duration := time.Since(start).Truncate(time.Millisecond)
	switch {
	case result.Success:
		logger.Infof("---- Step %s: complete in %s 🟢 %s", step.Name, duration, result.Message)
	case step.Optional:
		logger.Warnf("---- Step %s: failed (advisory, continuing) in %s 🟡 %s", step.Name, duration, result.Message)
	default:
		logger.Errorf("---- Step %s: failed in %s ❌ %s", step.Name, duration, result.Message)
	}

	return StepResult{
		Name:     step.Name,
		Optional: step.Optional,
		Result:   result,
		Duration: duration,
	}
}

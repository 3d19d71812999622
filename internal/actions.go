// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lightning-platform/lightning-installer/internal/config"
	"github.com/lightning-platform/lightning-installer/internal/diag"
)

// VerifyPlan runs a read-only verification pass over every step in
// declared order. Unlike an install run it does not stop early: the
// point is a complete health picture.
func VerifyPlan(ctx context.Context, plan *Plan, cfg *config.InstallerConfig) *RunState {
	logger := Logger()
	state := &RunState{Status: RunStatusRunning, StartedAt: time.Now()}

	failed := false
	for i, step := range plan.Steps {
		state.CurrentStep = i
		start := time.Now()
		result := step.Installer.Verify(ctx, cfg)
		duration := time.Since(start).Truncate(time.Millisecond)
		state.Results = append(state.Results, StepResult{
			Name:     step.Name,
			Optional: step.Optional,
			Result:   result,
			Duration: duration,
		})
		if result.Success {
			logger.Infof("verify %s 🟢 %s", step.Name, result.Message)
			continue
		}
		if step.Optional {
			logger.Warnf("verify %s 🟡 %s", step.Name, result.Message)
			continue
		}
		logger.Errorf("verify %s ❌ %s", step.Name, result.Message)
		failed = true
		if state.FailedStep == "" {
			state.FailedStep = step.Name
		}
	}

	if failed {
		state.Status = RunStatusFailed
	} else {
		state.Status = RunStatusSucceeded
	}
	return state
}

// DiagnosePlan collects diagnostics for every step. Diagnostic-only:
// it never mutates state and never fails.
func DiagnosePlan(ctx context.Context, plan *Plan, cfg *config.InstallerConfig) []diag.Report {
	logger := Logger()
	reports := make([]diag.Report, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		report := step.Installer.CollectDiagnostics(ctx, cfg)
		reports = append(reports, report)
		if report.HasFindings() {
			logger.Warnf("%s: %d error-like line(s) out of %d scanned", report.Component, len(report.Suspect), report.Scanned)
			for _, line := range report.Suspect {
				logger.Infof("  %s %s", line.Pod, line.Text)
			}
		} else {
			logger.Infof("%s: clean (%d line(s) scanned)", report.Component, report.Scanned)
		}
	}
	return reports
}

// CleanupPlan removes every component in reverse plan order, best
// effort: a failing cleanup is reported and the walk continues.
// This is the explicitly invoked compensation path; nothing calls it
// automatically on a mid-run failure.
func CleanupPlan(ctx context.Context, plan *Plan, cfg *config.InstallerConfig) error {
	logger := Logger()
	var failures []error
	for _, step := range ReverseSteps(plan.Steps) {
		logger.Infof("cleaning up %s", step.Name)
		if err := step.Installer.Cleanup(ctx, cfg); err != nil {
			logger.Warnf("cleanup %s: %v", step.Name, err)
			failures = append(failures, fmt.Errorf("cleanup %s: %w", step.Name, err))
		}
	}
	return errors.Join(failures...)
}

// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"

	"github.com/lightning-platform/lightning-installer/internal"
	"github.com/lightning-platform/lightning-installer/internal/config"
	"github.com/lightning-platform/lightning-installer/internal/diag"
)

// SmokeTarget names one component the advisory scan covers.
type SmokeTarget struct {
	Name     string
	Selector string
}

// defaultSmokeTargets are the platform services worth a post-install
// log scan. Infrastructure charts are skipped; their own verify steps
// already gate the run.
var defaultSmokeTargets = []SmokeTarget{
	{Name: "lightning-server", Selector: "app.kubernetes.io/name=lightning-server"},
	{Name: "lightning-api", Selector: "app.kubernetes.io/name=lightning-api"},
	{Name: "lightning-gui", Selector: "app.kubernetes.io/name=lightning-gui"},
	{Name: "zeppelin", Selector: "app.kubernetes.io/name=zeppelin"},
}

// SmokeDiagnostics is an advisory step: it scans recent service logs
// for error-like lines and reports findings as warnings. It always
// passes; findings never change the run's terminal state.
type SmokeDiagnostics struct {
	Kube    KubeClient
	Targets []SmokeTarget
}

func (s *SmokeDiagnostics) targets() []SmokeTarget {
	if len(s.Targets) > 0 {
		return s.Targets
	}
	return defaultSmokeTargets
}

func (s *SmokeDiagnostics) scan(ctx context.Context, cfg *config.InstallerConfig) []diag.Report {
	logger := internal.Logger()
	reports := make([]diag.Report, 0, len(s.targets()))
	for _, target := range s.targets() {
		logs, err := s.Kube.PodLogs(ctx, cfg.Global.Namespace, target.Selector, 200)
		if err != nil {
			logger.Warnf("collect logs for %s: %v", target.Name, err)
			continue
		}
		reports = append(reports, diag.Scan(target.Name, logs, nil))
	}
	return reports
}

func (s *SmokeDiagnostics) Install(ctx context.Context, cfg *config.InstallerConfig) internal.InstallResult {
	logger := internal.Logger()
	findings := 0
	for _, report := range s.scan(ctx, cfg) {
		if report.HasFindings() {
			findings += len(report.Suspect)
			logger.Warnf("%s: %d error-like log line(s)", report.Component, len(report.Suspect))
			for _, line := range report.Suspect {
				logger.Debugf("  %s: %s", line.Pod, line.Text)
			}
		}
	}
	if findings > 0 {
		return internal.Success("scan complete with %d error-like line(s), see warnings", findings)
	}
	return internal.Success("scan complete, no error-like lines")
}

func (s *SmokeDiagnostics) Verify(ctx context.Context, cfg *config.InstallerConfig) internal.InstallResult {
	return internal.Success("diagnostics are advisory")
}

func (s *SmokeDiagnostics) CollectDiagnostics(ctx context.Context, cfg *config.InstallerConfig) diag.Report {
	merged := diag.Report{Component: "smoke-diagnostics"}
	for _, report := range s.scan(ctx, cfg) {
		merged.Scanned += report.Scanned
		merged.Suspect = append(merged.Suspect, report.Suspect...)
	}
	return merged
}

func (s *SmokeDiagnostics) Cleanup(ctx context.Context, cfg *config.InstallerConfig) error {
	return nil
}

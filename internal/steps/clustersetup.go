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

// platformServiceAccounts are the identities the platform services run
// as. Every service that needs one waits behind this step.
var platformServiceAccounts = []string{
	"lightning-server",
	"lightning-api",
	"zeppelin",
}

// ClusterSetup creates the platform namespace and its service
// accounts.
type ClusterSetup struct {
	Kube KubeClient
}

func saLabels(cfg *config.InstallerConfig) map[string]string {
	return map[string]string{
		"app.kubernetes.io/managed-by": "lightning-installer",
		"lightning.io/environment":     cfg.Global.Environment,
	}
}

func (s *ClusterSetup) Install(ctx context.Context, cfg *config.InstallerConfig) internal.InstallResult {
	namespace := cfg.Global.Namespace
	if err := s.Kube.EnsureNamespace(ctx, namespace); err != nil {
		return internal.Failure("ensure namespace %s: %v", namespace, err)
	}
	for _, name := range platformServiceAccounts {
		if err := s.Kube.EnsureServiceAccount(ctx, namespace, name, saLabels(cfg)); err != nil {
			return internal.Failure("ensure service account %s: %v", name, err)
		}
	}
	return internal.Success("namespace %s and %d service accounts ready", namespace, len(platformServiceAccounts))
}

func (s *ClusterSetup) Verify(ctx context.Context, cfg *config.InstallerConfig) internal.InstallResult {
	namespace := cfg.Global.Namespace
	exists, err := s.Kube.NamespaceExists(ctx, namespace)
	if err != nil {
		return internal.Failure("check namespace %s: %v", namespace, err)
	}
	if !exists {
		return internal.Failure("namespace %s not found", namespace)
	}
	for _, name := range platformServiceAccounts {
		found, err := s.Kube.ServiceAccountExists(ctx, namespace, name)
		if err != nil {
			return internal.Failure("check service account %s: %v", name, err)
		}
		if !found {
			return internal.Failure("service account %s not found in %s", name, namespace)
		}
	}
	return internal.Success("namespace %s verified", namespace)
}

func (s *ClusterSetup) CollectDiagnostics(ctx context.Context, cfg *config.InstallerConfig) diag.Report {
	report := diag.Report{Component: "cluster-setup"}
	events, err := s.Kube.WarningEvents(ctx, cfg.Global.Namespace)
	if err != nil {
		internal.Logger().Warnf("collect events for %s: %v", cfg.Global.Namespace, err)
		return report
	}
	for _, event := range events {
		report.Scanned++
		report.Suspect = append(report.Suspect, diag.Line{Pod: "(events)", Text: event})
	}
	return report
}

func (s *ClusterSetup) Cleanup(ctx context.Context, cfg *config.InstallerConfig) error {
	return s.Kube.DeleteNamespace(ctx, cfg.Global.Namespace)
}

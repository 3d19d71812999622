// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/lightning-platform/lightning-installer/internal"
	"github.com/lightning-platform/lightning-installer/internal/config"
	"github.com/lightning-platform/lightning-installer/internal/diag"
	"github.com/lightning-platform/lightning-installer/internal/helm"
)

// HelmRelease is the shared installer for chart-based components. The
// per-component installers differ only in the release spec they
// render, the selector they watch, and their owned resources.
type HelmRelease struct {
	ReleaseName string

	// ServiceName is the component's externally reachable entry point.
	// Defaults to ReleaseName when empty.
	ServiceName string

	// Selector matches the component's pods for readiness checks,
	// diagnostics, and PVC cleanup.
	Selector string

	// ClusterScoped components own their namespace and CRDs and remove
	// both on cleanup.
	ClusterScoped bool
	CRDs          []string

	// ServiceAccount, when set, must exist before the component can be
	// verified. Missing accounts are reported as a precondition
	// failure pointing at the cluster setup step.
	ServiceAccount string

	// Keywords overrides the diagnostic classifier keyword set.
	Keywords []string

	// Spec renders the release from the shared configuration.
	Spec func(cfg *config.InstallerConfig) helm.ReleaseSpec

	// PreInstall and VerifyExtra are component hooks: secret material
	// before the chart goes in, schema checks after it is up.
	PreInstall  func(ctx context.Context, cfg *config.InstallerConfig) error
	VerifyExtra func(ctx context.Context, cfg *config.InstallerConfig) error
	PostCleanup func(ctx context.Context, cfg *config.InstallerConfig) error

	Helm HelmClient
	Kube KubeClient
}

func (r *HelmRelease) serviceName() string {
	if r.ServiceName != "" {
		return r.ServiceName
	}
	return r.ReleaseName
}

func (r *HelmRelease) Install(ctx context.Context, cfg *config.InstallerConfig) internal.InstallResult {
	spec := r.Spec(cfg)

	deployed, err := r.Helm.ReleaseDeployed(ctx, spec.Name, spec.Namespace)
	if err != nil {
		return internal.Failure("list releases in %s: %v", spec.Namespace, err)
	}
	if deployed {
		ready, err := r.Kube.ReadyReplicas(ctx, spec.Namespace, r.Selector)
		if err == nil && ready > 0 {
			// Healthy release already present, nothing to reapply.
			return internal.Success("release %s already deployed with %d ready replica(s)", spec.Name, ready)
		}
		internal.Logger().Warnf("release %s exists but has no ready replicas, upgrading in place", spec.Name)
	}

	if r.PreInstall != nil {
		if err := r.PreInstall(ctx, cfg); err != nil {
			return internal.Failure("prepare %s: %v", spec.Name, err)
		}
	}

	if err := r.Helm.UpgradeInstall(ctx, spec); err != nil {
		return internal.Failure("install %s: %v", spec.Name, err)
	}

	// helm --wait covers the chart's own readiness gates; the bounded
	// poll on our selector is the installer's view of ready.
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = helm.DefaultTimeout
	}
	if err := r.Kube.WaitForReady(ctx, spec.Namespace, r.Selector, 1, timeout); err != nil {
		return internal.Failure("wait for %s: %v", spec.Name, err)
	}
	return internal.Success("release %s applied", spec.Name)
}

func (r *HelmRelease) Verify(ctx context.Context, cfg *config.InstallerConfig) internal.InstallResult {
	spec := r.Spec(cfg)

	exists, err := r.Kube.NamespaceExists(ctx, spec.Namespace)
	if err != nil {
		return internal.Failure("check namespace %s: %v", spec.Namespace, err)
	}
	if !exists {
		return internal.Failure("namespace %s not found; run the cluster-setup step first", spec.Namespace)
	}

	if r.ServiceAccount != "" {
		found, err := r.Kube.ServiceAccountExists(ctx, spec.Namespace, r.ServiceAccount)
		if err != nil {
			return internal.Failure("check service account %s: %v", r.ServiceAccount, err)
		}
		if !found {
			return internal.Failure("service account %s not found in %s; run the cluster-setup step first", r.ServiceAccount, spec.Namespace)
		}
	}

	ready, err := r.Kube.ReadyReplicas(ctx, spec.Namespace, r.Selector)
	if err != nil {
		return internal.Failure("check replicas for %s: %v", spec.Name, err)
	}
	if ready < 1 {
		return internal.Failure("%s has no ready replicas", spec.Name)
	}

	reachable, err := r.Kube.ServiceReachable(ctx, spec.Namespace, r.serviceName())
	if err != nil {
		return internal.Failure("check service %s: %v", r.serviceName(), err)
	}
	if !reachable {
		return internal.Failure("service %s has no reachable entry point", r.serviceName())
	}

	if r.VerifyExtra != nil {
		if err := r.VerifyExtra(ctx, cfg); err != nil {
			return internal.Failure("verify %s: %v", spec.Name, err)
		}
	}
	return internal.Success("%s verified: %d ready replica(s)", spec.Name, ready)
}

func (r *HelmRelease) CollectDiagnostics(ctx context.Context, cfg *config.InstallerConfig) diag.Report {
	spec := r.Spec(cfg)
	logger := internal.Logger()

	logs, err := r.Kube.PodLogs(ctx, spec.Namespace, r.Selector, 200)
	if err != nil {
		logger.Warnf("collect logs for %s: %v", spec.Name, err)
	}
	if logs == nil {
		logs = map[string]string{}
	}
	if events, err := r.Kube.WarningEvents(ctx, spec.Namespace); err == nil && len(events) > 0 {
		logs["(events)"] = strings.Join(events, "\n")
	}
	return diag.Scan(spec.Name, logs, diag.NewKeywordClassifier(r.Keywords...))
}

func (r *HelmRelease) Cleanup(ctx context.Context, cfg *config.InstallerConfig) error {
	spec := r.Spec(cfg)
	logger := internal.Logger()

	if err := r.Helm.Uninstall(ctx, spec.Name, spec.Namespace); err != nil {
		logger.Warnf("uninstall %s: %v", spec.Name, err)
	}
	if err := r.Kube.DeletePVCs(ctx, spec.Namespace, r.Selector); err != nil {
		logger.Warnf("delete PVCs for %s: %v", spec.Name, err)
	}
	if r.PostCleanup != nil {
		if err := r.PostCleanup(ctx, cfg); err != nil {
			logger.Warnf("post-cleanup for %s: %v", spec.Name, err)
		}
	}
	if r.ClusterScoped {
		for _, crd := range r.CRDs {
			if err := r.Kube.DeleteCRD(ctx, crd); err != nil {
				logger.Warnf("delete CRD %s: %v", crd, err)
			}
		}
		if err := r.Kube.DeleteNamespace(ctx, spec.Namespace); err != nil {
			return fmt.Errorf("delete namespace %s: %w", spec.Namespace, err)
		}
	}
	return nil
}

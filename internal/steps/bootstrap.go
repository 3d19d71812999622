// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"fmt"

	"github.com/bitfield/script"
	goversion "github.com/hashicorp/go-version"

	"github.com/lightning-platform/lightning-installer/internal"
	"github.com/lightning-platform/lightning-installer/internal/config"
	"github.com/lightning-platform/lightning-installer/internal/diag"
)

// MinHelmVersion is the oldest helm client the installer works with.
const MinHelmVersion = "3.8.0"

// lookPath probes for a required tool on PATH. Overridden in tests.
var lookPath = func(tool string) error {
	if _, err := script.Exec("which " + tool).String(); err != nil {
		return fmt.Errorf("%s not found on PATH", tool)
	}
	return nil
}

// HelmBootstrap prepares the package manager: tool presence, version
// gate, and chart repositories. It owns no cluster resources.
type HelmBootstrap struct {
	Helm HelmClient
}

func (b *HelmBootstrap) checkVersion(ctx context.Context) error {
	current, err := b.Helm.Version(ctx)
	if err != nil {
		return err
	}
	minimum := goversion.Must(goversion.NewVersion(MinHelmVersion))
	if current.LessThan(minimum) {
		return fmt.Errorf("helm %s is too old, need at least %s", current, minimum)
	}
	return nil
}

func (b *HelmBootstrap) Install(ctx context.Context, cfg *config.InstallerConfig) internal.InstallResult {
	for _, tool := range []string{"helm", "kubectl"} {
		if err := lookPath(tool); err != nil {
			return internal.Failure("%v", err)
		}
	}
	if err := b.checkVersion(ctx); err != nil {
		return internal.Failure("%v", err)
	}
	for _, repo := range cfg.Helm.Repositories {
		if err := b.Helm.RepoAdd(ctx, repo.Name, repo.URL); err != nil {
			return internal.Failure("add repository %s: %v", repo.Name, err)
		}
	}
	if len(cfg.Helm.Repositories) > 0 {
		if err := b.Helm.RepoUpdate(ctx); err != nil {
			return internal.Failure("update repositories: %v", err)
		}
	}
	return internal.Success("helm ready, %d repositories configured", len(cfg.Helm.Repositories))
}

func (b *HelmBootstrap) Verify(ctx context.Context, cfg *config.InstallerConfig) internal.InstallResult {
	if err := b.checkVersion(ctx); err != nil {
		return internal.Failure("%v", err)
	}
	return internal.Success("helm client version ok")
}

func (b *HelmBootstrap) CollectDiagnostics(ctx context.Context, cfg *config.InstallerConfig) diag.Report {
	return diag.Report{Component: "helm-bootstrap"}
}

func (b *HelmBootstrap) Cleanup(ctx context.Context, cfg *config.InstallerConfig) error {
	// Repositories are host-local state, nothing to remove from the cluster.
	return nil
}

// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lightning-platform/lightning-installer/internal/config"
	"github.com/lightning-platform/lightning-installer/internal/helm"
)

const postgresSelector = "app.kubernetes.io/name=postgresql"

// NewPostgres builds the relational database installer. Beyond the
// shared chart protocol it verifies that the schemas the platform
// services depend on exist, so dependent steps fail their
// precondition check instead of failing deep inside a service.
func NewPostgres(helmClient HelmClient, kubeClient KubeClient) *HelmRelease {
	return &HelmRelease{
		ReleaseName: "postgres",
		ServiceName: "postgres-postgresql",
		Selector:    postgresSelector,
		Spec: func(cfg *config.InstallerConfig) helm.ReleaseSpec {
			values := map[string]string{
				"global.storageClass": cfg.Global.StorageClass,
				"auth.username":       cfg.Database.Username,
				"auth.password":       cfg.Database.Password,
				"auth.database":       cfg.Database.Name,
			}
			values["primary.service.ports.postgresql"] = strconv.Itoa(cfg.Database.Port)
			return helm.ReleaseSpec{
				Name:      "postgres",
				Chart:     chartOr(cfg.Database.Chart, "bitnami/postgresql"),
				Version:   cfg.Database.ChartVersion,
				Namespace: cfg.Global.Namespace,
				Timeout:   installTimeout("postgres"),
				Values:    values,
			}
		},
		VerifyExtra: func(ctx context.Context, cfg *config.InstallerConfig) error {
			return checkSchemas(ctx, kubeClient, cfg)
		},
		Helm: helmClient,
		Kube: kubeClient,
	}
}

// checkSchemas asserts that every schema named in the config exists in
// the platform database. Read-only: a plain catalog query via psql in
// the database pod. Credentials are passed as argv entries, never
// through a shell, so they stay opaque whatever characters they hold.
func checkSchemas(ctx context.Context, kubeClient KubeClient, cfg *config.InstallerConfig) error {
	if len(cfg.Database.Schemas) == 0 {
		return nil
	}
	command := []string{
		"env", "PGPASSWORD=" + cfg.Database.Password,
		"psql", "-U", cfg.Database.Username, "-d", cfg.Database.Name,
		"-tAc", "SELECT schema_name FROM information_schema.schemata",
	}
	out, err := kubeClient.Exec(ctx, cfg.Global.Namespace, postgresSelector, command)
	if err != nil {
		return fmt.Errorf("query schemas: %w", err)
	}

	present := map[string]bool{}
	for _, line := range strings.Split(out, "\n") {
		present[strings.TrimSpace(line)] = true
	}
	for _, schema := range cfg.Database.Schemas {
		if !present[schema] {
			return fmt.Errorf("required schema %s does not exist in database %s", schema, cfg.Database.Name)
		}
	}
	return nil
}

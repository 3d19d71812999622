// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"github.com/lightning-platform/lightning-installer/internal"
	"github.com/lightning-platform/lightning-installer/internal/config"
)

// Clients bundles the external collaborators the plan's installers
// talk to.
type Clients struct {
	Helm     HelmClient
	Kube     KubeClient
	Keycloak KeycloakClient
}

// DefaultPlan builds the fixed deployment plan. The order encodes the
// platform's real dependency graph and the Requires edges make those
// dependencies explicit, so the plan is validated rather than trusted.
func DefaultPlan(cfg *config.InstallerConfig, clients Clients) (*internal.Plan, error) {
	steps := []internal.Step{
		{
			Name:      "helm-bootstrap",
			Installer: &HelmBootstrap{Helm: clients.Helm},
		},
		{
			Name:      "cluster-setup",
			Installer: &ClusterSetup{Kube: clients.Kube},
			Requires:  []string{"helm-bootstrap"},
		},
		{
			Name:      "postgres",
			Installer: NewPostgres(clients.Helm, clients.Kube),
			Requires:  []string{"cluster-setup"},
		},
		{
			Name:      "spark-operator",
			Installer: NewSparkOperator(clients.Helm, clients.Kube),
			Requires:  []string{"helm-bootstrap"},
		},
		{
			Name:      "cert-manager",
			Installer: NewCertManager(clients.Helm, clients.Kube),
			Requires:  []string{"helm-bootstrap"},
		},
		{
			Name:      "elasticsearch",
			Installer: NewElasticsearch(clients.Helm, clients.Kube),
			Requires:  []string{"cluster-setup"},
		},
		{
			Name:      "solr",
			Installer: NewSolr(clients.Helm, clients.Kube),
			Requires:  []string{"cluster-setup"},
		},
		{
			Name:      "lightning-server",
			Installer: NewLightningServer(clients.Helm, clients.Kube),
			Requires:  []string{"cluster-setup", "postgres"},
		},
		{
			Name:      "lightning-api",
			Installer: NewLightningAPI(clients.Helm, clients.Kube),
			Requires:  []string{"lightning-server"},
		},
		{
			Name:      "lightning-gui",
			Installer: NewLightningGUI(clients.Helm, clients.Kube),
			Requires:  []string{"lightning-api"},
		},
		{
			Name:      "zeppelin",
			Installer: NewZeppelin(clients.Helm, clients.Kube),
			Requires:  []string{"lightning-server", "spark-operator"},
		},
		{
			Name:      "lightning-assist",
			Installer: NewAIAssistant(clients.Helm, clients.Kube),
			Requires:  []string{"lightning-api"},
		},
		{
			Name:      "lightning-indexer",
			Installer: NewAIIndexer(clients.Helm, clients.Kube),
			Requires:  []string{"lightning-api", "elasticsearch"},
		},
	}

	if cfg.Airflow.Enabled {
		steps = append(steps, internal.Step{
			Name:      "airflow",
			Installer: NewAirflow(clients.Helm, clients.Kube),
			Optional:  true,
			Requires:  []string{"postgres"},
		})
	}

	steps = append(steps,
		internal.Step{
			Name:      "smoke-diagnostics",
			Installer: &SmokeDiagnostics{Kube: clients.Kube},
			Optional:  true,
			Requires:  []string{"lightning-gui"},
		},
		internal.Step{
			Name:      "initial-user",
			Installer: &InitialUser{Keycloak: clients.Keycloak},
			Requires:  []string{"lightning-api"},
		},
	)

	return internal.NewPlan(steps)
}

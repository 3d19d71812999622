// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/lightning-platform/lightning-installer/internal/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Interactively generate the installer config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &config.InstallerConfig{Version: 1}
		cfg.Global.DNSProtocol = "https"
		cfg.Database.Port = 5432
		cfg.Database.Name = "lightning"
		cfg.Keycloak.Realm = "lightning"
		cfg.Helm.Repositories = []config.HelmRepository{
			{Name: "lightning", URL: "https://charts.lightning-platform.io"},
			{Name: "bitnami", URL: "https://charts.bitnami.com/bitnami"},
			{Name: "jetstack", URL: "https://charts.jetstack.io"},
			{Name: "elastic", URL: "https://helm.elastic.co"},
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Environment Name").
					Description("Name of this platform deployment").
					Placeholder("demo").
					Validate(config.ValidateEnvironment).
					Value(&cfg.Global.Environment),
				huh.NewInput().
					Title("Namespace").
					Description("Kubernetes namespace for the platform services").
					Placeholder("lightning").
					Validate(config.ValidateNamespace).
					Value(&cfg.Global.Namespace),
				huh.NewInput().
					Title("Domain").
					Description("DNS domain the GUI will be exposed under").
					Placeholder("example.com").
					Value(&cfg.Global.Domain),
				huh.NewSelect[string]().
					Title("Protocol").
					Options(
						huh.NewOption("https", "https"),
						huh.NewOption("http", "http"),
					).
					Value(&cfg.Global.DNSProtocol),
				huh.NewInput().
					Title("Storage Class").
					Placeholder("standard").
					Value(&cfg.Global.StorageClass),
			).Title("Step 1: Global Settings\n"),

			huh.NewGroup(
				huh.NewInput().
					Title("Database Username").
					Placeholder("lightning").
					Value(&cfg.Database.Username),
				huh.NewInput().
					Title("Database Password").
					EchoMode(huh.EchoModePassword).
					Value(&cfg.Database.Password),
			).Title("Step 2: Database\n"),

			huh.NewGroup(
				huh.NewInput().
					Title("Initial User Email").
					Validate(config.ValidateEmail).
					Value(&cfg.InitialUser.Email),
				huh.NewInput().
					Title("Initial User Password").
					EchoMode(huh.EchoModePassword).
					Validate(config.ValidatePassword).
					Value(&cfg.InitialUser.Password),
				huh.NewInput().
					Title("Organization").
					Validate(config.ValidateOrganization).
					Value(&cfg.InitialUser.Organization),
			).Title("Step 3: Initial User\n"),

			huh.NewGroup(
				huh.NewConfirm().
					Title("Enable the Airflow workflow orchestrator?").
					Description("Disabled by default; advisory even when enabled").
					Value(&cfg.Airflow.Enabled),
			).Title("Step 4: Optional Components\n"),
		)

		if err := form.Run(); err != nil {
			return err
		}
		if err := config.Save(cfg, flagConfig); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Configuration written to %s\n", flagConfig)
		return nil
	},
}

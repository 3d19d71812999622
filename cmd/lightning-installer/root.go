// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Nerzal/gocloak/v13"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lightning-platform/lightning-installer/internal"
	"github.com/lightning-platform/lightning-installer/internal/config"
	"github.com/lightning-platform/lightning-installer/internal/helm"
	"github.com/lightning-platform/lightning-installer/internal/kube"
	"github.com/lightning-platform/lightning-installer/internal/steps"
)

var (
	flagConfig     string
	flagLogLevel   string
	flagLogDir     string
	flagKubeconfig string
	flagDryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "lightning-installer",
	Short: "Installs the Lightning data platform onto a Kubernetes cluster",
	Long: "lightning-installer deploys the Lightning data platform component by component:\n" +
		"package manager bootstrap, namespaces and service accounts, database, search\n" +
		"engines, operators, platform services, and the initial user. Steps run strictly\n" +
		"in order and the run stops at the first hard failure.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "lightning.yaml", "path to the installer config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", ".logs", "directory for per-run log files")
	rootCmd.PersistentFlags().StringVar(&flagKubeconfig, "kubeconfig", "", "path to kubeconfig (defaults to the usual resolution)")

	installCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print the plan without executing it")

	rootCmd.AddCommand(installCmd, uninstallCmd, verifyCmd, diagnoseCmd, configureCmd, versionCmd)
}

func execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}

// exitCode carries the terminal status out of RunE without the exit
// bypassing deferred cleanup in cobra.
var exitCode int

type runtime struct {
	cfg     *config.InstallerConfig
	plan    *internal.Plan
	runID   string
	logFile string
}

// setupConfig loads and validates the config and initializes logging.
// It touches nothing outside the local filesystem.
func setupConfig(action string) (*runtime, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	runID := uuid.NewString()[:8]
	logFile, err := internal.InitLogger(flagLogLevel, flagLogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg.Generated = config.RuntimeState{
		Action:     action,
		LogDir:     flagLogDir,
		LogFile:    logFile,
		RunID:      runID,
		KubeConfig: flagKubeconfig,
		DryRun:     flagDryRun,
	}
	return &runtime{cfg: cfg, runID: runID, logFile: logFile}, nil
}

// setup additionally connects the cluster-facing clients and builds the
// executable plan.
func setup(action string) (*runtime, error) {
	rt, err := setupConfig(action)
	if err != nil {
		return nil, err
	}

	kubeClient, err := kube.New(flagKubeconfig)
	if err != nil {
		return nil, err
	}
	clients := steps.Clients{
		Helm:     helm.New(flagKubeconfig),
		Kube:     kubeClient,
		Keycloak: gocloak.NewClient(rt.cfg.Keycloak.URL),
	}

	rt.plan, err = steps.DefaultPlan(rt.cfg, clients)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the platform end to end",
	RunE: func(cmd *cobra.Command, args []string) error {
		// A dry run only prints the plan, so it must work without any
		// cluster access or kubeconfig.
		if flagDryRun {
			rt, err := setupConfig("install")
			if err != nil {
				return err
			}
			plan, err := steps.DefaultPlan(rt.cfg, steps.Clients{})
			if err != nil {
				return err
			}
			logger := internal.Logger()
			logger.Infof("Dry run: %d steps", len(plan.Steps))
			for i, step := range plan.Steps {
				optional := ""
				if step.Optional {
					optional = " (advisory)"
				}
				logger.Infof("  %2d. %s%s", i+1, step.Name, optional)
			}
			return nil
		}

		rt, err := setup("install")
		if err != nil {
			return err
		}
		logger := internal.Logger()

		orch := internal.NewOrchestrator(rt.plan, rt.runID)

		// No mid-step abort exists; a signal stops the run at the next
		// step boundary.
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-signals
			logger.Warn("Interrupt received, stopping after the current step")
			orch.Cancel()
		}()

		state, runErr := orch.Run(cmd.Context(), rt.cfg)
		state.Summary(rt.logFile)
		if runErr != nil {
			logger.Errorf("%s", runErr.ErrorMsg)
		}
		exitCode = state.ExitCode()
		return nil
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove all platform components, best effort, in reverse order",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup("uninstall")
		if err != nil {
			return err
		}
		if err := internal.CleanupPlan(cmd.Context(), rt.plan, rt.cfg); err != nil {
			exitCode = 1
		}
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run the read-only verification pass over every component",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup("verify")
		if err != nil {
			return err
		}
		state := internal.VerifyPlan(cmd.Context(), rt.plan, rt.cfg)
		state.Summary(rt.logFile)
		exitCode = state.ExitCode()
		return nil
	},
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Collect and print component diagnostics (never fails)",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup("diagnose")
		if err != nil {
			return err
		}
		reports := internal.DiagnosePlan(cmd.Context(), rt.plan, rt.cfg)
		out, err := yaml.Marshal(reports)
		if err != nil {
			return fmt.Errorf("render diagnostics: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

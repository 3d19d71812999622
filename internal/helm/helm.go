// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package helm

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"

	"github.com/lightning-platform/lightning-installer/internal"
)

// DefaultTimeout bounds a single helm invocation when the caller does
// not supply a per-release timeout.
const DefaultTimeout = 5 * time.Minute

// Runner executes one helm invocation. The indirection exists so step
// tests can run against a mock instead of the helm binary.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, timeout time.Duration, args ...string) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	internal.Logger().Debugf("helm %s", strings.Join(args, " "))
	cmd := exec.CommandContext(runCtx, "helm", args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("helm %s: %w, stderr: %s", strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String(), nil
}

// Release mirrors one entry of `helm list -o json`.
type Release struct {
	Name       string `json:"name"`
	Namespace  string `json:"namespace"`
	Revision   string `json:"revision"`
	Status     string `json:"status"`
	Chart      string `json:"chart"`
	AppVersion string `json:"app_version"`
}

// ReleaseSpec describes one install-or-upgrade invocation. Overrides
// are named string values rendered as --set pairs; larger override
// sets go through ValuesFile.
type ReleaseSpec struct {
	Name       string
	Chart      string
	Namespace  string
	Version    string
	Timeout    time.Duration
	Values     map[string]string
	ValuesFile string
}

type Client struct {
	runner     Runner
	kubeconfig string
}

func New(kubeconfig string) *Client {
	return &Client{runner: execRunner{}, kubeconfig: kubeconfig}
}

func NewWithRunner(runner Runner) *Client {
	return &Client{runner: runner}
}

func (c *Client) globalArgs(args ...string) []string {
	if c.kubeconfig != "" {
		args = append(args, "--kubeconfig", c.kubeconfig)
	}
	return args
}

// Version returns the helm client version.
func (c *Client) Version(ctx context.Context) (*goversion.Version, error) {
	out, err := c.runner.Run(ctx, time.Minute, "version", "--template", "{{.Version}}")
	if err != nil {
		return nil, fmt.Errorf("helm version: %w", err)
	}
	v, err := goversion.NewVersion(strings.TrimPrefix(strings.TrimSpace(out), "v"))
	if err != nil {
		return nil, fmt.Errorf("parse helm version %q: %w", out, err)
	}
	return v, nil
}

func (c *Client) RepoAdd(ctx context.Context, name, url string) error {
	_, err := c.runner.Run(ctx, time.Minute, "repo", "add", name, url, "--force-update")
	return err
}

func (c *Client) RepoUpdate(ctx context.Context) error {
	_, err := c.runner.Run(ctx, 2*time.Minute, "repo", "update")
	return err
}

// List returns the releases installed in the namespace.
func (c *Client) List(ctx context.Context, namespace string) ([]Release, error) {
	args := c.globalArgs("list", "-n", namespace, "-o", "json", "--all")
	out, err := c.runner.Run(ctx, time.Minute, args...)
	if err != nil {
		return nil, err
	}
	var releases []Release
	if err := json.Unmarshal([]byte(out), &releases); err != nil {
		return nil, fmt.Errorf("unmarshal helm list output: %w", err)
	}
	return releases, nil
}

// ReleaseDeployed reports whether the named release exists in the
// namespace with deployed status.
func (c *Client) ReleaseDeployed(ctx context.Context, name, namespace string) (bool, error) {
	releases, err := c.List(ctx, namespace)
	if err != nil {
		return false, err
	}
	for _, release := range releases {
		if release.Name == name {
			return release.Status == "deployed", nil
		}
	}
	return false, nil
}

// UpgradeInstall applies the release, creating or upgrading it in
// place, and blocks until the chart's resources are ready or the
// timeout elapses.
func (c *Client) UpgradeInstall(ctx context.Context, spec ReleaseSpec) error {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	args := []string{
		"upgrade", "--install", spec.Name, spec.Chart,
		"-n", spec.Namespace, "--create-namespace",
		"--wait", "--timeout", timeout.String(),
	}
	if spec.Version != "" {
		args = append(args, "--version", spec.Version)
	}
	if spec.ValuesFile != "" {
		args = append(args, "-f", spec.ValuesFile)
	}
	keys := make([]string, 0, len(spec.Values))
	for key := range spec.Values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, "--set", fmt.Sprintf("%s=%s", key, spec.Values[key]))
	}
	// Leave headroom past helm's own --wait deadline
	_, err := c.runner.Run(ctx, timeout+time.Minute, c.globalArgs(args...)...)
	return err
}

// Uninstall removes the release. A release that is already gone is a
// no-op, not an error.
func (c *Client) Uninstall(ctx context.Context, name, namespace string) error {
	_, err := c.runner.Run(ctx, 5*time.Minute, c.globalArgs("uninstall", name, "-n", namespace)...)
	if err != nil && strings.Contains(err.Error(), "not found") {
		return nil
	}
	return err
}

// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package helm_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightning-platform/lightning-installer/internal/helm"
)

// fakeRunner records every helm invocation and replies with a scripted
// output per leading subcommand.
type fakeRunner struct {
	calls   [][]string
	outputs map[string]string
	errs    map[string]error
}

func (f *fakeRunner) Run(_ context.Context, _ time.Duration, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	return f.outputs[args[0]], f.errs[args[0]]
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outputs: map[string]string{}, errs: map[string]error{}}
}

func TestVersionParsesTemplateOutput(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["version"] = "v3.14.2\n"

	v, err := helm.NewWithRunner(runner).Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.14.2", v.String())
}

func TestVersionRejectsGarbage(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["version"] = "no helm here"

	_, err := helm.NewWithRunner(runner).Version(context.Background())
	assert.Error(t, err)
}

func TestListUnmarshalsReleases(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["list"] = `[{"name":"postgres","namespace":"lightning","revision":"3","status":"deployed","chart":"postgresql-15.5.0","app_version":"16.2.0"}]`

	releases, err := helm.NewWithRunner(runner).List(context.Background(), "lightning")
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, "postgres", releases[0].Name)
	assert.Equal(t, "deployed", releases[0].Status)
	assert.Equal(t, []string{"list", "-n", "lightning", "-o", "json", "--all"}, runner.calls[0])
}

func TestReleaseDeployed(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["list"] = `[{"name":"solr","namespace":"lightning","status":"deployed"},{"name":"zeppelin","namespace":"lightning","status":"failed"}]`
	client := helm.NewWithRunner(runner)

	deployed, err := client.ReleaseDeployed(context.Background(), "solr", "lightning")
	require.NoError(t, err)
	assert.True(t, deployed)

	deployed, err = client.ReleaseDeployed(context.Background(), "zeppelin", "lightning")
	require.NoError(t, err)
	assert.False(t, deployed)

	deployed, err = client.ReleaseDeployed(context.Background(), "absent", "lightning")
	require.NoError(t, err)
	assert.False(t, deployed)
}

func TestUpgradeInstallArgs(t *testing.T) {
	runner := newFakeRunner()
	err := helm.NewWithRunner(runner).UpgradeInstall(context.Background(), helm.ReleaseSpec{
		Name:      "lightning-server",
		Chart:     "lightning/lightning-server",
		Namespace: "lightning",
		Version:   "2.1.0",
		Timeout:   15 * time.Minute,
		Values: map[string]string{
			"replicaCount":  "2",
			"image.tag":     "2.1.0",
			"database.host": "postgres",
		},
	})
	require.NoError(t, err)
	require.Len(t, runner.calls, 1)

	assert.Equal(t, []string{
		"upgrade", "--install", "lightning-server", "lightning/lightning-server",
		"-n", "lightning", "--create-namespace",
		"--wait", "--timeout", "15m0s",
		"--version", "2.1.0",
		// --set pairs come out in sorted key order so invocations are
		// reproducible across runs
		"--set", "database.host=postgres",
		"--set", "image.tag=2.1.0",
		"--set", "replicaCount=2",
	}, runner.calls[0])
}

// Sub-minute timeouts must reach helm as-is, not truncate to zero.
func TestUpgradeInstallKeepsSubMinuteTimeout(t *testing.T) {
	runner := newFakeRunner()
	err := helm.NewWithRunner(runner).UpgradeInstall(context.Background(), helm.ReleaseSpec{
		Name:      "solr",
		Chart:     "apache-solr/solr",
		Namespace: "lightning",
		Timeout:   30 * time.Second,
	})
	require.NoError(t, err)
	require.Len(t, runner.calls, 1)
	assert.Contains(t, runner.calls[0], "--timeout")
	assert.Contains(t, runner.calls[0], "30s")
	assert.NotContains(t, runner.calls[0], "0m")
}

func TestUninstallToleratesMissingRelease(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["uninstall"] = fmt.Errorf("uninstall: Release not loaded: solr: release: not found")

	err := helm.NewWithRunner(runner).Uninstall(context.Background(), "solr", "lightning")
	assert.NoError(t, err)
}

func TestUninstallPropagatesOtherErrors(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["uninstall"] = fmt.Errorf("connection refused")

	err := helm.NewWithRunner(runner).Uninstall(context.Background(), "solr", "lightning")
	assert.Error(t, err)
}

func TestRepoAddForcesUpdate(t *testing.T) {
	runner := newFakeRunner()
	client := helm.NewWithRunner(runner)

	require.NoError(t, client.RepoAdd(context.Background(), "bitnami", "https://charts.bitnami.com/bitnami"))
	require.NoError(t, client.RepoUpdate(context.Background()))

	assert.Equal(t, []string{"repo", "add", "bitnami", "https://charts.bitnami.com/bitnami", "--force-update"}, runner.calls[0])
	assert.Equal(t, []string{"repo", "update"}, runner.calls[1])
}

// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lightning-platform/lightning-installer/internal/config"
)

func postgresConfig() *config.InstallerConfig {
	cfg := testConfig()
	cfg.Database.Name = "lightning"
	cfg.Database.Username = "lightning"
	cfg.Database.Password = "secret"
	cfg.Database.Port = 5432
	cfg.Database.Schemas = []string{"platform", "catalog"}
	return cfg
}

func TestCheckSchemasAllPresent(t *testing.T) {
	kubeMock := &KubeClientMock{}
	kubeMock.On("Exec", mock.Anything, "lightning", postgresSelector, mock.Anything).
		Return("public\nplatform\ncatalog\n", nil)

	assert.NoError(t, checkSchemas(context.Background(), kubeMock, postgresConfig()))
}

func TestCheckSchemasReportsMissingSchema(t *testing.T) {
	kubeMock := &KubeClientMock{}
	kubeMock.On("Exec", mock.Anything, "lightning", postgresSelector, mock.Anything).
		Return("public\nplatform\n", nil)

	err := checkSchemas(context.Background(), kubeMock, postgresConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog")
}

func TestCheckSchemasSkipsWithoutConfiguredSchemas(t *testing.T) {
	kubeMock := &KubeClientMock{}
	cfg := postgresConfig()
	cfg.Database.Schemas = nil

	assert.NoError(t, checkSchemas(context.Background(), kubeMock, cfg))
	kubeMock.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Credentials must reach psql as argv entries, not through a shell:
// metacharacters in a password are data, never commands.
func TestCheckSchemasKeepsCredentialsOpaque(t *testing.T) {
	cfg := postgresConfig()
	cfg.Database.Password = "p@ss word; touch /tmp/pwned"

	var captured []string
	kubeMock := &KubeClientMock{}
	kubeMock.On("Exec", mock.Anything, "lightning", postgresSelector, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(3).([]string) }).
		Return("public\nplatform\ncatalog\n", nil)

	require.NoError(t, checkSchemas(context.Background(), kubeMock, cfg))

	// The whole password is one argv entry and no shell is involved.
	assert.Contains(t, captured, "PGPASSWORD=p@ss word; touch /tmp/pwned")
	assert.NotContains(t, captured, "sh")
	assert.NotContains(t, captured, "-c")
	assert.Contains(t, captured, "lightning")
}

func TestCheckSchemasPropagatesExecError(t *testing.T) {
	kubeMock := &KubeClientMock{}
	kubeMock.On("Exec", mock.Anything, "lightning", postgresSelector, mock.Anything).
		Return("", fmt.Errorf("no pod matching %s", postgresSelector))

	err := checkSchemas(context.Background(), kubeMock, postgresConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query schemas")
}

func TestPostgresSpecRendersAuthValues(t *testing.T) {
	release := NewPostgres(&HelmClientMock{}, &KubeClientMock{})
	spec := release.Spec(postgresConfig())

	assert.Equal(t, "postgres", spec.Name)
	assert.Equal(t, "bitnami/postgresql", spec.Chart)
	assert.Equal(t, "lightning", spec.Namespace)
	assert.Equal(t, "lightning", spec.Values["auth.username"])
	assert.Equal(t, "secret", spec.Values["auth.password"])
	assert.Equal(t, "5432", spec.Values["primary.service.ports.postgresql"])
}

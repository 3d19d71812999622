// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"time"

	"github.com/Nerzal/gocloak/v13"
	goversion "github.com/hashicorp/go-version"

	"github.com/lightning-platform/lightning-installer/internal/helm"
)

// HelmClient is the package-manager surface steps consume. It is
// satisfied by *helm.Client and mocked in tests.
type HelmClient interface {
	Version(ctx context.Context) (*goversion.Version, error)
	RepoAdd(ctx context.Context, name, url string) error
	RepoUpdate(ctx context.Context) error
	ReleaseDeployed(ctx context.Context, name, namespace string) (bool, error)
	UpgradeInstall(ctx context.Context, spec helm.ReleaseSpec) error
	Uninstall(ctx context.Context, name, namespace string) error
}

// KubeClient is the cluster control-plane surface steps consume. It is
// satisfied by *kube.Client.
type KubeClient interface {
	EnsureNamespace(ctx context.Context, name string) error
	NamespaceExists(ctx context.Context, name string) (bool, error)
	DeleteNamespace(ctx context.Context, name string) error
	EnsureServiceAccount(ctx context.Context, namespace, name string, labels map[string]string) error
	ServiceAccountExists(ctx context.Context, namespace, name string) (bool, error)
	ReadyReplicas(ctx context.Context, namespace, selector string) (int, error)
	ServiceReachable(ctx context.Context, namespace, name string) (bool, error)
	WaitForReady(ctx context.Context, namespace, selector string, minReady int, timeout time.Duration) error
	PodLogs(ctx context.Context, namespace, selector string, tailLines int64) (map[string]string, error)
	WarningEvents(ctx context.Context, namespace string) ([]string, error)
	DeletePVCs(ctx context.Context, namespace, selector string) error
	EnsureSecret(ctx context.Context, namespace, name string, data map[string][]byte) error
	DeleteSecret(ctx context.Context, namespace, name string) error
	DeleteCRD(ctx context.Context, name string) error
	Exec(ctx context.Context, namespace, selector string, command []string) (string, error)
}

// KeycloakClient is the identity-provider surface used for initial
// user provisioning. *gocloak.GoCloak satisfies it.
type KeycloakClient interface {
	LoginAdmin(ctx context.Context, username, password, realm string) (*gocloak.JWT, error)
	GetUsers(ctx context.Context, accessToken, realm string, params gocloak.GetUsersParams) ([]*gocloak.User, error)
	CreateUser(ctx context.Context, accessToken, realm string, user gocloak.User) (string, error)
	SetPassword(ctx context.Context, accessToken, userID, realm, password string, temporary bool) error
	DeleteUser(ctx context.Context, accessToken, realm, userID string) error
}

const installTimeoutDefault = 10 * time.Minute

// installTimeoutOverrides is the custom install timeout for a specific
// component. The larger stateful components routinely need more than
// the default to pull images and initialize storage.
var installTimeoutOverrides = map[string]time.Duration{
	"postgres":         10 * time.Minute,
	"elasticsearch":    15 * time.Minute,
	"solr":             12 * time.Minute,
	"lightning-server": 15 * time.Minute,
	"zeppelin":         15 * time.Minute,
	"airflow":          15 * time.Minute,
	"spark-operator":   5 * time.Minute,
	"cert-manager":     5 * time.Minute,
}

func installTimeout(component string) time.Duration {
	if override, ok := installTimeoutOverrides[component]; ok {
		return override
	}
	return installTimeoutDefault
}

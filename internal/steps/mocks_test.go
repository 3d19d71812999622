// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"time"

	"github.com/Nerzal/gocloak/v13"
	goversion "github.com/hashicorp/go-version"
	"github.com/stretchr/testify/mock"

	"github.com/lightning-platform/lightning-installer/internal/helm"
)

type HelmClientMock struct {
	mock.Mock
}

func (m *HelmClientMock) Version(ctx context.Context) (*goversion.Version, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*goversion.Version), args.Error(1)
}

func (m *HelmClientMock) RepoAdd(ctx context.Context, name, url string) error {
	return m.Called(ctx, name, url).Error(0)
}

func (m *HelmClientMock) RepoUpdate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *HelmClientMock) ReleaseDeployed(ctx context.Context, name, namespace string) (bool, error) {
	args := m.Called(ctx, name, namespace)
	return args.Bool(0), args.Error(1)
}

func (m *HelmClientMock) UpgradeInstall(ctx context.Context, spec helm.ReleaseSpec) error {
	return m.Called(ctx, spec).Error(0)
}

func (m *HelmClientMock) Uninstall(ctx context.Context, name, namespace string) error {
	return m.Called(ctx, name, namespace).Error(0)
}

type KubeClientMock struct {
	mock.Mock
}

func (m *KubeClientMock) EnsureNamespace(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *KubeClientMock) NamespaceExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *KubeClientMock) DeleteNamespace(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *KubeClientMock) EnsureServiceAccount(ctx context.Context, namespace, name string, labels map[string]string) error {
	return m.Called(ctx, namespace, name, labels).Error(0)
}

func (m *KubeClientMock) ServiceAccountExists(ctx context.Context, namespace, name string) (bool, error) {
	args := m.Called(ctx, namespace, name)
	return args.Bool(0), args.Error(1)
}

func (m *KubeClientMock) ReadyReplicas(ctx context.Context, namespace, selector string) (int, error) {
	args := m.Called(ctx, namespace, selector)
	return args.Int(0), args.Error(1)
}

func (m *KubeClientMock) ServiceReachable(ctx context.Context, namespace, name string) (bool, error) {
	args := m.Called(ctx, namespace, name)
	return args.Bool(0), args.Error(1)
}

func (m *KubeClientMock) WaitForReady(ctx context.Context, namespace, selector string, minReady int, timeout time.Duration) error {
	return m.Called(ctx, namespace, selector, minReady, timeout).Error(0)
}

func (m *KubeClientMock) PodLogs(ctx context.Context, namespace, selector string, tailLines int64) (map[string]string, error) {
	args := m.Called(ctx, namespace, selector, tailLines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *KubeClientMock) WarningEvents(ctx context.Context, namespace string) ([]string, error) {
	args := m.Called(ctx, namespace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *KubeClientMock) DeletePVCs(ctx context.Context, namespace, selector string) error {
	return m.Called(ctx, namespace, selector).Error(0)
}

func (m *KubeClientMock) EnsureSecret(ctx context.Context, namespace, name string, data map[string][]byte) error {
	return m.Called(ctx, namespace, name, data).Error(0)
}

func (m *KubeClientMock) DeleteSecret(ctx context.Context, namespace, name string) error {
	return m.Called(ctx, namespace, name).Error(0)
}

func (m *KubeClientMock) DeleteCRD(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *KubeClientMock) Exec(ctx context.Context, namespace, selector string, command []string) (string, error) {
	args := m.Called(ctx, namespace, selector, command)
	return args.String(0), args.Error(1)
}

type KeycloakClientMock struct {
	mock.Mock
}

func (m *KeycloakClientMock) LoginAdmin(ctx context.Context, username, password, realm string) (*gocloak.JWT, error) {
	args := m.Called(ctx, username, password, realm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gocloak.JWT), args.Error(1)
}

func (m *KeycloakClientMock) GetUsers(ctx context.Context, accessToken, realm string, params gocloak.GetUsersParams) ([]*gocloak.User, error) {
	args := m.Called(ctx, accessToken, realm, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*gocloak.User), args.Error(1)
}

func (m *KeycloakClientMock) CreateUser(ctx context.Context, accessToken, realm string, user gocloak.User) (string, error) {
	args := m.Called(ctx, accessToken, realm, user)
	return args.String(0), args.Error(1)
}

func (m *KeycloakClientMock) SetPassword(ctx context.Context, accessToken, userID, realm, password string, temporary bool) error {
	return m.Called(ctx, accessToken, userID, realm, password, temporary).Error(0)
}

func (m *KeycloakClientMock) DeleteUser(ctx context.Context, accessToken, realm, userID string) error {
	return m.Called(ctx, accessToken, realm, userID).Error(0)
}

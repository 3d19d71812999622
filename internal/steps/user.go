// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package steps

import (
	"context"
	"fmt"

	"github.com/Nerzal/gocloak/v13"

	"github.com/lightning-platform/lightning-installer/internal"
	"github.com/lightning-platform/lightning-installer/internal/config"
	"github.com/lightning-platform/lightning-installer/internal/diag"
)

// InitialUser provisions the first platform user in Keycloak. It is
// the final plan step; the run only succeeds once this completes.
type InitialUser struct {
	Keycloak KeycloakClient
}

func (s *InitialUser) login(ctx context.Context, cfg *config.InstallerConfig) (*gocloak.JWT, error) {
	token, err := s.Keycloak.LoginAdmin(ctx, cfg.Keycloak.AdminUser, cfg.Keycloak.AdminSecret, cfg.Keycloak.Realm)
	if err != nil {
		return nil, fmt.Errorf("keycloak admin login: %w", err)
	}
	return token, nil
}

func (s *InitialUser) findUser(ctx context.Context, cfg *config.InstallerConfig, accessToken string) (*gocloak.User, error) {
	users, err := s.Keycloak.GetUsers(ctx, accessToken, cfg.Keycloak.Realm, gocloak.GetUsersParams{
		Email: gocloak.StringP(cfg.InitialUser.Email),
	})
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		if user.Email != nil && *user.Email == cfg.InitialUser.Email {
			return user, nil
		}
	}
	return nil, nil
}

func (s *InitialUser) Install(ctx context.Context, cfg *config.InstallerConfig) internal.InstallResult {
	if cfg.InitialUser.Email == "" || cfg.InitialUser.Password == "" || cfg.InitialUser.Organization == "" {
		return internal.Failure("initial user email, password, and organization are required")
	}

	token, err := s.login(ctx, cfg)
	if err != nil {
		return internal.Failure("%v", err)
	}

	existing, err := s.findUser(ctx, cfg, token.AccessToken)
	if err != nil {
		return internal.Failure("look up user %s: %v", cfg.InitialUser.Email, err)
	}
	if existing != nil {
		return internal.Success("user %s already exists", cfg.InitialUser.Email)
	}

	user := gocloak.User{
		Username:      gocloak.StringP(cfg.InitialUser.Email),
		Email:         gocloak.StringP(cfg.InitialUser.Email),
		Enabled:       gocloak.BoolP(true),
		EmailVerified: gocloak.BoolP(true),
		Attributes: &map[string][]string{
			"organization": {cfg.InitialUser.Organization},
		},
	}
	userID, err := s.Keycloak.CreateUser(ctx, token.AccessToken, cfg.Keycloak.Realm, user)
	if err != nil {
		return internal.Failure("create user %s: %v", cfg.InitialUser.Email, err)
	}
	if err := s.Keycloak.SetPassword(ctx, token.AccessToken, userID, cfg.Keycloak.Realm, cfg.InitialUser.Password, false); err != nil {
		return internal.Failure("set password for %s: %v", cfg.InitialUser.Email, err)
	}
	return internal.Success("user %s provisioned in organization %s", cfg.InitialUser.Email, cfg.InitialUser.Organization)
}

func (s *InitialUser) Verify(ctx context.Context, cfg *config.InstallerConfig) internal.InstallResult {
	token, err := s.login(ctx, cfg)
	if err != nil {
		return internal.Failure("%v", err)
	}
	user, err := s.findUser(ctx, cfg, token.AccessToken)
	if err != nil {
		return internal.Failure("look up user %s: %v", cfg.InitialUser.Email, err)
	}
	if user == nil {
		return internal.Failure("user %s not found", cfg.InitialUser.Email)
	}
	return internal.Success("user %s present", cfg.InitialUser.Email)
}

func (s *InitialUser) CollectDiagnostics(ctx context.Context, cfg *config.InstallerConfig) diag.Report {
	return diag.Report{Component: "initial-user"}
}

func (s *InitialUser) Cleanup(ctx context.Context, cfg *config.InstallerConfig) error {
	token, err := s.login(ctx, cfg)
	if err != nil {
		return err
	}
	user, err := s.findUser(ctx, cfg, token.AccessToken)
	if err != nil || user == nil {
		return err
	}
	return s.Keycloak.DeleteUser(ctx, token.AccessToken, cfg.Keycloak.Realm, *user.ID)
}

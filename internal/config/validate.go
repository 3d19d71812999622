// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/base64"
	"fmt"
	"regexp"
)

var (
	nameRegexp  = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

func ValidateEnvironment(s string) error {
	if len(s) == 0 {
		return fmt.Errorf("environment name cannot be empty")
	}
	if len(s) >= 16 {
		return fmt.Errorf("environment name must be less than 16 characters")
	}
	if !nameRegexp.MatchString(s) {
		return fmt.Errorf("environment name must be lower case letters, digits, or '-'")
	}
	return nil
}

func ValidateNamespace(s string) error {
	if !nameRegexp.MatchString(s) || len(s) > 63 {
		return fmt.Errorf("namespace must be a valid Kubernetes name")
	}
	return nil
}

func ValidateEmail(s string) error {
	if !emailRegexp.MatchString(s) {
		return fmt.Errorf("must be a valid email address")
	}
	return nil
}

func ValidatePassword(s string) error {
	if len(s) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	return nil
}

func ValidateOrganization(s string) error {
	if len(s) == 0 {
		return fmt.Errorf("organization cannot be empty")
	}
	return nil
}

func ValidateKeyMaterial(s string) error {
	if s == "" {
		return nil
	}
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return fmt.Errorf("encryption key material must be base64 encoded: %w", err)
	}
	return nil
}

// Validate rejects a config at construction time rather than leaving
// bad values to surface as a cryptic helm or kubectl error mid-run.
// Only a small required subset is enforced; everything else is treated
// as an opaque string.
func (c *InstallerConfig) Validate() error {
	if err := ValidateEnvironment(c.Global.Environment); err != nil {
		return fmt.Errorf("global.environment: %w", err)
	}
	if err := ValidateNamespace(c.Global.Namespace); err != nil {
		return fmt.Errorf("global.namespace: %w", err)
	}
	if err := ValidateKeyMaterial(c.Encryption.KeyMaterial); err != nil {
		return fmt.Errorf("encryption.keyMaterial: %w", err)
	}
	if err := ValidateEmail(c.InitialUser.Email); err != nil {
		return fmt.Errorf("initialUser.email: %w", err)
	}
	if err := ValidatePassword(c.InitialUser.Password); err != nil {
		return fmt.Errorf("initialUser.password: %w", err)
	}
	if err := ValidateOrganization(c.InitialUser.Organization); err != nil {
		return fmt.Errorf("initialUser.organization: %w", err)
	}
	return nil
}

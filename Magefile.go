// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Build compiles the installer binary into bin/.
func Build() error {
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	return sh.RunV("go", "build",
		"-ldflags", fmt.Sprintf("-X main.buildVersion=%s", version),
		"-o", "bin/lightning-installer",
		"./cmd/lightning-installer",
	)
}

// Test runs the unit tests with race detection.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet and gofmt checks.
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return err
	}
	if out != "" {
		return fmt.Errorf("files need gofmt:\n%s", out)
	}
	return nil
}

// All builds after linting and testing.
func All() {
	mg.SerialDeps(Lint, Test, Build)
}

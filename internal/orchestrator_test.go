// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package internal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lightning-platform/lightning-installer/internal"
	"github.com/lightning-platform/lightning-installer/internal/config"
	"github.com/lightning-platform/lightning-installer/internal/diag"
)

type ComponentInstallerMock struct {
	mock.Mock
}

func (m *ComponentInstallerMock) Install(ctx context.Context, cfg *config.InstallerConfig) internal.InstallResult {
	args := m.Called(ctx, cfg)
	return args.Get(0).(internal.InstallResult)
}

func (m *ComponentInstallerMock) Verify(ctx context.Context, cfg *config.InstallerConfig) internal.InstallResult {
	args := m.Called(ctx, cfg)
	return args.Get(0).(internal.InstallResult)
}

func (m *ComponentInstallerMock) CollectDiagnostics(ctx context.Context, cfg *config.InstallerConfig) diag.Report {
	args := m.Called(ctx, cfg)
	return args.Get(0).(diag.Report)
}

func (m *ComponentInstallerMock) Cleanup(ctx context.Context, cfg *config.InstallerConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func healthyInstaller() *ComponentInstallerMock {
	installer := &ComponentInstallerMock{}
	installer.On("Install", mock.Anything, mock.Anything).Return(internal.Success("installed")).Once()
	installer.On("Verify", mock.Anything, mock.Anything).Return(internal.Success("verified")).Once()
	return installer
}

func untouchedInstaller() *ComponentInstallerMock {
	return &ComponentInstallerMock{}
}

type OrchestratorTest struct {
	suite.Suite
	cfg *config.InstallerConfig
}

func TestOrchestrator(t *testing.T) {
	suite.Run(t, new(OrchestratorTest))
}

func (s *OrchestratorTest) SetupTest() {
	s.cfg = &config.InstallerConfig{}
}

func (s *OrchestratorTest) mustPlan(steps []internal.Step) *internal.Plan {
	plan, err := internal.NewPlan(steps)
	s.Require().NoError(err)
	return plan
}

func (s *OrchestratorTest) TestAllStepsSucceed() {
	first := healthyInstaller()
	second := healthyInstaller()
	plan := s.mustPlan([]internal.Step{
		{Name: "bootstrap", Installer: first},
		{Name: "namespaces", Installer: second},
	})

	state, err := internal.NewOrchestrator(plan, "test").Run(context.Background(), s.cfg)
	s.Nil(err)
	s.Equal(internal.RunStatusSucceeded, state.Status)
	s.Equal(0, state.ExitCode())
	s.Len(state.Results, 2)
	first.AssertExpectations(s.T())
	second.AssertExpectations(s.T())
}

// A failing non-optional step aborts the run and no later step is
// ever invoked.
func (s *OrchestratorTest) TestFailFastStopsRemainingSteps() {
	operator := &ComponentInstallerMock{}
	operator.On("Install", mock.Anything, mock.Anything).
		Return(internal.Failure("operator did not become ready within 15m0s")).Once()
	search := untouchedInstaller()
	services := untouchedInstaller()

	plan := s.mustPlan([]internal.Step{
		{Name: "bootstrap", Installer: healthyInstaller()},
		{Name: "namespaces", Installer: healthyInstaller()},
		{Name: "database", Installer: healthyInstaller()},
		{Name: "operator", Installer: operator},
		{Name: "search", Installer: search},
		{Name: "services", Installer: services},
	})

	state, err := internal.NewOrchestrator(plan, "test").Run(context.Background(), s.cfg)
	s.Require().NotNil(err)
	s.Contains(err.ErrorMsg, "Failed step: operator")
	s.Equal(internal.RunStatusFailed, state.Status)
	s.Equal("operator", state.FailedStep)
	s.Equal(1, state.ExitCode())
	s.Len(state.Results, 4)
	search.AssertNotCalled(s.T(), "Install", mock.Anything, mock.Anything)
	services.AssertNotCalled(s.T(), "Install", mock.Anything, mock.Anything)
	// Install failed, so verification was never attempted.
	operator.AssertNotCalled(s.T(), "Verify", mock.Anything, mock.Anything)
}

// A failing verify on a non-optional step is the step's hard failure.
func (s *OrchestratorTest) TestVerifyFailureIsHardFailure() {
	database := &ComponentInstallerMock{}
	database.On("Install", mock.Anything, mock.Anything).Return(internal.Success("installed")).Once()
	database.On("Verify", mock.Anything, mock.Anything).Return(internal.Failure("no ready replicas")).Once()

	plan := s.mustPlan([]internal.Step{
		{Name: "database", Installer: database},
	})

	state, err := internal.NewOrchestrator(plan, "test").Run(context.Background(), s.cfg)
	s.Require().NotNil(err)
	s.Equal(internal.RunStatusFailed, state.Status)
	s.Contains(err.ErrorMsg, "no ready replicas")
}

// A failing optional step is a warning, not a terminal failure.
func (s *OrchestratorTest) TestOptionalStepFailureTolerated() {
	smoke := &ComponentInstallerMock{}
	smoke.On("Install", mock.Anything, mock.Anything).Return(internal.Failure("3 error-like lines")).Once()
	last := healthyInstaller()

	plan := s.mustPlan([]internal.Step{
		{Name: "services", Installer: healthyInstaller()},
		{Name: "smoke-diagnostics", Installer: smoke, Optional: true},
		{Name: "initial-user", Installer: last},
	})

	state, err := internal.NewOrchestrator(plan, "test").Run(context.Background(), s.cfg)
	s.Nil(err)
	s.Equal(internal.RunStatusSucceeded, state.Status)
	s.Equal(0, state.ExitCode())
	last.AssertExpectations(s.T())
}

func (s *OrchestratorTest) TestCancelStopsAtStepBoundary() {
	untouched := untouchedInstaller()
	plan := s.mustPlan([]internal.Step{
		{Name: "bootstrap", Installer: untouched},
	})

	orch := internal.NewOrchestrator(plan, "test")
	orch.Cancel()
	state, err := orch.Run(context.Background(), s.cfg)
	s.Nil(err)
	s.Empty(state.Results)
	untouched.AssertNotCalled(s.T(), "Install", mock.Anything, mock.Anything)
}

func (s *OrchestratorTest) TestPlanRejectsForwardDependency() {
	_, err := internal.NewPlan([]internal.Step{
		{Name: "lightning-server", Installer: untouchedInstaller(), Requires: []string{"namespaces"}},
		{Name: "namespaces", Installer: untouchedInstaller()},
	})
	s.Require().NotNil(err)
	installerErr, ok := err.(*internal.InstallerError)
	s.Require().True(ok)
	s.Equal(internal.InstallerErrorCodeInvalidArgument, installerErr.ErrorCode)
}

func (s *OrchestratorTest) TestPlanRejectsDuplicateNames() {
	_, err := internal.NewPlan([]internal.Step{
		{Name: "database", Installer: untouchedInstaller()},
		{Name: "database", Installer: untouchedInstaller()},
	})
	s.Require().NotNil(err)
}

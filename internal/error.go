// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package internal

type InstallerErrorCode int

const (
	InstallerErrorCodeUnknown InstallerErrorCode = iota
	InstallerErrorCodeInternal
	InstallerErrorCodeInvalidArgument
	InstallerErrorCodePrecondition
	InstallerErrorCodeTimeout
	InstallerErrorCodeExternal
)

type InstallerError struct {
	ErrorCode InstallerErrorCode
	ErrorMsg  string
}

func (e *InstallerError) Error() string {
	return e.ErrorMsg
}

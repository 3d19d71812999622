// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func parseLogLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel // Default to info level
	}
}

// InitLogger configures the process-wide logger to mirror everything to
// stdout and to a single log file for this run. It returns the log file
// path so the final summary can point the user at it.
func InitLogger(logLevel string, logDir string, runID string) (string, error) {
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		err := os.MkdirAll(logDir, os.ModePerm)
		if err != nil {
			return "", err
		}
	}
	logFile := filepath.Join(logDir, fmt.Sprintf("lightning-installer-%s.log", runID))
	loggerConfig := zap.NewDevelopmentConfig()
	loggerConfig.Level.SetLevel(parseLogLevel(logLevel))
	loggerConfig.OutputPaths = []string{"stdout", logFile}
	loggerRoot, err := loggerConfig.Build()
	if err != nil {
		return "", err
	}
	zap.ReplaceGlobals(loggerRoot)
	zap.S().Debugf("Log level set to %s", logLevel)

	return logFile, nil
}

func Logger() *zap.SugaredLogger {
	return zap.S()
}

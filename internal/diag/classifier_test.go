// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package diag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lightning-platform/lightning-installer/internal/diag"
)

func TestClassifierMatchesCaseInsensitively(t *testing.T) {
	classifier := diag.NewKeywordClassifier()

	assert.True(t, classifier.Match("ERROR: connection refused"))
	assert.True(t, classifier.Match("java.lang.NullPointerException at foo"))
	assert.True(t, classifier.Match("request Failed with status 503"))
	assert.True(t, classifier.Match("panic: runtime error"))
	assert.False(t, classifier.Match("INFO: server started on :8080"))
}

func TestClassifierCustomKeywords(t *testing.T) {
	classifier := diag.NewKeywordClassifier("fatal", "oom")

	assert.True(t, classifier.Match("FATAL shutdown"))
	assert.True(t, classifier.Match("container OOMKilled"))
	// Default keywords do not apply once a component supplies its own set.
	assert.False(t, classifier.Match("error: retrying"))
}

func TestScanAttributesLinesToPods(t *testing.T) {
	logs := map[string]string{
		"server-0": "INFO started\nERROR db unreachable\nINFO retrying",
		"server-1": "INFO started",
	}

	report := diag.Scan("lightning-server", logs, nil)

	assert.Equal(t, "lightning-server", report.Component)
	assert.Equal(t, 4, report.Scanned)
	assert.True(t, report.HasFindings())
	assert.Len(t, report.Suspect, 1)
	assert.Equal(t, "server-0", report.Suspect[0].Pod)
	assert.Equal(t, "ERROR db unreachable", report.Suspect[0].Text)
}

func TestScanCleanLogs(t *testing.T) {
	report := diag.Scan("solr", map[string]string{"solr-0": "INFO ok\nINFO ready"}, nil)

	assert.False(t, report.HasFindings())
	assert.Equal(t, 2, report.Scanned)
}

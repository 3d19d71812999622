// SPDX-FileCopyrightText: 2025 Lightning Platform Authors
//
// SPDX-License-Identifier: Apache-2.0

package diag

import (
	"bufio"
	"sort"
	"strings"
)

// Classifier decides whether a single log line looks like a problem.
// Components supply their own keyword sets without touching the core.
type Classifier interface {
	Match(line string) bool
}

type KeywordClassifier struct {
	keywords []string
}

// DefaultKeywords is the baseline keyword set shared by most components.
var DefaultKeywords = []string{"error", "exception", "failed", "panic"}

func NewKeywordClassifier(keywords ...string) *KeywordClassifier {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		lowered = append(lowered, strings.ToLower(kw))
	}
	return &KeywordClassifier{keywords: lowered}
}

func (c *KeywordClassifier) Match(line string) bool {
	lowered := strings.ToLower(line)
	for _, kw := range c.keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// Line is a single suspect log line attributed to the pod it came from.
type Line struct {
	Pod  string
	Text string
}

// Report is the outcome of one diagnostic scan. It never carries an
// error: diagnostics are advisory and must not fail a run.
type Report struct {
	Component string
	Scanned   int
	Suspect   []Line
}

func (r Report) HasFindings() bool {
	return len(r.Suspect) > 0
}

// Scan classifies the given per-pod logs. Pods are processed in a
// stable order so repeated scans of the same input produce the same
// report.
func Scan(component string, logs map[string]string, classifier Classifier) Report {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	report := Report{Component: component}

	pods := make([]string, 0, len(logs))
	for pod := range logs {
		pods = append(pods, pod)
	}
	sort.Strings(pods)

	for _, pod := range pods {
		scanner := bufio.NewScanner(strings.NewReader(logs[pod]))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			report.Scanned++
			if classifier.Match(line) {
				report.Suspect = append(report.Suspect, Line{Pod: pod, Text: line})
			}
		}
	}
	return report
}

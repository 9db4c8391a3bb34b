// Package report aggregates per-test outcomes into the JSON report
// document and optionally writes it to disk.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Status is the outcome of one test execution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// TestResult is the outcome of one test file's container run.
type TestResult struct {
	TestFile   string `json:"testFile"`
	Status     Status `json:"status"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// Report is the aggregate document for one harness invocation.
type Report struct {
	TotalTests int          `json:"totalTests"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	GitCommit  string       `json:"gitCommit,omitempty"`
	Results    []TestResult `json:"results"`
	DurationMs int64        `json:"durationMs"`
}

// New builds a report from individual results. gitCommit may be empty when
// the test folder is not inside a git repository.
func New(results []TestResult, duration time.Duration, gitCommit string) *Report {
	r := &Report{
		TotalTests: len(results),
		GitCommit:  gitCommit,
		Results:    results,
		DurationMs: duration.Milliseconds(),
	}
	for _, result := range results {
		if result.Status == StatusSuccess {
			r.Passed++
		} else {
			r.Failed++
		}
	}
	return r
}

// AllPassed reports whether every execution succeeded. An empty report did
// not pass anything.
func (r *Report) AllPassed() bool {
	return r.TotalTests > 0 && r.Failed == 0
}

// Write serializes the report as indented JSON to the given path.
func (r *Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

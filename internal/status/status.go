// Package status implements the file protocol the guarded agent uses to
// report its outcome: a JSON document written at an agreed path inside the
// container before it exits.
package status

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// NoStatusFileMessage is the failure message used when the agent exited
// without writing a status file.
const NoStatusFileMessage = "no status file written by agent"

// Outcome is the interpreted result of one status file.
type Outcome struct {
	Passed  bool
	Message string
}

type statusFile struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Read interprets the status file at path. An absent file is a failure
// outcome, not an error: an agent that never reports is a failed test by
// policy. A present but malformed file is a hard parse error identifying
// what was wrong with it.
func Read(path string) (*Outcome, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Outcome{Passed: false, Message: NoStatusFileMessage}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var sf statusFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("status file is not valid JSON: %w", err)
	}

	switch sf.Status {
	case statusSuccess:
		return &Outcome{Passed: true}, nil
	case statusFailure:
		message := sf.Error
		if message == "" {
			message = "agent reported failure without an error message"
		}
		return &Outcome{Passed: false, Message: message}, nil
	case "":
		return nil, fmt.Errorf("status file is missing the 'status' field")
	default:
		return nil, fmt.Errorf("status file has invalid status value %q", sf.Status)
	}
}

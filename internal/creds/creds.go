// Package creds resolves which credential source the guarded agent gets:
// an API key exposed as an environment variable, or a host session file
// injected into the container home. The two are mutually exclusive per run.
package creds

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// APIKeyEnvVar carries the agent API key, in the harness process
// environment or a .env file next to it.
const APIKeyEnvVar = "NORI_API_KEY"

// sessionRelPath is the session file location relative to the home
// directory, identical on host and in the container image.
const sessionRelPath = ".nori/session.json"

// Mode identifies the selected credential source.
type Mode string

const (
	ModeAPIKey  Mode = "api-key"
	ModeSession Mode = "session"
)

// Auth is the resolved credential decision for one harness run.
type Auth struct {
	Mode Mode

	// APIKey is set when Mode is ModeAPIKey.
	APIKey string

	// SessionPath is the host path of the session file when Mode is
	// ModeSession.
	SessionPath string

	// Advisory is a human-facing note emitted when both sources were
	// present and one had to be chosen.
	Advisory string
}

// Resolve picks the credential source. The API key wins over a session file
// unless preferSession is set; having neither is a setup error. A .env file
// in the working directory is honored best-effort before reading the
// environment.
func Resolve(preferSession bool) (*Auth, error) {
	_ = godotenv.Load()

	apiKey := os.Getenv(APIKeyEnvVar)

	sessionPath, sessionErr := hostSessionPath()
	hasSession := sessionErr == nil
	hasKey := apiKey != ""

	switch {
	case hasKey && hasSession:
		if preferSession {
			return &Auth{
				Mode:        ModeSession,
				SessionPath: sessionPath,
				Advisory:    fmt.Sprintf("both %s and a session file are present; using the session file as requested", APIKeyEnvVar),
			}, nil
		}
		return &Auth{
			Mode:     ModeAPIKey,
			APIKey:   apiKey,
			Advisory: fmt.Sprintf("both %s and a session file are present; the API key takes precedence", APIKeyEnvVar),
		}, nil
	case hasKey:
		if preferSession {
			return nil, fmt.Errorf("session authentication requested but no session file found at ~/%s", sessionRelPath)
		}
		return &Auth{Mode: ModeAPIKey, APIKey: apiKey}, nil
	case hasSession:
		return &Auth{Mode: ModeSession, SessionPath: sessionPath}, nil
	default:
		return nil, fmt.Errorf("no credentials available: set %s or log in to create ~/%s", APIKeyEnvVar, sessionRelPath)
	}
}

// ContainerSessionPath returns where the session file belongs inside the
// container, given the image's home directory.
func ContainerSessionPath(containerHome string) string {
	return containerHome + "/" + sessionRelPath
}

func hostSessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	path := filepath.Join(home, sessionRelPath)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

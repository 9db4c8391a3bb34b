// Package config loads the optional harness configuration file and applies
// defaults for everything the file leaves out.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DefaultFileName is the config file looked up in the working directory
// when no explicit path is given.
const DefaultFileName = ".nori-tests.yaml"

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// MountConfig declares an extra bind mount for every test container.
type MountConfig struct {
	Host      string `mapstructure:"host" validate:"required"`
	Container string `mapstructure:"container" validate:"required,startswith=/"`
	ReadOnly  bool   `mapstructure:"readOnly"`
}

// Config is the harness configuration. CLI flags override these values.
type Config struct {
	// Image is the container image the agent runs in.
	Image string `mapstructure:"image" validate:"required"`

	// AgentCommand is the agent invocation vector; the harness appends the
	// generated prompt as the final argument.
	AgentCommand []string `mapstructure:"agentCommand" validate:"required,min=1"`

	// ContainerHome is the agent's home directory inside the image, the
	// destination for injected session files.
	ContainerHome string `mapstructure:"containerHome" validate:"required,startswith=/"`

	// StatusDirName is the directory, relative to the working directory,
	// that holds per-run status files.
	StatusDirName string `mapstructure:"statusDirName" validate:"required"`

	// Env is extra environment passed to every test container.
	Env map[string]string `mapstructure:"env"`

	// Mounts are extra bind mounts added to every test container.
	Mounts []MountConfig `mapstructure:"mounts" validate:"dive"`

	// TimeoutSeconds bounds one test execution. Zero means no timeout.
	TimeoutSeconds int `mapstructure:"timeoutSeconds" validate:"gte=0"`

	// PullImage pulls the image before the first test instead of relying
	// on a local copy.
	PullImage bool `mapstructure:"pullImage"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("image", "ghcr.io/tilework-tech/nori-agent:latest")
	v.SetDefault("agentCommand", []string{"nori", "--headless", "-p"})
	v.SetDefault("containerHome", "/home/agent")
	v.SetDefault("statusDirName", ".nori-tests")
	v.SetDefault("timeoutSeconds", 0)
	v.SetDefault("pullImage", false)
}

// Load reads the config file at filePath, or the default file in the
// working directory when filePath is empty. A missing default file is not
// an error: defaults apply. A missing explicit file is.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := filePath != ""
	if !explicit {
		filePath = DefaultFileName
	}

	if _, err := os.Stat(filePath); err != nil {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", filePath)
		}
		return unmarshalAndValidate(v)
	}

	v.SetConfigFile(filePath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	return unmarshalAndValidate(v)
}

func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file - malformed YAML: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, formatValidationError(err)
	}
	return &cfg, nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, formatFieldError(e))
		}

		if len(errorMessages) == 1 {
			return fmt.Errorf("validation error: %s", errorMessages[0])
		}

		result := "validation errors:\n"
		for _, msg := range errorMessages {
			result += fmt.Sprintf("  - %s\n", msg)
		}
		return fmt.Errorf("%s", result)
	}
	return fmt.Errorf("validation failed: %w", err)
}

// formatFieldError formats a single validation error into a user-friendly message.
func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("field '%s' is required but missing", field)
	case "min":
		return fmt.Sprintf("field '%s' needs at least %s entries", field, e.Param())
	case "startswith":
		return fmt.Sprintf("field '%s' must be an absolute path", field)
	case "gte":
		return fmt.Sprintf("field '%s' must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("field '%s' failed validation (%s)", field, tag)
	}
}

package ui

import (
	"testing"
)

func TestFormatMessageWithColors(t *testing.T) {
	console := &Console{useColors: true}

	tests := []struct {
		name     string
		style    ConsoleStyle
		message  string
		expected string
	}{
		{
			name:     "error style",
			style:    StyleError,
			message:  "something failed",
			expected: colorRed + colorBold + "something failed" + colorReset,
		},
		{
			name:     "warning style",
			style:    StyleWarning,
			message:  "watch out",
			expected: colorYellow + "watch out" + colorReset,
		},
		{
			name:     "success style",
			style:    StyleSuccess,
			message:  "all tests passed",
			expected: colorGreen + "all tests passed" + colorReset,
		},
		{
			name:     "info style",
			style:    StyleInfo,
			message:  "pulling image",
			expected: colorBlue + "pulling image" + colorReset,
		},
		{
			name:     "normal style has no codes",
			style:    StyleNormal,
			message:  "plain",
			expected: "plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := console.formatMessage(tt.style, tt.message)
			if result != tt.expected {
				t.Errorf("formatMessage() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestFormatMessageWithoutColors(t *testing.T) {
	console := &Console{useColors: false}

	result := console.formatMessage(StyleError, "something failed")
	if result != "something failed" {
		t.Errorf("formatMessage() = %q, want plain message", result)
	}
}

func TestFormatErrorMessage(t *testing.T) {
	console := &Console{useColors: false}

	tests := []struct {
		name       string
		context    string
		cause      string
		suggestion string
		expected   string
	}{
		{
			name:       "all parts",
			context:    "container setup failed",
			cause:      "image not found",
			suggestion: "check the image name",
			expected:   "container setup failed\nCause: image not found\nSuggestion: check the image name",
		},
		{
			name:     "context only",
			context:  "container setup failed",
			expected: "container setup failed",
		},
		{
			name:       "no cause",
			context:    "container setup failed",
			suggestion: "check the image name",
			expected:   "container setup failed\nSuggestion: check the image name",
		},
		{
			name:     "empty",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := console.FormatErrorMessage(tt.context, tt.cause, tt.suggestion)
			if result != tt.expected {
				t.Errorf("FormatErrorMessage() = %q, want %q", result, tt.expected)
			}
		})
	}
}

package errors

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewErrorHandler(t *testing.T) {
	handler, err := NewErrorHandler()
	if err != nil {
		t.Fatalf("NewErrorHandler() failed: %v", err)
	}

	if handler == nil {
		t.Fatal("NewErrorHandler() returned nil handler")
	}

	if handler.logger == nil {
		t.Error("ErrorHandler.logger is nil")
	}

	if handler.console == nil {
		t.Error("ErrorHandler.console is nil")
	}
}

func TestErrorHandler_Handle_HarnessError(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")
	t.Setenv("NORI_TESTS_LOG_DIR", logDir)

	handler, err := NewErrorHandler()
	if err != nil {
		t.Fatalf("NewErrorHandler() failed: %v", err)
	}

	testErr := NewSetupError(
		"Test context",
		"Test cause",
		"Test suggestion",
		errors.New("original error"),
	)

	handler.Handle(testErr)

	logFile := filepath.Join(logDir, "nori-tests.log")
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}
}

func TestErrorHandler_Handle_GenericError(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")
	t.Setenv("NORI_TESTS_LOG_DIR", logDir)

	handler, err := NewErrorHandler()
	if err != nil {
		t.Fatalf("NewErrorHandler() failed: %v", err)
	}

	handler.Handle(errors.New("generic test error"))

	logFile := filepath.Join(logDir, "nori-tests.log")
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}
}

func TestErrorHandler_Handle_NilError(t *testing.T) {
	handler, err := NewErrorHandler()
	if err != nil {
		t.Fatalf("NewErrorHandler() failed: %v", err)
	}

	// Handle nil error should not panic
	handler.Handle(nil)
}

func TestHarnessError_Unwrap(t *testing.T) {
	original := errors.New("original error")
	harnessErr := NewProtocolError("Test context", "Test cause", "Test suggestion", original)

	if !errors.Is(harnessErr, original) {
		t.Error("errors.Is() should match the original error through Unwrap")
	}
}

func TestHandleError_Singleton(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")
	t.Setenv("NORI_TESTS_LOG_DIR", logDir)
	resetDefaultHandler()

	HandleError(errors.New("singleton test error"))

	handler1, err := GetDefaultHandler()
	if err != nil {
		t.Fatalf("GetDefaultHandler() failed: %v", err)
	}
	handler2, err := GetDefaultHandler()
	if err != nil {
		t.Fatalf("GetDefaultHandler() failed: %v", err)
	}
	if handler1 != handler2 {
		t.Error("GetDefaultHandler() should return the same instance")
	}
}

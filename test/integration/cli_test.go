package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildCLI compiles the nori-tests binary into dir and returns its path.
func buildCLI(t *testing.T, dir string) string {
	t.Helper()
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	binaryPath := filepath.Join(dir, "nori-tests")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/nori-tests")
	buildCmd.Dir = originalDir
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI binary: %v\n%s", err, out)
	}
	return binaryPath
}

func TestCLI_DryRun_ListsTests(t *testing.T) {
	tempDir := t.TempDir()
	binaryPath := buildCLI(t, tempDir)

	testFolder := filepath.Join(tempDir, "tests")
	if err := os.MkdirAll(testFolder, 0755); err != nil {
		t.Fatalf("Failed to create test folder: %v", err)
	}
	for _, name := range []string{"01_login.md", "02_logout.md"} {
		if err := os.WriteFile(filepath.Join(testFolder, name), []byte("scenario"), 0644); err != nil {
			t.Fatalf("Failed to write test file: %v", err)
		}
	}

	cmd := exec.Command(binaryPath, "run", "--dry-run", testFolder)
	cmd.Dir = tempDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Expected dry run to succeed, got: %v\n%s", err, output)
	}

	outputStr := string(output)
	for _, part := range []string{"2 test file(s)", "01_login.md", "02_logout.md"} {
		if !strings.Contains(outputStr, part) {
			t.Errorf("Expected output to contain %q, but got: %s", part, outputStr)
		}
	}
}

func TestCLI_EmptyTestFolder(t *testing.T) {
	tempDir := t.TempDir()
	binaryPath := buildCLI(t, tempDir)

	testFolder := filepath.Join(tempDir, "tests")
	if err := os.MkdirAll(testFolder, 0755); err != nil {
		t.Fatalf("Failed to create test folder: %v", err)
	}

	cmd := exec.Command(binaryPath, "run", "--dry-run", testFolder)
	cmd.Dir = tempDir
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Error("Expected command to fail but it succeeded")
	}
	if !strings.Contains(string(output), "no test files") {
		t.Errorf("Expected empty-folder error, got: %s", output)
	}
}

func TestCLI_MissingTestFolderArgument(t *testing.T) {
	tempDir := t.TempDir()
	binaryPath := buildCLI(t, tempDir)

	cmd := exec.Command(binaryPath, "run")
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Error("Expected command to fail but it succeeded")
	}
	if !strings.Contains(string(output), "arg") {
		t.Errorf("Expected argument error, got: %s", output)
	}
}

func TestCLI_InvalidConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	binaryPath := buildCLI(t, tempDir)

	testFolder := filepath.Join(tempDir, "tests")
	if err := os.MkdirAll(testFolder, 0755); err != nil {
		t.Fatalf("Failed to create test folder: %v", err)
	}
	if err := os.WriteFile(filepath.Join(testFolder, "test.md"), []byte("scenario"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	configPath := filepath.Join(tempDir, "bad.yaml")
	badYAML := `image: ""
agentCommand: []`
	if err := os.WriteFile(configPath, []byte(badYAML), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cmd := exec.Command(binaryPath, "run", "--config", configPath, testFolder)
	cmd.Dir = tempDir
	cmd.Env = append(os.Environ(), "NORI_TESTS_LOG_DIR="+tempDir)
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Error("Expected command to fail but it succeeded")
	}

	outputStr := string(output)
	for _, part := range []string{"Error:", "configuration"} {
		if !strings.Contains(outputStr, part) {
			t.Errorf("Expected output to contain %q, but got: %s", part, outputStr)
		}
	}

	logFile := filepath.Join(tempDir, "nori-tests.log")
	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("Expected nori-tests.log to be created")
	}
}

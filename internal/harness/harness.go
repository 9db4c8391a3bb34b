// Package harness orchestrates a test run: it discovers test files, runs
// each one inside its own disposable container, interprets the status file
// the agent leaves behind, and aggregates the outcomes into a report.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/tilework-tech/nori-tests/internal/config"
	"github.com/tilework-tech/nori-tests/internal/creds"
	"github.com/tilework-tech/nori-tests/internal/prompt"
	"github.com/tilework-tech/nori-tests/internal/report"
	"github.com/tilework-tech/nori-tests/internal/status"
	"github.com/tilework-tech/nori-tests/internal/ui"
	"github.com/tilework-tech/nori-tests/pkg/sandbox"
)

// Options are the per-invocation knobs, resolved from CLI flags on top of
// the config file.
type Options struct {
	TestFolder     string
	KeepContainers bool
	Stream         bool
	Privileged     bool
	PreferSession  bool
}

// Harness runs test files sequentially against a container runtime.
type Harness struct {
	runtime sandbox.Runtime
	cfg     *config.Config
	console *ui.Console
	opts    Options
}

// New creates a harness. The runtime is injected so tests can substitute a
// mock for the Docker-backed implementation.
func New(rt sandbox.Runtime, cfg *config.Config, opts Options) *Harness {
	return &Harness{
		runtime: rt,
		cfg:     cfg,
		console: ui.NewConsole(),
		opts:    opts,
	}
}

// DryRun discovers the test files and prints what a real run would execute,
// without touching the container runtime.
func (h *Harness) DryRun() error {
	tests, err := discoverTests(h.opts.TestFolder)
	if err != nil {
		return err
	}

	h.console.PrintInfo(fmt.Sprintf("Dry run: %d test file(s) would be executed", len(tests)))
	for _, test := range tests {
		fmt.Printf("  %s\n", filepath.Base(test))
	}
	return nil
}

// Run executes every discovered test file and returns the aggregate report.
// Per-test failures, including panics out of the runtime layer, become
// failed results; Run itself only errors when the run as a whole cannot
// proceed.
func (h *Harness) Run(ctx context.Context) (*report.Report, error) {
	started := time.Now()

	tests, err := discoverTests(h.opts.TestFolder)
	if err != nil {
		return nil, err
	}
	slog.Info("Discovered test files", "folder", h.opts.TestFolder, "count", len(tests))

	auth, err := creds.Resolve(h.opts.PreferSession)
	if err != nil {
		return nil, err
	}
	if auth.Advisory != "" {
		h.console.PrintWarning(auth.Advisory)
	}
	slog.Info("Resolved agent credentials", "mode", auth.Mode)

	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}

	statusDir := filepath.Join(workDir, h.cfg.StatusDirName)
	if err := os.MkdirAll(statusDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create status directory: %w", err)
	}

	if h.cfg.PullImage {
		h.console.PrintInfo(fmt.Sprintf("Pulling image %s", h.cfg.Image))
		if err := h.runtime.PullImage(ctx, h.cfg.Image); err != nil {
			return nil, fmt.Errorf("failed to pull image %s: %w", h.cfg.Image, err)
		}
	}

	results := make([]report.TestResult, 0, len(tests))
	for i, testPath := range tests {
		h.console.PrintTestHeader(i+1, len(tests), filepath.Base(testPath))

		result := h.runOne(ctx, testPath, workDir, statusDir, auth)
		results = append(results, result)

		if result.Status == report.StatusSuccess {
			h.console.PrintSuccess(fmt.Sprintf("PASS %s (%dms)", filepath.Base(testPath), result.DurationMs))
		} else {
			h.console.PrintError(fmt.Sprintf("FAIL %s: %s", filepath.Base(testPath), result.Error))
		}
	}

	rep := report.New(results, time.Since(started), report.ResolveCommit(h.opts.TestFolder))
	slog.Info("Test run completed",
		"total", rep.TotalTests,
		"passed", rep.Passed,
		"failed", rep.Failed,
		"durationMs", rep.DurationMs)
	return rep, nil
}

// runOne executes a single test file in its own container. Every failure
// path collapses into a failed TestResult so one broken container never
// stops the rest of the run.
func (h *Harness) runOne(ctx context.Context, testPath, workDir, statusDir string, auth *creds.Auth) (result report.TestResult) {
	started := time.Now()
	result = report.TestResult{
		TestFile: filepath.Base(testPath),
		Status:   report.StatusFailure,
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recovered from panic during test execution", "test", result.TestFile, "panic", r)
			result.Status = report.StatusFailure
			result.Error = fmt.Sprintf("internal error: %v", r)
		}
		result.DurationMs = time.Since(started).Milliseconds()
	}()

	runID := uuid.New().String()
	shortID := runID[:8]
	statusPath := filepath.Join(statusDir, shortID+".json")
	defer func() {
		if err := os.Remove(statusPath); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove status file", "path", statusPath, "error", err)
		}
	}()

	spec, err := h.buildSpec(testPath, workDir, statusPath, shortID, auth)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	slog.Info("Starting test container", "test", result.TestFile, "container", spec.Name, "image", spec.Image)

	runCtx := ctx
	if h.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(h.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	exitCode, err := h.execute(runCtx, *spec)
	if err != nil {
		result.Error = fmt.Sprintf("container execution failed: %v", err)
		return result
	}

	outcome, err := status.Read(statusPath)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if outcome.Passed {
		result.Status = report.StatusSuccess
		return result
	}

	result.Error = outcome.Message
	if outcome.Message == status.NoStatusFileMessage && exitCode != 0 {
		result.Error = fmt.Sprintf("%s (container exited with code %d)", outcome.Message, exitCode)
	}
	return result
}

// buildSpec assembles the container run parameters for one test file.
func (h *Harness) buildSpec(testPath, workDir, statusPath, shortID string, auth *creds.Auth) (*sandbox.RunSpec, error) {
	content, err := os.ReadFile(testPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read test file: %w", err)
	}

	promptText, err := prompt.Build(string(content), workDir, statusPath)
	if err != nil {
		return nil, err
	}

	cmd := make([]string, 0, len(h.cfg.AgentCommand)+1)
	cmd = append(cmd, h.cfg.AgentCommand...)
	cmd = append(cmd, promptText)

	env := make(map[string]string, len(h.cfg.Env)+1)
	for k, v := range h.cfg.Env {
		env[k] = v
	}

	spec := &sandbox.RunSpec{
		Image:   h.cfg.Image,
		Cmd:     cmd,
		WorkDir: workDir,
		// The working directory is mounted at its own host path so paths
		// in the prompt stay valid inside the container, and any container
		// the agent starts can re-mount them coherently.
		Mounts: []sandbox.Mount{
			{HostPath: workDir, ContainerPath: workDir},
		},
		Env:        env,
		Privileged: h.opts.Privileged,
		Name:       "nori-test-" + shortID,
		Keep:       h.opts.KeepContainers,
	}

	for _, m := range h.cfg.Mounts {
		spec.Mounts = append(spec.Mounts, sandbox.Mount{
			HostPath:      m.Host,
			ContainerPath: m.Container,
			ReadOnly:      m.ReadOnly,
		})
	}

	switch auth.Mode {
	case creds.ModeAPIKey:
		spec.Env[creds.APIKeyEnvVar] = auth.APIKey
	case creds.ModeSession:
		spec.CopyFile = &sandbox.FileCopy{
			HostPath:      auth.SessionPath,
			ContainerPath: creds.ContainerSessionPath(h.cfg.ContainerHome),
		}
	}

	return spec, nil
}

// execute runs the container in buffered or streaming mode and returns the
// process exit code.
func (h *Harness) execute(ctx context.Context, spec sandbox.RunSpec) (int64, error) {
	if !h.opts.Stream {
		res, err := h.runtime.Run(ctx, spec)
		if err != nil {
			return 0, err
		}
		return res.ExitCode, nil
	}

	stream, err := h.runtime.RunStreaming(ctx, spec)
	if err != nil {
		return 0, err
	}
	for chunk := range stream.Chunks() {
		h.console.PrintChunk(chunk)
	}
	return stream.Wait(ctx)
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tilework-tech/nori-tests/internal/config"
	"github.com/tilework-tech/nori-tests/internal/errors"
	"github.com/tilework-tech/nori-tests/internal/harness"
	runtimepkg "github.com/tilework-tech/nori-tests/internal/runtime"
)

// version is set at build time via ldflags
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "nori-tests",
	Short:   "nori-tests - Run agent prompt tests in disposable containers",
	Version: version,
	Long: `nori-tests executes markdown test scenarios by handing each one to a
coding agent running inside its own throwaway Docker container, then collects
the pass/fail outcomes the agents report into a JSON summary.`,
}

var runCmd = &cobra.Command{
	Use:   "run <test-folder>",
	Short: "Run every test file in a folder",
	Long: `Run discovers the *.md test files directly inside the given folder and
executes them sequentially, one container per test. Each agent reports its
outcome through a status file; the aggregated results decide the exit code.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		testFolder := args[0]

		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			errors.HandleError(errors.NewConfigError(
				"Failed to load harness configuration",
				err.Error(),
				"Check the config file syntax and field values",
				err,
			))
			os.Exit(1)
		}

		if image, _ := cmd.Flags().GetString("image"); image != "" {
			cfg.Image = image
		}
		if timeout, _ := cmd.Flags().GetInt("timeout"); cmd.Flags().Changed("timeout") {
			cfg.TimeoutSeconds = timeout
		}
		if pull, _ := cmd.Flags().GetBool("pull"); cmd.Flags().Changed("pull") {
			cfg.PullImage = pull
		}

		keep, _ := cmd.Flags().GetBool("keep-containers")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		stream, _ := cmd.Flags().GetBool("stream")
		privileged, _ := cmd.Flags().GetBool("privileged")
		preferSession, _ := cmd.Flags().GetBool("prefer-session")
		output, _ := cmd.Flags().GetString("output")

		opts := harness.Options{
			TestFolder:     testFolder,
			KeepContainers: keep,
			Stream:         stream,
			Privileged:     privileged,
			PreferSession:  preferSession,
		}

		if dryRun {
			h := harness.New(nil, cfg, opts)
			if err := h.DryRun(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			return
		}

		dockerRuntime, err := runtimepkg.NewDockerRuntime()
		if err != nil {
			errors.HandleError(errors.NewSetupError(
				"Failed to connect to the Docker daemon",
				err.Error(),
				"Make sure Docker is installed and running",
				err,
			))
			os.Exit(1)
		}

		h := harness.New(dockerRuntime, cfg, opts)
		rep, err := h.Run(context.Background())
		if err != nil {
			errors.HandleError(err)
			os.Exit(1)
		}

		fmt.Printf("\n%d/%d tests passed\n", rep.Passed, rep.TotalTests)

		if output != "" {
			if err := rep.Write(output); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			fmt.Printf("Report written to %s\n", output)
		}

		if !rep.AllPassed() {
			os.Exit(1)
		}
	},
}

func init() {
	runCmd.Flags().StringP("output", "o", "", "Write the JSON report to this file")
	runCmd.Flags().Bool("keep-containers", false, "Retain containers after exit for debugging")
	runCmd.Flags().Bool("dry-run", false, "List the test files that would run without starting containers")
	runCmd.Flags().Bool("stream", false, "Print container output live instead of buffering it")
	runCmd.Flags().Bool("privileged", false, "Run test containers in privileged mode (needed for nested containers)")
	runCmd.Flags().Bool("prefer-session", false, "Use the host session file even when an API key is set")
	runCmd.Flags().String("image", "", "Override the agent container image")
	runCmd.Flags().Int("timeout", 0, "Per-test timeout in seconds (0 disables)")
	runCmd.Flags().Bool("pull", false, "Pull the agent image before the first test")
	runCmd.Flags().String("config", "", "Path to the harness config file")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Package sandbox defines the contract between the test orchestrator and
// the container runtime that executes untrusted agent processes.
package sandbox

import (
	"context"
)

// Origin identifies which output stream a chunk was read from.
type Origin string

const (
	OriginStdout Origin = "stdout"
	OriginStderr Origin = "stderr"
)

// Mount maps a host path into the container filesystem.
// The host path must exist and be resolvable when the container is created;
// the container runtime enforces the actual mount semantics.
type Mount struct {
	HostPath      string
	ContainerPath string
	ReadOnly      bool
}

// FileCopy describes a single host file to inject into the container
// filesystem before its main process starts.
type FileCopy struct {
	HostPath      string
	ContainerPath string
}

// RunSpec defines the parameters for one container execution.
// A RunSpec is created fresh per execution and must not be reused.
type RunSpec struct {
	Image      string
	Cmd        []string
	WorkDir    string
	Mounts     []Mount
	Env        map[string]string
	Privileged bool

	// Name optionally fixes the container name. Empty means the runtime
	// assigns one.
	Name string

	// Keep retains the container after exit instead of removing it.
	Keep bool

	// CopyFile optionally injects a file between container creation and
	// start. Injection is impossible once the main process is running.
	CopyFile *FileCopy
}

// ExecResult is the outcome of a buffered execution. It is produced exactly
// once per run and immutable after return.
type ExecResult struct {
	ExitCode int64
	Stdout   string
	Stderr   string
}

// OutputChunk is one fragment of container output. Chunks from the same
// origin arrive in write order; interleaving across origins is best-effort.
type OutputChunk struct {
	Origin Origin
	Text   string
}

// Stream is a lazy, finite, non-restartable sequence of output chunks from
// a single running container. It is a single-consumer contract: reading
// Chunks from more than one goroutine corrupts delivery order.
type Stream interface {
	// Chunks returns the channel of output fragments. It is closed only
	// once the process has exited and every buffered chunk was consumed.
	Chunks() <-chan OutputChunk

	// Wait blocks until the container has exited and cleanup has run,
	// returning the process exit code. Call it after draining Chunks.
	Wait(ctx context.Context) (int64, error)
}

// Runtime defines the contract for container lifecycle operations.
type Runtime interface {
	// PullImage fetches an image, resolving only on terminal
	// success or failure of the pull.
	PullImage(ctx context.Context, image string) error

	// Run executes the spec to completion, accumulating output.
	Run(ctx context.Context, spec RunSpec) (*ExecResult, error)

	// RunStreaming executes the spec, delivering output incrementally
	// through the returned Stream while the container runs.
	RunStreaming(ctx context.Context, spec RunSpec) (Stream, error)
}

package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"github.com/tilework-tech/nori-tests/pkg/sandbox"
)

// agentUser is the fixed non-root identity every container runs as. The
// guarded agent process refuses to start with elevated privileges.
const agentUser = "1000:1000"

// DockerRuntime implements the sandbox.Runtime interface using the Docker client.
type DockerRuntime struct {
	client *client.Client
}

// NewDockerRuntime creates a new DockerRuntime instance using client.FromEnv.
func NewDockerRuntime() (*DockerRuntime, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	// Check if Docker daemon is accessible
	ctx := context.Background()
	_, err = dockerClient.Ping(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Docker daemon: %w", err)
	}

	return &DockerRuntime{
		client: dockerClient,
	}, nil
}

// PullImage pulls a Docker image, resolving only when the daemon reports the
// pull finished.
func (d *DockerRuntime) PullImage(ctx context.Context, imageName string) error {
	slog.Info("Pulling Docker image", "image", imageName)

	reader, err := d.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", imageName, err)
	}
	defer reader.Close()

	// Drain the progress stream; only terminal success/failure is surfaced.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to stream image pull output: %w", err)
	}

	slog.Info("Successfully pulled Docker image", "image", imageName)
	return nil
}

// Run executes the spec to completion, accumulating stdout and stderr into
// the returned ExecResult.
func (d *DockerRuntime) Run(ctx context.Context, spec sandbox.RunSpec) (*sandbox.ExecResult, error) {
	containerID, attach, err := d.prepare(ctx, spec)
	if err != nil {
		// A created-but-unstarted container still needs removal.
		if containerID != "" {
			d.cleanup(containerID, false)
		}
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	demuxDone := make(chan error, 1)
	go func() {
		demuxDone <- demultiplex(attach.Reader, &stdout, &stderr)
	}()

	// Register the wait before starting so a fast exit cannot slip past.
	waitCh, waitErrCh := d.client.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)

	if err := d.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		attach.Close()
		d.cleanup(containerID, false)
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	var exitCode int64
	select {
	case resp := <-waitCh:
		exitCode = resp.StatusCode
	case waitErr := <-waitErrCh:
		attach.Close()
		d.cleanup(containerID, spec.Keep)
		return nil, fmt.Errorf("failed to wait for container: %w", waitErr)
	case <-ctx.Done():
		attach.Close()
		d.cleanup(containerID, spec.Keep)
		return nil, ctx.Err()
	}

	// The daemon closes the attach connection once the process exits, so
	// joining on demultiplexer EOF guarantees the last bytes have landed in
	// the buffers. No flush delay is needed.
	demuxErr := <-demuxDone
	attach.Close()
	d.cleanup(containerID, spec.Keep)

	if demuxErr != nil {
		return nil, fmt.Errorf("failed to read container output: %w", demuxErr)
	}

	return &sandbox.ExecResult{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// RunStreaming executes the spec like Run but delivers output incrementally
// through the returned Stream. The container wait proceeds concurrently with
// chunk consumption; cleanup runs once the stream is drained and the exit
// code known.
func (d *DockerRuntime) RunStreaming(ctx context.Context, spec sandbox.RunSpec) (sandbox.Stream, error) {
	containerID, attach, err := d.prepare(ctx, spec)
	if err != nil {
		if containerID != "" {
			d.cleanup(containerID, false)
		}
		return nil, err
	}

	stream := newChunkStream()
	demuxDone := make(chan error, 1)
	go func() {
		demuxDone <- demultiplex(attach.Reader,
			&chunkWriter{origin: sandbox.OriginStdout, stream: stream},
			&chunkWriter{origin: sandbox.OriginStderr, stream: stream})
		close(stream.chunks)
	}()

	waitCh, waitErrCh := d.client.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)

	if err := d.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		attach.Close()
		d.cleanup(containerID, false)
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	go func() {
		var exitCode int64 = -1
		var runErr error
		select {
		case resp := <-waitCh:
			exitCode = resp.StatusCode
		case waitErr := <-waitErrCh:
			runErr = fmt.Errorf("failed to wait for container: %w", waitErr)
			attach.Close() // unblock the demultiplexer
		case <-ctx.Done():
			runErr = ctx.Err()
			attach.Close()
		}

		// The chunk channel closes only after the attach stream reached
		// EOF, i.e. the process exited and every frame was delivered.
		demuxErr := <-demuxDone
		attach.Close()
		d.cleanup(containerID, spec.Keep)

		if runErr == nil && demuxErr != nil {
			runErr = fmt.Errorf("failed to read container output: %w", demuxErr)
		}
		stream.finish(exitCode, runErr)
	}()

	return stream, nil
}

// prepare performs the setup shared by both execution modes: validate the
// spec, create the container, inject the optional file while the container
// is still stopped, and attach to the combined output stream before start.
// On error the returned container ID is non-empty if a container was
// created and must be removed by the caller.
func (d *DockerRuntime) prepare(ctx context.Context, spec sandbox.RunSpec) (string, types.HijackedResponse, error) {
	if spec.Image == "" {
		return "", types.HijackedResponse{}, fmt.Errorf("image reference must not be empty")
	}
	if len(spec.Cmd) == 0 {
		return "", types.HijackedResponse{}, fmt.Errorf("command must not be empty")
	}

	binds := make([]string, 0, len(spec.Mounts))
	for _, m := range spec.Mounts {
		if _, err := os.Stat(m.HostPath); err != nil {
			return "", types.HijackedResponse{}, fmt.Errorf("mount host path %s is not resolvable: %w", m.HostPath, err)
		}
		mode := "rw"
		if m.ReadOnly {
			mode = "ro"
		}
		binds = append(binds, fmt.Sprintf("%s:%s:%s", m.HostPath, m.ContainerPath, mode))
	}

	env := make([]string, 0, len(spec.Env))
	for key, value := range spec.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	containerConfig := &container.Config{
		Image:      spec.Image,
		Cmd:        spec.Cmd,
		WorkingDir: spec.WorkDir,
		Env:        env,
		User:       agentUser,
	}
	hostConfig := &container.HostConfig{
		Binds:      binds,
		Privileged: spec.Privileged,
	}

	created, err := d.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, spec.Name)
	if err != nil {
		return "", types.HijackedResponse{}, fmt.Errorf("failed to create container: %w", err)
	}
	containerID := created.ID
	slog.Info("Created container", "containerID", containerID, "image", spec.Image)

	// Injection must land in the window between creation and start: the
	// archive-write endpoint accepts a stopped container, and the file has
	// to be in place before the agent process begins. The archive entry
	// carries the full destination path so extraction at / creates any
	// missing parent directories.
	if spec.CopyFile != nil {
		archive, err := packFile(spec.CopyFile.HostPath, spec.CopyFile.ContainerPath)
		if err != nil {
			return containerID, types.HijackedResponse{}, err
		}
		if err := d.client.CopyToContainer(ctx, containerID, "/", archive, container.CopyToContainerOptions{}); err != nil {
			return containerID, types.HijackedResponse{}, fmt.Errorf("failed to inject %s into container: %w", spec.CopyFile.HostPath, err)
		}
		slog.Info("Injected file into container", "containerID", containerID, "dest", spec.CopyFile.ContainerPath)
	}

	// Attach before start; attaching afterwards risks losing early output.
	attach, err := d.client.ContainerAttach(ctx, containerID, container.AttachOptions{
		Stream: true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return containerID, types.HijackedResponse{}, fmt.Errorf("failed to attach to container: %w", err)
	}

	return containerID, attach, nil
}

// cleanup force-removes the container unless retention was requested.
// Removal failures are logged, never escalated; a leaked container is an
// acceptable cost once the caller has its result.
func (d *DockerRuntime) cleanup(containerID string, keep bool) {
	if keep {
		slog.Info("Retaining container after exit", "containerID", containerID)
		return
	}
	// Background context: removal must still run when the caller's context
	// is already cancelled.
	if err := d.client.ContainerRemove(context.Background(), containerID, container.RemoveOptions{Force: true}); err != nil {
		slog.Warn("Failed to remove container", "containerID", containerID, "error", err)
	}
}

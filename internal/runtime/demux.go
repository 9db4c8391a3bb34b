package runtime

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Stream tag bytes in the Docker attach framing. The daemon emits 0
// (stdin echo) and 1 for stdout, 2 for stderr.
const (
	frameStdin  = 0
	frameStdout = 1
	frameStderr = 2
)

// frameHeaderLen is one tag byte, three reserved bytes, and a 4-byte
// big-endian payload length.
const frameHeaderLen = 8

// demultiplex splits the multiplexed attach stream into its stdout and
// stderr sinks. It consumes frames until the source reaches EOF, which the
// daemon signals by closing the attach connection when the container's
// process exits. A header truncated mid-frame is an error; a clean EOF at a
// frame boundary is normal termination.
func demultiplex(src io.Reader, stdout, stderr io.Writer) error {
	var header [frameHeaderLen]byte

	for {
		if _, err := io.ReadFull(src, header[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("truncated frame header in multiplexed stream: %w", err)
			}
			return fmt.Errorf("failed to read frame header: %w", err)
		}

		var dst io.Writer
		switch header[0] {
		case frameStdin, frameStdout:
			dst = stdout
		case frameStderr:
			dst = stderr
		default:
			return fmt.Errorf("unknown stream tag %d in multiplexed frame", header[0])
		}

		size := int64(binary.BigEndian.Uint32(header[4:frameHeaderLen]))
		if _, err := io.CopyN(dst, src, size); err != nil {
			if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("truncated frame payload in multiplexed stream: %w", err)
			}
			return fmt.Errorf("failed to copy frame payload: %w", err)
		}
	}
}

package runtime

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frame builds one multiplexed frame as the daemon emits it.
func frame(tag byte, payload string) []byte {
	buf := make([]byte, frameHeaderLen+len(payload))
	buf[0] = tag
	binary.BigEndian.PutUint32(buf[4:frameHeaderLen], uint32(len(payload)))
	copy(buf[frameHeaderLen:], payload)
	return buf
}

func TestDemultiplex_SplitsStreams(t *testing.T) {
	var src bytes.Buffer
	src.Write(frame(frameStdout, "out-1 "))
	src.Write(frame(frameStderr, "err-1 "))
	src.Write(frame(frameStdout, "out-2"))
	src.Write(frame(frameStderr, "err-2"))

	var stdout, stderr bytes.Buffer
	err := demultiplex(&src, &stdout, &stderr)

	require.NoError(t, err)
	assert.Equal(t, "out-1 out-2", stdout.String())
	assert.Equal(t, "err-1 err-2", stderr.String())
}

func TestDemultiplex_StdinTagRoutesToStdout(t *testing.T) {
	var src bytes.Buffer
	src.Write(frame(frameStdin, "echoed"))

	var stdout, stderr bytes.Buffer
	err := demultiplex(&src, &stdout, &stderr)

	require.NoError(t, err)
	assert.Equal(t, "echoed", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestDemultiplex_EmptySource(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := demultiplex(bytes.NewReader(nil), &stdout, &stderr)

	require.NoError(t, err)
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestDemultiplex_EmptyPayloadFrame(t *testing.T) {
	var src bytes.Buffer
	src.Write(frame(frameStdout, ""))
	src.Write(frame(frameStdout, "after"))

	var stdout, stderr bytes.Buffer
	err := demultiplex(&src, &stdout, &stderr)

	require.NoError(t, err)
	assert.Equal(t, "after", stdout.String())
}

func TestDemultiplex_UnknownTag(t *testing.T) {
	var src bytes.Buffer
	src.Write(frame(7, "bogus"))

	var stdout, stderr bytes.Buffer
	err := demultiplex(&src, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stream tag")
}

func TestDemultiplex_TruncatedHeader(t *testing.T) {
	src := bytes.NewReader([]byte{frameStdout, 0, 0})

	var stdout, stderr bytes.Buffer
	err := demultiplex(src, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated frame header")
}

func TestDemultiplex_TruncatedPayload(t *testing.T) {
	full := frame(frameStderr, "will be cut short")
	src := bytes.NewReader(full[:len(full)-4])

	var stdout, stderr bytes.Buffer
	err := demultiplex(src, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated frame payload")
}

func TestDemultiplex_LargePayload(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 64*1024)
	var src bytes.Buffer
	src.Write(frame(frameStdout, string(payload)))

	var stdout, stderr bytes.Buffer
	err := demultiplex(&src, &stdout, &stderr)

	require.NoError(t, err)
	assert.Equal(t, len(payload), stdout.Len())
}

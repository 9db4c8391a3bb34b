package runtime

import (
	"context"

	"github.com/tilework-tech/nori-tests/pkg/sandbox"
)

// chunkStream adapts the push-style arrival of output frames into the
// pull-style sandbox.Stream contract. A plain channel with close carries
// the chunks: the demultiplexer goroutine is the single producer, the
// caller the single consumer, and closing the channel is the completion
// signal once the process has exited and the buffer is drained. The
// producer blocks while the consumer lags, so the caller dictates pace.
type chunkStream struct {
	chunks chan sandbox.OutputChunk

	// done closes after the container exit code is known and cleanup ran.
	done     chan struct{}
	exitCode int64
	err      error
}

func newChunkStream() *chunkStream {
	return &chunkStream{
		chunks: make(chan sandbox.OutputChunk),
		done:   make(chan struct{}),
	}
}

func (s *chunkStream) Chunks() <-chan sandbox.OutputChunk {
	return s.chunks
}

func (s *chunkStream) Wait(ctx context.Context) (int64, error) {
	select {
	case <-s.done:
		return s.exitCode, s.err
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// finish records the terminal outcome and releases Wait callers.
func (s *chunkStream) finish(exitCode int64, err error) {
	s.exitCode = exitCode
	s.err = err
	close(s.done)
}

// chunkWriter is the demultiplexer sink for one origin. Each Write becomes
// one OutputChunk pushed onto the stream's channel.
type chunkWriter struct {
	origin sandbox.Origin
	stream *chunkStream
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	w.stream.chunks <- sandbox.OutputChunk{Origin: w.origin, Text: string(p)}
	return len(p), nil
}

package llm

import (
	"context"
	"io"
)

// Stream is a lazy sequence of generated text fragments. It is not
// restartable: once Next returns io.EOF or an error the stream is done.
type Stream interface {
	// Next blocks until the next fragment is available. It returns io.EOF
	// when the provider finishes normally, ErrAuthentication /
	// ErrRateLimited / ErrProvider (possibly wrapped) on failure.
	Next() (string, error)

	// Close releases the provider-side connection and any buffered state.
	// Safe to call at any fragment boundary; no fragments are delivered
	// after Close returns.
	Close() error
}

// Generator drives an external text-generation capability. Implementations
// must treat Generate as a blocking, potentially slow remote call and honor
// ctx cancellation throughout the life of the returned stream.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (Stream, error)

	// Close releases any resources held by the generator.
	Close() error
}

// compile-time interface sanity for the helper below
var _ Stream = (*sliceStream)(nil)

// sliceStream adapts a fixed fragment list into a Stream. Exposed through
// NewSliceStream for tests and for degraded paths that must still speak the
// Stream contract.
type sliceStream struct {
	fragments []string
	pos       int
	err       error
}

// NewSliceStream returns a Stream yielding the given fragments, then
// finalErr (io.EOF when nil).
func NewSliceStream(fragments []string, finalErr error) Stream {
	if finalErr == nil {
		finalErr = io.EOF
	}
	return &sliceStream{fragments: fragments, err: finalErr}
}

func (s *sliceStream) Next() (string, error) {
	if s.pos >= len(s.fragments) {
		return "", s.err
	}
	frag := s.fragments[s.pos]
	s.pos++
	return frag, nil
}

func (s *sliceStream) Close() error {
	s.pos = len(s.fragments)
	return nil
}

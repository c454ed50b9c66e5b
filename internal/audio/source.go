package audio

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrWaitTimeout is returned by Listen when no phrase started within
	// the wait window.
	ErrWaitTimeout = errors.New("listening timed out while waiting for phrase to start")

	// ErrMicrophone wraps failures of the capture device itself.
	ErrMicrophone = errors.New("microphone unavailable")
)

// Source hands out capture streams. Every dictation stage opens its own.
type Source interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream captures single phrases from an open input.
type Stream interface {
	// Calibrate samples ambient noise for d and adapts the speech threshold.
	Calibrate(ctx context.Context, d time.Duration) error
	// Listen waits up to timeout for a phrase to start (0 = forever) and
	// records it until a pause or until phraseLimit (0 = no limit).
	Listen(ctx context.Context, timeout, phraseLimit time.Duration) ([]float32, error)
	Close() error
}

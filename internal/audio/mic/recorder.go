// Package mic captures phrases from the default input device via PortAudio.
package mic

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"stofix/internal/audio"
)

type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: %v", audio.ErrMicrophone, err)
	}
	return nil
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Open starts a mono 16 kHz input stream on the default device.
func (r *Recorder) Open(ctx context.Context) (audio.Stream, error) {
	s := &stream{buf: make([]float32, audio.FrameSize)}

	ps, err := portaudio.OpenDefaultStream(1, 0, audio.SampleRate, len(s.buf), s.buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrMicrophone, err)
	}
	if err := ps.Start(); err != nil {
		ps.Close()
		return nil, fmt.Errorf("%w: %v", audio.ErrMicrophone, err)
	}

	s.ps = ps
	return s, nil
}

type stream struct {
	ps        *portaudio.Stream
	buf       []float32
	threshold float64
}

func (s *stream) read() error {
	if err := s.ps.Read(); err != nil {
		// overflow only means we fell behind, the frame is still usable
		if err == portaudio.InputOverflowed {
			return nil
		}
		return fmt.Errorf("%w: %v", audio.ErrMicrophone, err)
	}
	return nil
}

func (s *stream) Calibrate(ctx context.Context, d time.Duration) error {
	n := int(d * audio.SampleRate / time.Second / audio.FrameSize)
	frames := make([][]float32, 0, n)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.read(); err != nil {
			return err
		}
		frames = append(frames, append([]float32(nil), s.buf...))
	}

	s.threshold = audio.AmbientThreshold(frames)
	log.Debug("Calibrated ambient noise", "threshold", s.threshold, "frames", n)
	return nil
}

func (s *stream) Listen(ctx context.Context, timeout, phraseLimit time.Duration) ([]float32, error) {
	det := audio.NewPhraseDetector(s.threshold, timeout, phraseLimit)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.read(); err != nil {
			return nil, err
		}

		switch det.Feed(s.buf) {
		case audio.TimedOut:
			return nil, audio.ErrWaitTimeout
		case audio.Done:
			return det.Samples(), nil
		}
	}
}

func (s *stream) Close() error {
	s.ps.Stop()
	return s.ps.Close()
}

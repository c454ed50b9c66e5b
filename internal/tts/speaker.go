// Package tts serializes speech playback on a single goroutine and lets
// callers wait for their utterance to finish.
package tts

import (
	log "log/slog"
	"sync"
	"sync/atomic"
)

type Params struct {
	Voice  string  // espeak language/voice, e.g. "en"
	Rate   int     // words per minute
	Volume float64 // 0..1
}

// Engine plays one utterance and returns once playback is over.
type Engine interface {
	Speak(text string, p Params) error
}

type request struct {
	text string
	done chan struct{}
}

// Speaker is the only caller of the engine. Say queues text and returns a
// channel that is closed when that text has been spoken (or dropped).
type Speaker struct {
	engine Engine

	mu     sync.Mutex
	params Params

	qmu    sync.RWMutex
	closed bool

	queue   chan request
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
	pending atomic.Int32
}

func NewSpeaker(engine Engine, p Params) *Speaker {
	s := &Speaker{
		engine:  engine,
		params:  p,
		queue:   make(chan request, 16),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Speaker) run() {
	defer close(s.stopped)

	for {
		select {
		case <-s.quit:
			s.drain()
			return
		case req := <-s.queue:
			s.play(req)
		}
	}
}

func (s *Speaker) play(req request) {
	defer func() {
		s.pending.Add(-1)
		close(req.done)
	}()

	log.Debug("Speaking", "text", req.text)
	if err := s.engine.Speak(req.text, s.Params()); err != nil {
		log.Error("Failed to voice out", "err", err)
	}
}

func (s *Speaker) drain() {
	for {
		select {
		case req := <-s.queue:
			s.pending.Add(-1)
			close(req.done)
		default:
			return
		}
	}
}

// Say queues text for playback.
func (s *Speaker) Say(text string) <-chan struct{} {
	done := make(chan struct{})

	s.qmu.RLock()
	defer s.qmu.RUnlock()

	if s.closed {
		close(done)
		return done
	}

	s.pending.Add(1)
	s.queue <- request{text: text, done: done}
	return done
}

// Speaking reports whether anything is queued or playing.
func (s *Speaker) Speaking() bool {
	return s.pending.Load() > 0
}

func (s *Speaker) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SetVolume takes effect from the next utterance.
func (s *Speaker) SetVolume(v float64) {
	v = max(0, min(v, 1))
	s.mu.Lock()
	s.params.Volume = v
	s.mu.Unlock()
}

func (s *Speaker) Volume() float64 {
	return s.Params().Volume
}

// Close stops playback after the current utterance; queued ones are dropped.
func (s *Speaker) Close() {
	s.once.Do(func() {
		s.qmu.Lock()
		s.closed = true
		s.qmu.Unlock()
		close(s.quit)
	})
	<-s.stopped
}

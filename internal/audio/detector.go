package audio

import (
	"math"
	"time"
)

const (
	SampleRate = 16000
	FrameSize  = 320 // 20ms

	frameDuration = time.Second * FrameSize / SampleRate

	defaultThreshold = 0.015 // RMS, tune if needed
	minThreshold     = 0.004
	ambientRatio     = 1.5
	pauseDuration    = 800 * time.Millisecond
	prerollFrames    = 10
)

type PhraseEvent int

const (
	Waiting PhraseEvent = iota
	Started
	Recording
	Done
	TimedOut
)

// PhraseDetector splits a frame stream into one phrase: it waits for
// energy above the threshold, keeps recording through short dips and stops
// after a pause or at the phrase limit.
type PhraseDetector struct {
	Threshold   float64
	Timeout     time.Duration
	PhraseLimit time.Duration

	waited    time.Duration
	recorded  time.Duration
	silence   time.Duration
	speaking  bool
	preroll   [][]float32
	collected []float32
}

func NewPhraseDetector(threshold float64, timeout, phraseLimit time.Duration) *PhraseDetector {
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	return &PhraseDetector{
		Threshold:   threshold,
		Timeout:     timeout,
		PhraseLimit: phraseLimit,
	}
}

// Feed consumes one frame. The frame is copied.
func (d *PhraseDetector) Feed(frame []float32) PhraseEvent {
	dur := time.Second * time.Duration(len(frame)) / SampleRate
	loud := FrameRMS(frame) > d.Threshold
	f := append([]float32(nil), frame...)

	if !d.speaking {
		if !loud {
			d.waited += dur
			d.preroll = append(d.preroll, f)
			if len(d.preroll) > prerollFrames {
				d.preroll = d.preroll[1:]
			}
			if d.Timeout > 0 && d.waited >= d.Timeout {
				return TimedOut
			}
			return Waiting
		}

		d.speaking = true
		for _, p := range d.preroll {
			d.collected = append(d.collected, p...)
		}
		d.preroll = nil
		d.collected = append(d.collected, f...)
		d.recorded = dur
		return Started
	}

	d.collected = append(d.collected, f...)
	d.recorded += dur

	if loud {
		d.silence = 0
	} else {
		d.silence += dur
		if d.silence >= pauseDuration {
			return Done
		}
	}

	if d.PhraseLimit > 0 && d.recorded >= d.PhraseLimit {
		return Done
	}
	return Recording
}

func (d *PhraseDetector) Samples() []float32 {
	return d.collected
}

// AmbientThreshold derives a speech threshold from the mean RMS of
// ambient frames.
func AmbientThreshold(frames [][]float32) float64 {
	if len(frames) == 0 {
		return defaultThreshold
	}
	var sum float64
	for _, f := range frames {
		sum += FrameRMS(f)
	}
	th := sum / float64(len(frames)) * ambientRatio
	return math.Max(th, minThreshold)
}

func FrameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}

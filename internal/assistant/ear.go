package assistant

import (
	"context"
	"time"

	"stofix/internal/audio"
	"stofix/pkg/stt"
)

// NewEar pairs an audio source with a recognizer.
func NewEar(src audio.Source, rec stt.Recognizer) Ear {
	return &ear{src: src, rec: rec}
}

type ear struct {
	src audio.Source
	rec stt.Recognizer
}

func (e *ear) Open(ctx context.Context) (Capture, error) {
	st, err := e.src.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &capture{Stream: st, rec: e.rec}, nil
}

type capture struct {
	audio.Stream
	rec stt.Recognizer
}

func (c *capture) Hear(ctx context.Context, timeout, phraseLimit time.Duration) (string, error) {
	pcm, err := c.Listen(ctx, timeout, phraseLimit)
	if err != nil {
		return "", err
	}
	text, err := c.rec.Recognize(ctx, pcm)
	if err != nil {
		return "", err
	}
	if text = stt.Normalize(text); text == "" {
		return "", stt.ErrUnknownValue
	}
	return text, nil
}

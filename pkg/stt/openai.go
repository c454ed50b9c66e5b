package stt

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"

	"stofix/pkg/audioconv"
)

type CloudOptions struct {
	Model    string // e.g. "whisper-1", "gpt-4o-mini-transcribe"
	Language string // ISO-639-1, empty = detect
	Prompt   string // optional vocabulary hint
}

// Cloud recognizes utterances with the OpenAI audio transcription API.
type Cloud struct {
	client openai.Client
	opt    CloudOptions
}

func NewCloud(client openai.Client, opt CloudOptions) *Cloud {
	if opt.Model == "" {
		opt.Model = string(openai.AudioModelWhisper1)
	}
	return &Cloud{client: client, opt: opt}
}

func (c *Cloud) Recognize(ctx context.Context, pcm16k []float32) (string, error) {
	if len(pcm16k) == 0 {
		return "", ErrUnknownValue
	}

	f, err := os.CreateTemp("", "utterance_"+uuid.NewString()+"_*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := audioconv.EncodeWAV16k(f, pcm16k); err != nil {
		return "", fmt.Errorf("encode wav: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return "", fmt.Errorf("rewind wav: %w", err)
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(f, "utterance.wav", "audio/wav"),
		Model: openai.AudioModel(c.opt.Model),
	}
	if c.opt.Language != "" {
		params.Language = openai.String(c.opt.Language)
	}
	if c.opt.Prompt != "" {
		params.Prompt = openai.String(c.opt.Prompt)
	}

	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: status %d", ErrRequest, apiErr.StatusCode)
		}
		return "", fmt.Errorf("%w: %v", ErrRequest, err)
	}

	text := Normalize(resp.Text)
	if text == "" {
		return "", ErrUnknownValue
	}
	return text, nil
}

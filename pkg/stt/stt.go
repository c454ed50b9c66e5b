package stt

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrUnknownValue is returned when audio was captured but no words
	// could be made out of it.
	ErrUnknownValue = errors.New("speech not understood")

	// ErrRequest is returned when the recognition backend could not be
	// reached or failed to answer.
	ErrRequest = errors.New("speech service request failed")
)

// Recognizer turns one utterance into text.
// pcm16k must be mono @ 16 kHz, float32 in [-1, 1]
type Recognizer interface {
	Recognize(ctx context.Context, pcm16k []float32) (string, error)
}

var annotationRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)

// Normalize lowercases recognized text and drops the decorations
// transcription models add around it: non-speech annotations such as
// "[BLANK_AUDIO]", extra whitespace, surrounding quotes and trailing
// sentence punctuation. A leading dot is kept: ".com" is speech.
func Normalize(text string) string {
	text = annotationRe.ReplaceAllString(text, " ")
	text = strings.ToLower(text)
	text = strings.Join(strings.Fields(text), " ")
	text = strings.TrimLeft(text, "\"' ")
	return strings.TrimRight(text, " .,!?;:\"'")
}

package assistant

import (
	"context"
	"time"
)

const (
	ComposeURL  = "https://mail.google.com/mail/u/0/#inbox?compose=new"
	LinkedInURL = "https://www.linkedin.com"
)

type Options struct {
	ListenTimeout    time.Duration // command capture wait, retried
	DictationTimeout time.Duration
	PhraseLimit      time.Duration // dictation phrase cap
	Calibration      time.Duration
	Settle           time.Duration // pause after a prompt
	ComposeWait      time.Duration // used when ComposeReady is nil
	SendPause        time.Duration

	ComposeURL  string
	LinkedInURL string

	// RetypeSubject types the whole subject once more after the live
	// fragments, as the assistant always did.
	RetypeSubject bool

	// ComposeReady blocks until the compose form accepts input.
	ComposeReady func(ctx context.Context) error
}

func DefaultOptions() Options {
	return Options{
		ListenTimeout:    time.Second,
		DictationTimeout: 2 * time.Second,
		PhraseLimit:      5 * time.Second,
		Calibration:      500 * time.Millisecond,
		Settle:           500 * time.Millisecond,
		ComposeWait:      4 * time.Second,
		SendPause:        200 * time.Millisecond,
		ComposeURL:       ComposeURL,
		LinkedInURL:      LinkedInURL,
		RetypeSubject:    true,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ListenTimeout <= 0 {
		o.ListenTimeout = d.ListenTimeout
	}
	if o.DictationTimeout <= 0 {
		o.DictationTimeout = d.DictationTimeout
	}
	if o.PhraseLimit <= 0 {
		o.PhraseLimit = d.PhraseLimit
	}
	if o.Calibration < 0 {
		o.Calibration = 0
	}
	if o.Settle < 0 {
		o.Settle = 0
	}
	if o.ComposeWait < 0 {
		o.ComposeWait = 0
	}
	if o.SendPause < 0 {
		o.SendPause = 0
	}
	if o.ComposeURL == "" {
		o.ComposeURL = d.ComposeURL
	}
	if o.LinkedInURL == "" {
		o.LinkedInURL = d.LinkedInURL
	}
	return o
}

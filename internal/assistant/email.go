package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"

	"stofix/internal/audio"
	"stofix/internal/input"
	"stofix/pkg/stt"
)

// email walks the user through recipient, subject and body, typing each
// into the compose form of the web mail client and finally sending it.
func (s *Session) email(ctx context.Context, lg *log.Logger) error {
	if err := s.say(ctx, "Opening Gmail"); err != nil {
		return err
	}
	s.Status.SetStatus("Waiting for Gmail to open...")
	if err := s.Launcher.OpenURL(ctx, s.opt.ComposeURL); err != nil {
		return err
	}
	if err := s.waitCompose(ctx); err != nil {
		return err
	}

	for _, stage := range []func(context.Context, *log.Logger) error{
		s.recipient,
		s.subject,
		s.body,
	} {
		if err := stage(ctx, lg); err != nil {
			return err
		}
	}

	s.Status.SetStatus("Ready")
	return nil
}

func (s *Session) waitCompose(ctx context.Context) error {
	if s.opt.ComposeReady != nil {
		if err := s.opt.ComposeReady(ctx); err != nil {
			return fmt.Errorf("compose window: %w", err)
		}
		return nil
	}
	return sleep(ctx, s.opt.ComposeWait)
}

func (s *Session) recipient(ctx context.Context, lg *log.Logger) error {
	if err := s.say(ctx, "Who do you want to send the email to?"); err != nil {
		return err
	}
	s.Status.SetStatus("Listening for email...")

	var buf strings.Builder
	err := s.dictate(ctx, lg, func(text string) (bool, error) {
		buf.WriteString(text + " ")
		s.Status.SetStatus(buf.String())
		return strings.Contains(text, ".com"), nil
	})
	if err != nil {
		return err
	}

	s.Status.SetStatus("Email captured.")
	addr := NormalizeRecipient(buf.String())
	lg.Info("Recipient captured", "to", addr)
	if err := s.Keyboard.Type(addr); err != nil {
		return err
	}
	return s.Keyboard.Press(input.KeyTab)
}

func (s *Session) subject(ctx context.Context, lg *log.Logger) error {
	if err := s.say(ctx, "What is the subject? Say next when done."); err != nil {
		return err
	}
	s.Status.SetStatus("Listening for subject...")

	var buf strings.Builder
	err := s.dictate(ctx, lg, func(text string) (bool, error) {
		if strings.Contains(text, "next") {
			buf.WriteString(stripKeyword(text, "next") + " ")
			return true, nil
		}
		buf.WriteString(text + " ")
		return false, s.Keyboard.Type(text + " ")
	})
	if err != nil {
		return err
	}

	subject := buf.String()
	lg.Info("Subject captured", "subject", subject)
	if s.opt.RetypeSubject {
		if err := s.Keyboard.Type(subject); err != nil {
			return err
		}
	}
	if err := s.say(ctx, "Subject is "+subject); err != nil {
		return err
	}
	return s.Keyboard.Press(input.KeyTab)
}

func (s *Session) body(ctx context.Context, lg *log.Logger) error {
	if err := s.say(ctx, "What is the message? Say send when done."); err != nil {
		return err
	}
	s.Status.SetStatus("Recording message...")

	return s.dictate(ctx, lg, func(text string) (bool, error) {
		if !strings.Contains(text, "send") {
			return false, s.Keyboard.Type(text + " ")
		}

		if err := s.Keyboard.Type(stripKeyword(text, "send") + " "); err != nil {
			return true, err
		}
		if err := sleep(ctx, s.opt.SendPause); err != nil {
			return true, err
		}
		if err := s.say(ctx, "Sending now"); err != nil {
			return true, err
		}
		lg.Info("Sending email")
		return true, s.Keyboard.Hotkey(input.KeyCtrl, input.KeyEnter)
	})
}

// dictate opens a fresh capture and feeds each phrase to step until step
// reports done. Silence and unintelligible phrases are retried.
func (s *Session) dictate(ctx context.Context, lg *log.Logger, step func(text string) (bool, error)) error {
	capture, err := s.Ear.Open(ctx)
	if err != nil {
		return err
	}
	defer capture.Close()

	if err := capture.Calibrate(ctx, s.opt.Calibration); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, err := capture.Hear(ctx, s.opt.DictationTimeout, s.opt.PhraseLimit)
		switch {
		case errors.Is(err, audio.ErrWaitTimeout), errors.Is(err, stt.ErrUnknownValue):
			continue
		case err != nil:
			return err
		}

		lg.Debug("Dictated", "text", text)
		done, err := step(text)
		if err != nil || done {
			return err
		}
	}
}

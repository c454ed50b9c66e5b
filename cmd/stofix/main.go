package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lmittmann/tint"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	cli "github.com/spf13/pflag"

	"stofix/internal/assistant"
	"stofix/internal/audio"
	"stofix/internal/audio/mic"
	"stofix/internal/config"
	"stofix/internal/hotkey"
	"stofix/internal/hub"
	"stofix/internal/input"
	"stofix/internal/ipc"
	"stofix/internal/launch"
	"stofix/internal/notify"
	"stofix/internal/proxy"
	"stofix/internal/registry"
	"stofix/internal/tts"
	"stofix/internal/tts/espeak"
	"stofix/internal/ui"
	"stofix/pkg/protocol"
	"stofix/pkg/stt"
	"stofix/pkg/stt/whisper"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, cli.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "stofix:", err)
		os.Exit(2)
	}

	logOut, err := logWriter(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "stofix:", err)
		os.Exit(1)
	}
	defer logOut.Close()

	log.SetDefault(log.New(tint.NewHandler(logOut, &tint.Options{
		Level:   cfg.Level(),
		NoColor: !cfg.Headless,
	})))

	log.Info("Booting up")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error("Failed to run", "err", err)
		os.Exit(1)
	}
	log.Info("Bye")
}

// logWriter keeps the terminal free for the panel.
func logWriter(cfg config.Config) (io.WriteCloser, error) {
	if cfg.Headless {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func run(ctx context.Context, cfg config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	src, closeSrc, err := newSource(cfg)
	if err != nil {
		return err
	}
	defer closeSrc()
	log.Debug("Loaded audio source")

	rec, closeRec, err := newRecognizer(cfg)
	if err != nil {
		return err
	}
	defer closeRec()
	log.Debug("Loaded recognizer", "backend", cfg.STT.Backend)

	speaker := tts.NewSpeaker(espeak.New(), tts.Params{
		Voice:  cfg.Speech.Voice,
		Rate:   cfg.Speech.Rate,
		Volume: cfg.Speech.Volume,
	})
	defer speaker.Close()

	keyboard, err := input.NewKeyboard()
	if err != nil {
		return err
	}

	apps := registry.Open(cfg.DataFile)
	go func() {
		if err := apps.Watch(ctx); err != nil {
			log.Warn("Apps watcher stopped", "err", err)
		}
	}()

	var chime *notify.Chime
	if cfg.Notify.Chime != "" {
		chime = notify.NewChime(cfg.Notify.Chime)
	}

	deps := assistant.Deps{
		Ear:      assistant.NewEar(src, rec),
		Speaker:  speaker,
		Keyboard: keyboard,
		Launcher: launch.New(cfg.Audio.Editor),
		Registry: apps,
		Alerts:   notify.New(chime, cfg.Notify.Desktop),
	}
	if cfg.Audio.Duck {
		deps.Ducker = audio.NewDucker([]string{"stofix", "espeak"}, cfg.Audio.DuckFactor, 300*time.Millisecond, 5)
	}

	board := assistant.NewStatusBoard()
	a := assistant.New(ctx, deps, options(cfg), board, speaker)
	defer func() {
		cancel()
		a.Session().Wait()
	}()

	srv, err := ipc.Listen(cfg.Socket, ipcHandler(a))
	if err != nil {
		return fmt.Errorf("ipc server: %w", err)
	}
	defer srv.Close()
	log.Debug("Control socket ready", "path", srv.Path())

	if cfg.Bus.URL != "" {
		if err := startBus(ctx, cfg, a); err != nil {
			log.Warn("Hub bus unavailable", "url", cfg.Bus.URL, "err", err)
		}
	}

	if cfg.Hotkeys.Enabled {
		go func() {
			err := hotkey.Listen(ctx,
				hotkey.Binding{Key: cfg.Hotkeys.Listen, Action: func() { go listen(a) }},
				hotkey.Binding{Key: cfg.Hotkeys.Stop, Action: func() { go a.Stop() }},
			)
			if err != nil {
				log.Warn("Global hotkeys unavailable", "err", err)
			}
		}()
	}

	log.Info("Boot up - successful")

	if cfg.Headless {
		board.Attach(func(text string) { log.Info("Status", "text", text) })
		<-ctx.Done()
		return nil
	}

	bridge := &ui.Bridge{}
	board.Attach(bridge.SetStatus)
	apps.Subscribe(bridge.SetApps)

	p := tea.NewProgram(ui.New(a), tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("control panel: %w", err)
	}
	return nil
}

func listen(a *assistant.Assistant) {
	if err := a.Listen(); err != nil {
		log.Debug("Listen ignored", "err", err)
	}
}

func options(cfg config.Config) assistant.Options {
	return assistant.Options{
		ListenTimeout:    cfg.Timing.ListenTimeout,
		DictationTimeout: cfg.Timing.DictationTimeout,
		PhraseLimit:      cfg.Timing.PhraseLimit,
		Calibration:      cfg.Timing.Calibration,
		Settle:           cfg.Timing.Settle,
		ComposeWait:      cfg.Timing.ComposeWait,
		SendPause:        cfg.Timing.SendPause,
		RetypeSubject:    cfg.Dictation.RetypeSubject,
	}
}

func newSource(cfg config.Config) (audio.Source, func(), error) {
	if cfg.Audio.Replay != "" {
		r, err := audio.NewReplay(cfg.Audio.Replay)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Replaying audio files", "dir", cfg.Audio.Replay)
		return r, func() {}, nil
	}

	rec := mic.NewRecorder()
	if err := rec.Init(); err != nil {
		return nil, nil, fmt.Errorf("init audio: %w", err)
	}
	return rec, rec.Close, nil
}

func newRecognizer(cfg config.Config) (stt.Recognizer, func(), error) {
	switch cfg.STT.Backend {
	case "whisper":
		tr, err := whisper.NewTranscriber(cfg.STT.WhisperModel, whisper.Options{
			Language:      cfg.STT.Language,
			Threads:       cfg.STT.Threads,
			InitialPrompt: cfg.STT.Prompt,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init whisper: %w", err)
		}
		return tr, func() { tr.Close() }, nil

	default:
		if cfg.STT.APIKey == "" {
			return nil, nil, errors.New("OPENAI_API_KEY not set")
		}
		httpClient, err := proxy.NewClient(cfg.STT.Proxy, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("proxy: %w", err)
		}

		opts := []option.RequestOption{
			option.WithAPIKey(cfg.STT.APIKey),
			option.WithHTTPClient(httpClient),
			option.WithMaxRetries(1),
		}
		if cfg.STT.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.STT.BaseURL))
		}

		cloud := stt.NewCloud(openai.NewClient(opts...), stt.CloudOptions{
			Model:    cfg.STT.Model,
			Language: cfg.STT.Language,
			Prompt:   cfg.STT.Prompt,
		})
		return cloud, func() {}, nil
	}
}

func startBus(ctx context.Context, cfg config.Config, a *assistant.Assistant) error {
	ptcl, err := protocol.NewProtocol(ctx, protocol.PtclConfig{
		Shard: cfg.Bus.Shard,
		Url:   cfg.Bus.URL,
	})
	if err != nil {
		return err
	}

	h := hub.New(ptcl, hubHandler(a))
	ptcl.EmitOut(h.OnMessage)
	a.Session().OnStateChange(func(s assistant.State) { h.PublishState(s.String()) })

	go ptcl.Run(ctx)
	log.Info("Connected to hub", "url", cfg.Bus.URL, "shard", cfg.Bus.Shard)
	return nil
}

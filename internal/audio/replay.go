package audio

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"stofix/pkg/audioconv"
)

// Replay feeds recorded utterances from a directory instead of a
// microphone, one file per phrase in name order. Once the files run out
// every Listen behaves like silence.
type Replay struct {
	mu    sync.Mutex
	files []string
	next  int
}

func NewReplay(dir string) (*Replay, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read replay dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !audioconv.Supported(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	log.Debug("Loaded replay", "dir", dir, "files", len(files))
	return &Replay{files: files}, nil
}

func (r *Replay) Open(context.Context) (Stream, error) {
	return replayStream{r}, nil
}

func (r *Replay) pop() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.files) {
		return "", false
	}
	f := r.files[r.next]
	r.next++
	return f, true
}

type replayStream struct{ r *Replay }

func (replayStream) Calibrate(context.Context, time.Duration) error { return nil }

func (s replayStream) Listen(ctx context.Context, timeout, _ time.Duration) ([]float32, error) {
	path, ok := s.r.pop()
	if !ok {
		if timeout <= 0 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(timeout):
			return nil, ErrWaitTimeout
		}
	}

	log.Debug("Replaying utterance", "file", path)
	return audioconv.ConvertFileToPCM16k(ctx, path, audioconv.Options{})
}

func (replayStream) Close() error { return nil }

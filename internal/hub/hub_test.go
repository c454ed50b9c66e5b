package hub

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stofix/pkg/protocol"
)

type fakeTx struct {
	sent []string
}

func (f *fakeTx) Transmit(v any) error {
	m := v.(protocol.Message)
	m.From = "stofix"
	f.sent = append(f.sent, m.String())
	return nil
}

func TestRoute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line     string
		wantCmd  string
		wantArgs []string
		wantOK   bool
	}{
		{"stofix:APP:LAUNCH:stop_watch:hub", "launch", []string{"stop watch"}, true},
		{"stofix:APP:REMOVE:stop_watch:hub", "remove", []string{"stop watch"}, true},
		{"stofix:VOLUME:SET:0.5:hub", "volume", []string{"0.5"}, true},
		{"stofix:VOLUME:GET:hub", "volume", nil, true},
		{"stofix:VOLUME:GET:0.5:hub", "volume", nil, true},
		{"stofix:STATUS:GET:hub", "status", nil, true},
		{"stofix:APP:ADD:code:hub", "", nil, false},
		{"stofix:DANCE:NOW:hub", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			msg, err := protocol.Parse(tt.line)
			require.NoError(t, err)

			cmd, args, ok := Route(msg)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCmd, cmd)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestHub_VolumeRoundTrip(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	volume := "0.90"
	h := New(tx, func(cmd string, args []string) (string, []string, error) {
		require.Equal(t, "volume", cmd)
		if len(args) == 1 {
			volume = args[0]
		}
		return volume, nil, nil
	})

	for _, line := range []string{
		"stofix:VOLUME:GET:hub",
		"stofix:VOLUME:SET:0.25:hub",
	} {
		msg, err := protocol.Parse(line)
		require.NoError(t, err)
		h.OnMessage(msg)
	}

	assert.Equal(t, []string{
		"hub:OK:0.90:stofix",
		"hub:OK:0.25:stofix",
	}, tx.sent)
}

func TestHub_OnMessage(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	var calls []string
	h := New(tx, func(cmd string, args []string) (string, []string, error) {
		calls = append(calls, cmd)
		switch cmd {
		case "listen":
			return "listening", nil, nil
		case "list":
			return "apps", []string{"code", "stop watch"}, nil
		}
		return "", nil, fmt.Errorf("start: %w", errors.New("assistant is busy"))
	})

	for _, line := range []string{
		"stofix:LISTEN:START:hub",
		"stofix:APP:LIST:hub",
		"stofix:EMAIL:START:hub",
		"stofix:DANCE:NOW:hub",
	} {
		msg, err := protocol.Parse(line)
		require.NoError(t, err)
		h.OnMessage(msg)
	}

	assert.Equal(t, []string{"listen", "list", "email"}, calls)
	assert.Equal(t, []string{
		"hub:OK:listening:stofix",
		"hub:OK:apps:code:stop_watch:stofix",
		"hub:ERR:assistant_is_busy:stofix",
		"hub:ERR:UNKNOWN:stofix",
	}, tx.sent)
}

func TestHub_PublishState(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	New(tx, nil).PublishState("listening")
	assert.Equal(t, []string{"ALL:STATE:LISTENING:stofix"}, tx.sent)
}

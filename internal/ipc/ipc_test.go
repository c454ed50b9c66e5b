package ipc

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "s.sock")
	srv, err := Listen(path, func(m ControlMessage) ControlReply {
		switch m.Cmd {
		case "list":
			return ControlReply{OK: true, Apps: []App{{Name: "code", Path: "/usr/bin/code"}}}
		case "echo":
			return ControlReply{OK: true, Message: strings.Join(m.Args, " ")}
		}
		return ControlReply{Message: "unknown command"}
	})
	require.NoError(t, err)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply, err := Send(ctx, path, ControlMessage{Cmd: "echo", Args: []string{"a", "b c"}})
	require.NoError(t, err)
	assert.Equal(t, "a b c", reply.Message)

	reply, err = Send(ctx, path, ControlMessage{Cmd: "list"})
	require.NoError(t, err)
	assert.Equal(t, []App{{Name: "code", Path: "/usr/bin/code"}}, reply.Apps)

	reply, err = Send(ctx, path, ControlMessage{Cmd: "dance"})
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, "unknown command", reply.Message)
}

func TestListen_ReplacesStaleSocket(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "s.sock")
	ok := func(ControlMessage) ControlReply { return ControlReply{OK: true} }

	first, err := Listen(path, ok)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Listen(path, ok)
	require.NoError(t, err)
	defer second.Close()

	_, err = Send(context.Background(), path, ControlMessage{Cmd: "status"})
	assert.NoError(t, err)
}

func TestSend_NoServer(t *testing.T) {
	t.Parallel()

	_, err := Send(context.Background(), filepath.Join(t.TempDir(), "none.sock"), ControlMessage{Cmd: "status"})
	assert.ErrorContains(t, err, "connect")
}

// Package ipc is the local control channel between stofix-ctl and a
// running stofix: one JSON request and one JSON reply per connection over a
// unix socket.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var ErrRejected = errors.New("command rejected")

type ControlMessage struct {
	Cmd  string   `json:"cmd"`
	Args []string `json:"args,omitempty"`
}

type App struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type ControlReply struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Apps    []App  `json:"apps,omitempty"`
}

type Handler func(ControlMessage) ControlReply

// DefaultSocketPath prefers the per-user runtime dir.
func DefaultSocketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "stofix.sock")
}

type Server struct {
	ln   net.Listener
	path string
	wg   sync.WaitGroup
}

// Listen replaces any stale socket at path and serves h until Close.
func Listen(path string, h Handler) (*Server, error) {
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &Server{ln: ln, path: path}
	s.wg.Add(1)
	go s.serve(h)
	return s, nil
}

func (s *Server) serve(h Handler) {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn("IPC accept failed", "err", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			handleConn(conn, h)
		}()
	}
}

func handleConn(conn net.Conn, h Handler) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Warn("IPC bad request", "err", err)
		return
	}
	log.Debug("IPC command", "cmd", msg.Cmd, "args", msg.Args)

	if err := json.NewEncoder(conn).Encode(h(msg)); err != nil {
		log.Warn("IPC reply failed", "err", err)
	}
}

func (s *Server) Path() string { return s.path }

func (s *Server) Close() error {
	err := s.ln.Close()
	s.wg.Wait()
	os.Remove(s.path)
	return err
}

// Send delivers msg to the server at path and waits for its reply. A reply
// with OK unset is returned together with ErrRejected.
func Send(ctx context.Context, path string, msg ControlMessage) (ControlReply, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return ControlReply{}, fmt.Errorf("connect %s: %w", path, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return ControlReply{}, fmt.Errorf("send: %w", err)
	}

	var reply ControlReply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return ControlReply{}, fmt.Errorf("read reply: %w", err)
	}
	if !reply.OK {
		return reply, fmt.Errorf("%w: %s", ErrRejected, reply.Message)
	}
	return reply, nil
}

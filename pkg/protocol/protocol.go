// Package protocol speaks the hub bus wire format: single-line,
// colon-delimited frames TO:VERB:NOUN[:ARG...]:FROM carried over a
// websocket.
package protocol

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"regexp"
	"strings"
	"time"
)

var ErrUnsupported = errors.New("unsupported payload type")

type PtclConfig struct {
	Shard   string
	Url     string
	Reconn  time.Duration
	EmitOut func(*Message)
}

type Protocol struct {
	ws *WebSocket

	shard string

	emitOut func(*Message)
}

func NewProtocol(ctx context.Context, cfg PtclConfig) (*Protocol, error) {
	ws, err := NewWebSocket(ctx, cfg.Url, cfg.Reconn)
	if err != nil {
		return nil, err
	}

	return &Protocol{
		shard:   cfg.Shard,
		ws:      ws,
		emitOut: cfg.EmitOut,
	}, nil
}

func (ptcl *Protocol) Shard() string { return ptcl.shard }

// EmitOut sets the callback for frames addressed to this shard. It must be
// set before Run.
func (ptcl *Protocol) EmitOut(f func(*Message)) {
	ptcl.emitOut = f
}

// Transmit sends a Message, a raw "TO:VERB:NOUN" string or its parts; the
// shard name is appended as sender.
func (ptcl *Protocol) Transmit(v any) error {
	var msg string

	switch m := v.(type) {
	case Message:
		m.From = ptcl.shard
		msg = m.String()
	case *Message:
		c := *m
		c.From = ptcl.shard
		msg = c.String()
	case string:
		msg = fmt.Sprintf("%s:%s", m, ptcl.shard)
	case []string:
		msg = fmt.Sprintf("%s:%s", strings.Join(m, ":"), ptcl.shard)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, v)
	}

	if err := ptcl.ws.Write([]byte(msg)); err != nil {
		log.Error("Failed to transmit", "msg", msg, "err", err)
		return err
	}
	return nil
}

// Run reads frames until ctx is done, reconnecting whenever the hub drops
// the connection.
func (ptcl *Protocol) Run(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { ptcl.ws.Close() })
	defer stop()

	for ctx.Err() == nil {
		in := ptcl.ws.Read()
		switch in.kind {
		case connClosed, readFailure:
			if ctx.Err() != nil {
				return
			}
			if in.kind == readFailure {
				log.Error("Failed to read", "err", in.err)
			}
			// a failed read leaves the conn unusable either way
			log.Warn("Trying to reconnect on", "url", ptcl.ws.url)
			if err := ptcl.ws.TryReconn(ctx); err != nil {
				return
			}
			log.Info("Successfully reconnected")

		case readOK:
			if !ptcl.checkRecipient(in.msg) {
				continue
			}

			msg, err := Parse(string(in.msg))
			if err != nil {
				log.Warn("Failed to parse", "msg", string(in.msg), "err", err)
				continue
			}

			if ptcl.emitOut != nil {
				ptcl.emitOut(msg)
			}
		}
	}
}

func (ptcl *Protocol) Close() error {
	return ptcl.ws.Close()
}

func (ptcl *Protocol) checkRecipient(msg []byte) bool {
	to, _, _ := strings.Cut(string(msg), ":")
	return strings.EqualFold(to, ptcl.shard)
}

func Parse(line string) (*Message, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return nil, errors.New("empty message")
	}
	if strings.ContainsAny(s, " \t\r\n") {
		// frames are single-line
		return nil, fmt.Errorf("invalid whitespace present")
	}
	parts := strings.Split(s, ":")
	if len(parts) < 4 {
		return nil, fmt.Errorf("too few fields: got %d, want >= 4", len(parts))
	}

	to := parts[0]
	verb := parts[1]
	noun := parts[2]
	from := parts[len(parts)-1]
	args := append([]string(nil), parts[3:len(parts)-1]...)

	if !isToken(to) && !isHexID(to) && to != "ALL" {
		return nil, fmt.Errorf("invalid TO token: %q", to)
	}
	if !isToken(from) && !isHexID(from) {
		return nil, fmt.Errorf("invalid FROM token: %q", from)
	}

	if !isToken(noun) || !isToken(verb) {
		return nil, fmt.Errorf("invalid NOUN/VERB: %q %q", noun, verb)
	}
	for i, a := range args {
		if !isToken(a) {
			return nil, fmt.Errorf("invalid ARG[%d]: %q", i, a)
		}
	}

	return &Message{
		To:   to,
		Verb: strings.ToUpper(verb),
		Noun: strings.ToUpper(noun),
		Args: args,
		From: from,
	}, nil
}

var (
	tokenRe  = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	hexIDRe  = regexp.MustCompile(`^[0-9A-F]{2}$`)
	notToken = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)
)

func isToken(s string) bool {
	return tokenRe.MatchString(s)
}

func isHexID(s string) bool {
	return hexIDRe.MatchString(strings.ToUpper(s))
}

// Token squeezes free text into a valid frame field.
func Token(s string) string {
	t := strings.Trim(notToken.ReplaceAllString(strings.TrimSpace(s), "_"), "_")
	if t == "" {
		return "_"
	}
	return t
}

type Message struct {
	To   string
	Verb string
	Noun string
	Args []string
	From string
}

func (m *Message) String() string {
	parts := make([]string, 0, 4+len(m.Args))
	parts = append(parts, m.To)
	parts = append(parts, m.Verb)
	parts = append(parts, m.Noun)
	parts = append(parts, m.Args...)
	parts = append(parts, m.From)
	return strings.Join(parts, ":")
}

// Reply addresses a new message back to the sender of m.
func (m *Message) Reply() Message {
	return Message{To: m.From, Verb: m.Verb, Noun: m.Noun}
}

func (m *Message) Error(reason string, args ...string) {
	m.Verb = "ERR"
	m.Noun = reason
	m.Args = args
}

func (m *Message) Ok(reason string, args ...string) {
	m.Verb = "OK"
	m.Noun = reason
	m.Args = args
}

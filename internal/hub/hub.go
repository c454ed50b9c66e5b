// Package hub connects the assistant to the home hub bus: it announces
// state changes and accepts remote commands.
package hub

import (
	"errors"
	log "log/slog"
	"strings"

	"stofix/pkg/protocol"
)

// Handler runs an assistant command and returns a short result.
type Handler func(cmd string, args []string) (string, []string, error)

type Transmitter interface {
	Transmit(v any) error
}

type route struct {
	verb, noun string
}

var routes = map[route]string{
	{"LISTEN", "START"}:  "listen",
	{"LISTEN", "STOP"}:   "stop",
	{"EMAIL", "START"}:   "email",
	{"SAY", "HELLO"}:     "hello",
	{"OPEN", "NOTEPAD"}:  "notepad",
	{"OPEN", "LINKEDIN"}: "linkedin",
	{"APP", "LAUNCH"}:    "launch",
	{"APP", "LIST"}:      "list",
	{"APP", "REMOVE"}:    "remove",
	{"VOLUME", "GET"}:    "volume",
	{"VOLUME", "SET"}:    "volume",
	{"STATUS", "GET"}:    "status",
}

// Route maps an inbound frame to an assistant command. Adding apps is
// not routed: paths do not fit in a frame field. GET frames drop their
// args.
func Route(msg *protocol.Message) (cmd string, args []string, ok bool) {
	cmd, ok = routes[route{msg.Verb, msg.Noun}]
	if !ok {
		return "", nil, false
	}
	if msg.Noun == "GET" {
		return cmd, nil, true
	}
	// frame args cannot hold spaces; app names use underscores instead
	for _, a := range msg.Args {
		args = append(args, strings.ReplaceAll(a, "_", " "))
	}
	return cmd, args, true
}

type Hub struct {
	tx     Transmitter
	handle Handler
}

func New(tx Transmitter, h Handler) *Hub {
	return &Hub{tx: tx, handle: h}
}

// OnMessage answers one inbound frame with OK or ERR to its sender.
func (h *Hub) OnMessage(msg *protocol.Message) {
	reply := msg.Reply()

	cmd, args, ok := Route(msg)
	if !ok {
		log.Warn("Unknown bus command", "verb", msg.Verb, "noun", msg.Noun, "from", msg.From)
		reply.Error("UNKNOWN")
		h.send(reply)
		return
	}

	log.Info("Bus command", "cmd", cmd, "args", args, "from", msg.From)
	result, items, err := h.handle(cmd, args)
	if err != nil {
		reply.Error(protocol.Token(rootCause(err)))
		h.send(reply)
		return
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, protocol.Token(it))
	}
	reply.Ok(protocol.Token(result), out...)
	h.send(reply)
}

// PublishState broadcasts the assistant state to every shard.
func (h *Hub) PublishState(state string) {
	h.send(protocol.Message{To: "ALL", Verb: "STATE", Noun: strings.ToUpper(protocol.Token(state))})
}

func (h *Hub) send(m protocol.Message) {
	if err := h.tx.Transmit(m); err != nil {
		log.Warn("Failed to send bus frame", "err", err)
	}
}

// rootCause keeps the innermost message of a wrapped error.
func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

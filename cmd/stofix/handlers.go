package main

import (
	"stofix/internal/assistant"
	"stofix/internal/hub"
	"stofix/internal/ipc"
)

// commander is the part of the assistant the remote surfaces drive.
type commander interface {
	Handle(cmd string, args []string) (assistant.Reply, error)
}

func ipcHandler(c commander) ipc.Handler {
	return func(m ipc.ControlMessage) ipc.ControlReply {
		r, err := c.Handle(m.Cmd, m.Args)
		if err != nil {
			return ipc.ControlReply{Message: err.Error()}
		}

		reply := ipc.ControlReply{OK: true, Message: r.Message}
		for _, app := range r.Apps {
			reply.Apps = append(reply.Apps, ipc.App{Name: app.Name, Path: app.Path})
		}
		return reply
	}
}

func hubHandler(c commander) hub.Handler {
	return func(cmd string, args []string) (string, []string, error) {
		r, err := c.Handle(cmd, args)
		if err != nil {
			return "", nil, err
		}

		names := make([]string, 0, len(r.Apps))
		for _, app := range r.Apps {
			names = append(names, app.Name)
		}
		if r.Message == "" {
			r.Message = cmd
		}
		return r.Message, names, nil
	}
}

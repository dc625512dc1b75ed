package ipc

import (
	"errors"
	"log/slog"
)

// Handler processes a received envelope and returns the reply.
type Handler func(env Envelope) (*Envelope, error)

// Connection is the simulator side of a player session: it dispatches each
// request to the handler registered for its type and writes the reply.
type Connection struct {
	t        Transport
	handlers map[string]Handler
	Player   string
}

func NewConnection(t Transport, handlers map[string]Handler) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Connection{
		t:        t,
		handlers: handlers,
	}
}

func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

// ReadLoop blocks until the connection closes or errors. It owns the transport
// lifetime so callers don't need to track cleanup. Handler errors are sent back
// to the player as TypeError replies.
func (c *Connection) ReadLoop() {
	defer c.t.Close()

	for {
		env, err := c.t.Receive()
		if err != nil {
			if !errors.Is(err, ErrClosed) {
				slog.Warn("connection read failed", "player", c.Player, "error", err)
			}
			slog.Info("connection read ended", "player", c.Player)
			return
		}

		var resp *Envelope
		handler, ok := c.handlers[env.Type]
		if !ok {
			slog.Warn("no handler for message type", "type", env.Type)
			resp = errorEnvelope("unknown message type " + env.Type)
		} else if resp, err = handler(env); err != nil {
			slog.Debug("handler error", "type", env.Type, "error", err)
			resp = errorEnvelope(err.Error())
		}
		if resp == nil {
			continue
		}

		if err := c.t.Send(*resp); err != nil {
			slog.Error("failed to send response", "type", resp.Type, "error", err)
			return
		}
	}
}

func errorEnvelope(msg string) *Envelope {
	env, _ := NewEnvelope(TypeError, ErrorMessage{Message: msg})
	return &env
}

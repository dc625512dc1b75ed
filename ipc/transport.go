package ipc

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned once the peer has gone away.
var ErrClosed = errors.New("ipc: connection closed")

// Transport moves whole envelopes. Implementations are not safe for
// concurrent Receive calls; one reader owns a transport.
type Transport interface {
	Send(env Envelope) error
	Receive() (Envelope, error)
	Close() error
}

// StreamTransport frames envelopes over a byte stream (unix or tcp socket).
type StreamTransport struct {
	conn io.ReadWriteCloser
	wmu  sync.Mutex
}

func NewStreamTransport(conn io.ReadWriteCloser) *StreamTransport {
	return &StreamTransport{conn: conn}
}

func (s *StreamTransport) Send(env Envelope) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return closed(WriteEnvelope(s.conn, env))
}

func (s *StreamTransport) Receive() (Envelope, error) {
	env, err := ReadEnvelope(s.conn)
	return env, closed(err)
}

func (s *StreamTransport) Close() error { return s.conn.Close() }

// WebSocketTransport sends one envelope per text message.
type WebSocketTransport struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	return &WebSocketTransport{conn: conn}
}

func (w *WebSocketTransport) Send(env Envelope) error {
	w.wmu.Lock()
	defer w.wmu.Unlock()
	return closed(w.conn.WriteJSON(env))
}

func (w *WebSocketTransport) Receive() (Envelope, error) {
	var env Envelope
	if err := w.conn.ReadJSON(&env); err != nil {
		return Envelope{}, closed(err)
	}
	return env, nil
}

func (w *WebSocketTransport) Close() error {
	w.wmu.Lock()
	_ = w.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	w.wmu.Unlock()
	return w.conn.Close()
}

// closed folds the ways a peer can disappear into ErrClosed.
func closed(err error) error {
	if err == nil {
		return nil
	}
	var ce *websocket.CloseError
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) || errors.As(err, &ce) {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return err
}

package ipc

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/nstehr/vimy/vimy-bc/model"
)

// RemoteError is an error reply from the simulator, e.g. an action the engine
// refused even though its capability check had passed.
type RemoteError struct {
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("simulator %s: %s", e.Op, e.Message)
}

// Client is the player side of the protocol. Calls are strictly
// request/reply and must not be issued concurrently.
type Client struct {
	t         Transport
	closeOnce sync.Once
	closeErr  error
}

func NewClient(t Transport) *Client {
	return &Client{t: t}
}

// Dial connects to the simulator at addr: unix:///path, tcp://host:port or ws(s)://host/path.
func Dial(ctx context.Context, addr string) (*Client, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("parse simulator address: %w", err)
	}

	var d net.Dialer
	switch u.Scheme {
	case "unix":
		conn, err := d.DialContext(ctx, "unix", u.Path)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return NewClient(NewStreamTransport(conn)), nil
	case "tcp":
		conn, err := d.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return NewClient(NewStreamTransport(conn)), nil
	case "ws", "wss":
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return NewClient(NewWebSocketTransport(conn)), nil
	}
	return nil, fmt.Errorf("unsupported simulator address scheme %q", u.Scheme)
}

// Close shuts the transport. Safe to call more than once; it also unblocks a
// call waiting on a reply.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { c.closeErr = c.t.Close() })
	return c.closeErr
}

func (c *Client) call(ctx context.Context, reqType string, req any, wantType string, resp any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env, err := NewEnvelope(reqType, req)
	if err != nil {
		return err
	}
	if err := c.t.Send(env); err != nil {
		return fmt.Errorf("send %s: %w", reqType, err)
	}
	reply, err := c.t.Receive()
	if err != nil {
		return fmt.Errorf("await %s reply: %w", reqType, err)
	}

	switch reply.Type {
	case wantType:
		return reply.Decode(resp)
	case TypeError:
		var m ErrorMessage
		if err := reply.Decode(&m); err != nil {
			return err
		}
		return &RemoteError{Op: reqType, Message: m.Message}
	}
	return fmt.Errorf("%s: unexpected reply type %q", reqType, reply.Type)
}

// Hello identifies the player and learns the team and planet for the game.
func (c *Client) Hello(ctx context.Context, player string) (WelcomeMessage, error) {
	var w WelcomeMessage
	err := c.call(ctx, TypeHello, HelloMessage{Player: player}, TypeWelcome, &w)
	return w, err
}

func (c *Client) Snapshot(ctx context.Context) (model.GameSnapshot, error) {
	var s model.GameSnapshot
	err := c.call(ctx, TypeSnapshot, nil, TypeSnapshot, &s)
	return s, err
}

func (c *Client) SenseNearby(ctx context.Context, loc model.MapLocation, radius int) ([]model.Unit, error) {
	var m UnitsMessage
	err := c.call(ctx, TypeSenseNearby, SenseNearbyRequest{Location: loc, Radius: radius}, TypeUnits, &m)
	return m.Units, err
}

func (c *Client) IsAttackReady(ctx context.Context, unitID int) (bool, error) {
	return c.answer(ctx, TypeReady, ReadyRequest{UnitID: unitID, Kind: ReadyAttack})
}

func (c *Client) IsMoveReady(ctx context.Context, unitID int) (bool, error) {
	return c.answer(ctx, TypeReady, ReadyRequest{UnitID: unitID, Kind: ReadyMove})
}

func (c *Client) CanExecute(ctx context.Context, in model.Intent) (bool, error) {
	return c.answer(ctx, TypeCan, IntentRequest{Intent: in})
}

func (c *Client) Execute(ctx context.Context, in model.Intent) error {
	return c.call(ctx, TypeDo, IntentRequest{Intent: in}, TypeAck, nil)
}

func (c *Client) QueueResearch(ctx context.Context, t model.UnitType) error {
	return c.call(ctx, TypeQueueResearch, ResearchRequest{UnitType: t}, TypeAck, nil)
}

// NextTurn commits the round and blocks until the simulator starts the next one.
func (c *Client) NextTurn(ctx context.Context) error {
	return c.call(ctx, TypeNextTurn, nil, TypeAck, nil)
}

func (c *Client) answer(ctx context.Context, reqType string, req any) (bool, error) {
	var a AnswerMessage
	err := c.call(ctx, reqType, req, TypeAnswer, &a)
	return a.OK, err
}

package ipc

import (
	"context"
	"fmt"

	"github.com/nstehr/vimy/vimy-bc/model"
)

// Backend is a game engine that can be served to a player over a Transport.
type Backend interface {
	Hello(ctx context.Context, player string) (model.Team, model.Planet, error)
	Snapshot(ctx context.Context) (model.GameSnapshot, error)
	SenseNearby(ctx context.Context, loc model.MapLocation, radius int) ([]model.Unit, error)
	IsAttackReady(ctx context.Context, unitID int) (bool, error)
	IsMoveReady(ctx context.Context, unitID int) (bool, error)
	CanExecute(ctx context.Context, in model.Intent) (bool, error)
	Execute(ctx context.Context, in model.Intent) error
	QueueResearch(ctx context.Context, t model.UnitType) error
	NextTurn(ctx context.Context) error
}

// Serve answers one player's requests from b until the transport closes.
func Serve(ctx context.Context, t Transport, b Backend) {
	c := NewConnection(t, nil)

	c.RegisterHandler(TypeHello, func(env Envelope) (*Envelope, error) {
		var hello HelloMessage
		if err := env.Decode(&hello); err != nil {
			return nil, err
		}
		team, planet, err := b.Hello(ctx, hello.Player)
		if err != nil {
			return nil, err
		}
		c.Player = hello.Player
		return reply(TypeWelcome, WelcomeMessage{Team: team, Planet: planet})
	})
	c.RegisterHandler(TypeSnapshot, func(env Envelope) (*Envelope, error) {
		s, err := b.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return reply(TypeSnapshot, s)
	})
	c.RegisterHandler(TypeSenseNearby, func(env Envelope) (*Envelope, error) {
		var req SenseNearbyRequest
		if err := env.Decode(&req); err != nil {
			return nil, err
		}
		units, err := b.SenseNearby(ctx, req.Location, req.Radius)
		if err != nil {
			return nil, err
		}
		return reply(TypeUnits, UnitsMessage{Units: units})
	})
	c.RegisterHandler(TypeReady, func(env Envelope) (*Envelope, error) {
		var req ReadyRequest
		if err := env.Decode(&req); err != nil {
			return nil, err
		}
		var ok bool
		var err error
		switch req.Kind {
		case ReadyAttack:
			ok, err = b.IsAttackReady(ctx, req.UnitID)
		case ReadyMove:
			ok, err = b.IsMoveReady(ctx, req.UnitID)
		default:
			return nil, fmt.Errorf("unknown cooldown kind %q", req.Kind)
		}
		if err != nil {
			return nil, err
		}
		return reply(TypeAnswer, AnswerMessage{OK: ok})
	})
	c.RegisterHandler(TypeCan, func(env Envelope) (*Envelope, error) {
		var req IntentRequest
		if err := env.Decode(&req); err != nil {
			return nil, err
		}
		ok, err := b.CanExecute(ctx, req.Intent)
		if err != nil {
			return nil, err
		}
		return reply(TypeAnswer, AnswerMessage{OK: ok})
	})
	c.RegisterHandler(TypeDo, func(env Envelope) (*Envelope, error) {
		var req IntentRequest
		if err := env.Decode(&req); err != nil {
			return nil, err
		}
		if err := b.Execute(ctx, req.Intent); err != nil {
			return nil, err
		}
		return ack()
	})
	c.RegisterHandler(TypeQueueResearch, func(env Envelope) (*Envelope, error) {
		var req ResearchRequest
		if err := env.Decode(&req); err != nil {
			return nil, err
		}
		if err := b.QueueResearch(ctx, req.UnitType); err != nil {
			return nil, err
		}
		return ack()
	})
	c.RegisterHandler(TypeNextTurn, func(env Envelope) (*Envelope, error) {
		if err := b.NextTurn(ctx); err != nil {
			return nil, err
		}
		return ack()
	})

	c.ReadLoop()
}

func reply(msgType string, data any) (*Envelope, error) {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return nil, err
	}
	return &env, nil
}

func ack() (*Envelope, error) {
	return reply(TypeAck, AckMessage{Status: "ok"})
}

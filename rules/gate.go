package rules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nstehr/vimy/vimy-bc/model"
)

// Simulator is the slice of the game engine the policy talks to during a round.
// Every mutating call must be preceded by a passing CanExecute on live state.
type Simulator interface {
	SenseNearby(ctx context.Context, loc model.MapLocation, radius int) ([]model.Unit, error)
	IsAttackReady(ctx context.Context, unitID int) (bool, error)
	IsMoveReady(ctx context.Context, unitID int) (bool, error)
	CanExecute(ctx context.Context, in model.Intent) (bool, error)
	Execute(ctx context.Context, in model.Intent) error
}

// Trier is implemented by simulators that check and apply an intent in one
// step, closing the window between the two calls. The gate still checks
// Attack and Move cooldowns before calling Try.
type Trier interface {
	Try(ctx context.Context, in model.Intent) (bool, error)
}

// Gate guards every mutating call with its capability predicate.
//
// The check and the execution are two round trips to the engine, and the
// engine's own rule evaluation can invalidate a passing check in between.
// A rejection after a passing check is returned to the caller, never retried.
type Gate struct {
	sim       Simulator
	observers []func(model.Intent)
}

func NewGate(sim Simulator) *Gate {
	return &Gate{sim: sim}
}

// OnExecute registers fn to be called after every intent the engine accepts.
func (g *Gate) OnExecute(fn func(model.Intent)) {
	g.observers = append(g.observers, fn)
}

// CanExecute evaluates the capability predicate for in. Attack and Move also
// require the unit's cooldown to have expired.
func (g *Gate) CanExecute(ctx context.Context, in model.Intent) (bool, error) {
	if ready, err := g.ready(ctx, in); err != nil || !ready {
		return false, err
	}
	ok, err := g.sim.CanExecute(ctx, in)
	if err != nil {
		return false, fmt.Errorf("can %s: %w", in, err)
	}
	return ok, nil
}

// ready checks the cooldown that gates Attack and Move. Other kinds are
// always ready.
func (g *Gate) ready(ctx context.Context, in model.Intent) (bool, error) {
	switch in.Kind {
	case model.IntentAttack:
		ready, err := g.sim.IsAttackReady(ctx, in.UnitID)
		if err != nil {
			return false, fmt.Errorf("attack ready %d: %w", in.UnitID, err)
		}
		return ready, nil
	case model.IntentMove:
		ready, err := g.sim.IsMoveReady(ctx, in.UnitID)
		if err != nil {
			return false, fmt.Errorf("move ready %d: %w", in.UnitID, err)
		}
		return ready, nil
	}
	return true, nil
}

// Execute submits in. Callers must have just seen CanExecute(in) return true.
func (g *Gate) Execute(ctx context.Context, in model.Intent) error {
	if err := g.sim.Execute(ctx, in); err != nil {
		return fmt.Errorf("execute %s: %w", in, err)
	}
	g.executed(in)
	return nil
}

// Try checks in and executes it only if the check passes. It reports whether
// the intent was executed.
func (g *Gate) Try(ctx context.Context, in model.Intent) (bool, error) {
	if t, ok := g.sim.(Trier); ok {
		if ready, err := g.ready(ctx, in); err != nil || !ready {
			return false, err
		}
		done, err := t.Try(ctx, in)
		if err != nil {
			return false, fmt.Errorf("try %s: %w", in, err)
		}
		if done {
			g.executed(in)
		}
		return done, nil
	}

	ok, err := g.CanExecute(ctx, in)
	if err != nil || !ok {
		return false, err
	}
	if err := g.Execute(ctx, in); err != nil {
		return false, err
	}
	return true, nil
}

func (g *Gate) executed(in model.Intent) {
	slog.Debug("intent executed", "intent", in.String())
	for _, fn := range g.observers {
		fn(in)
	}
}

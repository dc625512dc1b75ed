package rules

import (
	"context"

	"github.com/nstehr/vimy/vimy-bc/model"
)

// Options are the policy knobs that stay fixed for a whole game.
type Options struct {
	SenseRadius int            // tiles scanned around a unit for the proximity response
	Robot       model.UnitType // what factories produce
	Landing     model.Bounds   // coordinate range rocket destinations are drawn from
}

func DefaultOptions() Options {
	return Options{
		SenseRadius: 2,
		Robot:       model.Knight,
		Landing:     model.Bounds{Width: 100, Height: 100},
	}
}

// Turn carries everything an action needs for one round. The local team and
// the random source are passed in rather than read from globals so a turn can
// be replayed from a seed.
type Turn struct {
	Gate    *Gate
	Sim     Simulator
	Rand    Rand
	Team    model.Team
	Round   int
	Options Options

	karbonite int
}

// NewTurn starts a round from a fresh snapshot.
func NewTurn(sim Simulator, gate *Gate, rng Rand, opts Options, snap model.GameSnapshot) *Turn {
	return &Turn{
		Gate:      gate,
		Sim:       sim,
		Rand:      rng,
		Team:      snap.Team,
		Round:     snap.Round,
		Options:   opts,
		karbonite: snap.Karbonite,
	}
}

// Karbonite is the round's stock net of what this round has already spent.
func (t *Turn) Karbonite() int { return t.karbonite }

func (t *Turn) spend(n int) { t.karbonite -= n }

func (t *Turn) env(u model.Unit) UnitEnv {
	return UnitEnv{Unit: u, Round: t.Round, Karbonite: t.karbonite}
}

// try runs in through the gate and returns it if the engine accepted it.
func (t *Turn) try(ctx context.Context, in model.Intent) (*model.Intent, error) {
	done, err := t.Gate.Try(ctx, in)
	if err != nil || !done {
		return nil, err
	}
	return &in, nil
}

package rules

import (
	"context"
	"testing"

	"github.com/nstehr/vimy/vimy-bc/model"
	"github.com/nstehr/vimy/vimy-bc/simtest"
)

const (
	mine  model.Team = "red"
	enemy model.Team = "blue"
)

// fixedRand replays vals in order, wrapping around.
type fixedRand struct {
	vals []int
	i    int
}

func (r *fixedRand) Intn(n int) int {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v % n
}

// always returns a source that always picks d from model.Directions.
func always(d model.Direction) *fixedRand {
	return &fixedRand{vals: []int{int(d)}}
}

func earthUnit(t model.UnitType, x, y int) model.Unit {
	return model.Unit{Type: t, Team: mine, Location: model.At(model.Earth, x, y), Built: true}
}

func runRound(t *testing.T, w *simtest.World, e *Engine, rng Rand) (Result, error) {
	t.Helper()
	ctx := context.Background()
	snap, err := w.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	turn := NewTurn(w, NewGate(w), rng, DefaultOptions(), snap)
	return e.Evaluate(ctx, turn, snap)
}

func mustPolicy(t *testing.T, p model.Planet) *Engine {
	t.Helper()
	e, err := PolicyFor(p)
	if err != nil {
		t.Fatalf("PolicyFor(%s): %v", p, err)
	}
	return e
}

func callsFor(w *simtest.World, unitID int, kind model.IntentKind) []simtest.Call {
	var out []simtest.Call
	for _, c := range w.Calls {
		if c.Intent.UnitID == unitID && c.Intent.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

package rules

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/nstehr/vimy/vimy-bc/model"
	"github.com/nstehr/vimy/vimy-bc/simtest"
)

func TestGate_ExecuteOnlyAfterPassingCheck(t *testing.T) {
	w := simtest.New(mine, model.Earth)
	w.Karbonite = 1000
	w.Add(earthUnit(model.Factory, 2, 2))
	w.Add(earthUnit(model.Worker, 5, 5))
	w.Add(earthUnit(model.Worker, 6, 6))
	w.Add(earthUnit(model.Knight, 10, 10))
	w.Add(model.Unit{Type: model.Knight, Team: enemy, Location: model.At(model.Earth, 11, 10)})
	w.Add(earthUnit(model.Rocket, 15, 15))

	e := mustPolicy(t, model.Earth)
	rng := rand.New(rand.NewSource(7))
	for range 10 {
		if _, err := runRound(t, w, e, rng); err != nil {
			t.Fatalf("round %d: %v", w.Round, err)
		}
		_ = w.NextTurn(context.Background())
	}

	executed := 0
	for i, c := range w.Calls {
		if c.Op != "do" {
			continue
		}
		executed++
		if i == 0 {
			t.Fatalf("execute %s with no preceding check", c.Intent)
		}
		prev := w.Calls[i-1]
		if prev.Op != "can" || !prev.Intent.Equal(c.Intent) || !prev.Result {
			t.Errorf("execute %s preceded by %s %s=%v", c.Intent, prev.Op, prev.Intent, prev.Result)
		}
	}
	if executed == 0 {
		t.Fatal("expected some intents to execute over 10 rounds")
	}
}

func TestGate_FailedCheckNeverExecutes(t *testing.T) {
	w := simtest.New(mine, model.Earth)
	id := w.Add(earthUnit(model.Knight, 5, 5))
	w.Allow = func(model.Intent) bool { return false }

	g := NewGate(w)
	done, err := g.Try(context.Background(), model.Move(id, model.North))
	if err != nil {
		t.Fatalf("Try: %v", err)
	}
	if done {
		t.Error("Try reported execution for a failed check")
	}
	for _, c := range w.Calls {
		if c.Op == "do" {
			t.Errorf("unexpected execute of %s", c.Intent)
		}
	}
}

func TestGate_StaleRejectionPropagates(t *testing.T) {
	w := simtest.New(mine, model.Earth)
	id := w.Add(earthUnit(model.Knight, 5, 5))
	stale := errors.New("unit moved during evaluation")
	w.FailExecute = func(model.Intent) error { return stale }

	g := NewGate(w)
	done, err := g.Try(context.Background(), model.Move(id, model.North))
	if !errors.Is(err, stale) {
		t.Fatalf("expected stale rejection, got %v", err)
	}
	if done {
		t.Error("rejected intent reported as executed")
	}
}

func TestGate_AttackNeedsReadyWeapon(t *testing.T) {
	w := simtest.New(mine, model.Earth)
	k := w.Add(earthUnit(model.Knight, 5, 5))
	foe := w.Add(model.Unit{Type: model.Worker, Team: enemy, Location: model.At(model.Earth, 5, 6)})
	w.NotReady[k] = true

	g := NewGate(w)
	ok, err := g.CanExecute(context.Background(), model.Attack(k, foe))
	if err != nil {
		t.Fatalf("CanExecute: %v", err)
	}
	if ok {
		t.Error("attack allowed while weapon is cooling down")
	}
	if n := len(callsFor(w, k, model.IntentAttack)); n != 0 {
		t.Errorf("engine asked about attack %d times, want 0", n)
	}

	w.NotReady[k] = false
	ok, err = g.CanExecute(context.Background(), model.Attack(k, foe))
	if err != nil || !ok {
		t.Errorf("attack with ready weapon: ok=%v err=%v", ok, err)
	}
}

func TestGate_NotifiesObservers(t *testing.T) {
	w := simtest.New(mine, model.Earth)
	id := w.Add(earthUnit(model.Knight, 5, 5))

	g := NewGate(w)
	var seen []model.Intent
	g.OnExecute(func(in model.Intent) { seen = append(seen, in) })

	if _, err := g.Try(context.Background(), model.Move(id, model.Center)); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Try(context.Background(), model.Move(id, model.East)); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 || !seen[0].Equal(model.Move(id, model.East)) {
		t.Errorf("observed %v, want only the east move", seen)
	}
}

// atomicWorld exposes a single-step Try on top of the in-memory world.
type atomicWorld struct {
	*simtest.World
	tries int
}

func (a *atomicWorld) Try(ctx context.Context, in model.Intent) (bool, error) {
	a.tries++
	return true, nil
}

func TestGate_AtomicTryHonoursCooldowns(t *testing.T) {
	w := &atomicWorld{World: simtest.New(mine, model.Earth)}
	k := w.Add(earthUnit(model.Knight, 5, 5))
	foe := w.Add(model.Unit{Type: model.Worker, Team: enemy, Location: model.At(model.Earth, 5, 6)})
	w.NotReady[k] = true

	g := NewGate(w)
	for _, in := range []model.Intent{model.Move(k, model.North), model.Attack(k, foe)} {
		ok, err := g.CanExecute(context.Background(), in)
		if err != nil || ok {
			t.Fatalf("CanExecute(%s) = %v, %v; want false", in, ok, err)
		}
		done, err := g.Try(context.Background(), in)
		if err != nil {
			t.Fatalf("Try(%s): %v", in, err)
		}
		if done {
			t.Errorf("%s executed while cooling down", in)
		}
	}
	if w.tries != 0 {
		t.Errorf("atomic try reached %d times for units on cooldown", w.tries)
	}

	w.NotReady[k] = false
	if done, err := g.Try(context.Background(), model.Move(k, model.North)); err != nil || !done {
		t.Errorf("ready move: done=%v err=%v", done, err)
	}
}

func TestGate_PrefersAtomicTry(t *testing.T) {
	w := &atomicWorld{World: simtest.New(mine, model.Earth)}
	id := w.Add(earthUnit(model.Knight, 5, 5))

	g := NewGate(w)
	observed := 0
	g.OnExecute(func(model.Intent) { observed++ })

	done, err := g.Try(context.Background(), model.Move(id, model.North))
	if err != nil || !done {
		t.Fatalf("Try: done=%v err=%v", done, err)
	}
	if w.tries != 1 {
		t.Errorf("atomic try called %d times, want 1", w.tries)
	}
	if len(w.Calls) != 0 {
		t.Errorf("two-step calls made alongside atomic try: %v", w.Calls)
	}
	if observed != 1 {
		t.Errorf("observer called %d times, want 1", observed)
	}
}

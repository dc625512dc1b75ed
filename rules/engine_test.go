package rules

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nstehr/vimy/vimy-bc/model"
	"github.com/nstehr/vimy/vimy-bc/simtest"
)

func TestNewEngine_SortsByPriority(t *testing.T) {
	noop := func(context.Context, *Turn, model.Unit) (*model.Intent, error) { return nil, nil }
	e, err := NewEngine("test", []*Rule{
		{Name: "low", Priority: 1, ConditionSrc: `true`, Action: noop},
		{Name: "high", Priority: 50, ConditionSrc: `OnMap()`, Action: noop},
		{Name: "mid", Priority: 10, ConditionSrc: `Round > 3`, Action: noop},
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	got := strings.Join(e.RuleNames(), ",")
	if got != "high,mid,low" {
		t.Errorf("order = %s, want high,mid,low", got)
	}
}

func TestNewEngine_RejectsBadRules(t *testing.T) {
	noop := func(context.Context, *Turn, model.Unit) (*model.Intent, error) { return nil, nil }
	if _, err := NewEngine("test", []*Rule{{Name: "bad", ConditionSrc: `NoSuchHelper()`, Action: noop}}); err == nil {
		t.Error("expected compile error for unknown helper")
	}
	if _, err := NewEngine("test", []*Rule{{Name: "int", ConditionSrc: `GarrisonSize()`, Action: noop}}); err == nil {
		t.Error("expected compile error for non-bool condition")
	}
	if _, err := NewEngine("test", []*Rule{{Name: "nil", ConditionSrc: `true`}}); err == nil {
		t.Error("expected error for missing action")
	}
}

func TestEvaluate_FailureStopsRoundKeepsEarlierIntents(t *testing.T) {
	w := simtest.New(mine, model.Earth)
	first := w.Add(earthUnit(model.Knight, 2, 2))
	faulty := w.Add(earthUnit(model.Knight, 8, 8))
	last := w.Add(earthUnit(model.Knight, 14, 14))
	injected := errors.New("engine rejected move")
	w.FailExecute = func(in model.Intent) error {
		if in.UnitID == faulty {
			return injected
		}
		return nil
	}

	res, err := runRound(t, w, mustPolicy(t, model.Earth), always(model.North))
	if !errors.Is(err, injected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	var ue *UnitError
	if !errors.As(err, &ue) || ue.UnitID != faulty || ue.Rule != "blueprint-or-move" {
		t.Errorf("error not attributed to unit %d / blueprint-or-move: %v", faulty, err)
	}
	if _, ok := res.Intents[first]; !ok {
		t.Error("intent before the fault was lost")
	}
	if _, ok := res.Intents[last]; ok {
		t.Error("unit after the fault should not have been processed")
	}
	if got := w.ExecutedIn(1); len(got) != 1 {
		t.Errorf("executed %v, want only the first unit's move", got)
	}
}

func TestEvaluate_PanicBecomesUnitError(t *testing.T) {
	boom := func(context.Context, *Turn, model.Unit) (*model.Intent, error) {
		var m map[string]int
		m["x"] = 1
		return nil, nil
	}
	e, err := NewEngine("test", []*Rule{{Name: "boom", Priority: 1, ConditionSrc: `true`, Action: boom}})
	if err != nil {
		t.Fatal(err)
	}
	w := simtest.New(mine, model.Earth)
	id := w.Add(earthUnit(model.Worker, 1, 1))

	_, err = runRound(t, w, e, always(model.North))
	var ue *UnitError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnitError, got %v", err)
	}
	if ue.UnitID != id || ue.Rule != "boom" || !strings.Contains(ue.Error(), "panic") {
		t.Errorf("unexpected error %v", ue)
	}
}

func TestEvaluate_SkipsDuplicateUnits(t *testing.T) {
	w := simtest.New(mine, model.Earth)
	id := w.Add(earthUnit(model.Knight, 5, 5))
	snap, _ := w.Snapshot(context.Background())
	snap.Units = append(snap.Units, snap.Units[0])

	turn := NewTurn(w, NewGate(w), always(model.East), DefaultOptions(), snap)
	res, err := mustPolicy(t, model.Earth).Evaluate(context.Background(), turn, snap)
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped != 1 || res.Acted != 1 {
		t.Errorf("skipped=%d acted=%d, want 1 and 1", res.Skipped, res.Acted)
	}
	if n := len(callsFor(w, id, model.IntentMove)); n != 1 {
		t.Errorf("move checked %d times, want 1", n)
	}
}

func TestEvaluate_HonoursCancellation(t *testing.T) {
	w := simtest.New(mine, model.Earth)
	w.Add(earthUnit(model.Knight, 5, 5))
	snap, _ := w.Snapshot(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	turn := NewTurn(w, NewGate(w), always(model.East), DefaultOptions(), snap)
	if _, err := mustPolicy(t, model.Earth).Evaluate(ctx, turn, snap); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

package rules

import (
	"context"
	"testing"

	"github.com/nstehr/vimy/vimy-bc/model"
	"github.com/nstehr/vimy/vimy-bc/simtest"
)

func TestUnloadGarrison_EmptyIsNoop(t *testing.T) {
	w := simtest.New(mine, model.Earth)
	f := w.Add(earthUnit(model.Factory, 5, 5))
	u, _ := w.Unit(f)

	in, err := UnloadGarrison(context.Background(), NewGate(w), u, always(model.East))
	if err != nil || in != nil {
		t.Fatalf("got %v, %v; want nil, nil", in, err)
	}
	if len(w.Calls) != 0 {
		t.Errorf("empty garrison should not reach the engine, got %v", w.Calls)
	}
}

func TestUnloadGarrison_ReleasesExactlyOne(t *testing.T) {
	w := simtest.New(mine, model.Earth)
	const f, a, b = 1, 2, 3
	factory := earthUnit(model.Factory, 5, 5)
	factory.ID = f
	factory.Garrison = []int{a, b}
	w.Add(factory)
	w.Add(model.Unit{ID: a, Type: model.Knight, Location: model.Inside(f)})
	w.Add(model.Unit{ID: b, Type: model.Knight, Location: model.Inside(f)})

	u, _ := w.Unit(f)
	in, err := UnloadGarrison(context.Background(), NewGate(w), u, always(model.East))
	if err != nil {
		t.Fatalf("UnloadGarrison: %v", err)
	}
	if in == nil || !in.Equal(model.Unload(f, model.East)) {
		t.Fatalf("got %v, want unload east", in)
	}

	after, _ := w.Unit(f)
	if after.GarrisonSize() != 1 {
		t.Errorf("garrison size %d, want 1", after.GarrisonSize())
	}
	out, _ := w.Unit(b)
	if !out.Location.OnMap || out.Location.Map != (model.MapLocation{Planet: model.Earth, X: 6, Y: 5}) {
		t.Errorf("most recently loaded unit at %s, want earth(6,5)", out.Location)
	}
}

func TestUnloadGarrison_BlockedDirectionNotRetried(t *testing.T) {
	w := simtest.New(mine, model.Earth)
	factory := earthUnit(model.Factory, 5, 5)
	factory.ID = 1
	factory.Garrison = []int{2}
	w.Add(factory)
	w.Add(model.Unit{ID: 2, Type: model.Knight, Location: model.Inside(1)})
	w.Add(earthUnit(model.Knight, 5, 6)) // blocks north

	u, _ := w.Unit(1)
	in, err := UnloadGarrison(context.Background(), NewGate(w), u, always(model.North))
	if err != nil || in != nil {
		t.Fatalf("got %v, %v; want nil, nil", in, err)
	}
	if n := len(callsFor(w, 1, model.IntentUnload)); n != 1 {
		t.Errorf("unload checked %d times, want 1", n)
	}
	after, _ := w.Unit(1)
	if after.GarrisonSize() != 1 {
		t.Errorf("garrison size %d, want 1", after.GarrisonSize())
	}
}

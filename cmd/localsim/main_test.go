package main

import (
	"context"
	"testing"

	"github.com/nstehr/vimy/vimy-bc/model"
)

func TestNewWorld_Earth(t *testing.T) {
	w := newWorld("red", model.Earth, 300)
	snap, err := w.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	counts := snap.CountByType()
	if counts["factory"] != 1 || counts["worker"] != 2 || len(snap.Units) != 3 {
		t.Errorf("owned units = %v", counts)
	}

	if err := w.NextTurn(context.Background()); err != nil {
		t.Fatal(err)
	}
	if w.Karbonite != 300+incomePerRound || w.Round != 2 {
		t.Errorf("after commit: round=%d karbonite=%d", w.Round, w.Karbonite)
	}
}

func TestNewWorld_MarsRocketIsLoaded(t *testing.T) {
	w := newWorld("red", model.Mars, 0)
	r, ok := w.Unit(1)
	if !ok || r.Type != model.Rocket || r.GarrisonSize() != 2 {
		t.Fatalf("rocket = %+v", r)
	}
	for _, id := range r.Garrison {
		u, _ := w.Unit(id)
		if u.Location.OnMap {
			t.Errorf("passenger %d should be inside the rocket", id)
		}
	}
}

func TestNewWorld_OpponentNeverMatchesPlayer(t *testing.T) {
	w := newWorld("blue", model.Earth, 0)
	enemy, _ := w.Unit(4)
	if enemy.Team == "blue" {
		t.Error("enemy knight shares the player's team")
	}
}

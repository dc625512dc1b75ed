// Package simtest provides an in-memory game engine for exercising the
// controller without a running simulator. Its rules are a small, deterministic
// subset of the real game: enough for capability checks to pass and fail for
// the right reasons.
package simtest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/nstehr/vimy/vimy-bc/model"
)

// ErrRejected is returned by Execute when the intent fails the world's rules.
var ErrRejected = errors.New("simtest: intent rejected")

const garrisonCapacity = 8

// Call is one capability or mutation request seen by the world, in order.
type Call struct {
	Op     string // "can" or "do"
	Intent model.Intent
	Result bool // can: the answer; do: whether it was applied
}

// Record is an intent the world applied.
type Record struct {
	Round  int
	Intent model.Intent
}

// World is a two-planet game state owned by a single test. Hooks let tests
// force capability answers and inject engine faults.
type World struct {
	mu sync.Mutex

	Team      model.Team
	Planet    model.Planet
	Round     int
	Karbonite int
	Bounds    model.Bounds // map of the local planet
	Landing   model.Bounds // valid rocket destinations on Mars

	// NotReady marks units whose weapon and movement cooldowns have not expired.
	NotReady map[int]bool
	// Allow, when set, overrides the built-in capability rules.
	Allow func(in model.Intent) bool
	// FailExecute, when it returns an error, makes Execute fail after a passing check.
	FailExecute func(in model.Intent) error
	// FailSnapshot, when it returns an error, makes Snapshot fail for that round.
	FailSnapshot func(round int) error
	// BeforeRound runs inside NextTurn after the round number advances.
	BeforeRound func(w *World)

	Research []model.UnitType
	Executed []Record
	Calls    []Call
	Commits  int

	units  map[int]*model.Unit
	order  []int
	nextID int
}

func New(team model.Team, planet model.Planet) *World {
	return &World{
		Team:     team,
		Planet:   planet,
		Round:    1,
		Bounds:   model.Bounds{Width: 20, Height: 20},
		Landing:  model.Bounds{Width: 100, Height: 100},
		NotReady: make(map[int]bool),
		units:    make(map[int]*model.Unit),
		nextID:   1,
	}
}

// Add places u in the world and returns its ID. A zero ID is assigned.
func (w *World) Add(u model.Unit) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.add(u)
}

func (w *World) add(u model.Unit) int {
	if u.ID == 0 {
		u.ID = w.nextID
	}
	if u.ID >= w.nextID {
		w.nextID = u.ID + 1
	}
	if u.Team == "" {
		u.Team = w.Team
	}
	u.Garrison = slices.Clone(u.Garrison)
	w.units[u.ID] = &u
	w.order = append(w.order, u.ID)
	return u.ID
}

// Unit returns a copy of the unit with the given ID.
func (w *World) Unit(id int) (model.Unit, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	u, ok := w.units[id]
	if !ok {
		return model.Unit{}, false
	}
	c := *u
	c.Garrison = slices.Clone(u.Garrison)
	return c, true
}

// ExecutedIn returns the intents applied during round.
func (w *World) ExecutedIn(round int) []model.Intent {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []model.Intent
	for _, r := range w.Executed {
		if r.Round == round {
			out = append(out, r.Intent)
		}
	}
	return out
}

// Hello greets a player with the world's team and planet.
func (w *World) Hello(ctx context.Context, player string) (model.Team, model.Planet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Team, w.Planet, nil
}

func (w *World) Snapshot(ctx context.Context) (model.GameSnapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FailSnapshot != nil {
		if err := w.FailSnapshot(w.Round); err != nil {
			return model.GameSnapshot{}, err
		}
	}
	snap := model.GameSnapshot{
		Round:     w.Round,
		Team:      w.Team,
		Planet:    w.Planet,
		Karbonite: w.Karbonite,
	}
	for _, id := range w.order {
		u := w.units[id]
		if u.Team != w.Team {
			continue
		}
		c := *u
		c.Garrison = slices.Clone(u.Garrison)
		snap.Units = append(snap.Units, c)
	}
	return snap, nil
}

func (w *World) SenseNearby(ctx context.Context, loc model.MapLocation, radius int) ([]model.Unit, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []model.Unit
	for _, id := range w.order {
		u := w.units[id]
		if !u.Location.OnMap {
			continue
		}
		d := loc.DistanceSquared(u.Location.Map)
		if d < 0 || d > radius*radius {
			continue
		}
		c := *u
		c.Garrison = slices.Clone(u.Garrison)
		out = append(out, c)
	}
	return out, nil
}

func (w *World) IsAttackReady(ctx context.Context, unitID int) (bool, error) {
	return w.ready(unitID)
}

func (w *World) IsMoveReady(ctx context.Context, unitID int) (bool, error) {
	return w.ready(unitID)
}

func (w *World) ready(unitID int) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.units[unitID]; !ok {
		return false, fmt.Errorf("simtest: no unit %d", unitID)
	}
	return !w.NotReady[unitID], nil
}

func (w *World) CanExecute(ctx context.Context, in model.Intent) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ok := w.allowed(in)
	w.Calls = append(w.Calls, Call{Op: "can", Intent: in, Result: ok})
	return ok, nil
}

func (w *World) Execute(ctx context.Context, in model.Intent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FailExecute != nil {
		if err := w.FailExecute(in); err != nil {
			w.Calls = append(w.Calls, Call{Op: "do", Intent: in})
			return err
		}
	}
	if !w.allowed(in) {
		w.Calls = append(w.Calls, Call{Op: "do", Intent: in})
		return fmt.Errorf("%w: %s", ErrRejected, in)
	}
	w.apply(in)
	w.Calls = append(w.Calls, Call{Op: "do", Intent: in, Result: true})
	w.Executed = append(w.Executed, Record{Round: w.Round, Intent: in})
	return nil
}

func (w *World) QueueResearch(ctx context.Context, t model.UnitType) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Research = append(w.Research, t)
	return nil
}

// NextTurn commits the round and admits the next one.
func (w *World) NextTurn(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Commits++
	w.Round++
	if w.BeforeRound != nil {
		w.BeforeRound(w)
	}
	return nil
}

// AddLocked is Add for use inside BeforeRound, which already holds the lock.
func (w *World) AddLocked(u model.Unit) int { return w.add(u) }

func (w *World) allowed(in model.Intent) bool {
	if w.Allow != nil {
		return w.Allow(in)
	}
	u, ok := w.units[in.UnitID]
	if !ok {
		return false
	}
	switch in.Kind {
	case model.IntentProduce:
		return u.Type == model.Factory && u.Built && !in.UnitType.IsStructure() &&
			len(u.Garrison) < garrisonCapacity && w.Karbonite >= in.UnitType.ProductionCost()
	case model.IntentBuild:
		target, ok := w.units[in.TargetID]
		return ok && u.Type == model.Worker && u.Location.OnMap && target.Location.OnMap &&
			target.Type.IsStructure() && !target.Built && target.Team == u.Team &&
			inRange(u.Location.Map, target.Location.Map, 2)
	case model.IntentAttack:
		target, ok := w.units[in.TargetID]
		return ok && canAttack(u.Type) && !w.NotReady[u.ID] && u.Location.OnMap && target.Location.OnMap &&
			target.Team != u.Team && inRange(u.Location.Map, target.Location.Map, attackRange(u.Type))
	case model.IntentLoad:
		p, ok := w.units[in.TargetID]
		return ok && u.Type == model.Rocket && u.Built && u.Location.OnMap && p.Location.OnMap &&
			!p.Type.IsStructure() && p.Team == u.Team && len(u.Garrison) < garrisonCapacity &&
			inRange(u.Location.Map, p.Location.Map, 2)
	case model.IntentUnload:
		if !u.Type.IsStructure() || len(u.Garrison) == 0 || !u.Location.OnMap {
			return false
		}
		return w.free(u.Location.Map.Add(in.Direction))
	case model.IntentLaunch:
		d := in.Destination
		return u.Type == model.Rocket && u.Built && u.Location.OnMap && len(u.Garrison) > 0 &&
			d != nil && d.Planet == model.Mars && w.Landing.Contains(d.X, d.Y)
	case model.IntentBlueprint:
		return u.Type == model.Worker && u.Location.OnMap && w.Planet == model.Earth &&
			in.UnitType.IsStructure() && w.Karbonite >= in.UnitType.BlueprintCost() &&
			w.free(u.Location.Map.Add(in.Direction))
	case model.IntentMove:
		return !u.Type.IsStructure() && u.Location.OnMap && !w.NotReady[u.ID] &&
			in.Direction != model.Center && w.free(u.Location.Map.Add(in.Direction))
	}
	return false
}

func (w *World) apply(in model.Intent) {
	u := w.units[in.UnitID]
	switch in.Kind {
	case model.IntentProduce:
		w.Karbonite -= in.UnitType.ProductionCost()
		id := w.add(model.Unit{Type: in.UnitType, Team: u.Team, Location: model.Inside(u.ID)})
		u.Garrison = append(u.Garrison, id)
	case model.IntentBuild:
		w.units[in.TargetID].Built = true
	case model.IntentAttack:
		w.remove(in.TargetID)
	case model.IntentLoad:
		p := w.units[in.TargetID]
		p.Location = model.Inside(u.ID)
		u.Garrison = append(u.Garrison, p.ID)
	case model.IntentUnload:
		last := u.Garrison[len(u.Garrison)-1]
		u.Garrison = u.Garrison[:len(u.Garrison)-1]
		dest := u.Location.Map.Add(in.Direction)
		w.units[last].Location = model.Location{OnMap: true, Map: dest}
	case model.IntentLaunch:
		u.Location = model.InSpace()
	case model.IntentBlueprint:
		w.Karbonite -= in.UnitType.BlueprintCost()
		dest := u.Location.Map.Add(in.Direction)
		w.add(model.Unit{Type: in.UnitType, Team: u.Team, Location: model.Location{OnMap: true, Map: dest}})
	case model.IntentMove:
		u.Location.Map = u.Location.Map.Add(in.Direction)
	}
}

func (w *World) remove(id int) {
	delete(w.units, id)
	w.order = slices.DeleteFunc(w.order, func(v int) bool { return v == id })
}

func (w *World) free(loc model.MapLocation) bool {
	if loc.Planet != w.Planet || !w.Bounds.Contains(loc.X, loc.Y) {
		return false
	}
	for _, u := range w.units {
		if u.Location.OnMap && u.Location.Map == loc {
			return false
		}
	}
	return true
}

func canAttack(t model.UnitType) bool {
	switch t {
	case model.Knight, model.Ranger, model.Mage:
		return true
	}
	return false
}

func attackRange(t model.UnitType) int {
	switch t {
	case model.Ranger:
		return 50
	case model.Mage:
		return 30
	}
	return 2
}

func inRange(a, b model.MapLocation, r2 int) bool {
	d := a.DistanceSquared(b)
	return d >= 0 && d <= r2
}

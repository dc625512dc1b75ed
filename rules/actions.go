package rules

import (
	"context"
	"fmt"

	"github.com/nstehr/vimy/vimy-bc/model"
)

func ActionUnloadGarrison(ctx context.Context, t *Turn, u model.Unit) (*model.Intent, error) {
	return UnloadGarrison(ctx, t.Gate, u, t.Rand)
}

func ActionProduceRobot(ctx context.Context, t *Turn, u model.Unit) (*model.Intent, error) {
	in, err := t.try(ctx, model.Produce(u.ID, t.Options.Robot))
	if in != nil {
		t.spend(t.Options.Robot.ProductionCost())
	}
	return in, err
}

// ActionProximityResponse reacts to the first sensed neighbour that allows an
// action. Neighbour order is whatever the engine returns.
func ActionProximityResponse(ctx context.Context, t *Turn, u model.Unit) (*model.Intent, error) {
	if !u.Location.OnMap {
		return nil, nil
	}
	nearby, err := t.Sim.SenseNearby(ctx, u.Location.Map, t.Options.SenseRadius)
	if err != nil {
		return nil, fmt.Errorf("sense nearby %s: %w", u.Location, err)
	}
	for _, other := range nearby {
		if other.ID == u.ID {
			continue
		}
		in, err := respondTo(ctx, t, u, other)
		if err != nil || in != nil {
			return in, err
		}
	}
	return nil, nil
}

func respondTo(ctx context.Context, t *Turn, u, other model.Unit) (*model.Intent, error) {
	if u.Type == model.Worker {
		if in, err := t.try(ctx, model.Build(u.ID, other.ID)); err != nil || in != nil {
			return in, err
		}
	}
	if other.Team != t.Team {
		if in, err := t.try(ctx, model.Attack(u.ID, other.ID)); err != nil || in != nil {
			return in, err
		}
	}
	if u.Type == model.Rocket {
		return t.try(ctx, model.Load(u.ID, other.ID))
	}
	return nil, nil
}

// ActionLaunchRocket sends a loaded rocket to a random tile of the landing planet.
func ActionLaunchRocket(ctx context.Context, t *Turn, u model.Unit) (*model.Intent, error) {
	if u.Type != model.Rocket || u.GarrisonSize() == 0 {
		return nil, nil
	}
	b := t.Options.Landing
	if b.Width <= 0 || b.Height <= 0 {
		return nil, fmt.Errorf("invalid landing bounds %dx%d", b.Width, b.Height)
	}
	dest := model.MapLocation{Planet: model.Mars, X: t.Rand.Intn(b.Width), Y: t.Rand.Intn(b.Height)}
	return t.try(ctx, model.Launch(u.ID, dest))
}

// ActionBlueprintOrMove picks one random direction and tries, in order, a
// factory blueprint, a rocket blueprint, then a move.
func ActionBlueprintOrMove(ctx context.Context, t *Turn, u model.Unit) (*model.Intent, error) {
	d := randomDirection(t.Rand)
	for _, s := range []model.UnitType{model.Factory, model.Rocket} {
		if in, err := tryBlueprint(ctx, t, u, s, d); err != nil || in != nil {
			return in, err
		}
	}
	return tryMove(ctx, t, u, d)
}

// ActionWander moves one step in a random direction.
func ActionWander(ctx context.Context, t *Turn, u model.Unit) (*model.Intent, error) {
	return tryMove(ctx, t, u, randomDirection(t.Rand))
}

// tryBlueprint skips the capability check entirely when the stock does not
// strictly exceed the blueprint cost.
func tryBlueprint(ctx context.Context, t *Turn, u model.Unit, s model.UnitType, d model.Direction) (*model.Intent, error) {
	cost := s.BlueprintCost()
	if t.Karbonite() <= cost {
		return nil, nil
	}
	in, err := t.try(ctx, model.Blueprint(u.ID, s, d))
	if in != nil {
		t.spend(cost)
	}
	return in, err
}

func tryMove(ctx context.Context, t *Turn, u model.Unit, d model.Direction) (*model.Intent, error) {
	if !u.Location.OnMap {
		return nil, nil
	}
	return t.try(ctx, model.Move(u.ID, d))
}

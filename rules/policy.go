package rules

import (
	"fmt"

	"github.com/nstehr/vimy/vimy-bc/model"
)

// EarthRules is the resource planet policy: production, building, combat,
// rocket loading and launch, then blueprinting or wandering.
func EarthRules() []*Rule {
	return []*Rule{
		{
			// Releasing an occupant is the factory's action for the round;
			// production is only tried when nothing was unloaded.
			Name:         "unload-factory",
			Priority:     1000,
			ConditionSrc: `IsRole("factory")`,
			Action:       ActionUnloadGarrison,
		},
		{
			Name:         "produce-robot",
			Priority:     900,
			ConditionSrc: `IsRole("factory")`,
			Action:       ActionProduceRobot,
		},
		{
			Name:         "proximity-response",
			Priority:     800,
			ConditionSrc: `OnMap()`,
			Action:       ActionProximityResponse,
		},
		{
			Name:         "launch-rocket",
			Priority:     700,
			ConditionSrc: `IsRole("rocket") && GarrisonSize() > 0`,
			Action:       ActionLaunchRocket,
		},
		{
			Name:         "blueprint-or-move",
			Priority:     100,
			ConditionSrc: `OnMap()`,
			Action:       ActionBlueprintOrMove,
		},
	}
}

// MarsRules is the landing planet policy: rockets empty themselves, everything
// else on the map wanders.
func MarsRules() []*Rule {
	return []*Rule{
		{
			Name:         "unload-rocket",
			Priority:     1000,
			ConditionSrc: `IsRole("rocket")`,
			Action:       ActionUnloadGarrison,
		},
		{
			Name:         "wander",
			Priority:     100,
			ConditionSrc: `!IsRole("rocket") && OnMap()`,
			Action:       ActionWander,
		},
	}
}

// PolicyFor builds the engine for the planet the process was started on.
func PolicyFor(p model.Planet) (*Engine, error) {
	switch p {
	case model.Earth:
		return NewEngine("earth", EarthRules())
	case model.Mars:
		return NewEngine("mars", MarsRules())
	}
	return nil, fmt.Errorf("no policy for planet %s", p)
}

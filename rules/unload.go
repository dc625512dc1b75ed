package rules

import (
	"context"

	"github.com/nstehr/vimy/vimy-bc/model"
)

// Rand is the random source the policy draws from. *math/rand.Rand satisfies it;
// seeding it fixes every choice the policy makes.
type Rand interface {
	Intn(n int) int
}

func randomDirection(rng Rand) model.Direction {
	return model.Directions[rng.Intn(len(model.Directions))]
}

// UnloadGarrison releases at most one occupant of u through a random
// direction. Which occupant leaves is up to the engine. A blocked direction is
// not retried.
func UnloadGarrison(ctx context.Context, gate *Gate, u model.Unit, rng Rand) (*model.Intent, error) {
	if u.GarrisonSize() == 0 {
		return nil, nil
	}
	in := model.Unload(u.ID, randomDirection(rng))
	done, err := gate.Try(ctx, in)
	if err != nil || !done {
		return nil, err
	}
	return &in, nil
}

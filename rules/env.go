package rules

import (
	"strings"

	"github.com/nstehr/vimy/vimy-bc/model"
)

// UnitEnv is what rule conditions see. Methods are callable from expr, e.g.
// `IsRole("rocket") && GarrisonSize() > 0`.
type UnitEnv struct {
	Unit      model.Unit
	Round     int
	Karbonite int
}

func (e UnitEnv) IsRole(r string) bool {
	return strings.EqualFold(e.Unit.Type.String(), r)
}

func (e UnitEnv) IsStructure() bool { return e.Unit.Type.IsStructure() }

// OnMap is false for units riding in a garrison or a rocket in flight.
func (e UnitEnv) OnMap() bool { return e.Unit.Location.OnMap }

func (e UnitEnv) GarrisonSize() int { return e.Unit.GarrisonSize() }

func (e UnitEnv) Built() bool { return e.Unit.Built }

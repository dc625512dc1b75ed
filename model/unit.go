package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Team identifies a controlling side. The simulator assigns one to this process.
type Team string

// Planet is fixed for the lifetime of a player process.
type Planet int

const (
	// Earth is the resource planet: production and blueprinting happen here.
	Earth Planet = iota
	// Mars is the landing planet rockets fly to.
	Mars
)

func (p Planet) String() string {
	switch p {
	case Earth:
		return "earth"
	case Mars:
		return "mars"
	}
	return fmt.Sprintf("planet(%d)", int(p))
}

func ParsePlanet(s string) (Planet, error) {
	switch strings.ToLower(s) {
	case "earth":
		return Earth, nil
	case "mars":
		return Mars, nil
	}
	return 0, fmt.Errorf("unknown planet %q", s)
}

func (p Planet) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }

func (p *Planet) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParsePlanet(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// UnitType is the closed set of roles a unit can have. A unit keeps its
// role for its whole life.
type UnitType int

const (
	Worker UnitType = iota
	Knight
	Ranger
	Mage
	Healer
	Factory
	Rocket
)

// UnitTypes lists every role in wire order.
var UnitTypes = []UnitType{Worker, Knight, Ranger, Mage, Healer, Factory, Rocket}

func (t UnitType) String() string {
	switch t {
	case Worker:
		return "worker"
	case Knight:
		return "knight"
	case Ranger:
		return "ranger"
	case Mage:
		return "mage"
	case Healer:
		return "healer"
	case Factory:
		return "factory"
	case Rocket:
		return "rocket"
	}
	return fmt.Sprintf("unit_type(%d)", int(t))
}

func ParseUnitType(s string) (UnitType, error) {
	for _, t := range UnitTypes {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown unit type %q", s)
}

func (t UnitType) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *UnitType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseUnitType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// IsStructure reports whether the role is stationary and can hold a garrison.
func (t UnitType) IsStructure() bool {
	switch t {
	case Factory, Rocket:
		return true
	case Worker, Knight, Ranger, Mage, Healer:
		return false
	}
	return false
}

// BlueprintCost is the karbonite a worker spends to place a structure.
// Robots cannot be blueprinted and report 0.
func (t UnitType) BlueprintCost() int {
	switch t {
	case Factory:
		return 200
	case Rocket:
		return 150
	}
	return 0
}

// ProductionCost is the karbonite a factory spends to produce a robot.
// Structures cannot be produced and report 0.
func (t UnitType) ProductionCost() int {
	switch t {
	case Worker:
		return 50
	case Knight, Ranger, Mage, Healer:
		return 40
	}
	return 0
}

// Unit is one owned or sensed unit, rebuilt from every snapshot.
type Unit struct {
	ID       int      `json:"id"`
	Type     UnitType `json:"type"`
	Team     Team     `json:"team"`
	Location Location `json:"location"`
	// Built is only meaningful for structures: false means the structure is
	// still a blueprint waiting on workers.
	Built bool `json:"built,omitempty"`
	// Garrison holds occupant IDs, most recently loaded last.
	Garrison []int `json:"garrison,omitempty"`
}

func (u Unit) TypeName() string { return u.Type.String() }

// GarrisonSize is the number of occupants; zero for robots.
func (u Unit) GarrisonSize() int { return len(u.Garrison) }

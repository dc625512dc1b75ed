package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Direction is one of the nine compass values the simulator accepts,
// Center included.
type Direction int

const (
	North Direction = iota
	Northeast
	East
	Southeast
	South
	Southwest
	West
	Northwest
	Center
)

// Directions is the fixed set random choices are drawn from.
var Directions = []Direction{North, Northeast, East, Southeast, South, Southwest, West, Northwest, Center}

var directionNames = [...]string{"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest", "center"}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return fmt.Sprintf("direction(%d)", int(d))
	}
	return directionNames[d]
}

func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if strings.EqualFold(s, name) {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Direction) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Delta returns the (dx, dy) step for the direction. North is +y.
func (d Direction) Delta() (int, int) {
	switch d {
	case North:
		return 0, 1
	case Northeast:
		return 1, 1
	case East:
		return 1, 0
	case Southeast:
		return 1, -1
	case South:
		return 0, -1
	case Southwest:
		return -1, -1
	case West:
		return -1, 0
	case Northwest:
		return -1, 1
	}
	return 0, 0
}

// MapLocation is a tile on one planet.
type MapLocation struct {
	Planet Planet `json:"planet"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// Add returns the neighbouring tile in direction d.
func (m MapLocation) Add(d Direction) MapLocation {
	dx, dy := d.Delta()
	return MapLocation{Planet: m.Planet, X: m.X + dx, Y: m.Y + dy}
}

// DistanceSquared is the squared euclidean distance, or -1 across planets.
func (m MapLocation) DistanceSquared(o MapLocation) int {
	if m.Planet != o.Planet {
		return -1
	}
	dx, dy := m.X-o.X, m.Y-o.Y
	return dx*dx + dy*dy
}

func (m MapLocation) String() string {
	return fmt.Sprintf("%s(%d,%d)", m.Planet, m.X, m.Y)
}

// Location is either a tile on a map or an off-map state: inside a
// garrison, or riding a rocket in flight. Off-map units cannot be sensed.
type Location struct {
	OnMap bool        `json:"on_map"`
	Map   MapLocation `json:"map"`
	// InsideID is the carrier holding the unit when it is off-map, zero in space.
	InsideID int `json:"inside_id,omitempty"`
}

// At builds an on-map location.
func At(p Planet, x, y int) Location {
	return Location{OnMap: true, Map: MapLocation{Planet: p, X: x, Y: y}}
}

// Inside builds the off-map location of a garrisoned unit.
func Inside(carrierID int) Location {
	return Location{InsideID: carrierID}
}

// InSpace is the off-map location of a rocket in flight.
func InSpace() Location { return Location{} }

func (l Location) String() string {
	switch {
	case l.OnMap:
		return l.Map.String()
	case l.InsideID != 0:
		return fmt.Sprintf("garrison(%d)", l.InsideID)
	}
	return "space"
}

// Bounds is the coordinate range of a planet map: 0 <= x < Width, 0 <= y < Height.
type Bounds struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Contains returns false for coordinates outside the map or zero-sized bounds.
func (b Bounds) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

package model

import (
	"encoding/json"
	"fmt"
)

// IntentKind tags an Intent. One kind per mutating simulator call.
type IntentKind int

const (
	IntentProduce IntentKind = iota + 1
	IntentBuild
	IntentAttack
	IntentLoad
	IntentUnload
	IntentLaunch
	IntentBlueprint
	IntentMove
)

var intentKindNames = map[IntentKind]string{
	IntentProduce:   "produce_robot",
	IntentBuild:     "build",
	IntentAttack:    "attack",
	IntentLoad:      "load",
	IntentUnload:    "unload",
	IntentLaunch:    "launch_rocket",
	IntentBlueprint: "blueprint",
	IntentMove:      "move",
}

func (k IntentKind) String() string {
	if s, ok := intentKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("intent(%d)", int(k))
}

func (k IntentKind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

func (k *IntentKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for kind, name := range intentKindNames {
		if name == s {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown intent kind %q", s)
}

// Intent is a single game action. Which fields are set depends on Kind;
// use the constructors rather than building one by hand.
//
// On the wire each kind carries exactly the fields it uses, so zero values
// such as North or Worker are always sent explicitly.
type Intent struct {
	Kind        IntentKind
	UnitID      int
	TargetID    int
	UnitType    UnitType
	Direction   Direction
	Destination *MapLocation
}

type intentWire struct {
	Kind        IntentKind   `json:"kind"`
	UnitID      int          `json:"unit_id"`
	TargetID    *int         `json:"target_id,omitempty"`
	UnitType    *UnitType    `json:"unit_type,omitempty"`
	Direction   *Direction   `json:"direction,omitempty"`
	Destination *MapLocation `json:"destination,omitempty"`
}

func (i Intent) MarshalJSON() ([]byte, error) {
	w := intentWire{Kind: i.Kind, UnitID: i.UnitID}
	switch i.Kind {
	case IntentProduce:
		w.UnitType = &i.UnitType
	case IntentBuild, IntentAttack, IntentLoad:
		w.TargetID = &i.TargetID
	case IntentUnload, IntentMove:
		w.Direction = &i.Direction
	case IntentLaunch:
		if i.Destination == nil {
			return nil, fmt.Errorf("%s: missing destination", i)
		}
		w.Destination = i.Destination
	case IntentBlueprint:
		w.UnitType = &i.UnitType
		w.Direction = &i.Direction
	default:
		return nil, fmt.Errorf("unknown intent kind %d", int(i.Kind))
	}
	return json.Marshal(w)
}

func (i *Intent) UnmarshalJSON(b []byte) error {
	var w intentWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	in := Intent{Kind: w.Kind, UnitID: w.UnitID}
	missing := func(field string) error {
		return fmt.Errorf("%s intent missing %s", w.Kind, field)
	}
	switch w.Kind {
	case IntentProduce:
		if w.UnitType == nil {
			return missing("unit_type")
		}
		in.UnitType = *w.UnitType
	case IntentBuild, IntentAttack, IntentLoad:
		if w.TargetID == nil {
			return missing("target_id")
		}
		in.TargetID = *w.TargetID
	case IntentUnload, IntentMove:
		if w.Direction == nil {
			return missing("direction")
		}
		in.Direction = *w.Direction
	case IntentLaunch:
		if w.Destination == nil {
			return missing("destination")
		}
		in.Destination = w.Destination
	case IntentBlueprint:
		if w.UnitType == nil {
			return missing("unit_type")
		}
		if w.Direction == nil {
			return missing("direction")
		}
		in.UnitType, in.Direction = *w.UnitType, *w.Direction
	default:
		return fmt.Errorf("intent missing kind")
	}
	*i = in
	return nil
}

func (i Intent) String() string {
	switch i.Kind {
	case IntentProduce:
		return fmt.Sprintf("produce_robot(%d, %s)", i.UnitID, i.UnitType)
	case IntentBuild, IntentAttack, IntentLoad:
		return fmt.Sprintf("%s(%d, %d)", i.Kind, i.UnitID, i.TargetID)
	case IntentUnload, IntentMove:
		return fmt.Sprintf("%s(%d, %s)", i.Kind, i.UnitID, i.Direction)
	case IntentLaunch:
		if i.Destination == nil {
			return fmt.Sprintf("launch_rocket(%d, ?)", i.UnitID)
		}
		return fmt.Sprintf("launch_rocket(%d, %s)", i.UnitID, *i.Destination)
	case IntentBlueprint:
		return fmt.Sprintf("blueprint(%d, %s, %s)", i.UnitID, i.UnitType, i.Direction)
	}
	return i.Kind.String()
}

// Equal compares intents by value, including the launch destination.
func (i Intent) Equal(o Intent) bool {
	if i.Kind != o.Kind || i.UnitID != o.UnitID || i.TargetID != o.TargetID ||
		i.UnitType != o.UnitType || i.Direction != o.Direction {
		return false
	}
	if i.Destination == nil || o.Destination == nil {
		return i.Destination == o.Destination
	}
	return *i.Destination == *o.Destination
}

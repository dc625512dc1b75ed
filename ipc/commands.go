package ipc

import "github.com/nstehr/vimy/vimy-bc/model"

// Cooldown kinds carried by ReadyRequest.
const (
	ReadyAttack = "attack"
	ReadyMove   = "move"
)

type SenseNearbyRequest struct {
	Location model.MapLocation `json:"location"`
	Radius   int               `json:"radius"`
}

type ReadyRequest struct {
	UnitID int    `json:"unit_id"`
	Kind   string `json:"kind"`
}

// IntentRequest carries both TypeCan and TypeDo.
type IntentRequest struct {
	Intent model.Intent `json:"intent"`
}

type ResearchRequest struct {
	UnitType model.UnitType `json:"unit_type"`
}

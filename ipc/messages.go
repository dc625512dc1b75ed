package ipc

import "github.com/nstehr/vimy/vimy-bc/model"

// Message types. Requests flow from the player to the simulator; every request
// gets exactly one reply, either the listed reply type or TypeError.
const (
	TypeHello         = "hello"          // → welcome
	TypeSnapshot      = "snapshot"       // → snapshot
	TypeSenseNearby   = "sense_nearby"   // → units
	TypeReady         = "ready"          // → answer
	TypeCan           = "can"            // → answer
	TypeDo            = "do"             // → ack
	TypeQueueResearch = "queue_research" // → ack
	TypeNextTurn      = "next_turn"      // → ack, sent once the next round starts

	TypeWelcome = "welcome"
	TypeUnits   = "units"
	TypeAnswer  = "answer"
	TypeAck     = "ack"
	TypeError   = "error"
)

type HelloMessage struct {
	Player string `json:"player"`
}

type WelcomeMessage struct {
	Team   model.Team   `json:"team"`
	Planet model.Planet `json:"planet"`
}

type AckMessage struct {
	Status string `json:"status"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

type AnswerMessage struct {
	OK bool `json:"ok"`
}

type UnitsMessage struct {
	Units []model.Unit `json:"units"`
}

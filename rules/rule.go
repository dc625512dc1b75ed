package rules

import (
	"context"

	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/vimy/vimy-bc/model"
)

// ActionFunc attempts the rule's action for one unit. It returns the intent the
// engine accepted, or nil if nothing was executed.
type ActionFunc func(ctx context.Context, t *Turn, u model.Unit) (*model.Intent, error)

// Rule is one step of the per-unit priority list: a condition → action pair.
// The first rule whose action commits an intent ends the unit's round.
type Rule struct {
	Name         string      // human-readable identifier
	Priority     int         // higher = evaluated first
	ConditionSrc string      // expr source over UnitEnv
	program      *vm.Program // compiled bytecode
	Action       ActionFunc
}

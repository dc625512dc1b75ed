package rules

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/vimy/vimy-bc/model"
)

// UnitError attributes a failure to the unit and rule that raised it.
type UnitError struct {
	UnitID int
	Rule   string
	Err    error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("unit %d rule %q: %v", e.UnitID, e.Rule, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// Result summarizes one pass over the owned units.
type Result struct {
	Units   int
	Acted   int
	Intents map[int]model.Intent // unit ID → committed intent
	Skipped int                  // duplicate unit IDs in the snapshot
}

// Engine runs a planet's rule list over every owned unit. Rules are tried in
// priority order and the first one that commits an intent ends that unit's
// round, so a unit acts at most once.
type Engine struct {
	name  string
	rules []*Rule
}

// NewEngine compiles all rule conditions into expr bytecode and sorts by priority.
func NewEngine(name string, rules []*Rule) (*Engine, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Engine{name: name, rules: compiled}, nil
}

func (e *Engine) Name() string { return e.name }

// RuleNames lists the rules in evaluation order.
func (e *Engine) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

// Evaluate applies the rules to each unit of snap. The first failure stops the
// pass; intents already executed stay executed.
func (e *Engine) Evaluate(ctx context.Context, t *Turn, snap model.GameSnapshot) (Result, error) {
	res := Result{Units: len(snap.Units), Intents: make(map[int]model.Intent)}
	seen := make(map[int]bool, len(snap.Units))

	for _, u := range snap.Units {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if seen[u.ID] {
			res.Skipped++
			continue
		}
		seen[u.ID] = true

		in, err := e.decide(ctx, t, u)
		if err != nil {
			return res, err
		}
		if in != nil {
			res.Acted++
			res.Intents[u.ID] = *in
		}
	}
	return res, nil
}

// decide returns the first intent committed for u, or nil if no rule acted.
func (e *Engine) decide(ctx context.Context, t *Turn, u model.Unit) (in *model.Intent, err error) {
	current := ""
	defer func() {
		if r := recover(); r != nil {
			in = nil
			err = &UnitError{UnitID: u.ID, Rule: current, Err: fmt.Errorf("panic: %v\n%s", r, debug.Stack())}
		}
	}()

	env := t.env(u)
	for _, r := range e.rules {
		current = r.Name
		result, err := vm.Run(r.program, env)
		if err != nil {
			return nil, &UnitError{UnitID: u.ID, Rule: r.Name, Err: fmt.Errorf("condition: %w", err)}
		}
		if match, ok := result.(bool); !ok || !match {
			continue
		}

		in, err := r.Action(ctx, t, u)
		if err != nil {
			return nil, &UnitError{UnitID: u.ID, Rule: r.Name, Err: err}
		}
		if in != nil {
			slog.Debug("rule fired", "rule", r.Name, "unit", u.ID, "type", u.TypeName(), "intent", in.String())
			return in, nil
		}
	}
	return nil, nil
}

func compileRules(rules []*Rule) ([]*Rule, error) {
	for _, r := range rules {
		if r.Action == nil {
			return nil, fmt.Errorf("rule %q has no action", r.Name)
		}
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(UnitEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules, nil
}

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime/debug"

	"github.com/nstehr/vimy/vimy-bc/ipc"
	"github.com/nstehr/vimy/vimy-bc/journal"
	"github.com/nstehr/vimy/vimy-bc/model"
	"github.com/nstehr/vimy/vimy-bc/rules"
)

// Simulator is the game engine surface the controller drives: the rule
// engine's queries and actions plus the per-round snapshot and commit.
type Simulator interface {
	rules.Simulator
	Snapshot(ctx context.Context) (model.GameSnapshot, error)
	// NextTurn commits the round and blocks until the next one starts.
	NextTurn(ctx context.Context) error
}

type Researcher interface {
	QueueResearch(ctx context.Context, t model.UnitType) error
}

// Recorder persists a summary of each played round.
type Recorder interface {
	Record(ctx context.Context, r journal.Round) error
}

// Agent owns the decision-making for a single player session. It plays one
// round at a time: collect a snapshot, run the planet policy, commit.
type Agent struct {
	Sim     Simulator
	Engine  *rules.Engine
	Options rules.Options
	Journal Recorder // optional

	rng      *rand.Rand
	gate     *rules.Gate
	executed []model.Intent
}

func New(sim Simulator, engine *rules.Engine, opts rules.Options, seed int64) *Agent {
	a := &Agent{
		Sim:     sim,
		Engine:  engine,
		Options: opts,
		rng:     rand.New(rand.NewSource(seed)),
		gate:    rules.NewGate(sim),
	}
	a.gate.OnExecute(func(in model.Intent) {
		a.executed = append(a.executed, in)
	})
	return a
}

// Setup queues the research order before the first round.
func Setup(ctx context.Context, r Researcher, queue []model.UnitType) error {
	for _, t := range queue {
		if err := r.QueueResearch(ctx, t); err != nil {
			return fmt.Errorf("queue research %s: %w", t, err)
		}
		slog.Debug("research queued", "unit_type", t.String())
	}
	return nil
}

// Run plays rounds until ctx is cancelled or the simulator goes away. Round
// failures are logged and never end the loop.
func (a *Agent) Run(ctx context.Context) error {
	slog.Info("controller started", "policy", a.Engine.Name(), "rules", a.Engine.RuleNames())
	for {
		if ctx.Err() != nil {
			slog.Info("controller stopping", "reason", context.Cause(ctx))
			return nil
		}

		round, _, err := a.RunRound(ctx)
		if err != nil && ctx.Err() == nil {
			logRoundError(round, err)
		}

		if err := a.Sim.NextTurn(ctx); err != nil {
			if errors.Is(err, ipc.ErrClosed) {
				slog.Info("simulator closed the connection", "round", round)
				return nil
			}
			if ctx.Err() != nil {
				continue
			}
			slog.Error("commit failed", "round", round, "error", err)
		}
	}
}

// RunRound collects a snapshot and runs the policy over it. It does not
// commit. The returned round is 0 if the snapshot could not be taken.
func (a *Agent) RunRound(ctx context.Context) (int, rules.Result, error) {
	snap, err := a.Sim.Snapshot(ctx)
	if err != nil {
		return 0, rules.Result{}, fmt.Errorf("collect snapshot: %w", err)
	}

	a.executed = a.executed[:0]
	turn := rules.NewTurn(a.Sim, a.gate, a.rng, a.Options, snap)
	res, err := a.evaluate(ctx, turn, snap)

	slog.Info("round played",
		"round", snap.Round,
		"planet", snap.Planet.String(),
		"units", len(snap.Units),
		"by_type", snap.CountByType(),
		"acted", res.Acted,
		"karbonite", turn.Karbonite(),
	)

	if a.Journal != nil {
		rec := journal.Round{
			Round:     snap.Round,
			Planet:    snap.Planet,
			Units:     len(snap.Units),
			Acted:     res.Acted,
			Karbonite: turn.Karbonite(),
			Intents:   append([]model.Intent(nil), a.executed...),
		}
		if err != nil {
			rec.Err = err.Error()
		}
		if jerr := a.Journal.Record(ctx, rec); jerr != nil {
			slog.Warn("journal write failed", "round", snap.Round, "error", jerr)
		}
	}
	return snap.Round, res, err
}

// evaluate contains anything the engine itself lets escape.
func (a *Agent) evaluate(ctx context.Context, t *rules.Turn, snap model.GameSnapshot) (res rules.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("policy panic: %v\n%s", r, debug.Stack())
		}
	}()
	return a.Engine.Evaluate(ctx, t, snap)
}

func logRoundError(round int, err error) {
	var ue *rules.UnitError
	if errors.As(err, &ue) {
		slog.Error("round failed", "round", round, "unit", ue.UnitID, "rule", ue.Rule, "error", ue.Err)
		return
	}
	slog.Error("round failed", "round", round, "error", err)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/nstehr/vimy/vimy-bc/agent"
	"github.com/nstehr/vimy/vimy-bc/config"
	"github.com/nstehr/vimy/vimy-bc/ipc"
	"github.com/nstehr/vimy/vimy-bc/journal"
	"github.com/nstehr/vimy/vimy-bc/rules"
)

const banner = `
██╗   ██╗██╗███╗   ███╗██╗   ██╗      ██████╗  ██████╗
██║   ██║██║████╗ ████║╚██╗ ██╔╝      ██╔══██╗██╔════╝
██║   ██║██║██╔████╔██║ ╚████╔╝ █████╗██████╔╝██║
╚██╗ ██╔╝██║██║╚██╔╝██║  ╚██╔╝  ╚════╝██╔══██╗██║
 ╚████╔╝ ██║██║ ╚═╝ ██║   ██║         ██████╔╝╚██████╗
  ╚═══╝  ╚═╝╚═╝     ╚═╝   ╚═╝         ╚═════╝  ╚═════╝

Rule-Driven Two-Planet Player`

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults are used when empty)")
	addr := flag.String("addr", "", "simulator address, overrides config when set (unix:///path, tcp://host:port, ws://host/path)")
	seed := flag.Int64("seed", 0, "random seed, overrides config when set")
	envFile := flag.String("env-file", ".env", "dotenv file with BC_* overrides, skipped when absent")
	flag.Parse()

	fmt.Println(banner)

	if err := config.LoadEnvFile(*envFile); err != nil {
		slog.Error("failed to load env file", "path", *envFile, "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	cfg = applyFlags(cfg, set, *addr, *seed)

	level, err := cfg.Level()
	if err != nil {
		slog.Error("invalid log level", "level", cfg.LogLevel, "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	// Every line carries the session so interleaved games can be told apart.
	slog.SetDefault(logger.With("session", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	slog.Info("shutting down")
}

// applyFlags overrides cfg with the command-line values the user actually
// passed, so a zero seed or empty address on the command line still wins.
func applyFlags(cfg config.Config, set map[string]bool, addr string, seed int64) config.Config {
	if set["addr"] {
		cfg.Simulator.Addr = addr
	}
	if set["seed"] {
		cfg.Seed = seed
	}
	return cfg
}

func run(ctx context.Context, cfg config.Config) error {
	slog.Info("starting vimy-bc", "simulator", cfg.Simulator.Addr, "seed", cfg.Seed)

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	research, err := cfg.ResearchQueue()
	if err != nil {
		return err
	}

	client, err := ipc.Dial(ctx, cfg.Simulator.Addr)
	if err != nil {
		return err
	}
	defer client.Close()
	// A blocked NextTurn only returns once the transport is closed.
	context.AfterFunc(ctx, func() { _ = client.Close() })

	welcome, err := client.Hello(ctx, cfg.Player)
	if err != nil {
		return fmt.Errorf("hello: %w", err)
	}
	slog.Info("player identified", "player", cfg.Player, "team", welcome.Team, "planet", welcome.Planet.String())

	engine, err := rules.PolicyFor(welcome.Planet)
	if err != nil {
		return err
	}

	a := agent.New(client, engine, opts, cfg.Seed)
	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()
		a.Journal = j
		slog.Info("journal enabled", "path", cfg.Journal)
	}

	if err := agent.Setup(ctx, client, research); err != nil {
		return err
	}
	return a.Run(ctx)
}

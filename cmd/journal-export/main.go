// Command journal-export dumps a player's intent journal as a compressed
// JSON-lines replay file.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/nstehr/vimy/vimy-bc/journal"
)

func main() {
	in := flag.String("journal", "", "sqlite journal written by the player")
	out := flag.String("out", "replay.jsonl.zst", "output file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if *in == "" {
		slog.Error("missing --journal")
		os.Exit(2)
	}
	if err := export(context.Background(), *in, *out); err != nil {
		slog.Error("export failed", "journal", *in, "error", err)
		os.Exit(1)
	}
}

func export(ctx context.Context, in, out string) error {
	j, err := journal.Open(in)
	if err != nil {
		return err
	}
	defer j.Close()

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	n, err := j.Export(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	slog.Info("journal exported", "rounds", n, "out", out)
	return nil
}

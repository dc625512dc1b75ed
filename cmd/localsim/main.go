// Command localsim hosts an in-memory practice game so the player can be run
// end to end without the real engine.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/nstehr/vimy/vimy-bc/ipc"
	"github.com/nstehr/vimy/vimy-bc/model"
	"github.com/nstehr/vimy/vimy-bc/simtest"
)

const incomePerRound = 10

func main() {
	listen := flag.String("listen", "unix:///tmp/bc.sock", "listen address: unix:///path, tcp://host:port or ws://host:port/path")
	planetName := flag.String("planet", "earth", "planet the player starts on")
	team := flag.String("team", "red", "team assigned to the player")
	karbonite := flag.Int("karbonite", 300, "starting karbonite")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	planet, err := model.ParsePlanet(*planetName)
	if err != nil {
		slog.Error("invalid planet", "error", err)
		os.Exit(1)
	}
	u, err := url.Parse(*listen)
	if err != nil {
		slog.Error("invalid listen address", "addr", *listen, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	newGame := func() *simtest.World {
		return newWorld(model.Team(*team), planet, *karbonite)
	}

	switch u.Scheme {
	case "unix", "tcp":
		err = serveStream(ctx, u, newGame)
	case "ws":
		err = serveWebSocket(ctx, u, newGame)
	default:
		slog.Error("unsupported listen scheme", "scheme", u.Scheme)
		os.Exit(1)
	}
	if err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("shutting down")
}

func serveStream(ctx context.Context, u *url.URL, newGame func() *simtest.World) error {
	network, addr := u.Scheme, u.Host
	if network == "unix" {
		addr = u.Path
		// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
		if err := os.RemoveAll(addr); err != nil {
			return err
		}
		defer os.Remove(addr)
	}

	listener, err := net.Listen(network, addr)
	if err != nil {
		return err
	}
	context.AfterFunc(ctx, func() { _ = listener.Close() })
	slog.Info("listening", "network", network, "addr", addr)

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				slog.Error("failed to accept connection", "error", err)
				continue
			}
		}
		slog.Info("new connection accepted")
		go ipc.Serve(ctx, ipc.NewStreamTransport(conn), newGame())
	}
}

func serveWebSocket(ctx context.Context, u *url.URL, newGame func() *simtest.World) error {
	upgrader := websocket.Upgrader{}
	path := u.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "error", err)
			return
		}
		slog.Info("new connection accepted", "remote", r.RemoteAddr)
		ipc.Serve(ctx, ipc.NewWebSocketTransport(conn), newGame())
	})

	srv := &http.Server{Addr: u.Host, Handler: mux}
	context.AfterFunc(ctx, func() { _ = srv.Close() })
	slog.Info("listening", "network", "ws", "addr", u.Host, "path", path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newWorld lays out a small opening: a factory and two workers for the
// player, an enemy knight nearby and a loaded rocket on Mars.
func newWorld(team model.Team, planet model.Planet, karbonite int) *simtest.World {
	w := simtest.New(team, planet)
	w.Karbonite = karbonite
	w.BeforeRound = func(w *simtest.World) {
		w.Karbonite += incomePerRound
		slog.Debug("round started", "round", w.Round, "karbonite", w.Karbonite)
	}

	opponent := model.Team("blue")
	if team == opponent {
		opponent = "red"
	}

	switch planet {
	case model.Earth:
		w.Add(model.Unit{Type: model.Factory, Location: model.At(model.Earth, 4, 4), Built: true})
		w.Add(model.Unit{Type: model.Worker, Location: model.At(model.Earth, 6, 5)})
		w.Add(model.Unit{Type: model.Worker, Location: model.At(model.Earth, 9, 9)})
		w.Add(model.Unit{Type: model.Knight, Team: opponent, Location: model.At(model.Earth, 15, 15)})
	case model.Mars:
		const rocket = 1
		w.Add(model.Unit{ID: rocket, Type: model.Rocket, Location: model.At(model.Mars, 10, 10), Built: true, Garrison: []int{2, 3}})
		w.Add(model.Unit{ID: 2, Type: model.Worker, Location: model.Inside(rocket)})
		w.Add(model.Unit{ID: 3, Type: model.Knight, Location: model.Inside(rocket)})
	}
	return w
}

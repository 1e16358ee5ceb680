// relay — CLI entry point.
//
// Connects to a third-party relay server as either a bare client or a
// multiplexing host and runs the cooperative drain loop. The host side
// echoes every peer payload back to its sender, which makes the tool a
// self-contained way to exercise a relay deployment end to end.
//
// It can be launched interactively (no flags) or non-interactively via CLI
// flags (-role, -relay, -tick).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/vrecluse/Mirror/internal/config"
	"github.com/vrecluse/Mirror/internal/frame"
	"github.com/vrecluse/Mirror/internal/relay"
	"github.com/vrecluse/Mirror/internal/util"
)

var version = "dev"

func main() {
	// Root context — cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	role := flag.String("role", "", "Role: host or client")
	endpoint := flag.String("relay", "", "Relay endpoint, e.g. tcp4://relay.example.com:7777")
	tick := flag.Duration("tick", 16*time.Millisecond, "Drain cycle interval")
	budget := flag.Int("budget", 0, "Max receives per tick (0 = role default)")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("relay — v%s", version))
	pterm.Println()

	cfg := config.Default()
	if *budget > 0 {
		cfg.MaxReceivesPerTickClient = *budget
		cfg.MaxReceivesPerTickServer = *budget
	}

	switch *role {
	case "":
		runInteractive(ctx, cfg)

	case "host":
		if *endpoint == "" {
			util.LogError("missing -relay endpoint")
			os.Exit(1)
		}
		runHost(ctx, cfg, *endpoint, *tick)

	case "client":
		if *endpoint == "" {
			util.LogError("missing -relay endpoint")
			os.Exit(1)
		}
		runClient(ctx, cfg, *endpoint, *tick)

	default:
		util.LogError("invalid -role: must be 'host' or 'client'")
		os.Exit(1)
	}

	util.LogInfo("relay session closed")
}

// ---------------------------------------------------------------------------
// Run modes
// ---------------------------------------------------------------------------

// runInteractive falls back to interactive prompts when no -role flag is
// provided.
func runInteractive(ctx context.Context, cfg config.Config) {
	role, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"Host   — Serve many peers through the relay", "Client — Join a host through the relay"}).
		WithDefaultText("Select your role").
		Show()

	pterm.Println()
	endpoint := askEndpoint()

	if strings.HasPrefix(role, "Host") {
		runHost(ctx, cfg, endpoint, 16*time.Millisecond)
	} else {
		runClient(ctx, cfg, endpoint, 16*time.Millisecond)
	}
}

// runHost registers with the relay on behalf of a server and echoes every
// peer payload back to its sender.
func runHost(ctx context.Context, cfg config.Config, endpoint string, tick time.Duration) {
	var tr *relay.Transport
	tr = mustTransport(cfg, relay.Callbacks{
		OnPeerConnected: func(id frame.ConnID) {
			util.LogInfo("peer %d connected", id)
		},
		OnPeerData: func(id frame.ConnID, payload []byte) {
			util.LogDebug("peer %d sent %d bytes", id, len(payload))
			if err := tr.SendTo(id, payload); err != nil {
				util.LogWarning("echo to peer %d failed: %v", id, err)
			}
		},
		OnPeerDisconnected: func(id frame.ConnID) {
			util.LogInfo("peer %d disconnected", id)
		},
		OnRelayLost: func(err error) {
			util.LogError("%v", err)
		},
	})

	if err := tr.StartHost(ctx, endpoint); err != nil {
		util.LogError("failed to start host: %v", err)
		os.Exit(1)
	}

	util.StartStatsReporter(ctx)
	runDrainLoop(ctx, tr, tick)
}

// runClient joins a host through the relay and logs whatever arrives.
func runClient(ctx context.Context, cfg config.Config, endpoint string, tick time.Duration) {
	tr := mustTransport(cfg, relay.Callbacks{
		OnConnected: func() {
			util.LogInfo("connected to host via relay")
		},
		OnData: func(payload []byte) {
			util.LogInfo("received %d bytes: %q", len(payload), payload)
		},
		OnDisconnected: func() {
			util.LogInfo("disconnected from relay")
		},
	})

	if err := tr.StartClient(ctx, endpoint); err != nil {
		util.LogError("failed to start client: %v", err)
		os.Exit(1)
	}

	util.StartStatsReporter(ctx)
	runDrainLoop(ctx, tr, tick)
}

// runDrainLoop ticks the transport until shutdown or fatal relay loss.
func runDrainLoop(ctx context.Context, tr *relay.Transport, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := tr.Drain(); err != nil {
				os.Exit(1)
			}
			if !tr.Active() {
				return
			}
		case <-ctx.Done():
			tr.Shutdown()
			return
		}
	}
}

func mustTransport(cfg config.Config, cb relay.Callbacks) *relay.Transport {
	tr, err := relay.New(cfg, cb)
	if err != nil {
		util.LogError("invalid configuration: %v", err)
		os.Exit(1)
	}
	return tr
}

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

// askEndpoint prompts the user for a relay endpoint until a valid one is
// entered.
func askEndpoint() string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Relay endpoint (e.g. tcp4://relay.example.com:7777)").
			Show()

		if _, err := config.ParseEndpoint(raw); err == nil {
			pterm.Println()
			return strings.TrimSpace(raw)
		}

		util.LogWarning("invalid endpoint: expected tcp4://host:port or ws://host:port")
		pterm.Println()
	}
}

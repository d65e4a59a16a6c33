package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/config"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/core/assets"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/core/auction"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/events"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/rpc"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/eventlog"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/relationaldb"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/relationaldb/postgres"
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the auction exchange daemon",
	Long: `Start the dutchd server which provides:
- HTTP JSON-RPC API endpoints for creating, querying, executing and
  cancelling auctions
- WebSocket server for real-time auction event subscriptions
- Persistent append-only event log
- Optional relational index for auction queries`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server as the default command
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServer(cmd, args)
	}
}

// buildRegistry seeds the configured token ledgers and binds each to the
// engine's escrow account.
func buildRegistry(cfg *config.Config) assets.MapRegistry {
	registry := make(assets.MapRegistry, len(cfg.Assets))
	for _, assetCfg := range cfg.Assets {
		token := assets.NewTokenLedger(assetCfg.ID)
		for account, amount := range assetCfg.Balances {
			token.Mint(account, amount)
		}
		for account, amount := range assetCfg.Approvals {
			token.Approve(account, auction.EscrowAccount, amount)
		}
		registry[assetCfg.ID] = token.Binding(auction.EscrowAccount)
	}
	return registry
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if !quiet {
		fmt.Println("Starting dutchd - reverse Dutch auction exchange")
		if path := cfg.GetConfigPath(); path != "" {
			fmt.Printf("  config: %s\n", path)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	defer bus.Close()

	ledger := auction.NewLedger(buildRegistry(cfg), auction.WithPublisher(bus))

	services := &rpc.ServiceContainer{
		Ledger:  ledger,
		Started: time.Now(),
	}

	// Persistent event log
	if cfg.EventLog.Enabled {
		eventLog, err := eventlog.Open(&cfg.EventLog.Config)
		if err != nil {
			return fmt.Errorf("failed to open event log: %w", err)
		}
		defer eventLog.Close()

		sub, cancel := bus.Subscribe()
		defer cancel()
		go eventLog.Consume(sub)

		services.EventLog = eventLog
		if !quiet {
			fmt.Printf("  event log: %s\n", cfg.EventLog.Config.String())
		}
	}

	// Relational index
	if cfg.Index.Enabled {
		repos, err := postgres.NewRepositoryManager(&cfg.Index.Config)
		if err != nil {
			return fmt.Errorf("failed to build index: %w", err)
		}
		if err := repos.Open(ctx); err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}
		defer repos.Close(context.Background())

		indexer := relationaldb.NewIndexer(repos)
		sub, cancel := bus.Subscribe()
		defer cancel()
		if err := indexer.Start(ctx, sub); err != nil {
			return fmt.Errorf("failed to start indexer: %w", err)
		}
		defer indexer.Stop()

		services.Index = repos
		if !quiet {
			fmt.Printf("  index: %s\n", cfg.Index.Config.String())
		}
	}

	rpc.SetServices(services)

	timeout := time.Duration(cfg.Server.RPCTimeoutSecs) * time.Second
	httpServer := rpc.NewServer(timeout)
	wsServer := rpc.NewWebSocketServer(timeout)

	wsSub, wsCancel := bus.Subscribe()
	defer wsCancel()
	wsServer.Consume(wsSub)

	mux := http.NewServeMux()
	mux.Handle("/", httpServer)
	mux.Handle("/rpc", httpServer)
	mux.Handle("/ws", wsServer)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"dutchd"}`))
	})

	listenAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.Port)
	server := &http.Server{
		Addr:    listenAddr,
		Handler: mux,
	}

	if !quiet {
		fmt.Printf("  HTTP JSON-RPC: http://localhost:%d/\n", cfg.Server.Port)
		fmt.Printf("  WebSocket:     ws://localhost:%d/ws\n", cfg.Server.Port)
		fmt.Printf("  Health check:  http://localhost:%d/health\n", cfg.Server.Port)
		fmt.Printf("Listening on %s\n", listenAddr)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Println("dutchd stopped")
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"duel/internal/api"
	"duel/internal/game"
	"duel/internal/oracle"
	"duel/internal/store"
)

func main() {
	port := flag.String("port", "8090", "server port")
	dbPath := flag.String("db", "duel.db", "SQLite database path")
	corsOrigins := flag.String("cors", "", "comma-separated allowed CORS origins (empty = allow all for dev)")
	stakeToken := flag.String("stake-token", "GOLD", "staking token symbol")
	assetSpec := flag.String("assets", "ALPHA:5000,BETA:3000", "tradeable assets as symbol:startprice pairs")
	freshnessSec := flag.Int("freshness", 30, "max oracle quote age in seconds")
	tickMs := flag.Int("tick", 1000, "oracle price tick interval in milliseconds")
	walkStep := flag.Int64("walk-step", 25, "max price move per tick in cents")
	flag.Parse()

	assets, err := parseAssets(*assetSpec)
	if err != nil {
		log.Fatalf("Invalid -assets: %v", err)
	}

	st, err := store.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Synthetic oracle feed; quotes go stale on their own if it stops.
	feed := oracle.NewWalk(assets, *walkStep)
	feed.Start(time.Duration(*tickMs) * time.Millisecond)

	hub := api.NewHub()

	registry := game.NewRegistry(game.RegistryConfig{
		Oracle:     feed,
		Freshness:  time.Duration(*freshnessSec) * time.Second,
		StakeToken: *stakeToken,
		Tokens:     st.Wallet(),
		Notifier:   hub,
	})

	server := api.NewServer(registry, st, hub, feed)

	if *corsOrigins != "" {
		origins := strings.Split(*corsOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		server.SetCORSOrigins(origins)
		log.Printf("CORS restricted to: %v", origins)
	}

	// Push current quotes to websocket clients alongside game events.
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			hub.Broadcast(map[string]interface{}{
				"type": "prices",
				"data": feed.Quotes(),
			})
		}
	}()

	addr := ":" + *port
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("Starting duel server on http://localhost%s", addr)
		log.Printf("Staking token: %s, assets: %s", *stakeToken, *assetSpec)
		log.Printf("Database: %s", *dbPath)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	feed.Stop()
	server.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := st.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}
	log.Println("Server shutdown complete")
}

// parseAssets parses "SYM:price,SYM:price" into starting quotes.
func parseAssets(spec string) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sym, priceStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("expected symbol:price, got %q", part)
		}
		price, err := strconv.ParseInt(priceStr, 10, 64)
		if err != nil || price <= 0 {
			return nil, fmt.Errorf("bad price in %q", part)
		}
		out[sym] = price
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no assets configured")
	}
	return out, nil
}

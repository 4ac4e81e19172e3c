// Command anova-rest serves the cooker over a JSON REST API.
//
// Usage:
//
//	anova-rest [-config path] [-mac address] [-addr :5000]
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chaz8081/gocirculate/internal/api"
	"github.com/chaz8081/gocirculate/internal/app"
	"github.com/chaz8081/gocirculate/internal/ble"
)

func main() {
	flags := app.RegisterFlags(flag.CommandLine)
	addr := flag.String("addr", "", "listen address (overrides http.addr)")
	flag.Parse()

	cfg, err := app.Setup(flags, os.Stderr)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	app.PrintBanner(os.Stdout, "anova-rest", cfg)

	cooker := app.OpenCooker(cfg, ble.NewTinyGoAdapter())
	defer cooker.Close()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewServer(cooker.Controller, cfg.HTTP.StreamInterval).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("ERROR: http server: %v", err)
		}
	case sig := <-sigCh:
		log.Printf("Received %s, shutting down...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("ERROR: http shutdown: %v", err)
		}
	}

	log.Println("Goodbye!")
}

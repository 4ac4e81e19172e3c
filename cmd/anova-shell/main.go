// Command anova-shell is an interactive prompt for the cooker.
//
// Usage:
//
//	anova-shell [-config path] [-mac address]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chaz8081/gocirculate/internal/app"
	"github.com/chaz8081/gocirculate/internal/ble"
	"github.com/chaz8081/gocirculate/internal/shell"
)

func main() {
	flags := app.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := app.Setup(flags, os.Stderr)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app.PrintBanner(os.Stdout, "anova-shell", cfg)

	cooker := app.OpenCooker(cfg, ble.NewTinyGoAdapter())
	defer cooker.Close()

	sh, err := shell.New(cooker.Link)
	if err != nil {
		log.Fatalf("shell: %v", err)
	}
	// Keep log lines from tearing the prompt.
	app.SetupLogging(cfg.LogLevel, sh.Stdout())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	sh.Run(ctx)
}

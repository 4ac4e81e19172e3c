// Command anova-mcp serves the cooker as MCP tools over stdio.
//
// Usage:
//
//	anova-mcp [-config path] [-mac address]
package main

import (
	"flag"
	"log"
	"os"

	"github.com/chaz8081/gocirculate/internal/app"
	"github.com/chaz8081/gocirculate/internal/ble"
	"github.com/chaz8081/gocirculate/internal/mcptools"
)

const version = "0.1.0"

func main() {
	flags := app.RegisterFlags(flag.CommandLine)
	flag.Parse()

	// stdout carries the protocol; everything else goes to stderr.
	log.SetOutput(os.Stderr)

	cfg, err := app.Setup(flags, os.Stderr)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	cooker := app.OpenCooker(cfg, ble.NewTinyGoAdapter())
	defer cooker.Close()

	log.Printf("Serving MCP tools for %s on stdio", cfg.Device.Address)
	if err := mcptools.NewServer(cooker.Controller, version).ServeStdio(); err != nil {
		log.Printf("ERROR: mcp server: %v", err)
	}
}

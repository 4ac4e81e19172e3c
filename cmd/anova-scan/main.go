// Command anova-scan lists nearby cookers and can write a starter config.
//
// Usage:
//
//	anova-scan [-timeout 10s] [-init]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/chaz8081/gocirculate/internal/app"
	"github.com/chaz8081/gocirculate/internal/ble"
	"github.com/chaz8081/gocirculate/internal/config"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Second, "how long to scan")
	initConfig := flag.Bool("init", false, "write a default config file if none exists")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	app.SetupLogging(*logLevel, os.Stderr)

	if *initConfig {
		path, err := config.WriteDefault()
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		if path == "" {
			log.Printf("Config already exists at %s", config.DefaultConfigPath())
		} else {
			log.Printf("Wrote default config to %s", path)
		}
	}

	fmt.Printf("Scanning for cookers (%s)...\n", *timeout)
	devices, err := ble.ScanForDevices(ble.NewTinyGoAdapter(), *timeout)
	if err != nil {
		log.Fatalf("scan: %v", err)
	}

	if len(devices) == 0 {
		fmt.Println("No cookers found. Make sure the cooker is on and not connected to a phone.")
		os.Exit(1)
	}

	for _, d := range devices {
		name := d.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("  %-20s %s  RSSI %d\n", name, d.MAC, d.RSSI)
	}
	fmt.Printf("\nSet device.address in %s to one of the addresses above.\n", config.DefaultConfigPath())
}

// Command anova-warmup sets the target temperature and starts the cooker.
//
// Usage:
//
//	anova-warmup [-config path] [-mac address] [-temp 130]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/chaz8081/gocirculate/internal/anova"
	"github.com/chaz8081/gocirculate/internal/app"
	"github.com/chaz8081/gocirculate/internal/ble"
)

func main() {
	flags := app.RegisterFlags(flag.CommandLine)
	temp := flag.Float64("temp", 130.0, "target temperature in the cooker's unit")
	flag.Parse()

	cfg, err := app.Setup(flags, os.Stderr)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	err = ble.WithSession(ctx, ble.NewTinyGoAdapter(), cfg.Device.Address, cfg.SessionOptions(), func(s *ble.Session) error {
		return warmup(ctx, s, *temp)
	})
	if err != nil {
		log.Fatalf("warmup: %v", err)
	}
}

func warmup(ctx context.Context, s *ble.Session, temp float64) error {
	cooker := anova.NewController(s)

	fmt.Println(time.Now().Format(time.DateTime))

	current, err := cooker.ReadTemp(ctx)
	if err != nil {
		return err
	}
	unit, err := cooker.ReadUnit(ctx)
	if err != nil {
		return err
	}
	fmt.Println(current, unit)

	for _, step := range []func(context.Context) (string, error){
		func(ctx context.Context) (string, error) { return cooker.SetTemp(ctx, temp) },
		cooker.Start,
		cooker.Status,
	} {
		resp, err := step(ctx)
		if err != nil {
			return err
		}
		fmt.Println(resp)
	}
	return nil
}

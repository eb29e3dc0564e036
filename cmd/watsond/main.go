// Command watsond drives the calendar core's refresh pipeline standalone:
// it loads the on-disk event cache, refreshes every configured credential
// once, then re-evaluates the draw window every 60 seconds, logging
// every store update until interrupted. The widget toolkit, renderer,
// and daemon/client socket protocol it would normally feed are external
// collaborators (spec.md §1 Non-goals) and are not part of this binary.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/watson-app/watson/internal/layout"
	"github.com/watson-app/watson/internal/logging"
	"github.com/watson-app/watson/internal/orchestrator"
)

func main() {
	var (
		logLevel    string
		hoursPast   uint
		hoursFuture uint
	)
	flag.StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flag.UintVar(&hoursPast, "hours-past", 4, "hours of the timed grid shown before the current time")
	flag.UintVar(&hoursFuture, "hours-future", 8, "hours of the timed grid shown after the current time")
	flag.Parse()

	logger := logging.New(logLevel)

	window := layout.Window{HoursPast: uint8(hoursPast), HoursFuture: uint8(hoursFuture)}

	o, err := orchestrator.Load(window)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load event cache")
	}

	ctx, cancel := context.WithCancel(logging.WithContext(context.Background(), logger))
	defer cancel()

	go o.Run(ctx)

	o.Refresh(ctx, nil)
	logger.Info().Msg("refresh started")

	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-o.Updated:
			logger.Info().Msg("store updated, redraw requested")
		case now := <-ticker.C:
			o.Tick(now, 0, 0)
		case <-sig:
			logger.Info().Msg("bye")
			return
		}
	}
}

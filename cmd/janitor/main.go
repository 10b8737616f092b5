package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kirillkom/personal-ai-assistant/internal/bootstrap"
	"github.com/kirillkom/personal-ai-assistant/internal/config"
)

// cmd/janitor has no teacher counterpart: session-memory expiry is a
// domain concern the original chat assistant didn't have, so this
// binary schedules SessionUseCase.JanitorSweep on its own.
func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		panic("bootstrap error: " + err.Error())
	}
	defer app.Close()

	sweep := func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := app.SessionJanitor().JanitorSweep(sweepCtx)
		if err != nil {
			app.Logger.Error().Err(err).Msg("session janitor sweep failed")
			return
		}
		app.Logger.Info().Int("expired", n).Msg("session janitor sweep complete")
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", sweep); err != nil {
		app.Logger.Fatal().Err(err).Msg("schedule janitor sweep")
	}
	scheduler.Start()
	defer scheduler.Stop()

	app.Logger.Info().Msg("session janitor started, sweeping hourly")
	sweep()

	<-ctx.Done()
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/personal-ai-assistant/internal/bootstrap"
	"github.com/kirillkom/personal-ai-assistant/internal/config"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		panic("bootstrap error: " + err.Error())
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.Worker.Handler(),
	}
	go func() {
		app.Logger.Info().Str("port", cfg.WorkerMetricsPort).Msg("worker metrics listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Error().Err(err).Msg("worker metrics server error")
		}
	}()

	app.Logger.Info().Str("subject", cfg.NATSSubject).Msg("worker subscribed")
	err = app.Queue.SubscribeDocumentUploaded(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		app.Worker.StartDocument()
		start := time.Now()
		err := app.ProcessUC.ProcessByID(processCtx, documentID)
		app.Worker.FinishDocument("worker", time.Since(start), err)
		if err != nil {
			app.Logger.Error().Err(err).Str("document_id", documentID).Msg("document processing failed")
		}
		return err
	})
	if err != nil {
		app.Logger.Fatal().Err(err).Msg("worker subscribe error")
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}

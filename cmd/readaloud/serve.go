package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobarin/readaloud/internal/api"
	"github.com/bobarin/readaloud/internal/tts"
)

var flagPort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the synthesis HTTP API",
	Long: `serve starts an HTTP server exposing the pipeline:

  POST /v1/speech   synthesize text, returns audio/wav
  GET  /v1/voices   list available voices
  GET  /health      liveness probe

Set BACKEND_API_KEY to require authentication on the /v1 routes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagPort, "port", "", "listen port (default from API_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.APIPort = flagPort
	}

	log, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	engine, err := tts.FromConfig(cfg, log)
	if err != nil {
		return err
	}
	// A failed probe is not fatal here: the backing service may come up
	// after the server does, and requests report their own errors.
	if checker, ok := engine.(tts.Checker); ok {
		if err := checker.Check(cmd.Context()); err != nil {
			log.Warnf("engine check failed: %v", err)
		}
	}

	handler := api.NewHandler(engine, cfg, log)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Infof("API key authentication enabled")
	} else {
		log.Warnf("no BACKEND_API_KEY set, API is unprotected (dev mode)")
	}

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	go func() {
		log.Infof("listening on :%s (engine=%s, voice=%s)", cfg.APIPort, engine.Name(), cfg.Voice)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Infof("server exited")
	return nil
}

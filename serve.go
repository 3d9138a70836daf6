package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/CrowderSoup/smartcalendar/handlers"
	"github.com/CrowderSoup/smartcalendar/services"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and websocket server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := a.store.Initialize(ctx); err != nil {
		return err
	}
	if a.cfg.UsesDefaultSecret() {
		a.log.Warn().Msg("JWT_SECRET is not set, using the built-in development secret")
	}

	// Initialize services
	authService := services.NewAuthService(a.kv, a.cfg.JWTSecret)

	// Initialize WebSocket hub
	hub := services.NewHub(a.log.With().Str("component", "hub").Logger())
	go hub.Run(ctx)

	// Initialize handlers
	handlerLog := a.log.With().Str("component", "http").Logger()
	router := handlers.NewRouter(
		handlers.NewDataHandler(a.store, hub, handlerLog),
		handlers.NewAuthHandler(authService, handlerLog),
		handlers.NewAuthMiddleware(authService, handlerLog),
	)

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   a.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      c.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("port", a.cfg.Port).Str("db", a.cfg.DatabasePath).Msg("server starting")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

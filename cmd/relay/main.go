package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"dm-relay/auth"
	"dm-relay/handlers"
	"dm-relay/moderation"
	"dm-relay/observability"
	"dm-relay/repositories"
	"dm-relay/runtime"
	"dm-relay/runtime/workers"
	"dm-relay/services"
	"dm-relay/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for HTTP and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Moderation dictionaries
	censored, err := moderation.LoadCensoredWords()
	if err != nil {
		return fmt.Errorf("censored words loading failed: %w", err)
	}
	moderator, err := moderation.NewModerator(censored.Words, config.ModerationCharReplacement)
	if err != nil {
		return fmt.Errorf("moderator build failed: %w", err)
	}
	log.Info("Moderation ready", "words", len(censored.Words), "languages", censored.Languages)

	// 4. Relay pipeline
	monitor := observability.NewMonitor()
	registry := runtime.NewRegistry()
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	userRepository := repositories.NewUserRepository(db)

	engine := runtime.NewEngine(log, registry, messageRepository, userRepository,
		&moderator, monitor, config.MaxBodyLength)
	replayer := runtime.NewReplayer(log, messageRepository, monitor)

	// 5. Background workers under supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewHeartbeatWorker(log, registry, monitor, config.HeartbeatInterval))
	sup.Add(workers.NewStorageGCWorker(log, db, config.StorageGCInterval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sup.Run(ctx)

	// 6. HTTP & Websocket surface
	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(userRepository, tokens)
	relayService := services.NewRelayService(messageRepository, registry, monitor)

	authHandler := handlers.NewAuthHandler(log, authService)
	messageHandler := handlers.NewMessageHandler(log, relayService)
	statsHandler := handlers.NewStatsHandler(log, relayService)
	wsHandler := ws.NewHandler(log, tokens, registry, engine, replayer,
		config.ConnectionBufferSize, config.SinkTimeout)

	router := mux.NewRouter()
	router.HandleFunc("/signup", authHandler.Signup).Methods(http.MethodPost)
	router.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	router.HandleFunc("/ws", wsHandler.ServeWS)

	protected := router.NewRoute().Subrouter()
	protected.Use(handlers.Authenticate(log, tokens))
	protected.HandleFunc("/messages/{peer}", messageHandler.Thread).Methods(http.MethodGet)
	protected.HandleFunc("/debug/stats", statsHandler.Stats).Methods(http.MethodGet)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Websocket connections outlive any write deadline
	}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

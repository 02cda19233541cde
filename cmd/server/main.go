package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"pingme/auth"
	httpserver "pingme/infrastructure/http"
	"pingme/infrastructure/ws"
	"pingme/internal"
	"pingme/moderation"
	"pingme/repositories"
	"pingme/runtime"
	"pingme/runtime/workers"
	"pingme/search"
	"pingme/services"
	"pingme/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer gets to execute before the
// process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	auth.SetSigningKey([]byte(config.JWTSigningKey))

	// 2. Storage (BadgerDB, Bluge, media directory)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := search.OpenMessageIndex(config.BlugeFilepath, log)
	if err != nil {
		return fmt.Errorf("index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	mediaStore, err := storage.NewDiskStore(config.MediaDir, log)
	if err != nil {
		return fmt.Errorf("media store setup failed: %w", err)
	}

	// 3. Repositories
	messageRepository := repositories.NewMessageRepository(db, log)
	conversationRepository := repositories.NewConversationRepository(db, log)
	statusRepository := repositories.NewStatusRepository(db, log)
	userRepository := repositories.NewUserRepository(db)

	// 4. Realtime runtime
	registry := runtime.NewRegistry()
	presence := runtime.NewPresence(registry, userRepository, log)
	router := runtime.NewRouter(registry, log)
	typing := runtime.NewTypingCoordinator(router, config.TypingTimeout)

	// 5. Moderation
	maskRune, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(config.CensoredWords, maskRune)
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}

	// 6. Services
	indexOps := make(chan workers.IndexOp, config.IndexQueueSize)
	authService := services.NewAuthService(userRepository, config.AuthTokenDuration)
	chatService := services.NewChatService(
		messageRepository, conversationRepository,
		presence, router, &moderator, mediaStore, index, indexOps, log,
	)
	statusService := services.NewStatusService(statusRepository, router, &moderator, mediaStore, log)

	// 7. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 8. Background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewStatusReaperWorker(statusRepository, config.ReaperInterval, log),
		workers.NewIndexerWorker(index, indexOps, log),
	)
	go sup.Run(ctx)

	// 9. HTTP + socket server
	socketServer := ws.NewServer(
		presence, router, typing,
		chatService, statusService,
		config.SessionBufferSize, log,
	)
	handlers := httpserver.NewHandlers(authService, chatService, statusService)
	server := httpserver.NewServer(
		fmt.Sprintf("%s:%d", config.Host, config.Port),
		handlers, socketServer, config.MediaDir, log,
	)

	if config.DebugPort > 0 {
		internal.StartDebugServer(db, config.DebugPort, nil, nil)
		log.Info("Debug inspector started", "port", config.DebugPort)
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "host", config.Host, "port", config.Port, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	// 10. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 11. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

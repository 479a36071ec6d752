package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"

	"github.com/streambridge/streambridge/internal/api"
	"github.com/streambridge/streambridge/internal/config"
	"github.com/streambridge/streambridge/internal/database"
	"github.com/streambridge/streambridge/internal/logger"
	"github.com/streambridge/streambridge/internal/metadata/tmdb"
	"github.com/streambridge/streambridge/internal/websocket"
)

func main() {
	// .env is optional; real configuration comes from viper.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Path:   cfg.Logging.Path,
	})
	defer log.Close()

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = generateSecret()
		log.Warn().Msg("No JWT secret configured, generated an ephemeral one; sessions will not survive restarts")
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	provider := tmdb.NewClient(cfg.TMDB, log.Logger)
	if !provider.IsConfigured() {
		log.Warn().Msg("TMDB API key not configured, placeholder resolution will fail until one is set")
	}

	server := api.NewServer(db.Conn(), hub, cfg, provider, log.Logger)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Stremio.PruneInterval()),
		gocron.NewTask(func() {
			server.Placeholders().Prune()
		}),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule placeholder prune job")
	}
	scheduler.Start()
	defer scheduler.Shutdown()

	go func() {
		log.Info().Str("address", cfg.Server.Address()).Msg("Starting server")
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func generateSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

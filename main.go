package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/jonesrussell/studysearch/internal/api"
	"github.com/jonesrussell/studysearch/internal/cache"
	"github.com/jonesrussell/studysearch/internal/config"
	"github.com/jonesrussell/studysearch/internal/logger"
	"github.com/jonesrussell/studysearch/internal/provider"
	"github.com/jonesrussell/studysearch/internal/service"
	"github.com/jonesrussell/studysearch/internal/store"
	"github.com/jonesrussell/studysearch/internal/synthesis"
)

func main() {
	os.Exit(run())
}

func run() int {
	startPprofServer()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logg, err := createLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logg.Sync() }()

	logg.Info("Starting study curator service",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
		logger.Bool("debug", cfg.Service.Debug),
	)

	curation, err := buildPipeline(cfg, logg)
	if err != nil {
		logg.Error("Failed to build pipeline", logger.Error(err))
		return 1
	}

	return runServer(cfg, curation, logg)
}

// loadConfig loads configuration from the config file.
func loadConfig() (*config.Config, error) {
	return config.Load(config.GetConfigPath("config.yml"))
}

// createLogger creates a logger instance from configuration.
func createLogger(cfg *config.Config) (logger.Logger, error) {
	logg, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, err
	}
	return logg.With(logger.String("service", cfg.Service.Name)), nil
}

// buildPipeline assembles the cache, search provider, synthesizer, and
// optional archive into the curation service.
func buildPipeline(cfg *config.Config, logg logger.Logger) (*service.CurationService, error) {
	cacheStore, err := buildCache(cfg, logg)
	if err != nil {
		return nil, err
	}

	searcher := provider.NewTavilyClient(provider.TavilyConfig{
		BaseURL: cfg.Search.BaseURL,
		APIKey:  cfg.Search.APIKey,
		Timeout: cfg.Search.Timeout,
	}, logg)

	completer := synthesis.NewClaudeCompleter(synthesis.Config{
		APIKey:      cfg.Synthesis.APIKey,
		Model:       cfg.Synthesis.Model,
		MaxTokens:   cfg.Synthesis.MaxTokens,
		Temperature: cfg.Synthesis.Temperature,
		Timeout:     cfg.Synthesis.Timeout,
	})
	synthesizer := synthesis.NewSynthesizer(completer, cfg.Synthesis.Timeout, logg)

	var archive store.Archive
	if cfg.Store.Enabled {
		logg.Info("Connecting to Elasticsearch", logger.String("url", cfg.Store.URL))
		client, storeErr := store.NewClient(&cfg.Store, logg)
		if storeErr != nil {
			return nil, storeErr
		}
		archive = client
		logg.Info("Successfully connected to Elasticsearch")
	}

	metrics := service.NewMetrics(registry)
	return service.NewCurationService(cfg, searcher, synthesizer, cacheStore, archive, logg, metrics), nil
}

// registry is the process-wide Prometheus registry shared by the pipeline
// collectors and the HTTP middleware.
var registry = api.NewRegistry()

// buildCache selects the cache backend from configuration.
func buildCache(cfg *config.Config, logg logger.Logger) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "redis":
		logg.Info("Using redis cache backend", logger.String("address", cfg.Cache.Redis.Address))
		return cache.NewRedisStore(cache.RedisOptions{
			Address:  cfg.Cache.Redis.Address,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		}, cfg.Cache.TTL)
	default:
		return cache.NewMemoryStore(cfg.Cache.TTL), nil
	}
}

// runServer wires the HTTP layer and blocks until shutdown.
func runServer(cfg *config.Config, curation *service.CurationService, logg logger.Logger) int {
	handler := api.NewHandler(curation, cfg.Service.Name, cfg.Service.Version, logg)
	server := api.NewServer(cfg, handler, registry, logg)

	if err := server.Run(context.Background()); err != nil {
		logg.Error("Server error", logger.Error(err))
		return 1
	}

	logg.Info("Study curator service exited cleanly")
	return 0
}

// startPprofServer exposes pprof on a localhost side port when
// ENABLE_PROFILING=true.
func startPprofServer() {
	if os.Getenv("ENABLE_PROFILING") != "true" {
		return
	}

	port := os.Getenv("PPROF_PORT")
	if port == "" {
		port = "6060"
	}
	addr := "localhost:" + port

	go func() {
		log.Printf("Starting pprof server on %s", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Printf("pprof server error: %v", err)
		}
	}()
}

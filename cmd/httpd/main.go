package main

import (
	"context"
	"fmt"
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
	cfg, err := config.Load(config.GetConfigPath("config.yml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logg, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logg.Sync() }()

	logg = logg.With(logger.String("service", cfg.Service.Name))

	logg.Info("Starting study curator service",
		logger.String("name", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
		logger.Bool("debug", cfg.Service.Debug),
	)

	var cacheStore cache.Store
	if cfg.Cache.Backend == "redis" {
		redisStore, redisErr := cache.NewRedisStore(cache.RedisOptions{
			Address:  cfg.Cache.Redis.Address,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		}, cfg.Cache.TTL)
		if redisErr != nil {
			logg.Error("Failed to connect to redis", logger.Error(redisErr))
			return 1
		}
		cacheStore = redisStore
	} else {
		cacheStore = cache.NewMemoryStore(cfg.Cache.TTL)
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
			logg.Error("Failed to create Elasticsearch client", logger.Error(storeErr))
			return 1
		}
		archive = client
	}

	registry := api.NewRegistry()
	curation := service.NewCurationService(
		cfg, searcher, synthesizer, cacheStore, archive, logg,
		service.NewMetrics(registry),
	)

	handler := api.NewHandler(curation, cfg.Service.Name, cfg.Service.Version, logg)
	server := api.NewServer(cfg, handler, registry, logg)

	if runErr := server.Run(context.Background()); runErr != nil {
		logg.Error("Server error", logger.Error(runErr))
		return 1
	}

	logg.Info("Study curator service exited cleanly")
	return 0
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"avatar-relay/config"
	"avatar-relay/internal/db"
	"avatar-relay/internal/handlers"
	"avatar-relay/internal/repositories"
	"avatar-relay/internal/routes"
	"avatar-relay/internal/services"
	"avatar-relay/internal/settings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/sync/errgroup"
)

// Server owns the HTTP listener and the optional backing connections
type Server struct {
	httpServer      *http.Server
	redis           *db.RedisClient
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// NewServer wires every component from settings
func NewServer(cfg *settings.Settings, logger zerolog.Logger) (*Server, error) {
	persona, err := cfg.Persona()
	if err != nil {
		return nil, fmt.Errorf("invalid persona configuration: %w", err)
	}

	logger.Info().
		Str("mode", string(persona.Mode())).
		Str("backend", cfg.Retrieval.Backend).
		Str("model", persona.ModelID()).
		Msg("initializing relay")

	upstream := services.NewUpstreamClient(cfg.Upstream.Timeout, logger)
	llm := services.NewLLMService(upstream, cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, logger)

	srv := &Server{
		shutdownTimeout: cfg.Server.ShutdownTimeout,
		logger:          logger,
	}

	var (
		gate    services.RetrievalGate
		fetcher services.ContextFetcher
	)
	if persona.Mode() == config.ModeExplicit {
		index, err := newDocumentIndex(cfg, upstream, llm)
		if err != nil {
			return nil, err
		}

		cache := srv.initializeCache(cfg)

		gate = services.NewRelevanceClassifier(llm, persona, logger)
		fetcher = services.NewRetrievalFetcher(index, services.SearchLimits{
			MaxResults:     cfg.Retrieval.MaxResults,
			ScoreThreshold: cfg.Retrieval.ScoreThreshold,
		}, cache, cfg.Cache.TTL, logger)
	}

	limit, err := newHistoryLimit(cfg.History.MaxTokens)
	if err != nil {
		return nil, err
	}

	responder := services.NewPersonaResponder(llm, persona, logger)
	chat := services.NewChatService(persona, gate, fetcher, responder, limit, logger)

	chatHandler, err := handlers.NewChatHandler(llm, chat, cfg.Chat.Timeout, logger)
	if err != nil {
		return nil, err
	}

	h := &routes.Handlers{
		Health: handlers.HealthCheckHandler,
		Home:   handlers.HomeHandler,
		Static: handlers.StaticHandler(),
		Token:  handlers.NewTokenHandler(upstream, cfg.Heygen.TokenURL, cfg.Heygen.APIKey, logger),
		Chat:   chatHandler,
	}

	router := mux.NewRouter()
	routes.RegisterRoutes(router, h)

	// Add Swagger endpoints
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL(cfg.Server.SwaggerURL), // The url pointing to API definition
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	srv.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           requestIDMiddleware(logger)(accessLogMiddleware(corsMiddleware(router))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	return srv, nil
}

// Handler returns the fully wrapped root handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting relay server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		s.logger.Info().Msg("shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				s.logger.Warn().Err(err).Msg("redis close error")
			}
		}

		s.logger.Info().Msg("server shutdown complete")
		return nil
	})

	return eg.Wait()
}

// newDocumentIndex selects the document-index backend
func newDocumentIndex(cfg *settings.Settings, upstream services.Upstream, llm *services.LLMService) (services.DocumentIndex, error) {
	switch cfg.Retrieval.Backend {
	case settings.BackendOpenAI:
		return services.NewVectorStoreIndex(upstream, cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.VectorStoreID), nil
	case settings.BackendChroma:
		client := db.NewChromaDBClient(db.ChromaDBConfig{
			Host:     cfg.Chroma.Host,
			Port:     cfg.Chroma.Port,
			URL:      cfg.Chroma.URL,
			Tenant:   cfg.Chroma.Tenant,
			Database: cfg.Chroma.Database,
			Timeout:  cfg.Chroma.Timeout,
		})
		return services.NewChromaIndex(llm, cfg.Retrieval.EmbeddingModel, client, cfg.Chroma.Collection), nil
	default:
		return nil, fmt.Errorf("unknown retrieval backend %q", cfg.Retrieval.Backend)
	}
}

// initializeCache connects the retrieval cache. An unreachable Redis disables
// caching rather than failing startup.
func (s *Server) initializeCache(cfg *settings.Settings) repositories.RetrievalCache {
	if !cfg.Cache.Enabled {
		return nil
	}

	redisClient := db.NewRedisClient(db.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Str("addr", redisClient.Addr()).Msg("redis unreachable, retrieval cache disabled")
		redisClient.Close()
		return nil
	}

	s.logger.Info().Str("addr", redisClient.Addr()).Dur("ttl", cfg.Cache.TTL).Msg("retrieval cache enabled")
	s.redis = redisClient
	return repositories.NewRedisRetrievalCache(redisClient.GetClient())
}

// newHistoryLimit loads the tokenizer only when a budget is configured
func newHistoryLimit(maxTokens int) (*services.HistoryLimit, error) {
	if maxTokens <= 0 {
		return services.NewHistoryLimit(nil, 0), nil
	}

	counter, err := services.NewTiktokenCounter("cl100k_base")
	if err != nil {
		return nil, err
	}
	return services.NewHistoryLimit(counter, maxTokens), nil
}

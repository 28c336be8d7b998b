package server

import (
	"context"
	"log"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"ytchatbot/app/agent"
	"ytchatbot/app/api"
	"ytchatbot/config"
	"ytchatbot/index"
	"ytchatbot/model"
	"ytchatbot/registry"
	"ytchatbot/splitter"
	"ytchatbot/store"
	"ytchatbot/transcript"
)

var fiberConfig = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	cfg    config.Config
	logger *slog.Logger
}

func NewServer(cfg config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

func (s *Server) Stop() {
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()

	pool, err := store.NewPostgresStore(ctx, s.cfg.PostgresDSN())
	if err != nil {
		log.Fatal("error to connect to Postgres database", err)
		return
	}

	if err := pool.Init(ctx); err != nil {
		log.Fatal("error to create tables", err)
		return
	}

	split, err := splitter.New(s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if err != nil {
		log.Fatal("invalid chunking configuration: ", err)
		return
	}

	var (
		gemini  = model.NewGeminiClient(s.cfg.GoogleAPIKey, s.cfg.EmbeddingModel, s.cfg.ChatModel)
		fetcher = transcript.NewYouTubeFetcher()
		reg     = registry.New(pool)
		adapter = index.NewAdapter(pool, gemini)
		gen     = agent.New(gemini)

		app          = fiber.New(fiberConfig)
		checkHandler = api.NewCheckHandler()
		chatHandler  = api.NewChatHandler(reg, fetcher, split, adapter, gen, s.cfg.TopK)
	)

	app.Use(cors.New())

	app.Get("/health", checkHandler.HandleHealthy)
	app.Post("/ytchatbot", chatHandler.HandleChat)
	app.Delete("/ytchatbot/session", chatHandler.HandleDeleteSession)

	err = app.Listen(s.cfg.ServerAddr)
	if err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return
	}
}

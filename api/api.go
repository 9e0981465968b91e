package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/recaplabs/recap/pkg/rag"
	"github.com/recaplabs/recap/pkg/store"
	"github.com/recaplabs/recap/pkg/transcripts"
)

// Server is the API server for ingesting transcripts and chatting over them.
type Server struct {
	config Config
	engine *rag.Engine
	storer store.Store
	files  *transcripts.FileStore
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server. The engine, storer, and file store are
// injected to allow sharing with CLI commands that run in-process.
func NewServer(config Config, engine *rag.Engine, storer store.Store, files *transcripts.FileStore, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		engine: engine,
		storer: storer,
		files:  files,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)

	app.Post("/ai/transcript", s.handleUploadTranscript)
	app.Get("/ai/transcript/:id", s.handleGetTranscript)
	app.Delete("/ai/transcript/:id", s.handleDeleteTranscript)

	app.Post("/ai/chat/session", s.handleCreateSession)
	app.Get("/ai/chat/sessions", s.handleListSessions)
	app.Get("/ai/chat/session/:id/messages", s.handleListMessages)
	app.Post("/ai/chat/message", s.handleSendMessage)
	app.Put("/ai/chat/message/:id/feedback", s.handleMessageFeedback)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/recaplabs/recap/pkg/rag"
	"github.com/recaplabs/recap/pkg/store"
	"github.com/recaplabs/recap/pkg/transcripts"
)

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UploadTranscriptRequest is the body for POST /ai/transcript.
type UploadTranscriptRequest struct {
	Transcript string `json:"transcript"`
}

// UploadTranscriptResponse confirms a successful ingestion.
type UploadTranscriptResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TranscriptResponse is the body for GET /ai/transcript/:id.
type TranscriptResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateSessionRequest is the body for POST /ai/chat/session.
type CreateSessionRequest struct {
	TranscriptID string `json:"transcriptId"`
	Title        string `json:"title,omitempty"`
}

// SendMessageRequest is the body for POST /ai/chat/message.
type SendMessageRequest struct {
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
}

// SendMessageResponse is the assistant's reply with its citations.
type SendMessageResponse struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId"`
	Role      store.Role     `json:"role"`
	Content   string         `json:"content"`
	Citations []rag.Citation `json:"citations"`
	CreatedAt time.Time      `json:"createdAt"`
}

// FeedbackRequest is the body for PUT /ai/chat/message/:id/feedback.
type FeedbackRequest struct {
	Feedback string `json:"feedback"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleUploadTranscript ingests a transcript end to end: chunk and index it,
// generate a title, persist the record, and save the raw text. Any failure
// after indexing rolls the vector writes and file back so the system never
// holds a half-ingested transcript.
func (s *Server) handleUploadTranscript(c *fiber.Ctx) error {
	var req UploadTranscriptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Transcript == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "transcript is required"})
	}

	ctx := c.Context()

	id, err := s.engine.IngestTranscript(ctx, req.Transcript)
	if err != nil {
		s.logger.Error("transcript ingestion failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to process transcript"})
	}

	cleanup := func() {
		if derr := s.engine.DeleteTranscript(ctx, id); derr != nil {
			s.logger.Warn("failed to roll back vector writes",
				zap.String("transcript_id", id),
				zap.Error(derr),
			)
		}
	}

	title, err := s.engine.GenerateTitle(ctx, req.Transcript)
	if err != nil {
		s.logger.Warn("title generation failed, using fallback",
			zap.String("transcript_id", id),
			zap.Error(err),
		)
		title = "Untitled Transcript"
	}

	if err := s.files.Save(id, req.Transcript); err != nil {
		cleanup()
		s.logger.Error("failed to save transcript file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to save transcript"})
	}

	now := time.Now().UTC()
	record := &store.Transcript{
		ID:        id,
		Title:     title,
		Filename:  s.files.Filename(id),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.storer.CreateTranscript(ctx, record); err != nil {
		cleanup()
		if derr := s.files.Delete(id); derr != nil {
			s.logger.Warn("failed to roll back transcript file",
				zap.String("transcript_id", id),
				zap.Error(derr),
			)
		}
		s.logger.Error("failed to persist transcript record", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to save transcript"})
	}

	return c.Status(fiber.StatusCreated).JSON(UploadTranscriptResponse{ID: id, Title: title})
}

func (s *Server) handleGetTranscript(c *fiber.Ctx) error {
	id := c.Params("id")

	record, err := s.storer.GetTranscript(c.Context(), id)
	if err != nil {
		return s.errorJSON(c, err)
	}

	content, err := s.files.Read(id)
	if err != nil {
		return s.errorJSON(c, err)
	}

	return c.JSON(TranscriptResponse{
		ID:        record.ID,
		Title:     record.Title,
		Content:   content,
		CreatedAt: record.CreatedAt,
	})
}

// handleDeleteTranscript removes the vector points, raw file, and persisted
// record (which cascades to sessions and messages).
func (s *Server) handleDeleteTranscript(c *fiber.Ctx) error {
	id := c.Params("id")
	ctx := c.Context()

	if _, err := s.storer.GetTranscript(ctx, id); err != nil {
		return s.errorJSON(c, err)
	}

	if err := s.engine.DeleteTranscript(ctx, id); err != nil {
		s.logger.Error("failed to delete vector points", zap.String("transcript_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete transcript"})
	}

	if err := s.files.Delete(id); err != nil && !errors.Is(err, transcripts.ErrNotFound) {
		s.logger.Error("failed to delete transcript file", zap.String("transcript_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete transcript"})
	}

	if err := s.storer.DeleteTranscript(ctx, id); err != nil {
		return s.errorJSON(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.TranscriptID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "transcriptId is required"})
	}

	ctx := c.Context()

	record, err := s.storer.GetTranscript(ctx, req.TranscriptID)
	if err != nil {
		return s.errorJSON(c, err)
	}

	title := req.Title
	if title == "" {
		title = record.Title
	}

	now := time.Now().UTC()
	session := &store.Session{
		ID:           uuid.NewString(),
		TranscriptID: req.TranscriptID,
		Title:        title,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.storer.CreateSession(ctx, session); err != nil {
		return s.errorJSON(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	sessions, err := s.storer.ListSessions(c.Context())
	if err != nil {
		return s.errorJSON(c, err)
	}

	return c.JSON(sessions)
}

func (s *Server) handleListMessages(c *fiber.Ctx) error {
	messages, err := s.storer.ListMessages(c.Context(), c.Params("id"))
	if err != nil {
		return s.errorJSON(c, err)
	}

	return c.JSON(messages)
}

// handleSendMessage runs one chat turn: persist the user message, answer the
// question against the session's transcript using the prior turns as history,
// and persist the assistant reply. The user message is kept even when answer
// generation fails so the session log stays truthful.
func (s *Server) handleSendMessage(c *fiber.Ctx) error {
	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.SessionID == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "sessionId and content are required"})
	}

	ctx := c.Context()

	session, err := s.storer.GetSession(ctx, req.SessionID)
	if err != nil {
		return s.errorJSON(c, err)
	}

	prior, err := s.storer.ListMessages(ctx, session.ID)
	if err != nil {
		return s.errorJSON(c, err)
	}

	history := make([]rag.Turn, 0, len(prior))
	for _, m := range prior {
		history = append(history, rag.Turn{Role: string(m.Role), Content: m.Content})
	}

	userMsg := &store.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      store.RoleUser,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.storer.AddMessage(ctx, userMsg); err != nil {
		return s.errorJSON(c, err)
	}

	answer, err := s.engine.AnswerQuestion(ctx, req.Content, session.TranscriptID, history)
	if err != nil {
		s.logger.Error("answer generation failed",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to generate answer"})
	}

	assistantMsg := &store.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      store.RoleAssistant,
		Content:   answer.Answer,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.storer.AddMessage(ctx, assistantMsg); err != nil {
		return s.errorJSON(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(SendMessageResponse{
		ID:        assistantMsg.ID,
		SessionID: session.ID,
		Role:      store.RoleAssistant,
		Content:   answer.Answer,
		Citations: answer.Citations,
		CreatedAt: assistantMsg.CreatedAt,
	})
}

func (s *Server) handleMessageFeedback(c *fiber.Ctx) error {
	var req FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	feedback := store.Feedback(req.Feedback)
	if feedback != store.FeedbackPositive && feedback != store.FeedbackNegative {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "feedback must be positive or negative"})
	}

	if err := s.storer.UpdateMessageFeedback(c.Context(), c.Params("id"), feedback); err != nil {
		return s.errorJSON(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// errorJSON maps storage errors onto HTTP statuses: missing records are 404,
// everything else is 500.
func (s *Server) errorJSON(c *fiber.Ctx, err error) error {
	if store.IsNotFound(err) || errors.Is(err, transcripts.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}

	s.logger.Error("request failed", zap.Error(err))

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
}

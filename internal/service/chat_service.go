// internal/service/chat_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"eliza_tutor/internal/llm"
	"eliza_tutor/internal/middleware"
	"eliza_tutor/internal/model"
	"eliza_tutor/internal/rag"
	"eliza_tutor/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// tutorPreamble is prepended to every prompt before the provider specific
// instructions.
const tutorPreamble = "You are a patient tutor helping a student learn. " +
	"Answer clearly and at the student's level. When solving a math problem, " +
	"lay the solution out as numbered lines of the form \"Step N: ...\", " +
	"each optionally followed by \"Equation: ...\" and \"Explanation: ...\" lines."

const sessionTitleLimit = 60

type ChatService interface {
	// SendMessage runs one full chat turn: it persists the user message,
	// builds a scoped prompt, generates a reply and persists it. The user
	// message survives every downstream failure.
	SendMessage(ctx context.Context, req *model.SendMessageRequest) (*model.SendMessageResponse, error)

	// CancelGeneration aborts the in-flight generation for a session, if
	// any. The partial reply is persisted with a failed status.
	CancelGeneration(sessionID uuid.UUID) bool

	GetSession(ctx context.Context, sessionID uuid.UUID) (*model.ChatSession, error)
	ListSessions(ctx context.Context, activeOnly bool) ([]*model.ChatSession, error)
	ListSessionsByCourse(ctx context.Context, courseID uuid.UUID) ([]*model.ChatSession, error)
	GetMessages(ctx context.Context, sessionID uuid.UUID) ([]*model.ChatMessage, error)
	WatchMessages(ctx context.Context, sessionID uuid.UUID) (<-chan []*model.ChatMessage, error)
	DeactivateSession(ctx context.Context, sessionID uuid.UUID) error
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error

	// SaveImageProblem stores an extracted photo problem and bumps the
	// image problem counter.
	SaveImageProblem(ctx context.Context, problem *model.ImageMathProblem) error
	GetImageProblem(ctx context.Context, problemID uuid.UUID) (*model.ImageMathProblem, error)
}

type chatService struct {
	db            *gorm.DB
	chatRepo      repository.ChatRepository
	progressRepo  repository.ProgressRepository
	factory       rag.ProviderFactory
	inference     llm.InferenceHelper
	userID        string
	historyWindow int

	mu       sync.Mutex
	inFlight map[uuid.UUID]context.CancelFunc
}

func NewChatService(
	db *gorm.DB,
	chatRepo repository.ChatRepository,
	progressRepo repository.ProgressRepository,
	factory rag.ProviderFactory,
	inference llm.InferenceHelper,
	userID string,
	historyWindow int,
) ChatService {
	return &chatService{
		db:            db,
		chatRepo:      chatRepo,
		progressRepo:  progressRepo,
		factory:       factory,
		inference:     inference,
		userID:        userID,
		historyWindow: historyWindow,
		inFlight:      make(map[uuid.UUID]context.CancelFunc),
	}
}

func (s *chatService) SendMessage(ctx context.Context, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	logger := middleware.GetLogger(ctx)

	session, created, err := s.resolveSession(ctx, req)
	if err != nil {
		return nil, err
	}

	genCtx, release, err := s.acquire(ctx, session.SessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	userMsg, err := s.persistUserMessage(ctx, session.SessionID, req)
	if err != nil {
		return nil, err
	}

	scope := session.Scope()
	provider, err := s.factory.Select(ctx, scope)
	if err != nil {
		// Select already fell back; the returned provider is usable.
		logger.Warn("Session scope no longer resolves, using the general provider",
			"session_id", session.SessionID, "error", err)
	}

	block, err := provider.BuildContext(ctx, req.Content, scope)
	if err != nil {
		logger.Warn("Context retrieval failed, answering without supporting material",
			"session_id", session.SessionID, "error", err)
		block = model.ContextBlock{}
	}

	prompt, err := s.composePrompt(ctx, provider, block, scope, session.SessionID, userMsg)
	if err != nil {
		return nil, err
	}

	assistant := &model.ChatMessage{
		MessageID: uuid.New(),
		SessionID: session.SessionID,
		IsUser:    false,
		Timestamp: time.Now(),
		Status:    model.MessagePending,
	}
	if req.ExerciseID != nil {
		assistant.RelatedExercise = req.ExerciseID
	}
	if req.TrialID != nil {
		assistant.RelatedTrial = req.TrialID
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.chatRepo.CreateMessage(ctx, tx, assistant)
	}); err != nil {
		return nil, model.NewAppError("PERSISTENCE_FAILED", "Failed to record the reply placeholder.", "",
			fmt.Errorf("%w: %w", model.ErrPersistence, err))
	}

	start := time.Now()
	output, genErr := s.inference.Generate(genCtx, prompt, nil)
	elapsed := time.Since(start).Milliseconds()

	if genErr != nil {
		return nil, s.finalizeFailed(ctx, logger, assistant, output, elapsed, genErr)
	}

	steps := ParseMathSteps(output)
	assistant.Content = output
	assistant.Status = model.MessageComplete
	assistant.MessageType = model.MessageText
	assistant.ProcessingTimeMs = elapsed
	if len(steps) > 0 {
		assistant.MessageType = model.MessageStepByStep
	}

	delta := repository.StatsDelta{}
	if created {
		delta.ChatSessions = 1
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.chatRepo.UpdateMessage(ctx, tx, assistant); err != nil {
			return err
		}
		for i := range steps {
			steps[i].StepID = uuid.New()
			steps[i].MessageID = assistant.MessageID
		}
		if err := s.chatRepo.CreateMathSteps(ctx, tx, steps); err != nil {
			return err
		}
		if err := s.chatRepo.TouchSession(ctx, tx, session.SessionID, assistant.Timestamp); err != nil {
			return err
		}
		return s.progressRepo.AccumulateStats(ctx, tx, s.userID, delta)
	}); err != nil {
		return nil, model.NewAppError("PERSISTENCE_FAILED", "Failed to record the reply.", "",
			fmt.Errorf("%w: %w", model.ErrPersistence, err))
	}
	assistant.MathSteps = steps

	logger.Info("Chat turn completed",
		"session_id", session.SessionID, "message_id", assistant.MessageID,
		"scope", string(scope.Kind()), "steps", len(steps), "processing_ms", elapsed)

	return &model.SendMessageResponse{SessionID: session.SessionID, Message: assistant}, nil
}

// finalizeFailed records whatever the model produced before the failure so
// the turn is never silently lost. The write runs on a detached context
// because the request context is usually the thing that was cancelled.
func (s *chatService) finalizeFailed(ctx context.Context, logger *slog.Logger, assistant *model.ChatMessage, partial string, elapsed int64, genErr error) error {
	assistant.Content = partial
	assistant.Status = model.MessageFailed
	assistant.MessageType = model.MessageText
	assistant.ProcessingTimeMs = elapsed

	persistCtx := context.WithoutCancel(ctx)
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.chatRepo.UpdateMessage(persistCtx, tx, assistant); err != nil {
			return err
		}
		return s.chatRepo.TouchSession(persistCtx, tx, assistant.SessionID, assistant.Timestamp)
	}); err != nil {
		logger.Warn("Failed to record the failed reply", "message_id", assistant.MessageID, "error", err)
	}

	if errors.Is(genErr, context.Canceled) {
		return model.NewAppError("INFERENCE_CANCELLED", "Generation was cancelled.", "",
			fmt.Errorf("%w: %w", model.ErrInferenceCancelled, genErr))
	}
	return model.NewAppError("INFERENCE_FAILED", "The tutor could not generate a reply.", "",
		fmt.Errorf("%w: %w", model.ErrInference, genErr))
}

// resolveSession loads the addressed session or creates one from the request
// scope. Reports whether a session was created on this turn.
func (s *chatService) resolveSession(ctx context.Context, req *model.SendMessageRequest) (*model.ChatSession, bool, error) {
	if req.SessionID != nil {
		session, err := s.chatRepo.FindSessionByID(ctx, s.db, *req.SessionID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, false, model.NewAppError("SESSION_NOT_FOUND", "Chat session not found.", "session_id", err)
			}
			return nil, false, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the chat session.", "", err)
		}
		return session, false, nil
	}

	now := time.Now()
	session := &model.ChatSession{
		SessionID:     uuid.New(),
		Title:         sessionTitle(req.Content),
		Subject:       req.Subject,
		CourseID:      req.CourseID,
		LessonID:      req.LessonID,
		ExerciseID:    req.ExerciseID,
		TrialID:       req.TrialID,
		IsRevision:    req.IsRevision,
		IsActive:      true,
		CreatedAt:     now,
		LastMessageAt: now,
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.chatRepo.CreateSession(ctx, tx, session)
	}); err != nil {
		return nil, false, model.NewAppError("PERSISTENCE_FAILED", "Failed to create the chat session.", "",
			fmt.Errorf("%w: %w", model.ErrPersistence, err))
	}
	return session, true, nil
}

// persistUserMessage records the student's turn as complete before anything
// downstream runs. A retry carrying the same client message id reuses the
// already stored row instead of inserting a duplicate.
func (s *chatService) persistUserMessage(ctx context.Context, sessionID uuid.UUID, req *model.SendMessageRequest) (*model.ChatMessage, error) {
	messageID := uuid.New()
	if req.ClientMessageID != nil {
		existing, err := s.chatRepo.FindMessageByID(ctx, s.db, *req.ClientMessageID)
		if err == nil {
			if existing.SessionID != sessionID || !existing.IsUser {
				return nil, model.NewAppError("CONFLICT", "Client message id is already used by another message.", "client_message_id", model.ErrConflict)
			}
			return existing, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to check the message id.", "", err)
		}
		messageID = *req.ClientMessageID
	}

	msg := &model.ChatMessage{
		MessageID:       messageID,
		SessionID:       sessionID,
		Content:         req.Content,
		IsUser:          true,
		Timestamp:       time.Now(),
		MessageType:     model.MessageText,
		Status:          model.MessageComplete,
		ImageURI:        req.ImageURI,
		RelatedExercise: req.ExerciseID,
		RelatedTrial:    req.TrialID,
	}
	if req.ImageURI != nil {
		msg.MessageType = model.MessageImage
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.chatRepo.CreateMessage(ctx, tx, msg); err != nil {
			return err
		}
		return s.chatRepo.TouchSession(ctx, tx, sessionID, msg.Timestamp)
	}); err != nil {
		return nil, model.NewAppError("PERSISTENCE_FAILED", "Failed to record your message.", "",
			fmt.Errorf("%w: %w", model.ErrPersistence, err))
	}
	return msg, nil
}

// composePrompt assembles preamble, provider instructions, retrieved context
// and the recent conversation into a single prompt.
func (s *chatService) composePrompt(ctx context.Context, provider rag.Provider, block model.ContextBlock, scope model.ChatScope, sessionID uuid.UUID, userMsg *model.ChatMessage) (string, error) {
	var b strings.Builder
	b.WriteString(tutorPreamble)
	b.WriteString("\n\n")
	if instructions := provider.SystemInstructions(scope); instructions != "" {
		b.WriteString(instructions)
		b.WriteString("\n\n")
	}
	if !block.Empty() {
		b.WriteString("Reference material:\n")
		b.WriteString(block.Text)
		b.WriteString("\n\n")
	}

	history, err := s.chatRepo.FindRecentMessages(ctx, s.db, sessionID, s.historyWindow)
	if err != nil {
		return "", model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the conversation history.", "", err)
	}
	// Newest first from the store; emit oldest first and leave the current
	// turn for the end.
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m.MessageID == userMsg.MessageID || m.Status != model.MessageComplete {
			continue
		}
		if m.IsUser {
			b.WriteString("Student: ")
		} else {
			b.WriteString("Tutor: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}

	b.WriteString("Student: ")
	b.WriteString(userMsg.Content)
	b.WriteString("\nTutor:")
	return b.String(), nil
}

// acquire claims the single generation slot for a session. The returned
// context is cancelled by CancelGeneration; release must always be called.
func (s *chatService) acquire(ctx context.Context, sessionID uuid.UUID) (context.Context, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[sessionID]; busy {
		return nil, nil, model.NewAppError("SESSION_BUSY", "A reply is already being generated for this session.", "",
			model.ErrSessionBusy)
	}
	genCtx, cancel := context.WithCancel(ctx)
	s.inFlight[sessionID] = cancel
	release := func() {
		s.mu.Lock()
		delete(s.inFlight, sessionID)
		s.mu.Unlock()
		cancel()
	}
	return genCtx, release, nil
}

func (s *chatService) CancelGeneration(sessionID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.inFlight[sessionID]
	if ok {
		cancel()
	}
	return ok
}

func (s *chatService) GetSession(ctx context.Context, sessionID uuid.UUID) (*model.ChatSession, error) {
	session, err := s.chatRepo.FindSessionByID(ctx, s.db, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("SESSION_NOT_FOUND", "Chat session not found.", "session_id", err)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the chat session.", "", err)
	}
	return session, nil
}

func (s *chatService) ListSessions(ctx context.Context, activeOnly bool) ([]*model.ChatSession, error) {
	var (
		sessions []*model.ChatSession
		err      error
	)
	if activeOnly {
		sessions, err = s.chatRepo.FindActiveSessions(ctx, s.db)
	} else {
		sessions, err = s.chatRepo.FindAllSessions(ctx, s.db)
	}
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to list chat sessions.", "", err)
	}
	return sessions, nil
}

func (s *chatService) ListSessionsByCourse(ctx context.Context, courseID uuid.UUID) ([]*model.ChatSession, error) {
	sessions, err := s.chatRepo.FindSessionsByCourse(ctx, s.db, courseID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to list chat sessions.", "", err)
	}
	return sessions, nil
}

func (s *chatService) GetMessages(ctx context.Context, sessionID uuid.UUID) ([]*model.ChatMessage, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	messages, err := s.chatRepo.FindMessagesBySession(ctx, s.db, sessionID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load messages.", "", err)
	}
	return messages, nil
}

func (s *chatService) WatchMessages(ctx context.Context, sessionID uuid.UUID) (<-chan []*model.ChatMessage, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	ch, err := s.chatRepo.WatchMessages(ctx, s.db, sessionID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to watch messages.", "", err)
	}
	return ch, nil
}

func (s *chatService) DeactivateSession(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return err
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.chatRepo.DeactivateSession(ctx, tx, sessionID)
	}); err != nil {
		return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to deactivate the session.", "", err)
	}
	return nil
}

func (s *chatService) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return err
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.chatRepo.DeleteSessionByID(ctx, tx, sessionID)
	}); err != nil {
		return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to delete the session.", "", err)
	}
	return nil
}

func (s *chatService) SaveImageProblem(ctx context.Context, problem *model.ImageMathProblem) error {
	if problem.ProblemID == uuid.Nil {
		problem.ProblemID = uuid.New()
	}
	if problem.ProcessedAt.IsZero() {
		problem.ProcessedAt = time.Now()
	}
	for i := range problem.BoundingBoxes {
		if problem.BoundingBoxes[i].BoxID == uuid.Nil {
			problem.BoundingBoxes[i].BoxID = uuid.New()
		}
		problem.BoundingBoxes[i].ProblemID = problem.ProblemID
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.chatRepo.SaveImageProblem(ctx, tx, problem); err != nil {
			return err
		}
		return s.progressRepo.AccumulateStats(ctx, tx, s.userID, repository.StatsDelta{ImageProblems: 1})
	}); err != nil {
		return model.NewAppError("PERSISTENCE_FAILED", "Failed to store the image problem.", "",
			fmt.Errorf("%w: %w", model.ErrPersistence, err))
	}
	return nil
}

func (s *chatService) GetImageProblem(ctx context.Context, problemID uuid.UUID) (*model.ImageMathProblem, error) {
	problem, err := s.chatRepo.FindImageProblemByID(ctx, s.db, problemID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("PROBLEM_NOT_FOUND", "Image problem not found.", "problem_id", err)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the image problem.", "", err)
	}
	return problem, nil
}

// sessionTitle derives a short title from the first message.
func sessionTitle(content string) string {
	title := strings.TrimSpace(content)
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = title[:idx]
	}
	runes := []rune(title)
	if len(runes) > sessionTitleLimit {
		title = string(runes[:sessionTitleLimit-3]) + "..."
	}
	if title == "" {
		title = "New chat"
	}
	return title
}

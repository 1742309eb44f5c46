// internal/repository/chat_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eliza_tutor/internal/middleware"
	"eliza_tutor/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatRepository owns chat sessions, messages and their math steps.
type ChatRepository interface {
	CreateSession(ctx context.Context, tx *gorm.DB, session *model.ChatSession) error
	FindSessionByID(ctx context.Context, db *gorm.DB, sessionID uuid.UUID) (*model.ChatSession, error)
	FindAllSessions(ctx context.Context, db *gorm.DB) ([]*model.ChatSession, error)
	FindActiveSessions(ctx context.Context, db *gorm.DB) ([]*model.ChatSession, error)
	FindSessionsByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID) ([]*model.ChatSession, error)
	TouchSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, at time.Time) error
	DeactivateSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error
	DeleteSessionByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error

	CreateMessage(ctx context.Context, tx *gorm.DB, message *model.ChatMessage) error
	UpdateMessage(ctx context.Context, tx *gorm.DB, message *model.ChatMessage) error
	FindMessageByID(ctx context.Context, db *gorm.DB, messageID uuid.UUID) (*model.ChatMessage, error)
	FindMessagesBySession(ctx context.Context, db *gorm.DB, sessionID uuid.UUID) ([]*model.ChatMessage, error)
	FindRecentMessages(ctx context.Context, db *gorm.DB, sessionID uuid.UUID, limit int) ([]*model.ChatMessage, error)
	CountMessagesBySession(ctx context.Context, db *gorm.DB, sessionID uuid.UUID) (int64, error)

	CreateMathSteps(ctx context.Context, tx *gorm.DB, steps []model.MathStep) error

	SaveImageProblem(ctx context.Context, tx *gorm.DB, problem *model.ImageMathProblem) error
	FindImageProblemByID(ctx context.Context, db *gorm.DB, problemID uuid.UUID) (*model.ImageMathProblem, error)

	WatchMessages(ctx context.Context, db *gorm.DB, sessionID uuid.UUID) (<-chan []*model.ChatMessage, error)
}

type gormChatRepository struct {
	notifier *Notifier
}

func NewGormChatRepository(notifier *Notifier) ChatRepository {
	return &gormChatRepository{notifier: notifier}
}

func (r *gormChatRepository) CreateSession(ctx context.Context, tx *gorm.DB, session *model.ChatSession) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(session)
	if result.Error != nil {
		logger.Error("Error creating chat session", "error", result.Error,
			"session_id", session.SessionID.String())
		return fmt.Errorf("gormChatRepository.CreateSession: %w", result.Error)
	}
	r.notifier.Publish(TopicChatSessions)
	return nil
}

func (r *gormChatRepository) FindSessionByID(ctx context.Context, db *gorm.DB, sessionID uuid.UUID) (*model.ChatSession, error) {
	var session model.ChatSession
	result := db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormChatRepository.FindSessionByID: %w", result.Error)
	}
	return &session, nil
}

func (r *gormChatRepository) FindAllSessions(ctx context.Context, db *gorm.DB) ([]*model.ChatSession, error) {
	var sessions []*model.ChatSession
	result := db.WithContext(ctx).Order("last_message_at DESC").Find(&sessions)
	if result.Error != nil {
		return nil, fmt.Errorf("gormChatRepository.FindAllSessions: %w", result.Error)
	}
	return sessions, nil
}

func (r *gormChatRepository) FindActiveSessions(ctx context.Context, db *gorm.DB) ([]*model.ChatSession, error) {
	var sessions []*model.ChatSession
	result := db.WithContext(ctx).Where("is_active = ?", true).Order("last_message_at DESC").Find(&sessions)
	if result.Error != nil {
		return nil, fmt.Errorf("gormChatRepository.FindActiveSessions: %w", result.Error)
	}
	return sessions, nil
}

func (r *gormChatRepository) FindSessionsByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID) ([]*model.ChatSession, error) {
	var sessions []*model.ChatSession
	result := db.WithContext(ctx).Where("course_id = ?", courseID).Order("last_message_at DESC").Find(&sessions)
	if result.Error != nil {
		return nil, fmt.Errorf("gormChatRepository.FindSessionsByCourse: %w", result.Error)
	}
	return sessions, nil
}

// TouchSession bumps message_count and advances last_message_at. The CASE
// keeps last_message_at monotonically non-decreasing even if a slow turn
// lands after a faster one.
func (r *gormChatRepository) TouchSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, at time.Time) error {
	result := tx.WithContext(ctx).Model(&model.ChatSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"message_count":   gorm.Expr("message_count + 1"),
			"last_message_at": gorm.Expr("CASE WHEN last_message_at < ? THEN ? ELSE last_message_at END", at, at),
		})
	if result.Error != nil {
		return fmt.Errorf("gormChatRepository.TouchSession: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	r.notifier.Publish(TopicChatSessions)
	return nil
}

// DeactivateSession soft-closes a session; the row and its messages remain.
func (r *gormChatRepository) DeactivateSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	result := tx.WithContext(ctx).Model(&model.ChatSession{}).
		Where("session_id = ?", sessionID).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("gormChatRepository.DeactivateSession: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	r.notifier.Publish(TopicChatSessions)
	return nil
}

// DeleteSessionByID destroys the session; messages and math steps cascade.
func (r *gormChatRepository) DeleteSessionByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	result := tx.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&model.ChatSession{})
	if result.Error != nil {
		return fmt.Errorf("gormChatRepository.DeleteSessionByID: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	r.notifier.Publish(TopicChatSessions, TopicSessionMessages(sessionID.String()))
	return nil
}

func (r *gormChatRepository) CreateMessage(ctx context.Context, tx *gorm.DB, message *model.ChatMessage) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(message)
	if result.Error != nil {
		logger.Error("Error creating chat message", "error", result.Error,
			"session_id", message.SessionID.String())
		return fmt.Errorf("gormChatRepository.CreateMessage: %w", result.Error)
	}
	r.notifier.Publish(TopicSessionMessages(message.SessionID.String()))
	return nil
}

func (r *gormChatRepository) UpdateMessage(ctx context.Context, tx *gorm.DB, message *model.ChatMessage) error {
	result := tx.WithContext(ctx).Model(&model.ChatMessage{}).
		Where("message_id = ?", message.MessageID).
		Updates(map[string]interface{}{
			"content":            message.Content,
			"status":             message.Status,
			"message_type":       message.MessageType,
			"processing_time_ms": message.ProcessingTimeMs,
		})
	if result.Error != nil {
		return fmt.Errorf("gormChatRepository.UpdateMessage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	r.notifier.Publish(TopicSessionMessages(message.SessionID.String()))
	return nil
}

func (r *gormChatRepository) FindMessageByID(ctx context.Context, db *gorm.DB, messageID uuid.UUID) (*model.ChatMessage, error) {
	var message model.ChatMessage
	result := db.WithContext(ctx).
		Preload("MathSteps", func(db *gorm.DB) *gorm.DB { return db.Order("math_steps.step_number ASC") }).
		Where("message_id = ?", messageID).First(&message)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormChatRepository.FindMessageByID: %w", result.Error)
	}
	return &message, nil
}

func (r *gormChatRepository) FindMessagesBySession(ctx context.Context, db *gorm.DB, sessionID uuid.UUID) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	result := db.WithContext(ctx).
		Preload("MathSteps", func(db *gorm.DB) *gorm.DB { return db.Order("math_steps.step_number ASC") }).
		Where("session_id = ?", sessionID).Order("timestamp ASC").Find(&messages)
	if result.Error != nil {
		return nil, fmt.Errorf("gormChatRepository.FindMessagesBySession: %w", result.Error)
	}
	return messages, nil
}

// FindRecentMessages returns the newest messages first; callers that need
// chronological order reverse the slice.
func (r *gormChatRepository) FindRecentMessages(ctx context.Context, db *gorm.DB, sessionID uuid.UUID, limit int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	result := db.WithContext(ctx).
		Where("session_id = ?", sessionID).Order("timestamp DESC").Limit(limit).Find(&messages)
	if result.Error != nil {
		return nil, fmt.Errorf("gormChatRepository.FindRecentMessages: %w", result.Error)
	}
	return messages, nil
}

func (r *gormChatRepository) CountMessagesBySession(ctx context.Context, db *gorm.DB, sessionID uuid.UUID) (int64, error) {
	var count int64
	result := db.WithContext(ctx).Model(&model.ChatMessage{}).Where("session_id = ?", sessionID).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("gormChatRepository.CountMessagesBySession: %w", result.Error)
	}
	return count, nil
}

func (r *gormChatRepository) CreateMathSteps(ctx context.Context, tx *gorm.DB, steps []model.MathStep) error {
	if len(steps) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Create(&steps)
	if result.Error != nil {
		return fmt.Errorf("gormChatRepository.CreateMathSteps: %w", result.Error)
	}
	return nil
}

func (r *gormChatRepository) SaveImageProblem(ctx context.Context, tx *gorm.DB, problem *model.ImageMathProblem) error {
	result := tx.WithContext(ctx).Create(problem)
	if result.Error != nil {
		return fmt.Errorf("gormChatRepository.SaveImageProblem: %w", result.Error)
	}
	return nil
}

func (r *gormChatRepository) FindImageProblemByID(ctx context.Context, db *gorm.DB, problemID uuid.UUID) (*model.ImageMathProblem, error) {
	var problem model.ImageMathProblem
	result := db.WithContext(ctx).
		Preload("BoundingBoxes").
		Where("problem_id = ?", problemID).First(&problem)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormChatRepository.FindImageProblemByID: %w", result.Error)
	}
	return &problem, nil
}

// WatchMessages emits the current message list for a session, then a fresh
// snapshot after every write to that session, until the context is done.
// A reader that subscribes after SendMessage resolves always observes the
// persisted turn: the initial snapshot is queried after subscription.
func (r *gormChatRepository) WatchMessages(ctx context.Context, db *gorm.DB, sessionID uuid.UUID) (<-chan []*model.ChatMessage, error) {
	signal, cancel := r.notifier.Subscribe(TopicSessionMessages(sessionID.String()))

	initial, err := r.FindMessagesBySession(ctx, db, sessionID)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan []*model.ChatMessage, 1)
	out <- initial

	go func() {
		defer cancel()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
				snapshot, err := r.FindMessagesBySession(ctx, db, sessionID)
				if err != nil {
					middleware.GetLogger(ctx).Warn("WatchMessages requery failed", "error", err)
					continue
				}
				select {
				case out <- snapshot:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

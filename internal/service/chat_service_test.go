// internal/service/chat_service_test.go
package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"eliza_tutor/internal/llm/mocks"
	"eliza_tutor/internal/model"
	"eliza_tutor/internal/rag"
	"eliza_tutor/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupChatServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:chat_svc_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.Migrate(db))
	return db
}

type chatServiceFixture struct {
	db        *gorm.DB
	chatRepo  repository.ChatRepository
	course    repository.CourseRepository
	progress  repository.ProgressRepository
	inference *mocks.InferenceHelper
	service   ChatService
}

func newChatServiceFixture(t *testing.T) *chatServiceFixture {
	t.Helper()
	db := setupChatServiceDB(t)
	notifier := repository.NewNotifier()
	chatRepo := repository.NewGormChatRepository(notifier)
	courseRepo := repository.NewGormCourseRepository(notifier)
	progressRepo := repository.NewGormProgressRepository(notifier)

	inference := new(mocks.InferenceHelper)
	factory := rag.NewProviderFactory(db, courseRepo, progressRepo, "local", 4000)
	svc := NewChatService(db, chatRepo, progressRepo, factory, inference, "local", 10)

	return &chatServiceFixture{
		db: db, chatRepo: chatRepo, course: courseRepo,
		progress: progressRepo, inference: inference, service: svc,
	}
}

func (f *chatServiceFixture) seedLesson(t *testing.T) *model.Lesson {
	t.Helper()
	course := &model.Course{
		CourseID: uuid.New(),
		Title:    "Biology Basics",
		Subject:  "biology",
		Lessons: []model.Lesson{
			{
				LessonID:        uuid.New(),
				LessonNumber:    1,
				Title:           "Photosynthesis",
				MarkdownContent: "Plants absorb carbon dioxide and release oxygen using light energy.",
			},
		},
	}
	require.NoError(t, f.course.UpsertCourse(context.Background(), f.db, course))
	return &course.Lessons[0]
}

func Test_chatService_SendMessage_LessonScopedTurn(t *testing.T) {
	ctx := context.Background()
	f := newChatServiceFixture(t)
	lesson := f.seedLesson(t)

	var capturedPrompt string
	f.inference.On("Generate", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) { capturedPrompt = args.String(1) }).
		Return("Plants take in carbon dioxide through their leaves.", nil).Once()

	resp, err := f.service.SendMessage(ctx, &model.SendMessageRequest{
		Content:  "Why do plants need carbon dioxide?",
		CourseID: &lesson.CourseID,
		LessonID: &lesson.LessonID,
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	// The reply is the assistant's, complete, and persisted.
	require.NotNil(t, resp.Message)
	assert.False(t, resp.Message.IsUser)
	assert.Equal(t, model.MessageComplete, resp.Message.Status)
	assert.Equal(t, model.MessageText, resp.Message.MessageType)
	assert.Equal(t, "Plants take in carbon dioxide through their leaves.", resp.Message.Content)

	// The prompt carried the lesson content and the student's question.
	assert.Contains(t, capturedPrompt, "carbon dioxide and release oxygen")
	assert.Contains(t, capturedPrompt, "Why do plants need carbon dioxide?")

	// Both turns are stored, user first.
	messages, err := f.service.GetMessages(ctx, resp.SessionID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.True(t, messages[0].IsUser)
	assert.Equal(t, model.MessageComplete, messages[0].Status)
	assert.False(t, messages[1].IsUser)
	assert.Equal(t, model.MessageComplete, messages[1].Status)

	// The session records both messages and a fresh LastMessageAt.
	session, err := f.service.GetSession(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, session.MessageCount)
	assert.False(t, session.LastMessageAt.Before(session.CreatedAt))

	f.inference.AssertExpectations(t)
}

func Test_chatService_SendMessage_ParsesMathSteps(t *testing.T) {
	ctx := context.Background()
	f := newChatServiceFixture(t)

	f.inference.On("Generate", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return("Step 1: Subtract 3 from both sides.\nEquation: 2x = 4\nStep 2: Divide by 2.\nEquation: x = 2\n", nil).Once()

	resp, err := f.service.SendMessage(ctx, &model.SendMessageRequest{
		Content: "Solve 2x + 3 = 7",
	})
	require.NoError(t, err)
	assert.Equal(t, model.MessageStepByStep, resp.Message.MessageType)
	require.Len(t, resp.Message.MathSteps, 2)

	// Steps come back ordered from storage too.
	messages, err := f.service.GetMessages(ctx, resp.SessionID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	steps := messages[1].MathSteps
	require.Len(t, steps, 2)
	assert.Equal(t, 1, steps[0].StepNumber)
	assert.Equal(t, "Subtract 3 from both sides.", steps[0].Description)
	require.NotNil(t, steps[0].Equation)
	assert.Equal(t, "2x = 4", *steps[0].Equation)
	assert.Equal(t, 2, steps[1].StepNumber)
}

func Test_chatService_SendMessage_SessionBusy(t *testing.T) {
	ctx := context.Background()
	f := newChatServiceFixture(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.inference.On("Generate", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			once.Do(func() { close(started) })
			<-release
		}).
		Return("done", nil).Once()

	session := &model.ChatSession{
		SessionID: uuid.New(), Title: "busy", IsActive: true,
		CreatedAt: time.Now(), LastMessageAt: time.Now(),
	}
	require.NoError(t, f.chatRepo.CreateSession(ctx, f.db, session))

	errCh := make(chan error, 1)
	go func() {
		_, err := f.service.SendMessage(ctx, &model.SendMessageRequest{
			SessionID: &session.SessionID, Content: "first question",
		})
		errCh <- err
	}()

	<-started
	_, err := f.service.SendMessage(ctx, &model.SendMessageRequest{
		SessionID: &session.SessionID, Content: "impatient second question",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSessionBusy)

	close(release)
	require.NoError(t, <-errCh)

	// Only the first turn went through: two messages, not four.
	messages, err := f.service.GetMessages(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func Test_chatService_SendMessage_IdempotentRetry(t *testing.T) {
	ctx := context.Background()
	f := newChatServiceFixture(t)

	clientMessageID := uuid.New()

	f.inference.On("Generate", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return("", errors.New("model crashed")).Once()
	f.inference.On("Generate", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return("Here is the answer.", nil).Once()

	session := &model.ChatSession{
		SessionID: uuid.New(), Title: "retry", IsActive: true,
		CreatedAt: time.Now(), LastMessageAt: time.Now(),
	}
	require.NoError(t, f.chatRepo.CreateSession(ctx, f.db, session))

	req := &model.SendMessageRequest{
		SessionID:       &session.SessionID,
		ClientMessageID: &clientMessageID,
		Content:         "What is osmosis?",
	}

	_, err := f.service.SendMessage(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInference)

	resp, err := f.service.SendMessage(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, model.MessageComplete, resp.Message.Status)

	// The user turn was stored exactly once across both attempts.
	var userCount int64
	require.NoError(t, f.db.Model(&model.ChatMessage{}).
		Where("session_id = ? AND is_user = ?", session.SessionID, true).
		Count(&userCount).Error)
	assert.EqualValues(t, 1, userCount)

	messages, err := f.service.GetMessages(ctx, session.SessionID)
	require.NoError(t, err)
	// user turn + failed assistant + successful assistant
	require.Len(t, messages, 3)
	assert.Equal(t, messages[0].MessageID, clientMessageID)

	f.inference.AssertExpectations(t)
}

func Test_chatService_SendMessage_FailedGenerationIsPersisted(t *testing.T) {
	ctx := context.Background()
	f := newChatServiceFixture(t)

	f.inference.On("Generate", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return("", errors.New("inference server returned 500")).Once()

	session := &model.ChatSession{
		SessionID: uuid.New(), Title: "failing", IsActive: true,
		CreatedAt: time.Now(), LastMessageAt: time.Now(),
	}
	require.NoError(t, f.chatRepo.CreateSession(ctx, f.db, session))

	_, err := f.service.SendMessage(ctx, &model.SendMessageRequest{
		SessionID: &session.SessionID, Content: "Explain mitosis",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInference)

	// The user turn survives; the assistant turn is recorded as failed.
	messages, err := f.service.GetMessages(ctx, session.SessionID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.True(t, messages[0].IsUser)
	assert.Equal(t, model.MessageComplete, messages[0].Status)
	assert.False(t, messages[1].IsUser)
	assert.Equal(t, model.MessageFailed, messages[1].Status)
}

func Test_chatService_CancelGeneration(t *testing.T) {
	ctx := context.Background()
	f := newChatServiceFixture(t)

	f.inference.On("Generate", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			genCtx := args.Get(0).(context.Context)
			<-genCtx.Done()
		}).
		Return("The cell cycle consists of", context.Canceled).Once()

	session := &model.ChatSession{
		SessionID: uuid.New(), Title: "cancelled", IsActive: true,
		CreatedAt: time.Now(), LastMessageAt: time.Now(),
	}
	require.NoError(t, f.chatRepo.CreateSession(ctx, f.db, session))

	errCh := make(chan error, 1)
	go func() {
		_, err := f.service.SendMessage(ctx, &model.SendMessageRequest{
			SessionID: &session.SessionID, Content: "Explain the cell cycle",
		})
		errCh <- err
	}()

	// Wait for the generation slot to be claimed, then cancel it.
	require.Eventually(t, func() bool {
		return f.service.CancelGeneration(session.SessionID)
	}, 2*time.Second, 10*time.Millisecond)

	err := <-errCh
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInferenceCancelled)

	// The partial output is kept as a failed assistant message; the user
	// message before it stays complete.
	messages, err := f.service.GetMessages(ctx, session.SessionID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.True(t, messages[0].IsUser)
	assert.Equal(t, model.MessageComplete, messages[0].Status)
	assert.Equal(t, model.MessageFailed, messages[1].Status)
	assert.Equal(t, "The cell cycle consists of", messages[1].Content)
}

func Test_chatService_SendMessage_DanglingScopeFallsBack(t *testing.T) {
	ctx := context.Background()
	f := newChatServiceFixture(t)

	var capturedPrompt string
	f.inference.On("Generate", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) { capturedPrompt = args.String(1) }).
		Return("Let's talk about it generally.", nil).Once()

	// Session scoped to an exercise that no longer exists.
	missing := uuid.New()
	resp, err := f.service.SendMessage(ctx, &model.SendMessageRequest{
		Content:    "I need help with this exercise",
		ExerciseID: &missing,
	})
	require.NoError(t, err, "a dangling scope degrades, it does not fail the turn")
	assert.Equal(t, model.MessageComplete, resp.Message.Status)
	assert.Contains(t, capturedPrompt, "I need help with this exercise")
}

func Test_chatService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newChatServiceFixture(t)

	f.inference.On("Generate", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return("ok", nil)

	resp, err := f.service.SendMessage(ctx, &model.SendMessageRequest{Content: "hello there"})
	require.NoError(t, err)

	sessions, err := f.service.ListSessions(ctx, true)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "hello there", sessions[0].Title)

	require.NoError(t, f.service.DeactivateSession(ctx, resp.SessionID))
	sessions, err = f.service.ListSessions(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	require.NoError(t, f.service.DeleteSession(ctx, resp.SessionID))
	_, err = f.service.GetSession(ctx, resp.SessionID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = f.service.DeleteSession(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

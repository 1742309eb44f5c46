// internal/rag/factory_test.go
package rag

import (
	"context"
	"testing"

	"eliza_tutor/internal/model"
	"eliza_tutor/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testUserID = "local"

func setupRagTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:rag_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
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

func seedRagCourse(t *testing.T, db *gorm.DB, courseRepo repository.CourseRepository) *model.Course {
	t.Helper()
	course := &model.Course{
		CourseID: uuid.New(),
		Title:    "Biology Basics",
		Subject:  "biology",
		Lessons: []model.Lesson{
			{
				LessonID:        uuid.New(),
				LessonNumber:    3,
				Title:           "Photosynthesis",
				MarkdownContent: "Plants absorb carbon dioxide and release oxygen using light energy.",
				Exercises: []model.Exercise{
					{
						ExerciseID:         uuid.New(),
						QuestionText:       "What gas do plants absorb during photosynthesis?",
						Options:            model.StringList{"Oxygen", "Carbon dioxide", "Nitrogen"},
						CorrectAnswerIndex: 1,
						Difficulty:         "easy",
					},
				},
			},
		},
	}
	require.NoError(t, courseRepo.UpsertCourse(context.Background(), db, course))
	return course
}

func newTestFactory(t *testing.T) (ProviderFactory, *gorm.DB, *model.Course) {
	t.Helper()
	db := setupRagTestDB(t)
	notifier := repository.NewNotifier()
	courseRepo := repository.NewGormCourseRepository(notifier)
	progressRepo := repository.NewGormProgressRepository(notifier)
	course := seedRagCourse(t, db, courseRepo)
	factory := NewProviderFactory(db, courseRepo, progressRepo, testUserID, 4000)
	return factory, db, course
}

func Test_providerFactory_Select_RoutesEveryScope(t *testing.T) {
	ctx := context.Background()
	factory, _, course := newTestFactory(t)
	lessonID := course.Lessons[0].LessonID
	exerciseID := course.Lessons[0].Exercises[0].ExerciseID

	tests := []struct {
		name  string
		scope model.ChatScope
		want  model.ScopeKind
	}{
		{"empty scope", model.ChatScope{}, model.ScopeGeneral},
		{"lesson scope", model.ChatScope{LessonID: &lessonID}, model.ScopeChapter},
		{"revision scope", model.ChatScope{CourseID: &course.CourseID, IsRevision: true}, model.ScopeRevision},
		{"exercise scope", model.ChatScope{LessonID: &lessonID, ExerciseID: &exerciseID}, model.ScopeExercise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := factory.Select(ctx, tt.scope)
			require.NoError(t, err)
			require.NotNil(t, provider)
			assert.Equal(t, tt.want, provider.Kind())

			// Same scope, same strategy.
			again, err := factory.Select(ctx, tt.scope)
			require.NoError(t, err)
			assert.Equal(t, provider.Kind(), again.Kind())
		})
	}
}

func Test_providerFactory_Select_FallsBackToGeneral(t *testing.T) {
	ctx := context.Background()
	factory, _, course := newTestFactory(t)

	missing := uuid.New()
	tests := []struct {
		name  string
		scope model.ChatScope
	}{
		{"deleted exercise", model.ChatScope{ExerciseID: &missing}},
		{"deleted trial", model.ChatScope{TrialID: &missing}},
		{"deleted lesson", model.ChatScope{LessonID: &missing}},
		{"deleted course in revision", model.ChatScope{CourseID: &missing, IsRevision: true}},
		{"revision without course", model.ChatScope{IsRevision: true}},
	}
	_ = course

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := factory.Select(ctx, tt.scope)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrScopeResolution)
			// The fallback provider is always usable.
			require.NotNil(t, provider)
			assert.Equal(t, model.ScopeGeneral, provider.Kind())
		})
	}
}

func Test_ExerciseProvider_BuildContext(t *testing.T) {
	ctx := context.Background()
	db := setupRagTestDB(t)
	notifier := repository.NewNotifier()
	courseRepo := repository.NewGormCourseRepository(notifier)
	progressRepo := repository.NewGormProgressRepository(notifier)
	course := seedRagCourse(t, db, courseRepo)
	exercise := course.Lessons[0].Exercises[0]

	provider := NewExerciseProvider(db, courseRepo, progressRepo, testUserID, 4000)

	t.Run("includes question and options", func(t *testing.T) {
		block, err := provider.BuildContext(ctx, "I don't get it", model.ChatScope{ExerciseID: &exercise.ExerciseID})
		require.NoError(t, err)
		assert.Contains(t, block.Text, exercise.QuestionText)
		assert.Contains(t, block.Text, "A) Oxygen")
		assert.Contains(t, block.Text, "B) Carbon dioxide")
		assert.NotContains(t, block.Text, "correct answer")
		require.Len(t, block.Sources, 1)
		assert.Equal(t, "exercise", block.Sources[0].EntityType)
	})

	t.Run("includes previous attempts", func(t *testing.T) {
		answer := &model.UserAnswer{
			AnswerID: uuid.New(), ExerciseID: exercise.ExerciseID,
			UserID: testUserID, SelectedAnswer: 0, IsCorrect: false,
		}
		require.NoError(t, progressRepo.CreateUserAnswer(ctx, db, answer))

		block, err := provider.BuildContext(ctx, "why was that wrong", model.ChatScope{ExerciseID: &exercise.ExerciseID})
		require.NoError(t, err)
		assert.Contains(t, block.Text, "Previous attempts")
		assert.Contains(t, block.Text, "chose A) Oxygen (wrong)")
	})

	t.Run("missing exercise degrades to an empty block", func(t *testing.T) {
		missing := uuid.New()
		block, err := provider.BuildContext(ctx, "help", model.ChatScope{ExerciseID: &missing})
		require.NoError(t, err)
		assert.True(t, block.Empty())
	})

	t.Run("instructions forbid revealing the answer", func(t *testing.T) {
		instructions := provider.SystemInstructions(model.ChatScope{ExerciseID: &exercise.ExerciseID})
		assert.Contains(t, instructions, "Never state the correct option")
	})
}

func Test_ChapterProvider_BuildContext(t *testing.T) {
	ctx := context.Background()
	db := setupRagTestDB(t)
	notifier := repository.NewNotifier()
	courseRepo := repository.NewGormCourseRepository(notifier)
	course := seedRagCourse(t, db, courseRepo)
	lesson := course.Lessons[0]

	provider := NewChapterProvider(db, courseRepo, 4000)

	t.Run("includes lesson content", func(t *testing.T) {
		block, err := provider.BuildContext(ctx, "what is photosynthesis", model.ChatScope{LessonID: &lesson.LessonID})
		require.NoError(t, err)
		assert.Contains(t, block.Text, "Photosynthesis")
		assert.Contains(t, block.Text, "carbon dioxide")
		require.Len(t, block.Sources, 1)
		assert.Equal(t, lesson.LessonID, block.Sources[0].EntityID)
	})

	t.Run("missing lesson degrades to an empty block", func(t *testing.T) {
		missing := uuid.New()
		block, err := provider.BuildContext(ctx, "help", model.ChatScope{LessonID: &missing})
		require.NoError(t, err)
		assert.True(t, block.Empty())
	})

	t.Run("content is clipped to the budget", func(t *testing.T) {
		tight := NewChapterProvider(db, courseRepo, 30)
		block, err := tight.BuildContext(ctx, "summary please", model.ChatScope{LessonID: &lesson.LessonID})
		require.NoError(t, err)
		assert.NotEmpty(t, block.Text)
		assert.Less(t, len(block.Text), len(lesson.MarkdownContent)+60)
	})
}

func Test_GeneralProvider_BuildContext(t *testing.T) {
	ctx := context.Background()
	db := setupRagTestDB(t)
	notifier := repository.NewNotifier()
	courseRepo := repository.NewGormCourseRepository(notifier)
	seedRagCourse(t, db, courseRepo)

	provider := NewGeneralProvider(db, courseRepo, 4000)

	block, err := provider.BuildContext(ctx, "what can I learn here", model.ChatScope{})
	require.NoError(t, err)
	assert.Contains(t, block.Text, "Biology Basics")

	subject := "history"
	block, err = provider.BuildContext(ctx, "anything", model.ChatScope{Subject: &subject})
	require.NoError(t, err)
	assert.True(t, block.Empty(), "no courses for the subject means no context")
}

func Test_RevisionProvider_BuildContext(t *testing.T) {
	ctx := context.Background()
	db := setupRagTestDB(t)
	notifier := repository.NewNotifier()
	courseRepo := repository.NewGormCourseRepository(notifier)
	progressRepo := repository.NewGormProgressRepository(notifier)
	course := seedRagCourse(t, db, courseRepo)
	exercise := course.Lessons[0].Exercises[0]

	provider := NewRevisionProvider(db, progressRepo, testUserID, 4000)

	t.Run("surfaces weak exercises and unread lessons", func(t *testing.T) {
		require.NoError(t, progressRepo.CreateUserAnswer(ctx, db, &model.UserAnswer{
			AnswerID: uuid.New(), ExerciseID: exercise.ExerciseID,
			UserID: testUserID, SelectedAnswer: 0, IsCorrect: false,
		}))

		block, err := provider.BuildContext(ctx, "let's review", model.ChatScope{CourseID: &course.CourseID, IsRevision: true})
		require.NoError(t, err)
		assert.Contains(t, block.Text, exercise.QuestionText)
		assert.Contains(t, block.Text, "Lesson 3: Photosynthesis")
	})

	t.Run("missing course binding degrades to an empty block", func(t *testing.T) {
		block, err := provider.BuildContext(ctx, "review", model.ChatScope{IsRevision: true})
		require.NoError(t, err)
		assert.True(t, block.Empty())
	})
}

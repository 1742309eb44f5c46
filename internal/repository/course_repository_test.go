// internal/repository/course_repository_test.go
package repository

import (
	"context"
	"testing"
	"time"

	"eliza_tutor/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupCourseTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique shared-cache name per test keeps parallel tests isolated while
	// the pragma keeps cascade deletes working.
	dsn := "file:course_repo_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))
	return db
}

// seedCourse stores a course with one lesson, one exercise and one trial and
// returns it fully wired.
func seedCourse(t *testing.T, db *gorm.DB, repo CourseRepository) *model.Course {
	t.Helper()
	ctx := context.Background()

	course := &model.Course{
		CourseID: uuid.New(),
		Title:    "Biology Basics",
		Subject:  "biology",
		Grade:    "8",
		Lessons: []model.Lesson{
			{
				LessonID:        uuid.New(),
				LessonNumber:    1,
				Title:           "Photosynthesis",
				MarkdownContent: "# Photosynthesis\nPlants convert light energy into chemical energy.",
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
	require.NoError(t, repo.UpsertCourse(ctx, db, course))

	trial := &model.Trial{
		TrialID:            uuid.New(),
		OriginalExerciseID: course.Lessons[0].Exercises[0].ExerciseID,
		QuestionText:       "Which gas is taken in by leaves?",
		Options:            model.StringList{"CO2", "O2"},
		CorrectAnswerIndex: 0,
		Difficulty:         "easy",
	}
	require.NoError(t, repo.CreateTrial(ctx, db, trial))
	return course
}

func Test_gormCourseRepository_DeleteCourse_Cascades(t *testing.T) {
	ctx := context.Background()
	db := setupCourseTestDB(t)
	repo := NewGormCourseRepository(NewNotifier())

	course := seedCourse(t, db, repo)
	lessonID := course.Lessons[0].LessonID
	exerciseID := course.Lessons[0].Exercises[0].ExerciseID

	require.NoError(t, db.Create(&model.UserProgress{
		ProgressID: uuid.New(), UserID: "local", CourseID: course.CourseID,
	}).Error)
	require.NoError(t, db.Create(&model.LessonProgress{
		LessonProgressID: uuid.New(), LessonID: lessonID, UserID: "local",
	}).Error)
	require.NoError(t, db.Create(&model.UserAnswer{
		AnswerID: uuid.New(), ExerciseID: exerciseID, UserID: "local", AnsweredAt: time.Now(),
	}).Error)

	require.NoError(t, repo.DeleteCourse(ctx, db, course.CourseID))

	_, err := repo.FindCourseByID(ctx, db, course.CourseID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = repo.FindLessonByID(ctx, db, lessonID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = repo.FindExerciseByID(ctx, db, exerciseID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	for _, probe := range []struct {
		name  string
		value interface{}
	}{
		{"trials", &model.Trial{}},
		{"user progress", &model.UserProgress{}},
		{"lesson progress", &model.LessonProgress{}},
		{"answers", &model.UserAnswer{}},
	} {
		var count int64
		require.NoError(t, db.Model(probe.value).Count(&count).Error)
		assert.Zero(t, count, "%s must vanish with the course", probe.name)
	}
}

func Test_gormCourseRepository_DeleteCourse_NotFound(t *testing.T) {
	db := setupCourseTestDB(t)
	repo := NewGormCourseRepository(NewNotifier())

	err := repo.DeleteCourse(context.Background(), db, uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func Test_gormCourseRepository_UpsertCourse_Refreshes(t *testing.T) {
	ctx := context.Background()
	db := setupCourseTestDB(t)
	repo := NewGormCourseRepository(NewNotifier())

	course := seedCourse(t, db, repo)

	course.Title = "Biology Basics, second edition"
	course.Version = 2
	course.Lessons = nil // content update without resupplying children
	require.NoError(t, repo.UpsertCourse(ctx, db, course))

	got, err := repo.FindCourseByID(ctx, db, course.CourseID)
	require.NoError(t, err)
	assert.Equal(t, "Biology Basics, second edition", got.Title)
	assert.Equal(t, 2, got.Version)
	assert.Len(t, got.Lessons, 1, "existing lessons survive a catalog refresh")
}

func Test_gormCourseRepository_FindCoursesBySubject(t *testing.T) {
	ctx := context.Background()
	db := setupCourseTestDB(t)
	repo := NewGormCourseRepository(NewNotifier())

	seedCourse(t, db, repo)
	other := &model.Course{CourseID: uuid.New(), Title: "Algebra", Subject: "math"}
	require.NoError(t, repo.UpsertCourse(ctx, db, other))

	math, err := repo.FindCoursesBySubject(ctx, db, "math")
	require.NoError(t, err)
	require.Len(t, math, 1)
	assert.Equal(t, "Algebra", math[0].Title)

	all, err := repo.FindAllCourses(ctx, db)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func Test_gormCourseRepository_UpdateExerciseAnswer(t *testing.T) {
	ctx := context.Background()
	db := setupCourseTestDB(t)
	repo := NewGormCourseRepository(NewNotifier())

	course := seedCourse(t, db, repo)
	exerciseID := course.Lessons[0].Exercises[0].ExerciseID

	require.NoError(t, repo.UpdateExerciseAnswer(ctx, db, exerciseID, 1, true))

	got, err := repo.FindExerciseByID(ctx, db, exerciseID)
	require.NoError(t, err)
	require.NotNil(t, got.UserAnswerIndex)
	assert.Equal(t, 1, *got.UserAnswerIndex)
	require.NotNil(t, got.IsCorrect)
	assert.True(t, *got.IsCorrect)
}

func Test_gormCourseRepository_CountExercisesByCourse(t *testing.T) {
	ctx := context.Background()
	db := setupCourseTestDB(t)
	repo := NewGormCourseRepository(NewNotifier())

	course := seedCourse(t, db, repo)

	count, err := repo.CountExercisesByCourse(ctx, db, course.CourseID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	count, err = repo.CountExercisesByCourse(ctx, db, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func Test_Notifier_PublishCoalesces(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Subscribe(TopicCourses)
	defer cancel()

	// Back to back publishes collapse into at most one pending signal.
	n.Publish(TopicCourses)
	n.Publish(TopicCourses)
	n.Publish(TopicCourses)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a signal after publish")
	}

	select {
	case <-ch:
		// A second buffered signal is allowed but nothing further.
		select {
		case <-ch:
			t.Fatal("publishes were not coalesced")
		default:
		}
	default:
	}
}

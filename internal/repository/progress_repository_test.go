// internal/repository/progress_repository_test.go
package repository

import (
	"context"
	"testing"
	"time"

	"eliza_tutor/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_gormProgressRepository_FindWeakExercises(t *testing.T) {
	ctx := context.Background()
	db := setupCourseTestDB(t)
	courseRepo := NewGormCourseRepository(NewNotifier())
	repo := NewGormProgressRepository(NewNotifier())

	course := seedCourse(t, db, courseRepo)
	exercise := course.Lessons[0].Exercises[0]
	userID := "local"

	answer := func(exerciseID uuid.UUID, trialID *uuid.UUID, correct bool, at time.Time) {
		require.NoError(t, repo.CreateUserAnswer(ctx, db, &model.UserAnswer{
			AnswerID: uuid.New(), ExerciseID: exerciseID, TrialID: trialID,
			UserID: userID, SelectedAnswer: 0, IsCorrect: correct, AnsweredAt: at,
		}))
	}

	t.Run("no answers means no weak exercises", func(t *testing.T) {
		weak, err := repo.FindWeakExercises(ctx, db, userID, course.CourseID, 5)
		require.NoError(t, err)
		assert.Empty(t, weak)
	})

	t.Run("a wrong trial answer flags the original exercise", func(t *testing.T) {
		trial := &model.Trial{
			TrialID:            uuid.New(),
			OriginalExerciseID: exercise.ExerciseID,
			QuestionText:       "Which gas do leaves take in?",
			Options:            model.StringList{"CO2", "O2"},
			CorrectAnswerIndex: 0,
		}
		require.NoError(t, courseRepo.CreateTrial(ctx, db, trial))

		// The trial row carries the answer mirror; the exercise row is
		// untouched. Weakness must still surface through the answer history.
		answer(exercise.ExerciseID, &trial.TrialID, false, time.Now().Add(-time.Hour))
		require.NoError(t, courseRepo.UpdateTrialAnswer(ctx, db, trial.TrialID, 1, false))

		weak, err := repo.FindWeakExercises(ctx, db, userID, course.CourseID, 5)
		require.NoError(t, err)
		require.Len(t, weak, 1)
		assert.Equal(t, exercise.ExerciseID, weak[0].ExerciseID)
	})

	t.Run("a later correct answer clears the weakness", func(t *testing.T) {
		answer(exercise.ExerciseID, nil, true, time.Now())

		weak, err := repo.FindWeakExercises(ctx, db, userID, course.CourseID, 5)
		require.NoError(t, err)
		assert.Empty(t, weak)
	})

	t.Run("hardest-hit exercises come first", func(t *testing.T) {
		lessonID := course.Lessons[0].LessonID
		once := &model.Exercise{
			ExerciseID: uuid.New(), LessonID: lessonID,
			QuestionText: "Missed once", Options: model.StringList{"a", "b"},
		}
		twice := &model.Exercise{
			ExerciseID: uuid.New(), LessonID: lessonID,
			QuestionText: "Missed twice", Options: model.StringList{"a", "b"},
		}
		require.NoError(t, db.Create(once).Error)
		require.NoError(t, db.Create(twice).Error)

		base := time.Now().Add(-time.Minute)
		answer(once.ExerciseID, nil, false, base)
		answer(twice.ExerciseID, nil, false, base.Add(time.Second))
		answer(twice.ExerciseID, nil, false, base.Add(2*time.Second))

		weak, err := repo.FindWeakExercises(ctx, db, userID, course.CourseID, 5)
		require.NoError(t, err)
		require.Len(t, weak, 2)
		assert.Equal(t, twice.ExerciseID, weak[0].ExerciseID)
		assert.Equal(t, once.ExerciseID, weak[1].ExerciseID)
	})
}

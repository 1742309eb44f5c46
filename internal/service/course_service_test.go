// internal/service/course_service_test.go
package service

import (
	"context"
	"errors"
	"testing"

	"eliza_tutor/internal/model"
	"eliza_tutor/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupCourseServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	// The service only needs a handle for transactions; the mocked
	// repositories never touch it.
	db, err := gorm.Open(sqlite.Open("file:course_svc_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func Test_courseService_ImportCourse(t *testing.T) {
	ctx := context.Background()
	db := setupCourseServiceDB(t)
	mockCourseRepo := new(mocks.CourseRepository)
	mockProgressRepo := new(mocks.ProgressRepository)
	svc := NewCourseService(db, mockCourseRepo, mockProgressRepo, "local")

	tests := []struct {
		name      string
		course    *model.Course
		setupMock func()
		wantErr   error
	}{
		{
			name: "bundle with nested content is stored and totals seeded",
			course: &model.Course{
				Title:   "Chemistry",
				Subject: "science",
				Lessons: []model.Lesson{
					{Title: "Atoms", Exercises: []model.Exercise{
						{QuestionText: "Proton charge?", Options: model.StringList{"+", "-"}, CorrectAnswerIndex: 0},
						{QuestionText: "Electron charge?", Options: model.StringList{"+", "-"}, CorrectAnswerIndex: 1},
					}},
					{Title: "Molecules"},
				},
			},
			setupMock: func() {
				mockCourseRepo.On("UpsertCourse", mock.Anything, mock.Anything, mock.AnythingOfType("*model.Course")).
					Return(nil).Once()
				mockProgressRepo.On("SetUserProgressTotals", mock.Anything, mock.Anything, "local", mock.AnythingOfType("uuid.UUID"), 2, 2).
					Return(nil).Once()
			},
			wantErr: nil,
		},
		{
			name:      "missing title is rejected",
			course:    &model.Course{Subject: "science"},
			setupMock: func() {},
			wantErr:   model.ErrInvalidInput,
		},
		{
			name:   "storage failure surfaces",
			course: &model.Course{Title: "History", Subject: "history"},
			setupMock: func() {
				mockCourseRepo.On("UpsertCourse", mock.Anything, mock.Anything, mock.AnythingOfType("*model.Course")).
					Return(errors.New("disk full")).Once()
			},
			wantErr: model.ErrInternalServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCourseRepo.Mock = mock.Mock{}
			mockProgressRepo.Mock = mock.Mock{}
			tt.setupMock()

			err := svc.ImportCourse(ctx, tt.course)
			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, model.ErrInternalServer) {
					// Wrapped in an AppError with a 500 code.
					var appErr *model.AppError
					assert.ErrorAs(t, err, &appErr)
				} else {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, tt.course.CourseID, "an ID is assigned on import")
			assert.Equal(t, 2, tt.course.TotalLessons)
			assert.Equal(t, model.DownloadCompleted, tt.course.DownloadStatus)
			for _, lesson := range tt.course.Lessons {
				assert.Equal(t, tt.course.CourseID, lesson.CourseID)
				for _, ex := range lesson.Exercises {
					assert.Equal(t, lesson.LessonID, ex.LessonID)
				}
			}
			mockCourseRepo.AssertExpectations(t)
			mockProgressRepo.AssertExpectations(t)
		})
	}
}

func Test_courseService_GetCourse_NotFound(t *testing.T) {
	ctx := context.Background()
	db := setupCourseServiceDB(t)
	mockCourseRepo := new(mocks.CourseRepository)
	svc := NewCourseService(db, mockCourseRepo, new(mocks.ProgressRepository), "local")

	courseID := uuid.New()
	mockCourseRepo.On("FindCourseByID", mock.Anything, mock.Anything, courseID).
		Return(nil, model.ErrNotFound).Once()

	_, err := svc.GetCourse(ctx, courseID)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)

	var appErr *model.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "COURSE_NOT_FOUND", appErr.Code)
	mockCourseRepo.AssertExpectations(t)
}

func Test_courseService_CreateTrial(t *testing.T) {
	ctx := context.Background()
	db := setupCourseServiceDB(t)
	mockCourseRepo := new(mocks.CourseRepository)
	svc := NewCourseService(db, mockCourseRepo, new(mocks.ProgressRepository), "local")

	exerciseID := uuid.New()
	exercise := &model.Exercise{ExerciseID: exerciseID, QuestionText: "Solve 2x = 6"}

	t.Run("valid trial is stored against the exercise", func(t *testing.T) {
		mockCourseRepo.Mock = mock.Mock{}
		mockCourseRepo.On("FindExerciseByID", mock.Anything, mock.Anything, exerciseID).
			Return(exercise, nil).Once()
		mockCourseRepo.On("CreateTrial", mock.Anything, mock.Anything, mock.AnythingOfType("*model.Trial")).
			Return(nil).Once()

		trial, err := svc.CreateTrial(ctx, exerciseID, &model.CreateTrialRequest{
			QuestionText:       "Solve 3x = 9",
			Options:            []string{"x = 3", "x = 6"},
			CorrectAnswerIndex: 0,
		})
		require.NoError(t, err)
		assert.Equal(t, exerciseID, trial.OriginalExerciseID)
		assert.Equal(t, "medium", trial.Difficulty, "difficulty defaults when absent")
		mockCourseRepo.AssertExpectations(t)
	})

	t.Run("answer index outside the options is rejected", func(t *testing.T) {
		mockCourseRepo.Mock = mock.Mock{}
		mockCourseRepo.On("FindExerciseByID", mock.Anything, mock.Anything, exerciseID).
			Return(exercise, nil).Once()

		_, err := svc.CreateTrial(ctx, exerciseID, &model.CreateTrialRequest{
			QuestionText:       "Solve 3x = 9",
			Options:            []string{"x = 3", "x = 6"},
			CorrectAnswerIndex: 5,
		})
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("unknown exercise is rejected", func(t *testing.T) {
		mockCourseRepo.Mock = mock.Mock{}
		missing := uuid.New()
		mockCourseRepo.On("FindExerciseByID", mock.Anything, mock.Anything, missing).
			Return(nil, model.ErrNotFound).Once()

		_, err := svc.CreateTrial(ctx, missing, &model.CreateTrialRequest{
			QuestionText: "q", Options: []string{"a", "b"},
		})
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

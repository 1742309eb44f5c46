// internal/service/course_service.go
package service

import (
	"context"
	"errors"
	"time"

	"eliza_tutor/internal/middleware"
	"eliza_tutor/internal/model"
	"eliza_tutor/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseService interface {
	// ImportCourse stores or refreshes a downloaded course bundle, lessons
	// and exercises included, and seeds the progress totals.
	ImportCourse(ctx context.Context, course *model.Course) error

	GetCourse(ctx context.Context, courseID uuid.UUID) (*model.Course, error)
	ListCourses(ctx context.Context, subject string) ([]*model.Course, error)
	DeleteCourse(ctx context.Context, courseID uuid.UUID) error

	GetLesson(ctx context.Context, lessonID uuid.UUID) (*model.Lesson, error)
	ListLessons(ctx context.Context, courseID uuid.UUID) ([]*model.Lesson, error)

	GetExercise(ctx context.Context, exerciseID uuid.UUID) (*model.Exercise, error)
	ListExercises(ctx context.Context, lessonID uuid.UUID) ([]*model.Exercise, error)

	// CreateTrial stores a regenerated practice variant of an exercise.
	CreateTrial(ctx context.Context, exerciseID uuid.UUID, req *model.CreateTrialRequest) (*model.Trial, error)
	GetTrial(ctx context.Context, trialID uuid.UUID) (*model.Trial, error)
}

type courseService struct {
	db           *gorm.DB
	courseRepo   repository.CourseRepository
	progressRepo repository.ProgressRepository
	userID       string
}

func NewCourseService(
	db *gorm.DB,
	courseRepo repository.CourseRepository,
	progressRepo repository.ProgressRepository,
	userID string,
) CourseService {
	return &courseService{
		db:           db,
		courseRepo:   courseRepo,
		progressRepo: progressRepo,
		userID:       userID,
	}
}

func (s *courseService) ImportCourse(ctx context.Context, course *model.Course) error {
	logger := middleware.GetLogger(ctx)

	if course.CourseID == uuid.Nil {
		course.CourseID = uuid.New()
	}
	if course.Title == "" || course.Subject == "" {
		return model.NewAppError("INVALID_INPUT", "A course needs a title and a subject.", "", model.ErrInvalidInput)
	}
	now := time.Now()
	course.UpdatedAt = now
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.TotalLessons = len(course.Lessons)
	course.DownloadStatus = model.DownloadCompleted

	totalExercises := 0
	for i := range course.Lessons {
		lesson := &course.Lessons[i]
		if lesson.LessonID == uuid.Nil {
			lesson.LessonID = uuid.New()
		}
		lesson.CourseID = course.CourseID
		for j := range lesson.Exercises {
			exercise := &lesson.Exercises[j]
			if exercise.ExerciseID == uuid.Nil {
				exercise.ExerciseID = uuid.New()
			}
			exercise.LessonID = lesson.LessonID
		}
		totalExercises += len(lesson.Exercises)
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.courseRepo.UpsertCourse(ctx, tx, course); err != nil {
			return err
		}
		return s.progressRepo.SetUserProgressTotals(ctx, tx, s.userID, course.CourseID,
			course.TotalLessons, totalExercises)
	}); err != nil {
		return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to import the course.", "", err)
	}

	logger.Info("Course imported", "course_id", course.CourseID, "title", course.Title,
		"lessons", course.TotalLessons, "exercises", totalExercises)
	return nil
}

func (s *courseService) GetCourse(ctx context.Context, courseID uuid.UUID) (*model.Course, error) {
	course, err := s.courseRepo.FindCourseByID(ctx, s.db, courseID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("COURSE_NOT_FOUND", "Course not found.", "course_id", err)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the course.", "", err)
	}
	return course, nil
}

func (s *courseService) ListCourses(ctx context.Context, subject string) ([]*model.Course, error) {
	var (
		courses []*model.Course
		err     error
	)
	if subject != "" {
		courses, err = s.courseRepo.FindCoursesBySubject(ctx, s.db, subject)
	} else {
		courses, err = s.courseRepo.FindAllCourses(ctx, s.db)
	}
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to list courses.", "", err)
	}
	return courses, nil
}

func (s *courseService) DeleteCourse(ctx context.Context, courseID uuid.UUID) error {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return err
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.courseRepo.DeleteCourse(ctx, tx, courseID)
	}); err != nil {
		return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to delete the course.", "", err)
	}
	return nil
}

func (s *courseService) GetLesson(ctx context.Context, lessonID uuid.UUID) (*model.Lesson, error) {
	lesson, err := s.courseRepo.FindLessonByID(ctx, s.db, lessonID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("LESSON_NOT_FOUND", "Lesson not found.", "lesson_id", err)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the lesson.", "", err)
	}
	return lesson, nil
}

func (s *courseService) ListLessons(ctx context.Context, courseID uuid.UUID) ([]*model.Lesson, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	lessons, err := s.courseRepo.FindLessonsByCourse(ctx, s.db, courseID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to list lessons.", "", err)
	}
	return lessons, nil
}

func (s *courseService) GetExercise(ctx context.Context, exerciseID uuid.UUID) (*model.Exercise, error) {
	exercise, err := s.courseRepo.FindExerciseByID(ctx, s.db, exerciseID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("EXERCISE_NOT_FOUND", "Exercise not found.", "exercise_id", err)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the exercise.", "", err)
	}
	return exercise, nil
}

func (s *courseService) ListExercises(ctx context.Context, lessonID uuid.UUID) ([]*model.Exercise, error) {
	if _, err := s.GetLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	exercises, err := s.courseRepo.FindExercisesByLesson(ctx, s.db, lessonID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to list exercises.", "", err)
	}
	return exercises, nil
}

func (s *courseService) CreateTrial(ctx context.Context, exerciseID uuid.UUID, req *model.CreateTrialRequest) (*model.Trial, error) {
	if _, err := s.GetExercise(ctx, exerciseID); err != nil {
		return nil, err
	}
	if req.CorrectAnswerIndex >= len(req.Options) {
		return nil, model.NewAppError("INVALID_INPUT", "Correct answer index is out of range.", "correct_answer_index", model.ErrInvalidInput)
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}

	trial := &model.Trial{
		TrialID:            uuid.New(),
		OriginalExerciseID: exerciseID,
		QuestionText:       req.QuestionText,
		Options:            model.StringList(req.Options),
		CorrectAnswerIndex: req.CorrectAnswerIndex,
		Explanation:        req.Explanation,
		Difficulty:         difficulty,
		CreatedAt:          time.Now(),
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.courseRepo.CreateTrial(ctx, tx, trial)
	}); err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to create the trial.", "", err)
	}
	return trial, nil
}

func (s *courseService) GetTrial(ctx context.Context, trialID uuid.UUID) (*model.Trial, error) {
	trial, err := s.courseRepo.FindTrialByID(ctx, s.db, trialID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("TRIAL_NOT_FOUND", "Trial not found.", "trial_id", err)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the trial.", "", err)
	}
	return trial, nil
}

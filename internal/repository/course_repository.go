// internal/repository/course_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"eliza_tutor/internal/middleware"
	"eliza_tutor/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CourseRepository reads and writes the course catalog: courses, lessons,
// exercises and trial variants. The db argument is either the root handle or
// a transaction, supplied by the service layer.
type CourseRepository interface {
	UpsertCourse(ctx context.Context, tx *gorm.DB, course *model.Course) error
	FindCourseByID(ctx context.Context, db *gorm.DB, courseID uuid.UUID) (*model.Course, error)
	FindAllCourses(ctx context.Context, db *gorm.DB) ([]*model.Course, error)
	FindCoursesBySubject(ctx context.Context, db *gorm.DB, subject string) ([]*model.Course, error)
	DeleteCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error

	FindLessonByID(ctx context.Context, db *gorm.DB, lessonID uuid.UUID) (*model.Lesson, error)
	FindLessonsByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID) ([]*model.Lesson, error)

	FindExerciseByID(ctx context.Context, db *gorm.DB, exerciseID uuid.UUID) (*model.Exercise, error)
	FindExercisesByLesson(ctx context.Context, db *gorm.DB, lessonID uuid.UUID) ([]*model.Exercise, error)
	CountExercisesByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID) (int64, error)
	UpdateExerciseAnswer(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID, answerIndex int, isCorrect bool) error

	CreateTrial(ctx context.Context, tx *gorm.DB, trial *model.Trial) error
	FindTrialByID(ctx context.Context, db *gorm.DB, trialID uuid.UUID) (*model.Trial, error)
	UpdateTrialAnswer(ctx context.Context, tx *gorm.DB, trialID uuid.UUID, answerIndex int, isCorrect bool) error
}

type gormCourseRepository struct {
	notifier *Notifier
}

func NewGormCourseRepository(notifier *Notifier) CourseRepository {
	return &gormCourseRepository{notifier: notifier}
}

func (r *gormCourseRepository) UpsertCourse(ctx context.Context, tx *gorm.DB, course *model.Course) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}},
		UpdateAll: true,
	}).Create(course)
	if result.Error != nil {
		logger.Error("Error upserting course", "error", result.Error, "course_id", course.CourseID.String())
		return fmt.Errorf("gormCourseRepository.UpsertCourse: %w", result.Error)
	}
	r.notifier.Publish(TopicCourses)
	return nil
}

func (r *gormCourseRepository) FindCourseByID(ctx context.Context, db *gorm.DB, courseID uuid.UUID) (*model.Course, error) {
	var course model.Course
	result := db.WithContext(ctx).
		Preload("Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("lessons.lesson_number ASC") }).
		Where("course_id = ?", courseID).First(&course)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormCourseRepository.FindCourseByID: %w", result.Error)
	}
	return &course, nil
}

func (r *gormCourseRepository) FindAllCourses(ctx context.Context, db *gorm.DB) ([]*model.Course, error) {
	var courses []*model.Course
	result := db.WithContext(ctx).Order("subject ASC, title ASC").Find(&courses)
	if result.Error != nil {
		return nil, fmt.Errorf("gormCourseRepository.FindAllCourses: %w", result.Error)
	}
	return courses, nil
}

func (r *gormCourseRepository) FindCoursesBySubject(ctx context.Context, db *gorm.DB, subject string) ([]*model.Course, error) {
	var courses []*model.Course
	result := db.WithContext(ctx).Where("subject = ?", subject).Order("title ASC").Find(&courses)
	if result.Error != nil {
		return nil, fmt.Errorf("gormCourseRepository.FindCoursesBySubject: %w", result.Error)
	}
	return courses, nil
}

func (r *gormCourseRepository) DeleteCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	// Lessons, exercises, trials, answers and progress rows go with the
	// course through ON DELETE CASCADE.
	result := tx.WithContext(ctx).Where("course_id = ?", courseID).Delete(&model.Course{})
	if result.Error != nil {
		logger.Error("Error deleting course", "error", result.Error, "course_id", courseID.String())
		return fmt.Errorf("gormCourseRepository.DeleteCourse: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	r.notifier.Publish(TopicCourses, TopicProgress)
	return nil
}

func (r *gormCourseRepository) FindLessonByID(ctx context.Context, db *gorm.DB, lessonID uuid.UUID) (*model.Lesson, error) {
	var lesson model.Lesson
	result := db.WithContext(ctx).Where("lesson_id = ?", lessonID).First(&lesson)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormCourseRepository.FindLessonByID: %w", result.Error)
	}
	return &lesson, nil
}

func (r *gormCourseRepository) FindLessonsByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID) ([]*model.Lesson, error) {
	var lessons []*model.Lesson
	result := db.WithContext(ctx).Where("course_id = ?", courseID).Order("lesson_number ASC").Find(&lessons)
	if result.Error != nil {
		return nil, fmt.Errorf("gormCourseRepository.FindLessonsByCourse: %w", result.Error)
	}
	return lessons, nil
}

func (r *gormCourseRepository) FindExerciseByID(ctx context.Context, db *gorm.DB, exerciseID uuid.UUID) (*model.Exercise, error) {
	var exercise model.Exercise
	result := db.WithContext(ctx).Where("exercise_id = ?", exerciseID).First(&exercise)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormCourseRepository.FindExerciseByID: %w", result.Error)
	}
	return &exercise, nil
}

func (r *gormCourseRepository) FindExercisesByLesson(ctx context.Context, db *gorm.DB, lessonID uuid.UUID) ([]*model.Exercise, error) {
	var exercises []*model.Exercise
	result := db.WithContext(ctx).Where("lesson_id = ?", lessonID).Order("created_at ASC").Find(&exercises)
	if result.Error != nil {
		return nil, fmt.Errorf("gormCourseRepository.FindExercisesByLesson: %w", result.Error)
	}
	return exercises, nil
}

func (r *gormCourseRepository) CountExercisesByCourse(ctx context.Context, db *gorm.DB, courseID uuid.UUID) (int64, error) {
	var count int64
	result := db.WithContext(ctx).Model(&model.Exercise{}).
		Joins("JOIN lessons ON lessons.lesson_id = exercises.lesson_id").
		Where("lessons.course_id = ?", courseID).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("gormCourseRepository.CountExercisesByCourse: %w", result.Error)
	}
	return count, nil
}

func (r *gormCourseRepository) UpdateExerciseAnswer(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID, answerIndex int, isCorrect bool) error {
	result := tx.WithContext(ctx).Model(&model.Exercise{}).
		Where("exercise_id = ?", exerciseID).
		Updates(map[string]interface{}{"user_answer_index": answerIndex, "is_correct": isCorrect})
	if result.Error != nil {
		return fmt.Errorf("gormCourseRepository.UpdateExerciseAnswer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	r.notifier.Publish(TopicCourses)
	return nil
}

func (r *gormCourseRepository) CreateTrial(ctx context.Context, tx *gorm.DB, trial *model.Trial) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(trial)
	if result.Error != nil {
		logger.Error("Error creating trial", "error", result.Error,
			"original_exercise_id", trial.OriginalExerciseID.String())
		return fmt.Errorf("gormCourseRepository.CreateTrial: %w", result.Error)
	}
	r.notifier.Publish(TopicCourses)
	return nil
}

func (r *gormCourseRepository) FindTrialByID(ctx context.Context, db *gorm.DB, trialID uuid.UUID) (*model.Trial, error) {
	var trial model.Trial
	result := db.WithContext(ctx).Where("trial_id = ?", trialID).First(&trial)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormCourseRepository.FindTrialByID: %w", result.Error)
	}
	return &trial, nil
}

func (r *gormCourseRepository) UpdateTrialAnswer(ctx context.Context, tx *gorm.DB, trialID uuid.UUID, answerIndex int, isCorrect bool) error {
	result := tx.WithContext(ctx).Model(&model.Trial{}).
		Where("trial_id = ?", trialID).
		Updates(map[string]interface{}{"user_answer_index": answerIndex, "is_correct": isCorrect})
	if result.Error != nil {
		return fmt.Errorf("gormCourseRepository.UpdateTrialAnswer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	r.notifier.Publish(TopicCourses)
	return nil
}

// internal/repository/progress_repository.go
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

// ProgressDelta is an accumulate-on-write increment for UserProgress.
// Overlapping study sessions add their deltas instead of overwriting each
// other's counters.
type ProgressDelta struct {
	CompletedLessons   int
	CompletedExercises int
	CorrectAnswers     int
	TotalAnswers       int
	TimeSpentMinutes   int64
}

// StatsDelta is the same idea for the per-user LearningStats row.
type StatsDelta struct {
	TimeMinutes        int64
	LessonsCompleted   int
	ExercisesCompleted int
	CorrectAnswers     int
	TotalAnswers       int
	ChatSessions       int
	ImageProblems      int
}

type ProgressRepository interface {
	AccumulateUserProgress(ctx context.Context, tx *gorm.DB, userID string, courseID uuid.UUID, delta ProgressDelta) error
	FindUserProgress(ctx context.Context, db *gorm.DB, userID string, courseID uuid.UUID) (*model.UserProgress, error)
	SetUserProgressTotals(ctx context.Context, tx *gorm.DB, userID string, courseID uuid.UUID, totalLessons, totalExercises int) error

	UpsertLessonProgress(ctx context.Context, tx *gorm.DB, progress *model.LessonProgress) error
	FindLessonProgress(ctx context.Context, db *gorm.DB, userID string, lessonID uuid.UUID) (*model.LessonProgress, error)
	CountCompletedLessons(ctx context.Context, db *gorm.DB, userID string, courseID uuid.UUID) (int64, error)
	FindIncompleteLessons(ctx context.Context, db *gorm.DB, userID string, courseID uuid.UUID) ([]*model.Lesson, error)

	CreateUserAnswer(ctx context.Context, tx *gorm.DB, answer *model.UserAnswer) error
	FindAnswersByExercise(ctx context.Context, db *gorm.DB, userID string, exerciseID uuid.UUID) ([]*model.UserAnswer, error)
	FindWeakExercises(ctx context.Context, db *gorm.DB, userID string, courseID uuid.UUID, limit int) ([]*model.Exercise, error)

	CreateStudySession(ctx context.Context, tx *gorm.DB, session *model.StudySession) error
	FindOpenStudySession(ctx context.Context, db *gorm.DB, userID string) (*model.StudySession, error)
	CloseStudySession(ctx context.Context, tx *gorm.DB, session *model.StudySession) error

	FindAllAchievements(ctx context.Context, db *gorm.DB) ([]*model.Achievement, error)
	FindLockedAchievementsByType(ctx context.Context, db *gorm.DB, reqType model.AchievementType) ([]*model.Achievement, error)
	UnlockAchievement(ctx context.Context, tx *gorm.DB, achievementID uuid.UUID, at time.Time) error

	GetOrCreateStats(ctx context.Context, tx *gorm.DB, userID string) (*model.LearningStats, error)
	AccumulateStats(ctx context.Context, tx *gorm.DB, userID string, delta StatsDelta) error
	AccumulateWeekly(ctx context.Context, tx *gorm.DB, userID string, year, week int, delta StatsDelta) error
	FindWeeklyProgress(ctx context.Context, db *gorm.DB, userID string, weeks int) ([]*model.WeeklyProgress, error)
}

type gormProgressRepository struct {
	notifier *Notifier
}

func NewGormProgressRepository(notifier *Notifier) ProgressRepository {
	return &gormProgressRepository{notifier: notifier}
}

func (r *gormProgressRepository) AccumulateUserProgress(ctx context.Context, tx *gorm.DB, userID string, courseID uuid.UUID, delta ProgressDelta) error {
	now := time.Now()
	result := tx.WithContext(ctx).Model(&model.UserProgress{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Updates(map[string]interface{}{
			"completed_lessons":   gorm.Expr("completed_lessons + ?", delta.CompletedLessons),
			"completed_exercises": gorm.Expr("completed_exercises + ?", delta.CompletedExercises),
			"correct_answers":     gorm.Expr("correct_answers + ?", delta.CorrectAnswers),
			"total_answers":       gorm.Expr("total_answers + ?", delta.TotalAnswers),
			"time_spent_minutes":  gorm.Expr("time_spent_minutes + ?", delta.TimeSpentMinutes),
			"last_studied_at":     now,
		})
	if result.Error != nil {
		return fmt.Errorf("gormProgressRepository.AccumulateUserProgress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		progress := &model.UserProgress{
			ProgressID:         uuid.New(),
			UserID:             userID,
			CourseID:           courseID,
			CompletedLessons:   delta.CompletedLessons,
			CompletedExercises: delta.CompletedExercises,
			CorrectAnswers:     delta.CorrectAnswers,
			TotalAnswers:       delta.TotalAnswers,
			TimeSpentMinutes:   delta.TimeSpentMinutes,
			LastStudiedAt:      now,
		}
		if err := tx.WithContext(ctx).Create(progress).Error; err != nil {
			return fmt.Errorf("gormProgressRepository.AccumulateUserProgress: create: %w", err)
		}
	}
	r.notifier.Publish(TopicProgress)
	return nil
}

func (r *gormProgressRepository) FindUserProgress(ctx context.Context, db *gorm.DB, userID string, courseID uuid.UUID) (*model.UserProgress, error) {
	var progress model.UserProgress
	result := db.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&progress)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormProgressRepository.FindUserProgress: %w", result.Error)
	}
	return &progress, nil
}

func (r *gormProgressRepository) SetUserProgressTotals(ctx context.Context, tx *gorm.DB, userID string, courseID uuid.UUID, totalLessons, totalExercises int) error {
	result := tx.WithContext(ctx).Model(&model.UserProgress{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Updates(map[string]interface{}{"total_lessons": totalLessons, "total_exercises": totalExercises})
	if result.Error != nil {
		return fmt.Errorf("gormProgressRepository.SetUserProgressTotals: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		progress := &model.UserProgress{
			ProgressID:     uuid.New(),
			UserID:         userID,
			CourseID:       courseID,
			TotalLessons:   totalLessons,
			TotalExercises: totalExercises,
			LastStudiedAt:  time.Now(),
		}
		if err := tx.WithContext(ctx).Create(progress).Error; err != nil {
			return fmt.Errorf("gormProgressRepository.SetUserProgressTotals: create: %w", err)
		}
	}
	r.notifier.Publish(TopicProgress)
	return nil
}

func (r *gormProgressRepository) UpsertLessonProgress(ctx context.Context, tx *gorm.DB, progress *model.LessonProgress) error {
	logger := middleware.GetLogger(ctx)
	var existing model.LessonProgress
	result := tx.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", progress.UserID, progress.LessonID).
		First(&existing)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("gormProgressRepository.UpsertLessonProgress: %w", result.Error)
		}
		if err := tx.WithContext(ctx).Create(progress).Error; err != nil {
			logger.Error("Error creating lesson progress", "error", err, "lesson_id", progress.LessonID.String())
			return fmt.Errorf("gormProgressRepository.UpsertLessonProgress: create: %w", err)
		}
		r.notifier.Publish(TopicProgress)
		return nil
	}

	progress.LessonProgressID = existing.LessonProgressID
	progress.FirstAccessAt = existing.FirstAccessAt
	if err := tx.WithContext(ctx).Save(progress).Error; err != nil {
		return fmt.Errorf("gormProgressRepository.UpsertLessonProgress: save: %w", err)
	}
	r.notifier.Publish(TopicProgress)
	return nil
}

func (r *gormProgressRepository) FindLessonProgress(ctx context.Context, db *gorm.DB, userID string, lessonID uuid.UUID) (*model.LessonProgress, error) {
	var progress model.LessonProgress
	result := db.WithContext(ctx).Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&progress)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormProgressRepository.FindLessonProgress: %w", result.Error)
	}
	return &progress, nil
}

func (r *gormProgressRepository) CountCompletedLessons(ctx context.Context, db *gorm.DB, userID string, courseID uuid.UUID) (int64, error) {
	var count int64
	result := db.WithContext(ctx).Model(&model.LessonProgress{}).
		Joins("JOIN lessons ON lessons.lesson_id = lesson_progress.lesson_id").
		Where("lesson_progress.user_id = ? AND lessons.course_id = ? AND lesson_progress.is_completed = ?", userID, courseID, true).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("gormProgressRepository.CountCompletedLessons: %w", result.Error)
	}
	return count, nil
}

func (r *gormProgressRepository) FindIncompleteLessons(ctx context.Context, db *gorm.DB, userID string, courseID uuid.UUID) ([]*model.Lesson, error) {
	var lessons []*model.Lesson
	result := db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Where("lesson_id NOT IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Model(&model.LessonProgress{}).
				Select("lesson_id").
				Where("user_id = ? AND is_completed = ?", userID, true),
		).
		Order("lesson_number ASC").
		Find(&lessons)
	if result.Error != nil {
		return nil, fmt.Errorf("gormProgressRepository.FindIncompleteLessons: %w", result.Error)
	}
	return lessons, nil
}

func (r *gormProgressRepository) CreateUserAnswer(ctx context.Context, tx *gorm.DB, answer *model.UserAnswer) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(answer)
	if result.Error != nil {
		logger.Error("Error creating user answer", "error", result.Error,
			"exercise_id", answer.ExerciseID.String())
		return fmt.Errorf("gormProgressRepository.CreateUserAnswer: %w", result.Error)
	}
	r.notifier.Publish(TopicProgress)
	return nil
}

func (r *gormProgressRepository) FindAnswersByExercise(ctx context.Context, db *gorm.DB, userID string, exerciseID uuid.UUID) ([]*model.UserAnswer, error) {
	var answers []*model.UserAnswer
	result := db.WithContext(ctx).
		Where("user_id = ? AND exercise_id = ?", userID, exerciseID).
		Order("answered_at ASC").
		Find(&answers)
	if result.Error != nil {
		return nil, fmt.Errorf("gormProgressRepository.FindAnswersByExercise: %w", result.Error)
	}
	return answers, nil
}

// FindWeakExercises returns exercises in the course whose latest recorded
// answer is wrong, hardest-hit first (most wrong attempts). Weakness is
// derived from the answer history, not the exercise mirror columns, so wrong
// answers to trial variants count against the original exercise too.
func (r *gormProgressRepository) FindWeakExercises(ctx context.Context, db *gorm.DB, userID string, courseID uuid.UUID, limit int) ([]*model.Exercise, error) {
	var exercises []*model.Exercise
	result := db.WithContext(ctx).
		Select("exercises.*").
		Joins("JOIN lessons ON lessons.lesson_id = exercises.lesson_id").
		Joins("JOIN user_answers ON user_answers.exercise_id = exercises.exercise_id AND user_answers.user_id = ?", userID).
		Where("lessons.course_id = ?", courseID).
		Where("(SELECT latest.is_correct FROM user_answers latest"+
			" WHERE latest.exercise_id = exercises.exercise_id AND latest.user_id = ?"+
			" ORDER BY latest.answered_at DESC, latest.answer_id DESC LIMIT 1) = ?", userID, false).
		Group("exercises.exercise_id").
		Order("SUM(CASE WHEN user_answers.is_correct THEN 0 ELSE 1 END) DESC").
		Limit(limit).
		Find(&exercises)
	if result.Error != nil {
		return nil, fmt.Errorf("gormProgressRepository.FindWeakExercises: %w", result.Error)
	}
	return exercises, nil
}

func (r *gormProgressRepository) CreateStudySession(ctx context.Context, tx *gorm.DB, session *model.StudySession) error {
	result := tx.WithContext(ctx).Create(session)
	if result.Error != nil {
		return fmt.Errorf("gormProgressRepository.CreateStudySession: %w", result.Error)
	}
	r.notifier.Publish(TopicProgress)
	return nil
}

func (r *gormProgressRepository) FindOpenStudySession(ctx context.Context, db *gorm.DB, userID string) (*model.StudySession, error) {
	var session model.StudySession
	result := db.WithContext(ctx).Where("user_id = ? AND ended_at IS NULL", userID).First(&session)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormProgressRepository.FindOpenStudySession: %w", result.Error)
	}
	return &session, nil
}

func (r *gormProgressRepository) CloseStudySession(ctx context.Context, tx *gorm.DB, session *model.StudySession) error {
	result := tx.WithContext(ctx).Save(session)
	if result.Error != nil {
		return fmt.Errorf("gormProgressRepository.CloseStudySession: %w", result.Error)
	}
	r.notifier.Publish(TopicProgress)
	return nil
}

func (r *gormProgressRepository) FindAllAchievements(ctx context.Context, db *gorm.DB) ([]*model.Achievement, error) {
	var achievements []*model.Achievement
	result := db.WithContext(ctx).Order("created_at ASC").Find(&achievements)
	if result.Error != nil {
		return nil, fmt.Errorf("gormProgressRepository.FindAllAchievements: %w", result.Error)
	}
	return achievements, nil
}

func (r *gormProgressRepository) FindLockedAchievementsByType(ctx context.Context, db *gorm.DB, reqType model.AchievementType) ([]*model.Achievement, error) {
	var achievements []*model.Achievement
	result := db.WithContext(ctx).
		Where("requirement_type = ? AND unlocked_at IS NULL", reqType).
		Find(&achievements)
	if result.Error != nil {
		return nil, fmt.Errorf("gormProgressRepository.FindLockedAchievementsByType: %w", result.Error)
	}
	return achievements, nil
}

func (r *gormProgressRepository) UnlockAchievement(ctx context.Context, tx *gorm.DB, achievementID uuid.UUID, at time.Time) error {
	// Only flips once; a second qualifying event is a no-op.
	result := tx.WithContext(ctx).Model(&model.Achievement{}).
		Where("achievement_id = ? AND unlocked_at IS NULL", achievementID).
		Update("unlocked_at", at)
	if result.Error != nil {
		return fmt.Errorf("gormProgressRepository.UnlockAchievement: %w", result.Error)
	}
	r.notifier.Publish(TopicLearningStats)
	return nil
}

func (r *gormProgressRepository) GetOrCreateStats(ctx context.Context, tx *gorm.DB, userID string) (*model.LearningStats, error) {
	var stats model.LearningStats
	result := tx.WithContext(ctx).Where("user_id = ?", userID).First(&stats)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("gormProgressRepository.GetOrCreateStats: %w", result.Error)
		}
		stats = model.LearningStats{UserID: userID, LastActiveAt: time.Now()}
		if err := tx.WithContext(ctx).Create(&stats).Error; err != nil {
			return nil, fmt.Errorf("gormProgressRepository.GetOrCreateStats: create: %w", err)
		}
	}
	return &stats, nil
}

func (r *gormProgressRepository) AccumulateStats(ctx context.Context, tx *gorm.DB, userID string, delta StatsDelta) error {
	if _, err := r.GetOrCreateStats(ctx, tx, userID); err != nil {
		return err
	}
	result := tx.WithContext(ctx).Model(&model.LearningStats{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_time_minutes":        gorm.Expr("total_time_minutes + ?", delta.TimeMinutes),
			"total_lessons_completed":   gorm.Expr("total_lessons_completed + ?", delta.LessonsCompleted),
			"total_exercises_completed": gorm.Expr("total_exercises_completed + ?", delta.ExercisesCompleted),
			"total_correct_answers":     gorm.Expr("total_correct_answers + ?", delta.CorrectAnswers),
			"total_answers":             gorm.Expr("total_answers + ?", delta.TotalAnswers),
			"chat_session_count":        gorm.Expr("chat_session_count + ?", delta.ChatSessions),
			"image_problem_count":       gorm.Expr("image_problem_count + ?", delta.ImageProblems),
			"last_active_at":            time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("gormProgressRepository.AccumulateStats: %w", result.Error)
	}
	r.notifier.Publish(TopicLearningStats)
	return nil
}

func (r *gormProgressRepository) AccumulateWeekly(ctx context.Context, tx *gorm.DB, userID string, year, week int, delta StatsDelta) error {
	result := tx.WithContext(ctx).Model(&model.WeeklyProgress{}).
		Where("user_id = ? AND year = ? AND week = ?", userID, year, week).
		Updates(map[string]interface{}{
			"lessons_completed":   gorm.Expr("lessons_completed + ?", delta.LessonsCompleted),
			"exercises_completed": gorm.Expr("exercises_completed + ?", delta.ExercisesCompleted),
			"correct_answers":     gorm.Expr("correct_answers + ?", delta.CorrectAnswers),
			"total_answers":       gorm.Expr("total_answers + ?", delta.TotalAnswers),
			"time_spent_minutes":  gorm.Expr("time_spent_minutes + ?", delta.TimeMinutes),
		})
	if result.Error != nil {
		return fmt.Errorf("gormProgressRepository.AccumulateWeekly: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// The weekly row hangs off learning_stats; make sure the parent
		// exists before the first insert of a week.
		if _, err := r.GetOrCreateStats(ctx, tx, userID); err != nil {
			return err
		}
		weekly := &model.WeeklyProgress{
			WeeklyID:           uuid.New(),
			UserID:             userID,
			Year:               year,
			Week:               week,
			LessonsCompleted:   delta.LessonsCompleted,
			ExercisesCompleted: delta.ExercisesCompleted,
			CorrectAnswers:     delta.CorrectAnswers,
			TotalAnswers:       delta.TotalAnswers,
			TimeSpentMinutes:   delta.TimeMinutes,
		}
		if err := tx.WithContext(ctx).Create(weekly).Error; err != nil {
			return fmt.Errorf("gormProgressRepository.AccumulateWeekly: create: %w", err)
		}
	}
	r.notifier.Publish(TopicLearningStats)
	return nil
}

func (r *gormProgressRepository) FindWeeklyProgress(ctx context.Context, db *gorm.DB, userID string, weeks int) ([]*model.WeeklyProgress, error) {
	var rows []*model.WeeklyProgress
	result := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("year DESC, week DESC").
		Limit(weeks).
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("gormProgressRepository.FindWeeklyProgress: %w", result.Error)
	}
	return rows, nil
}

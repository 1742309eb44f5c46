// internal/service/progress_service.go
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

type ProgressService interface {
	// SubmitAnswer grades one answer against the stored correct index and
	// accumulates every affected counter in a single transaction.
	SubmitAnswer(ctx context.Context, req *model.SubmitAnswerRequest) (*model.UserAnswer, error)

	// MarkLessonRead records that the learner finished reading a lesson.
	MarkLessonRead(ctx context.Context, lessonID uuid.UUID) (*model.LessonProgress, error)

	GetCourseProgress(ctx context.Context, courseID uuid.UUID) (*model.UserProgress, error)
	GetLessonProgress(ctx context.Context, lessonID uuid.UUID) (*model.LessonProgress, error)

	StartStudySession(ctx context.Context, req *model.StartStudySessionRequest) (*model.StudySession, error)
	EndStudySession(ctx context.Context) (*model.StudySession, error)

	GetStats(ctx context.Context) (*model.LearningStats, error)
	GetWeeklyProgress(ctx context.Context, weeks int) ([]*model.WeeklyProgress, error)
	GetAchievements(ctx context.Context) ([]*model.Achievement, error)
}

type progressService struct {
	db           *gorm.DB
	courseRepo   repository.CourseRepository
	progressRepo repository.ProgressRepository
	userID       string
}

func NewProgressService(
	db *gorm.DB,
	courseRepo repository.CourseRepository,
	progressRepo repository.ProgressRepository,
	userID string,
) ProgressService {
	return &progressService{
		db:           db,
		courseRepo:   courseRepo,
		progressRepo: progressRepo,
		userID:       userID,
	}
}

func (s *progressService) SubmitAnswer(ctx context.Context, req *model.SubmitAnswerRequest) (*model.UserAnswer, error) {
	logger := middleware.GetLogger(ctx)

	exercise, err := s.courseRepo.FindExerciseByID(ctx, s.db, req.ExerciseID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("EXERCISE_NOT_FOUND", "Exercise not found.", "exercise_id", err)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the exercise.", "", err)
	}

	correctIndex := exercise.CorrectAnswerIndex
	optionCount := len(exercise.Options)
	var trial *model.Trial
	if req.TrialID != nil {
		trial, err = s.courseRepo.FindTrialByID(ctx, s.db, *req.TrialID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, model.NewAppError("TRIAL_NOT_FOUND", "Trial not found.", "trial_id", err)
			}
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the trial.", "", err)
		}
		if trial.OriginalExerciseID != exercise.ExerciseID {
			return nil, model.NewAppError("INVALID_INPUT", "Trial does not belong to the exercise.", "trial_id", model.ErrInvalidInput)
		}
		correctIndex = trial.CorrectAnswerIndex
		optionCount = len(trial.Options)
	}

	selected := *req.SelectedAnswer
	if selected >= optionCount {
		return nil, model.NewAppError("INVALID_INPUT", "Selected answer is out of range.", "selected_answer", model.ErrInvalidInput)
	}
	isCorrect := selected == correctIndex

	// First graded answer for this exercise counts it as completed.
	previous, err := s.progressRepo.FindAnswersByExercise(ctx, s.db, s.userID, exercise.ExerciseID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load previous answers.", "", err)
	}
	firstAttempt := len(previous) == 0

	answer := &model.UserAnswer{
		AnswerID:         uuid.New(),
		ExerciseID:       exercise.ExerciseID,
		TrialID:          req.TrialID,
		UserID:           s.userID,
		SelectedAnswer:   selected,
		IsCorrect:        isCorrect,
		TimeSpentSeconds: req.TimeSpentSeconds,
		HintsUsed:        req.HintsUsed,
		AnsweredAt:       time.Now(),
	}

	lesson, err := s.courseRepo.FindLessonByID(ctx, s.db, exercise.LessonID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the lesson.", "", err)
	}

	delta := repository.ProgressDelta{TotalAnswers: 1}
	statsDelta := repository.StatsDelta{TotalAnswers: 1}
	if isCorrect {
		delta.CorrectAnswers = 1
		statsDelta.CorrectAnswers = 1
	}
	if firstAttempt {
		delta.CompletedExercises = 1
		statsDelta.ExercisesCompleted = 1
	}

	year, week := answer.AnsweredAt.ISOWeek()
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.progressRepo.CreateUserAnswer(ctx, tx, answer); err != nil {
			return err
		}
		if req.TrialID != nil {
			if err := s.courseRepo.UpdateTrialAnswer(ctx, tx, *req.TrialID, selected, isCorrect); err != nil {
				return err
			}
		} else {
			if err := s.courseRepo.UpdateExerciseAnswer(ctx, tx, exercise.ExerciseID, selected, isCorrect); err != nil {
				return err
			}
		}
		if err := s.progressRepo.AccumulateUserProgress(ctx, tx, s.userID, lesson.CourseID, delta); err != nil {
			return err
		}
		if err := s.progressRepo.AccumulateStats(ctx, tx, s.userID, statsDelta); err != nil {
			return err
		}
		if err := s.progressRepo.AccumulateWeekly(ctx, tx, s.userID, year, week, statsDelta); err != nil {
			return err
		}
		return s.checkAchievements(ctx, tx)
	}); err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to record the answer.", "", err)
	}

	logger.Info("Answer recorded",
		"exercise_id", exercise.ExerciseID, "correct", isCorrect, "first_attempt", firstAttempt)
	return answer, nil
}

func (s *progressService) MarkLessonRead(ctx context.Context, lessonID uuid.UUID) (*model.LessonProgress, error) {
	lesson, err := s.courseRepo.FindLessonByID(ctx, s.db, lessonID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("LESSON_NOT_FOUND", "Lesson not found.", "lesson_id", err)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the lesson.", "", err)
	}

	now := time.Now()
	progress, err := s.progressRepo.FindLessonProgress(ctx, s.db, s.userID, lessonID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load lesson progress.", "", err)
	}
	alreadyCompleted := progress != nil && progress.IsCompleted
	if progress == nil {
		progress = &model.LessonProgress{
			LessonProgressID: uuid.New(),
			LessonID:         lessonID,
			UserID:           s.userID,
			FirstAccessAt:    now,
		}
	}
	progress.IsCompleted = true
	progress.LastAccessAt = now
	if progress.CompletedAt == nil {
		progress.CompletedAt = &now
	}
	progress.TimeSpentMinutes += int64(lesson.ReadTimeMinutes)

	delta := repository.ProgressDelta{TimeSpentMinutes: int64(lesson.ReadTimeMinutes)}
	statsDelta := repository.StatsDelta{TimeMinutes: int64(lesson.ReadTimeMinutes)}
	if !alreadyCompleted {
		delta.CompletedLessons = 1
		statsDelta.LessonsCompleted = 1
	}

	year, week := now.ISOWeek()
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.progressRepo.UpsertLessonProgress(ctx, tx, progress); err != nil {
			return err
		}
		if err := s.progressRepo.AccumulateUserProgress(ctx, tx, s.userID, lesson.CourseID, delta); err != nil {
			return err
		}
		if err := s.progressRepo.AccumulateStats(ctx, tx, s.userID, statsDelta); err != nil {
			return err
		}
		if err := s.progressRepo.AccumulateWeekly(ctx, tx, s.userID, year, week, statsDelta); err != nil {
			return err
		}
		return s.checkAchievements(ctx, tx)
	}); err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to record lesson progress.", "", err)
	}
	return progress, nil
}

func (s *progressService) GetCourseProgress(ctx context.Context, courseID uuid.UUID) (*model.UserProgress, error) {
	course, err := s.courseRepo.FindCourseByID(ctx, s.db, courseID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("COURSE_NOT_FOUND", "Course not found.", "course_id", err)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the course.", "", err)
	}

	progress, err := s.progressRepo.FindUserProgress(ctx, s.db, s.userID, courseID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// Nothing recorded yet; report an empty aggregate with totals.
			totalExercises, cerr := s.courseRepo.CountExercisesByCourse(ctx, s.db, courseID)
			if cerr != nil {
				return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to count exercises.", "", cerr)
			}
			return &model.UserProgress{
				UserID:         s.userID,
				CourseID:       courseID,
				TotalLessons:   len(course.Lessons),
				TotalExercises: int(totalExercises),
			}, nil
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load progress.", "", err)
	}
	return progress, nil
}

func (s *progressService) GetLessonProgress(ctx context.Context, lessonID uuid.UUID) (*model.LessonProgress, error) {
	progress, err := s.progressRepo.FindLessonProgress(ctx, s.db, s.userID, lessonID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("PROGRESS_NOT_FOUND", "No progress recorded for this lesson.", "lesson_id", err)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load lesson progress.", "", err)
	}
	return progress, nil
}

func (s *progressService) StartStudySession(ctx context.Context, req *model.StartStudySessionRequest) (*model.StudySession, error) {
	if _, err := s.progressRepo.FindOpenStudySession(ctx, s.db, s.userID); err == nil {
		return nil, model.NewAppError("CONFLICT", "A study session is already in progress.", "", model.ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to check open sessions.", "", err)
	}

	session := &model.StudySession{
		StudySessionID: uuid.New(),
		UserID:         s.userID,
		CourseID:       req.CourseID,
		LessonID:       req.LessonID,
		SessionType:    req.SessionType,
		StartedAt:      time.Now(),
	}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.progressRepo.CreateStudySession(ctx, tx, session)
	}); err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to start the study session.", "", err)
	}
	return session, nil
}

func (s *progressService) EndStudySession(ctx context.Context) (*model.StudySession, error) {
	session, err := s.progressRepo.FindOpenStudySession(ctx, s.db, s.userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("SESSION_NOT_FOUND", "No study session is in progress.", "", err)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load the study session.", "", err)
	}

	now := time.Now()
	session.EndedAt = &now
	session.DurationMinutes = int64(now.Sub(session.StartedAt).Minutes())

	statsDelta := repository.StatsDelta{TimeMinutes: session.DurationMinutes}
	year, week := now.ISOWeek()
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.progressRepo.CloseStudySession(ctx, tx, session); err != nil {
			return err
		}
		if err := s.progressRepo.AccumulateStats(ctx, tx, s.userID, statsDelta); err != nil {
			return err
		}
		if session.CourseID != nil {
			delta := repository.ProgressDelta{TimeSpentMinutes: session.DurationMinutes}
			if err := s.progressRepo.AccumulateUserProgress(ctx, tx, s.userID, *session.CourseID, delta); err != nil {
				return err
			}
		}
		return s.progressRepo.AccumulateWeekly(ctx, tx, s.userID, year, week, statsDelta)
	}); err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to close the study session.", "", err)
	}
	return session, nil
}

func (s *progressService) GetStats(ctx context.Context) (*model.LearningStats, error) {
	var stats *model.LearningStats
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		stats, err = s.progressRepo.GetOrCreateStats(ctx, tx, s.userID)
		return err
	}); err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load learning stats.", "", err)
	}
	return stats, nil
}

func (s *progressService) GetWeeklyProgress(ctx context.Context, weeks int) ([]*model.WeeklyProgress, error) {
	rows, err := s.progressRepo.FindWeeklyProgress(ctx, s.db, s.userID, weeks)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load weekly progress.", "", err)
	}
	return rows, nil
}

func (s *progressService) GetAchievements(ctx context.Context) ([]*model.Achievement, error) {
	achievements, err := s.progressRepo.FindAllAchievements(ctx, s.db)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load achievements.", "", err)
	}
	return achievements, nil
}

// checkAchievements unlocks every locked achievement whose counter has
// reached its threshold. Runs inside the same transaction as the counter
// update so an unlock is never observed without its cause.
func (s *progressService) checkAchievements(ctx context.Context, tx *gorm.DB) error {
	stats, err := s.progressRepo.GetOrCreateStats(ctx, tx, s.userID)
	if err != nil {
		return err
	}
	counters := map[model.AchievementType]int{
		model.AchievementLessonsCompleted:   stats.TotalLessonsCompleted,
		model.AchievementExercisesCompleted: stats.TotalExercisesCompleted,
		model.AchievementCorrectAnswers:     stats.TotalCorrectAnswers,
		model.AchievementStreakDays:         stats.CurrentStreakDays,
		model.AchievementChatSessions:       stats.ChatSessionCount,
		model.AchievementImageProblems:      stats.ImageProblemCount,
	}
	now := time.Now()
	for reqType, counter := range counters {
		locked, err := s.progressRepo.FindLockedAchievementsByType(ctx, tx, reqType)
		if err != nil {
			return err
		}
		for _, a := range locked {
			if counter >= a.Threshold {
				if err := s.progressRepo.UnlockAchievement(ctx, tx, a.AchievementID, now); err != nil {
					return err
				}
				middleware.GetLogger(ctx).Info("Achievement unlocked",
					"achievement_id", a.AchievementID, "title", a.Title)
			}
		}
	}
	return nil
}

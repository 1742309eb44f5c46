// internal/model/progress.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// UserProgress is the aggregate completion/accuracy record for one course.
// One row per (user, course); counters accumulate, they are never rewritten
// from scratch by concurrent sessions.
type UserProgress struct {
	ProgressID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"progress_id"`
	UserID             string    `gorm:"not null;index:idx_user_course,unique" json:"user_id"`
	CourseID           uuid.UUID `gorm:"type:uuid;not null;index:idx_user_course,unique" json:"course_id"`
	CompletedLessons   int       `gorm:"not null;default:0" json:"completed_lessons"`
	TotalLessons       int       `gorm:"not null;default:0" json:"total_lessons"`
	CompletedExercises int       `gorm:"not null;default:0" json:"completed_exercises"`
	TotalExercises     int       `gorm:"not null;default:0" json:"total_exercises"`
	CorrectAnswers     int       `gorm:"not null;default:0" json:"correct_answers"`
	TotalAnswers       int       `gorm:"not null;default:0" json:"total_answers"`
	TimeSpentMinutes   int64     `gorm:"not null;default:0" json:"time_spent_minutes"`
	StreakDays         int       `gorm:"not null;default:0" json:"streak_days"`
	LastStudiedAt      time.Time `json:"last_studied_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (UserProgress) TableName() string { return "user_progress" }

func (p *UserProgress) AccuracyPercentage() float64 {
	if p.TotalAnswers == 0 {
		return 0
	}
	return float64(p.CorrectAnswers) / float64(p.TotalAnswers) * 100
}

// LessonProgress is the per-lesson completion state for one user.
type LessonProgress struct {
	LessonProgressID   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"lesson_progress_id"`
	LessonID           uuid.UUID  `gorm:"type:uuid;not null;index:idx_lesson_user,unique" json:"lesson_id"`
	UserID             string     `gorm:"not null;index:idx_lesson_user,unique" json:"user_id"`
	IsCompleted        bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedExercises int        `gorm:"not null;default:0" json:"completed_exercises"`
	TotalExercises     int        `gorm:"not null;default:0" json:"total_exercises"`
	TimeSpentMinutes   int64      `gorm:"not null;default:0" json:"time_spent_minutes"`
	FirstAccessAt      time.Time  `json:"first_access_at"`
	LastAccessAt       time.Time  `json:"last_access_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }

// UserAnswer is one submitted answer to an exercise or trial.
type UserAnswer struct {
	AnswerID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"answer_id"`
	ExerciseID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"exercise_id"`
	TrialID          *uuid.UUID `gorm:"type:uuid;index" json:"trial_id,omitempty"`
	UserID           string     `gorm:"not null;index" json:"user_id"`
	SelectedAnswer   int        `gorm:"not null" json:"selected_answer"`
	IsCorrect        bool       `gorm:"not null" json:"is_correct"`
	TimeSpentSeconds int64      `gorm:"not null;default:0" json:"time_spent_seconds"`
	HintsUsed        int        `gorm:"not null;default:0" json:"hints_used"`
	AnsweredAt       time.Time  `gorm:"index" json:"answered_at"`
}

func (UserAnswer) TableName() string { return "user_answers" }

type SessionType string

const (
	SessionLessonStudy   SessionType = "lesson_study"
	SessionPractice      SessionType = "practice_exercises"
	SessionChatTutoring  SessionType = "ai_chat_tutoring"
	SessionImageProblems SessionType = "image_problem_solving"
	SessionReview        SessionType = "review_session"
)

// StudySession is a bounded study interval. A null EndedAt marks the one
// session currently in progress; at most one per user may be open.
type StudySession struct {
	StudySessionID     uuid.UUID   `gorm:"type:uuid;primaryKey" json:"study_session_id"`
	UserID             string      `gorm:"not null;index" json:"user_id"`
	CourseID           *uuid.UUID  `gorm:"type:uuid" json:"course_id,omitempty"`
	LessonID           *uuid.UUID  `gorm:"type:uuid" json:"lesson_id,omitempty"`
	SessionType        SessionType `gorm:"not null" json:"session_type"`
	DurationMinutes    int64       `gorm:"not null;default:0" json:"duration_minutes"`
	ExercisesCompleted int         `gorm:"not null;default:0" json:"exercises_completed"`
	CorrectAnswers     int         `gorm:"not null;default:0" json:"correct_answers"`
	TotalAnswers       int         `gorm:"not null;default:0" json:"total_answers"`
	StartedAt          time.Time   `gorm:"not null" json:"started_at"`
	EndedAt            *time.Time  `json:"ended_at,omitempty"`
}

func (StudySession) TableName() string { return "study_sessions" }

type AchievementType string

const (
	AchievementLessonsCompleted   AchievementType = "lessons_completed"
	AchievementExercisesCompleted AchievementType = "exercises_completed"
	AchievementCorrectAnswers     AchievementType = "correct_answers"
	AchievementStreakDays         AchievementType = "streak_days"
	AchievementChatSessions       AchievementType = "chat_sessions"
	AchievementImageProblems      AchievementType = "image_problems_solved"
)

// Achievement is a row in the global gamification catalog; UnlockedAt flips
// once when a qualifying counter reaches the threshold.
type Achievement struct {
	AchievementID   uuid.UUID       `gorm:"type:uuid;primaryKey" json:"achievement_id"`
	Title           string          `gorm:"not null" json:"title"`
	Description     string          `json:"description"`
	RequirementType AchievementType `gorm:"not null;index" json:"requirement_type"`
	Threshold       int             `gorm:"not null" json:"threshold"`
	Subject         *string         `json:"subject,omitempty"`
	Difficulty      *string         `json:"difficulty,omitempty"`
	RewardPoints    int             `gorm:"not null;default:0" json:"reward_points"`
	UnlockedAt      *time.Time      `json:"unlocked_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (Achievement) TableName() string { return "achievements" }

// LearningStats is the per-user rollup. A single row per user; counters only
// ever accumulate.
type LearningStats struct {
	UserID                  string    `gorm:"primaryKey" json:"user_id"`
	TotalTimeMinutes        int64     `gorm:"not null;default:0" json:"total_time_minutes"`
	TotalLessonsCompleted   int       `gorm:"not null;default:0" json:"total_lessons_completed"`
	TotalExercisesCompleted int       `gorm:"not null;default:0" json:"total_exercises_completed"`
	TotalCorrectAnswers     int       `gorm:"not null;default:0" json:"total_correct_answers"`
	TotalAnswers            int       `gorm:"not null;default:0" json:"total_answers"`
	ChatSessionCount        int       `gorm:"not null;default:0" json:"chat_session_count"`
	ImageProblemCount       int       `gorm:"not null;default:0" json:"image_problem_count"`
	CurrentStreakDays       int       `gorm:"not null;default:0" json:"current_streak_days"`
	LongestStreakDays       int       `gorm:"not null;default:0" json:"longest_streak_days"`
	LastActiveAt            time.Time `json:"last_active_at"`
	UpdatedAt               time.Time `json:"updated_at"`

	WeeklyProgress []WeeklyProgress `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE" json:"weekly_progress,omitempty"`
}

func (LearningStats) TableName() string { return "learning_stats" }

// WeeklyProgress is one ISO week's rollup for a user.
type WeeklyProgress struct {
	WeeklyID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"weekly_id"`
	UserID             string    `gorm:"not null;index:idx_user_week,unique" json:"user_id"`
	Year               int       `gorm:"not null;index:idx_user_week,unique" json:"year"`
	Week               int       `gorm:"not null;index:idx_user_week,unique" json:"week"`
	LessonsCompleted   int       `gorm:"not null;default:0" json:"lessons_completed"`
	ExercisesCompleted int       `gorm:"not null;default:0" json:"exercises_completed"`
	CorrectAnswers     int       `gorm:"not null;default:0" json:"correct_answers"`
	TotalAnswers       int       `gorm:"not null;default:0" json:"total_answers"`
	TimeSpentMinutes   int64     `gorm:"not null;default:0" json:"time_spent_minutes"`
}

func (WeeklyProgress) TableName() string { return "weekly_progress" }

// SubmitAnswerRequest records one answer to an exercise or a trial variant.
type SubmitAnswerRequest struct {
	ExerciseID       uuid.UUID  `json:"exercise_id" validate:"required"`
	TrialID          *uuid.UUID `json:"trial_id,omitempty"`
	SelectedAnswer   *int       `json:"selected_answer" validate:"required,gte=0"`
	TimeSpentSeconds int64      `json:"time_spent_seconds" validate:"gte=0"`
	HintsUsed        int        `json:"hints_used" validate:"gte=0"`
}

// StartStudySessionRequest opens a study interval.
type StartStudySessionRequest struct {
	SessionType SessionType `json:"session_type" validate:"required"`
	CourseID    *uuid.UUID  `json:"course_id,omitempty"`
	LessonID    *uuid.UUID  `json:"lesson_id,omitempty"`
}

// internal/model/course.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StringList is stored as a JSON array in a TEXT column. Used for exercise
// options and lesson image references.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("StringList: unsupported column type %T", value)
	}
}

type DownloadStatus string

const (
	DownloadAvailable   DownloadStatus = "available"
	DownloadInProgress  DownloadStatus = "downloading"
	DownloadCompleted   DownloadStatus = "downloaded"
	DownloadFailedState DownloadStatus = "failed"
)

// Course is one subject/grade curriculum unit. Deleting a course cascades
// through its lessons and everything they own.
type Course struct {
	CourseID       uuid.UUID      `gorm:"type:uuid;primaryKey" json:"course_id"`
	Title          string         `gorm:"not null" json:"title"`
	Subject        string         `gorm:"not null;index" json:"subject"`
	Grade          string         `json:"grade"`
	Description    string         `json:"description"`
	TotalLessons   int            `gorm:"not null;default:0" json:"total_lessons"`
	DownloadStatus DownloadStatus `gorm:"not null;default:'available'" json:"download_status"`
	Version        int            `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	Lessons  []Lesson       `gorm:"foreignKey:CourseID;references:CourseID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
	Progress []UserProgress `gorm:"foreignKey:CourseID;references:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Course) TableName() string { return "courses" }

// Lesson is one teaching unit within a course.
type Lesson struct {
	LessonID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"lesson_id"`
	CourseID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"course_id"`
	LessonNumber    int        `gorm:"not null" json:"lesson_number"`
	Title           string     `gorm:"not null" json:"title"`
	MarkdownContent string     `json:"markdown_content"`
	ImageRefs       StringList `gorm:"type:text" json:"image_refs"`
	ReadTimeMinutes int        `gorm:"not null;default:0" json:"read_time_minutes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Exercises []Exercise       `gorm:"foreignKey:LessonID;references:LessonID;constraint:OnDelete:CASCADE" json:"exercises,omitempty"`
	Progress  []LessonProgress `gorm:"foreignKey:LessonID;references:LessonID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Lesson) TableName() string { return "lessons" }

// Exercise is a graded multiple choice question within a lesson.
// UserAnswerIndex and IsCorrect stay null until the learner answers for the
// first time, and thereafter mirror the most recent UserAnswer.
type Exercise struct {
	ExerciseID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"exercise_id"`
	LessonID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"lesson_id"`
	QuestionText       string     `gorm:"not null" json:"question_text"`
	Options            StringList `gorm:"type:text;not null" json:"options"`
	CorrectAnswerIndex int        `gorm:"not null" json:"correct_answer_index"`
	Explanation        string     `json:"explanation"`
	Difficulty         string     `gorm:"not null;default:'medium'" json:"difficulty"`
	UserAnswerIndex    *int       `json:"user_answer_index,omitempty"`
	IsCorrect          *bool      `json:"is_correct,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Trials  []Trial      `gorm:"foreignKey:OriginalExerciseID;references:ExerciseID;constraint:OnDelete:CASCADE" json:"trials,omitempty"`
	Answers []UserAnswer `gorm:"foreignKey:ExerciseID;references:ExerciseID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Exercise) TableName() string { return "exercises" }

// Trial is a regenerated practice variant of an exercise.
type Trial struct {
	TrialID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"trial_id"`
	OriginalExerciseID uuid.UUID  `gorm:"type:uuid;not null;index" json:"original_exercise_id"`
	QuestionText       string     `gorm:"not null" json:"question_text"`
	Options            StringList `gorm:"type:text;not null" json:"options"`
	CorrectAnswerIndex int        `gorm:"not null" json:"correct_answer_index"`
	Explanation        string     `json:"explanation"`
	Difficulty         string     `gorm:"not null;default:'medium'" json:"difficulty"`
	UserAnswerIndex    *int       `json:"user_answer_index,omitempty"`
	IsCorrect          *bool      `json:"is_correct,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func (Trial) TableName() string { return "trials" }

// CreateTrialRequest stores a regenerated exercise variant.
type CreateTrialRequest struct {
	QuestionText       string   `json:"question_text" validate:"required"`
	Options            []string `json:"options" validate:"required,min=2"`
	CorrectAnswerIndex int      `json:"correct_answer_index" validate:"gte=0"`
	Explanation        string   `json:"explanation"`
	Difficulty         string   `json:"difficulty"`
}

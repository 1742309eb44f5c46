// internal/model/chat.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type MessageStatus string

const (
	MessagePending  MessageStatus = "pending"
	MessageComplete MessageStatus = "complete"
	MessageFailed   MessageStatus = "failed"
)

type MessageType string

const (
	MessageText        MessageType = "text"
	MessageImage       MessageType = "image"
	MessageMathProblem MessageType = "math_problem"
	MessageStepByStep  MessageType = "step_by_step_solution"
)

// ChatSession is one tutoring conversation. The scope columns are fixed for
// the session's lifetime; LastMessageAt tracks the newest message and never
// moves backwards. Scope references outlive their targets via SET NULL so a
// deleted course does not take conversations with it.
type ChatSession struct {
	SessionID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"session_id"`
	Title         string     `json:"title"`
	Subject       *string    `json:"subject,omitempty"`
	CourseID      *uuid.UUID `gorm:"type:uuid;index;constraint:OnDelete:SET NULL" json:"course_id,omitempty"`
	LessonID      *uuid.UUID `gorm:"type:uuid;index" json:"lesson_id,omitempty"`
	ExerciseID    *uuid.UUID `gorm:"type:uuid;index" json:"exercise_id,omitempty"`
	TrialID       *uuid.UUID `gorm:"type:uuid" json:"trial_id,omitempty"`
	IsRevision    bool       `gorm:"not null;default:false" json:"is_revision"`
	IsActive      bool       `gorm:"not null;default:true;index" json:"is_active"`
	MessageCount  int        `gorm:"not null;default:0" json:"message_count"`
	CreatedAt     time.Time  `json:"created_at"`
	LastMessageAt time.Time  `gorm:"index" json:"last_message_at"`

	Messages []ChatMessage `gorm:"foreignKey:SessionID;references:SessionID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

// Scope derives the session's routing scope from its stored columns.
func (s *ChatSession) Scope() ChatScope {
	return ChatScope{
		Subject:    s.Subject,
		CourseID:   s.CourseID,
		LessonID:   s.LessonID,
		ExerciseID: s.ExerciseID,
		TrialID:    s.TrialID,
		IsRevision: s.IsRevision,
	}
}

// ChatMessage is one turn in a session. Status moves pending -> complete or
// pending -> failed; terminal states are never mutated, a retry inserts a new
// message instead.
type ChatMessage struct {
	MessageID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"message_id"`
	SessionID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"session_id"`
	Content          string        `json:"content"`
	IsUser           bool          `gorm:"not null" json:"is_user"`
	Timestamp        time.Time     `gorm:"not null;index" json:"timestamp"`
	MessageType      MessageType   `gorm:"not null;default:'text'" json:"message_type"`
	Status           MessageStatus `gorm:"not null;default:'pending'" json:"status"`
	ImageURI         *string       `json:"image_uri,omitempty"`
	RelatedExercise  *uuid.UUID    `gorm:"type:uuid" json:"related_exercise_id,omitempty"`
	RelatedTrial     *uuid.UUID    `gorm:"type:uuid" json:"related_trial_id,omitempty"`
	ProcessingTimeMs int64         `gorm:"not null;default:0" json:"processing_time_ms"`

	MathSteps []MathStep `gorm:"foreignKey:MessageID;references:MessageID;constraint:OnDelete:CASCADE" json:"math_steps,omitempty"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

// MathStep is one step of a worked solution attached to a message.
type MathStep struct {
	StepID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"step_id"`
	MessageID   uuid.UUID `gorm:"type:uuid;not null;index" json:"message_id"`
	StepNumber  int       `gorm:"not null" json:"step_number"`
	Description string    `gorm:"not null" json:"description"`
	Equation    *string   `json:"equation,omitempty"`
	Explanation *string   `json:"explanation,omitempty"`
}

func (MathStep) TableName() string { return "math_steps" }

// ImageMathProblem is an OCR'd problem extracted from a photo.
type ImageMathProblem struct {
	ProblemID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"problem_id"`
	ImageURI      string    `gorm:"not null" json:"image_uri"`
	ExtractedText string    `json:"extracted_text"`
	ProblemType   string    `gorm:"not null;default:'unknown'" json:"problem_type"`
	Confidence    float32   `json:"confidence"`
	ProcessedAt   time.Time `json:"processed_at"`

	BoundingBoxes []BoundingBox `gorm:"foreignKey:ProblemID;references:ProblemID;constraint:OnDelete:CASCADE" json:"bounding_boxes,omitempty"`
}

func (ImageMathProblem) TableName() string { return "image_math_problems" }

type BoundingBox struct {
	BoxID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"box_id"`
	ProblemID  uuid.UUID `gorm:"type:uuid;not null;index" json:"problem_id"`
	X          float32   `json:"x"`
	Y          float32   `json:"y"`
	Width      float32   `json:"width"`
	Height     float32   `json:"height"`
	Confidence float32   `json:"confidence"`
}

func (BoundingBox) TableName() string { return "bounding_boxes" }

// SendMessageRequest starts one chat turn. SessionID absent means a new
// session is created from the scope fields. ClientMessageID lets a caller
// retry after a persistence failure without duplicating the user turn.
type SendMessageRequest struct {
	SessionID       *uuid.UUID `json:"session_id,omitempty"`
	ClientMessageID *uuid.UUID `json:"client_message_id,omitempty"`
	Content         string     `json:"content" validate:"required"`
	ImageURI        *string    `json:"image_uri,omitempty"`

	// Scope for a newly created session; ignored when SessionID is set.
	Subject    *string    `json:"subject,omitempty"`
	CourseID   *uuid.UUID `json:"course_id,omitempty"`
	LessonID   *uuid.UUID `json:"lesson_id,omitempty"`
	ExerciseID *uuid.UUID `json:"exercise_id,omitempty"`
	TrialID    *uuid.UUID `json:"trial_id,omitempty"`
	IsRevision bool       `json:"is_revision,omitempty"`
}

// SendMessageResponse returns the persisted assistant reply.
type SendMessageResponse struct {
	SessionID uuid.UUID    `json:"session_id"`
	Message   *ChatMessage `json:"message"`
}

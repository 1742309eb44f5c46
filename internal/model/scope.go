// internal/model/scope.go
package model

import "github.com/google/uuid"

// ScopeKind names the four retrieval strategies a chat session can route to.
type ScopeKind string

const (
	ScopeExercise ScopeKind = "exercise"
	ScopeRevision ScopeKind = "revision"
	ScopeChapter  ScopeKind = "chapter"
	ScopeGeneral  ScopeKind = "general"
)

// ChatScope is the contextual binding of a chat session. At most one kind
// applies per session; Kind() resolves the precedence.
type ChatScope struct {
	Subject    *string
	CourseID   *uuid.UUID
	LessonID   *uuid.UUID
	ExerciseID *uuid.UUID
	TrialID    *uuid.UUID
	IsRevision bool
}

// Kind maps a scope to exactly one strategy. Exercise binding wins over the
// revision flag, which wins over a lesson binding; everything else is general.
// Total and deterministic by construction.
func (s ChatScope) Kind() ScopeKind {
	switch {
	case s.ExerciseID != nil || s.TrialID != nil:
		return ScopeExercise
	case s.IsRevision:
		return ScopeRevision
	case s.LessonID != nil:
		return ScopeChapter
	default:
		return ScopeGeneral
	}
}

// SourceRef names one stored entity that contributed to a context block.
type SourceRef struct {
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
}

// ContextBlock is the bounded text excerpt a RagProvider hands to prompt
// composition, plus the entities it was built from.
type ContextBlock struct {
	Text    string      `json:"text"`
	Sources []SourceRef `json:"sources"`
}

// Empty reports whether the block carries no retrieved content. An empty
// block is a valid degraded result, not an error.
func (b ContextBlock) Empty() bool { return b.Text == "" }

// internal/rag/revision.go
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eliza_tutor/internal/model"
	"eliza_tutor/internal/repository"

	"gorm.io/gorm"
)

const weakExerciseLimit = 5

// RevisionProvider summarizes the learner's weak areas in the scoped course
// so a review conversation targets what actually needs repetition: exercises
// answered wrong and lessons never finished.
type RevisionProvider struct {
	db           *gorm.DB
	progressRepo repository.ProgressRepository
	userID       string
	budget       int
}

func NewRevisionProvider(db *gorm.DB, progressRepo repository.ProgressRepository, userID string, budget int) *RevisionProvider {
	return &RevisionProvider{db: db, progressRepo: progressRepo, userID: userID, budget: budget}
}

func (p *RevisionProvider) Kind() model.ScopeKind { return model.ScopeRevision }

func (p *RevisionProvider) BuildContext(ctx context.Context, query string, scope model.ChatScope) (model.ContextBlock, error) {
	if scope.CourseID == nil {
		return model.ContextBlock{}, nil
	}

	weak, err := p.progressRepo.FindWeakExercises(ctx, p.db, p.userID, *scope.CourseID, weakExerciseLimit)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.ContextBlock{}, fmt.Errorf("revision context: %w: %w", model.ErrContextBuild, err)
	}
	incomplete, err := p.progressRepo.FindIncompleteLessons(ctx, p.db, p.userID, *scope.CourseID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.ContextBlock{}, fmt.Errorf("revision context: %w: %w", model.ErrContextBuild, err)
	}
	if len(weak) == 0 && len(incomplete) == 0 {
		return model.ContextBlock{}, nil
	}

	var b strings.Builder
	var sources []model.SourceRef

	if len(weak) > 0 {
		b.WriteString("Exercises the student answered incorrectly:\n")
		for _, ex := range weak {
			fmt.Fprintf(&b, "- %s\n", ex.QuestionText)
			sources = append(sources, model.SourceRef{EntityType: "exercise", EntityID: ex.ExerciseID})
		}
	}
	if len(incomplete) > 0 {
		b.WriteString("Lessons not yet completed:\n")
		for _, lesson := range incomplete {
			fmt.Fprintf(&b, "- Lesson %d: %s\n", lesson.LessonNumber, lesson.Title)
			sources = append(sources, model.SourceRef{EntityType: "lesson", EntityID: lesson.LessonID})
		}
	}

	return model.ContextBlock{Text: clip(b.String(), p.budget), Sources: sources}, nil
}

func (p *RevisionProvider) SystemInstructions(scope model.ChatScope) string {
	return "You are a tutor running a revision session. Prioritize the topics the student " +
		"has struggled with, quiz them with short questions before explaining, and use " +
		"spaced-repetition style prompts rather than re-teaching whole lessons."
}

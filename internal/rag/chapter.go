// internal/rag/chapter.go
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

// ChapterProvider retrieves the scoped lesson's content so the tutor can
// answer questions about what the learner is currently reading.
type ChapterProvider struct {
	db         *gorm.DB
	courseRepo repository.CourseRepository
	budget     int
}

func NewChapterProvider(db *gorm.DB, courseRepo repository.CourseRepository, budget int) *ChapterProvider {
	return &ChapterProvider{db: db, courseRepo: courseRepo, budget: budget}
}

func (p *ChapterProvider) Kind() model.ScopeKind { return model.ScopeChapter }

func (p *ChapterProvider) BuildContext(ctx context.Context, query string, scope model.ChatScope) (model.ContextBlock, error) {
	if scope.LessonID == nil {
		return model.ContextBlock{}, nil
	}

	lesson, err := p.courseRepo.FindLessonByID(ctx, p.db, *scope.LessonID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ContextBlock{}, nil
		}
		return model.ContextBlock{}, fmt.Errorf("chapter context: %w: %w", model.ErrContextBuild, err)
	}
	if lesson.MarkdownContent == "" {
		return model.ContextBlock{}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current lesson (%d): %s\n\n", lesson.LessonNumber, lesson.Title)
	b.WriteString(clip(lesson.MarkdownContent, p.budget))

	return model.ContextBlock{
		Text: b.String(),
		Sources: []model.SourceRef{
			{EntityType: "lesson", EntityID: lesson.LessonID},
		},
	}, nil
}

func (p *ChapterProvider) SystemInstructions(scope model.ChatScope) string {
	return "You are a tutor helping a student with the lesson they are currently reading. " +
		"Ground your explanations in the lesson content provided, build on it with examples, " +
		"and explain step by step when the question calls for it."
}

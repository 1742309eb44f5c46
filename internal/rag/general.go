// internal/rag/general.go
package rag

import (
	"context"
	"fmt"
	"strings"

	"eliza_tutor/internal/model"
	"eliza_tutor/internal/repository"

	"gorm.io/gorm"
)

// GeneralProvider supplies high-level catalog context for unscoped
// conversations: what courses exist, their subjects and descriptions. It is
// also the fallback when a scope fails to resolve.
type GeneralProvider struct {
	db         *gorm.DB
	courseRepo repository.CourseRepository
	budget     int
}

func NewGeneralProvider(db *gorm.DB, courseRepo repository.CourseRepository, budget int) *GeneralProvider {
	return &GeneralProvider{db: db, courseRepo: courseRepo, budget: budget}
}

func (p *GeneralProvider) Kind() model.ScopeKind { return model.ScopeGeneral }

func (p *GeneralProvider) BuildContext(ctx context.Context, query string, scope model.ChatScope) (model.ContextBlock, error) {
	var (
		courses []*model.Course
		err     error
	)
	if scope.Subject != nil && *scope.Subject != "" {
		courses, err = p.courseRepo.FindCoursesBySubject(ctx, p.db, *scope.Subject)
	} else {
		courses, err = p.courseRepo.FindAllCourses(ctx, p.db)
	}
	if err != nil {
		return model.ContextBlock{}, fmt.Errorf("general context: %w: %w", model.ErrContextBuild, err)
	}
	if len(courses) == 0 {
		return model.ContextBlock{}, nil
	}

	var b strings.Builder
	var sources []model.SourceRef
	b.WriteString("Available courses:\n")
	for _, course := range courses {
		fmt.Fprintf(&b, "- %s (%s, grade %s): %s\n", course.Title, course.Subject, course.Grade, course.Description)
		sources = append(sources, model.SourceRef{EntityType: "course", EntityID: course.CourseID})
	}

	return model.ContextBlock{Text: clip(b.String(), p.budget), Sources: sources}, nil
}

func (p *GeneralProvider) SystemInstructions(scope model.ChatScope) string {
	return "You are a general study tutor. Answer the student's question directly, and when " +
		"a course in the catalog covers the topic, point them to it."
}

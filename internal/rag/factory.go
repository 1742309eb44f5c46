// internal/rag/factory.go
package rag

import (
	"context"
	"fmt"

	"eliza_tutor/internal/middleware"
	"eliza_tutor/internal/model"
	"eliza_tutor/internal/repository"

	"gorm.io/gorm"
)

// ProviderFactory routes a session scope to exactly one retrieval strategy.
type ProviderFactory interface {
	// Select returns the provider for the scope. When the scope references
	// an entity that no longer resolves, Select returns the general
	// provider together with an error wrapping model.ErrScopeResolution;
	// the returned provider is always usable.
	Select(ctx context.Context, scope model.ChatScope) (Provider, error)

	// General returns the unscoped fallback provider.
	General() Provider
}

type providerFactory struct {
	db        *gorm.DB
	course    repository.CourseRepository
	providers map[model.ScopeKind]Provider
}

// NewProviderFactory wires the four providers. Selection itself is the pure
// routing in model.ChatScope.Kind; the factory only adds existence checks on
// the referenced entities.
func NewProviderFactory(
	db *gorm.DB,
	courseRepo repository.CourseRepository,
	progressRepo repository.ProgressRepository,
	userID string,
	contextBudget int,
) ProviderFactory {
	return &providerFactory{
		db:     db,
		course: courseRepo,
		providers: map[model.ScopeKind]Provider{
			model.ScopeChapter:  NewChapterProvider(db, courseRepo, contextBudget),
			model.ScopeRevision: NewRevisionProvider(db, progressRepo, userID, contextBudget),
			model.ScopeGeneral:  NewGeneralProvider(db, courseRepo, contextBudget),
			model.ScopeExercise: NewExerciseProvider(db, courseRepo, progressRepo, userID, contextBudget),
		},
	}
}

func (f *providerFactory) General() Provider {
	return f.providers[model.ScopeGeneral]
}

func (f *providerFactory) Select(ctx context.Context, scope model.ChatScope) (Provider, error) {
	kind := scope.Kind()

	if err := f.checkResolvable(ctx, kind, scope); err != nil {
		middleware.GetLogger(ctx).Warn("Scope does not resolve, falling back to general provider",
			"kind", string(kind), "error", err)
		return f.General(), fmt.Errorf("rag: select %s: %w", kind, err)
	}
	return f.providers[kind], nil
}

// checkResolvable verifies the entity a scoped session points at still
// exists. Missing entities surface as ErrScopeResolution; plain query
// failures do too, since a scope that cannot be verified cannot be served.
func (f *providerFactory) checkResolvable(ctx context.Context, kind model.ScopeKind, scope model.ChatScope) error {
	var err error
	switch kind {
	case model.ScopeExercise:
		if scope.TrialID != nil {
			_, err = f.course.FindTrialByID(ctx, f.db, *scope.TrialID)
		} else if scope.ExerciseID != nil {
			_, err = f.course.FindExerciseByID(ctx, f.db, *scope.ExerciseID)
		}
	case model.ScopeChapter:
		if scope.LessonID != nil {
			_, err = f.course.FindLessonByID(ctx, f.db, *scope.LessonID)
		}
	case model.ScopeRevision:
		if scope.CourseID == nil {
			return fmt.Errorf("revision scope without course: %w", model.ErrScopeResolution)
		}
		_, err = f.course.FindCourseByID(ctx, f.db, *scope.CourseID)
	case model.ScopeGeneral:
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrScopeResolution, err)
	}
	return nil
}

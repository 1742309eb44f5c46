// internal/rag/exercise.go
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eliza_tutor/internal/model"
	"eliza_tutor/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExerciseProvider retrieves the exercise or trial the learner is stuck on,
// together with their prior attempts, so the tutor can hint without giving
// the answer away. The correct option is deliberately left out of the
// context text.
type ExerciseProvider struct {
	db           *gorm.DB
	courseRepo   repository.CourseRepository
	progressRepo repository.ProgressRepository
	userID       string
	budget       int
}

func NewExerciseProvider(db *gorm.DB, courseRepo repository.CourseRepository, progressRepo repository.ProgressRepository, userID string, budget int) *ExerciseProvider {
	return &ExerciseProvider{db: db, courseRepo: courseRepo, progressRepo: progressRepo, userID: userID, budget: budget}
}

func (p *ExerciseProvider) Kind() model.ScopeKind { return model.ScopeExercise }

func (p *ExerciseProvider) BuildContext(ctx context.Context, query string, scope model.ChatScope) (model.ContextBlock, error) {
	question, options, difficulty, exerciseID, sources, err := p.resolve(ctx, scope)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ContextBlock{}, nil
		}
		return model.ContextBlock{}, fmt.Errorf("exercise context: %w: %w", model.ErrContextBuild, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The student is working on this %s exercise:\n%s\n", difficulty, question)
	if len(options) > 0 {
		b.WriteString("Options:\n")
		for i, opt := range options {
			fmt.Fprintf(&b, "  %c) %s\n", 'A'+i, opt)
		}
	}

	answers, err := p.progressRepo.FindAnswersByExercise(ctx, p.db, p.userID, exerciseID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.ContextBlock{}, fmt.Errorf("exercise context: %w: %w", model.ErrContextBuild, err)
	}
	if len(answers) > 0 {
		b.WriteString("Previous attempts:\n")
		for _, ans := range answers {
			verdict := "wrong"
			if ans.IsCorrect {
				verdict = "correct"
			}
			if ans.SelectedAnswer >= 0 && ans.SelectedAnswer < len(options) {
				fmt.Fprintf(&b, "  - chose %c) %s (%s)\n", 'A'+ans.SelectedAnswer, options[ans.SelectedAnswer], verdict)
			}
		}
	}

	return model.ContextBlock{Text: clip(b.String(), p.budget), Sources: sources}, nil
}

// resolve loads the trial if one is scoped, otherwise the exercise. A trial
// also contributes its original exercise as a source reference.
func (p *ExerciseProvider) resolve(ctx context.Context, scope model.ChatScope) (question string, options []string, difficulty string, exerciseID uuid.UUID, sources []model.SourceRef, err error) {
	if scope.TrialID != nil {
		trial, terr := p.courseRepo.FindTrialByID(ctx, p.db, *scope.TrialID)
		if terr != nil {
			err = terr
			return
		}
		return trial.QuestionText, trial.Options, trial.Difficulty, trial.OriginalExerciseID,
			[]model.SourceRef{
				{EntityType: "trial", EntityID: trial.TrialID},
				{EntityType: "exercise", EntityID: trial.OriginalExerciseID},
			}, nil
	}
	if scope.ExerciseID == nil {
		err = model.ErrNotFound
		return
	}
	exercise, eerr := p.courseRepo.FindExerciseByID(ctx, p.db, *scope.ExerciseID)
	if eerr != nil {
		err = eerr
		return
	}
	return exercise.QuestionText, exercise.Options, exercise.Difficulty, exercise.ExerciseID,
		[]model.SourceRef{{EntityType: "exercise", EntityID: exercise.ExerciseID}}, nil
}

func (p *ExerciseProvider) SystemInstructions(scope model.ChatScope) string {
	return "You are a tutor helping a student who is stuck on an exercise. Guide them toward " +
		"the solution with hints and leading questions. Never state the correct option outright " +
		"unless the student has already answered correctly and asks for confirmation."
}

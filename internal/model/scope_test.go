// internal/model/scope_test.go
package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func Test_ChatScope_Kind(t *testing.T) {
	subject := "biology"
	courseID := uuid.New()
	lessonID := uuid.New()
	exerciseID := uuid.New()
	trialID := uuid.New()

	tests := []struct {
		name  string
		scope ChatScope
		want  ScopeKind
	}{
		{
			name:  "empty scope is general",
			scope: ChatScope{},
			want:  ScopeGeneral,
		},
		{
			name:  "subject alone is general",
			scope: ChatScope{Subject: &subject},
			want:  ScopeGeneral,
		},
		{
			name:  "course alone is general",
			scope: ChatScope{CourseID: &courseID},
			want:  ScopeGeneral,
		},
		{
			name:  "lesson routes to chapter",
			scope: ChatScope{CourseID: &courseID, LessonID: &lessonID},
			want:  ScopeChapter,
		},
		{
			name:  "revision flag routes to revision",
			scope: ChatScope{CourseID: &courseID, IsRevision: true},
			want:  ScopeRevision,
		},
		{
			name:  "revision wins over lesson",
			scope: ChatScope{CourseID: &courseID, LessonID: &lessonID, IsRevision: true},
			want:  ScopeRevision,
		},
		{
			name:  "exercise routes to exercise",
			scope: ChatScope{LessonID: &lessonID, ExerciseID: &exerciseID},
			want:  ScopeExercise,
		},
		{
			name:  "trial routes to exercise",
			scope: ChatScope{TrialID: &trialID},
			want:  ScopeExercise,
		},
		{
			name: "exercise wins over everything",
			scope: ChatScope{
				Subject: &subject, CourseID: &courseID, LessonID: &lessonID,
				ExerciseID: &exerciseID, IsRevision: true,
			},
			want: ScopeExercise,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scope.Kind())
			// Pure function of the scope: repeated calls agree.
			assert.Equal(t, tt.scope.Kind(), tt.scope.Kind())
		})
	}
}

func Test_ContextBlock_Empty(t *testing.T) {
	assert.True(t, ContextBlock{}.Empty())
	assert.True(t, ContextBlock{Sources: []SourceRef{{EntityType: "lesson", EntityID: uuid.New()}}}.Empty())
	assert.False(t, ContextBlock{Text: "some retrieved text"}.Empty())
}

// internal/rag/provider.go
package rag

import (
	"context"
	"strings"
	"unicode/utf8"

	"eliza_tutor/internal/model"
)

// Provider builds the retrieval context for one kind of learning
// interaction. Implementations degrade to an empty ContextBlock when their
// backing data is missing; only genuine query failures surface as errors
// (wrapped in model.ErrContextBuild).
type Provider interface {
	// Kind names the strategy this provider implements.
	Kind() model.ScopeKind

	// BuildContext retrieves a bounded text excerpt relevant to the query
	// under the given scope, with references to the entities used.
	BuildContext(ctx context.Context, query string, scope model.ChatScope) (model.ContextBlock, error)

	// SystemInstructions returns the tutoring preamble for this strategy.
	SystemInstructions(scope model.ChatScope) string
}

// clip truncates text to the provider's character budget, preferring a word
// boundary and never splitting a multibyte rune.
func clip(text string, budget int) string {
	if budget <= 0 || len(text) <= budget {
		return text
	}
	for budget > 0 && !utf8.RuneStart(text[budget]) {
		budget--
	}
	cut := text[:budget]
	if idx := strings.LastIndexByte(cut, ' '); idx > budget/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}

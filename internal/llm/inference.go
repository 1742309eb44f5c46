// internal/llm/inference.go
package llm

import "context"

// TokenFunc receives incremental output during generation. May be nil when
// the caller only wants the final string.
type TokenFunc func(token string)

// InferenceHelper abstracts the on-device model. Generate blocks until the
// model finishes or the context is cancelled; on cancellation it returns the
// partial output together with context.Canceled so the caller can persist
// what was produced.
type InferenceHelper interface {
	Generate(ctx context.Context, prompt string, onToken TokenFunc) (string, error)
}

package ai

import "context"

// Provider is a text-generation backend: one prompt in, full response out.
// No streaming contract is required by the pipeline.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

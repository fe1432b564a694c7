package ai

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by call sites that require a generator when
// none is configured. Shortlisting surfaces it; question generation absorbs
// it and falls back.
var ErrNotConfigured = errors.New("ai generator is not configured")

// ErrBadResponse wraps parse and validation failures of generator output.
// Whether a call site absorbs or propagates it is a per-site policy.
var ErrBadResponse = errors.New("malformed ai response")

// Generator produces free-form text for a prompt. Implementations are
// expected to be safe for concurrent use.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

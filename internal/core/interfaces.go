// Package core defines the core interfaces and messages of the SSML service.
package core

import (
	"context"

	"github.com/book-expert/ssml-service/internal/ssml"
)

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// Validator validates SSML documents. Implementations must be safe for
// concurrent use.
type Validator interface {
	Validate(input string) ssml.Result
	Variant() ssml.Variant
}

// Synthesizer turns text, which may carry SSML markup, into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

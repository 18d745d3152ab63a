package speech

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/book-expert/ssml-service/internal/core"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// PlainText removes every tag from text, leaving the spoken content. Runs of
// whitespace left behind collapse to a single space.
func PlainText(text string) string {
	stripped := tagPattern.ReplaceAllString(text, "")

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(stripped, " "))
}

// SpeakWithFallback sends text to synth unchanged. If the engine rejects the
// markup it retries once with PlainText(text) and reports fellBack = true.
func SpeakWithFallback(ctx context.Context, synth core.Synthesizer, text string) ([]byte, bool, error) {
	audio, err := synth.Synthesize(ctx, text)
	if err == nil {
		return audio, false, nil
	}

	if !errors.Is(err, ErrMarkupRejected) {
		return nil, false, fmt.Errorf("failed to synthesize text: %w", err)
	}

	plain := PlainText(text)
	if plain == "" {
		return nil, true, fmt.Errorf("nothing left to speak after removing markup: %w", err)
	}

	audio, err = synth.Synthesize(ctx, plain)
	if err != nil {
		return nil, true, fmt.Errorf("failed to synthesize plain text fallback: %w", err)
	}

	return audio, true, nil
}

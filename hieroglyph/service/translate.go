package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/mcp-hieroglyph/hieroglyph/adapter"
)

// Translate looks up pinyin and meanings; empty text falls back to the confirmed, then the target hieroglyph.
func (s *Service) Translate(ctx context.Context, text string) (*TranslateOutput, error) {
	text = normalize(text)
	if text == "" {
		sess := s.acquire(ctx)
		text = sess.state.Confirmed
		if text == "" {
			text = sess.state.Target
		}
		sess.mu.Unlock()
	}
	if text == "" {
		return nil, fmt.Errorf("%w: no text, confirmed or target hieroglyph", ErrNoTarget)
	}
	tokens, err := s.api.Translate(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to translate %s: %w", text, err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTranslationNotFound, text)
	}
	primary := tokens[0]
	return &TranslateOutput{Text: text, Tokens: tokens, Primary: primary, Formatted: FormatToken(primary)}, nil
}

// FormatToken renders a token as its pinyin line followed by one "• meaning" line per meaning.
func FormatToken(t adapter.Token) string {
	lines := make([]string, 0, len(t.Meanings)+1)
	if p := strings.TrimSpace(t.Pinyin); p != "" {
		lines = append(lines, p)
	}
	for _, m := range t.Meanings {
		if m = strings.TrimSpace(m); m != "" {
			lines = append(lines, "• "+m)
		}
	}
	return strings.Join(lines, "\n")
}

// Random returns a random hieroglyph without touching the session.
func (s *Service) Random(ctx context.Context) (*RandomOutput, error) {
	h, err := s.api.RandomHieroglyph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch random hieroglyph: %w", err)
	}
	return &RandomOutput{Hieroglyph: normalize(h)}, nil
}

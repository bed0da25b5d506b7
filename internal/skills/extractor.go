// Package skills turns free resume text into a sorted set of lowercase skills.
package skills

import (
	"context"
	"log/slog"
	"strings"
)

// Extractor turns normalized text into a sorted set of lowercase skills
type Extractor interface {
	Extract(ctx context.Context, text string) []string
	Name() string
}

// New returns the extractor strategy: heuristic only when tagger is nil,
// otherwise tagging plus heuristic.
func New(heuristic *Heuristic, tagger Tagger) Extractor {
	if tagger == nil {
		return heuristic
	}
	return &Tagging{tagger: tagger, heuristic: heuristic}
}

// Tagging unions tagger candidates with the heuristic result.
// A failing tagger only reduces recall.
type Tagging struct {
	tagger    Tagger
	heuristic *Heuristic
}

// Name implements Extractor
func (e *Tagging) Name() string { return e.tagger.Name() + "+" + e.heuristic.Name() }

// Extract implements Extractor
func (e *Tagging) Extract(ctx context.Context, text string) []string {
	found := e.heuristic.extract(text)

	candidates, err := e.tagger.Tag(ctx, text)
	if err != nil {
		slog.Warn("skill tagging unavailable, using heuristic only", "tagger", e.tagger.Name(), "error", err)
		return sortedSet(found)
	}

	for _, c := range candidates {
		c = strings.ToLower(strings.TrimSpace(c))
		if ValidCandidate(c) {
			found[c] = struct{}{}
		}
	}
	return sortedSet(found)
}

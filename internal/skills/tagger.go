package skills

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/terra-clan/hiresense/internal/llm/gemini"
	"github.com/terra-clan/hiresense/internal/similarity"
)

// Tagger proposes skill candidates from named entities and proper nouns
type Tagger interface {
	Tag(ctx context.Context, text string) ([]string, error)
	Name() string
}

// Generator is the text generation capability used by the Gemini tagger
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Tagger modes
const (
	TaggerAuto   = "auto"
	TaggerPropN  = "propn"
	TaggerGemini = "gemini"
	TaggerNone   = "none"
)

// NewTagger selects a tagger. gen may be nil when no model is configured;
// auto then falls back to the local proper-noun tagger. A nil Tagger with a
// nil error means tagging is disabled.
func NewTagger(mode string, gen Generator, timeout time.Duration) (Tagger, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", TaggerAuto:
		if gen != nil {
			return NewGeminiTagger(gen, timeout), nil
		}
		return ProperNounTagger{}, nil
	case TaggerPropN:
		return ProperNounTagger{}, nil
	case TaggerGemini:
		if gen == nil {
			return nil, errors.New("gemini tagger requires GEMINI_API_KEY")
		}
		return NewGeminiTagger(gen, timeout), nil
	case TaggerNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown skills tagger %q", mode)
	}
}

// ProperNounTagger is a local tagger: capitalized words that do not start a
// sentence, CamelCase words and acronyms.
type ProperNounTagger struct{}

// Name implements Tagger
func (ProperNounTagger) Name() string { return TaggerPropN }

// Tag implements Tagger
func (ProperNounTagger) Tag(_ context.Context, text string) ([]string, error) {
	var out []string
	for _, sentence := range splitSentences(text) {
		for i, word := range strings.Fields(sentence) {
			word = strings.Trim(word, `,;:()[]{}"'!?*`)
			word = strings.TrimRight(word, ".")
			if word == "" {
				continue
			}
			if similarity.IsStopWord(word) {
				continue
			}
			if isAcronym(word) || isCamelCase(word) || (i > 0 && startsUpper(word)) {
				out = append(out, word)
			}
		}
	}
	return out, nil
}

// splitSentences breaks on newlines, ! and ?, and on a period followed by
// whitespace or the end of the text. Dots inside tokens such as node.js stay.
func splitSentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i, r := range runes {
		end := r == '\n' || r == '!' || r == '?'
		if r == '.' && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])) {
			end = true
		}
		if !end {
			continue
		}
		if s := strings.TrimSpace(string(runes[start:i])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func startsUpper(w string) bool {
	for _, r := range w {
		return unicode.IsUpper(r)
	}
	return false
}

func isAcronym(w string) bool {
	letters := 0
	for _, r := range w {
		switch {
		case unicode.IsUpper(r):
			letters++
		case unicode.IsLower(r):
			return false
		}
	}
	return letters >= 2
}

func isCamelCase(w string) bool {
	runes := []rune(w)
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && unicode.IsLower(runes[i-1]) {
			return true
		}
	}
	return false
}

const (
	geminiTaggerPrompt = `List every organization, product, programming language, framework, library, cloud service and tool named in the resume below.
Answer with a JSON array of strings only, no commentary.

RESUME:
%s`
	maxTaggerInput = 12000
)

// GeminiTagger asks a Gemini model for the named entities of a resume
type GeminiTagger struct {
	gen     Generator
	timeout time.Duration
}

// NewGeminiTagger creates a tagger backed by gen
func NewGeminiTagger(gen Generator, timeout time.Duration) *GeminiTagger {
	return &GeminiTagger{gen: gen, timeout: timeout}
}

// Name implements Tagger
func (t *GeminiTagger) Name() string { return TaggerGemini }

// Tag implements Tagger
func (t *GeminiTagger) Tag(ctx context.Context, text string) ([]string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	runes := []rune(text)
	if len(runes) > maxTaggerInput {
		text = string(runes[:maxTaggerInput])
	}

	raw, err := t.gen.GenerateContent(ctx, fmt.Sprintf(geminiTaggerPrompt, text))
	if err != nil {
		return nil, fmt.Errorf("gemini tagging: %w", err)
	}

	var entities []string
	if err := json.Unmarshal([]byte(gemini.CleanJSON(raw)), &entities); err != nil {
		return nil, fmt.Errorf("gemini tagging: unexpected response %q: %w", gemini.TruncateForLog(raw, 120), err)
	}
	return entities, nil
}

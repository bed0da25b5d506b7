package codesum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
)

// Summarizer modes
const (
	SummarizerAuto      = "auto"
	SummarizerGemini    = "gemini"
	SummarizerDocstring = "docstring"
)

const maxSnippetRunes = 2000

// Summarizer turns one function into a short natural-language summary
type Summarizer interface {
	Summarize(ctx context.Context, language string, fn Function) (string, error)
	Name() string
}

// Generator is the text generation capability used by the Gemini summarizer
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// NewSummarizer selects a summarizer. With a generator, auto uses Gemini and
// falls back to docstrings on failure; without one it uses docstrings only.
func NewSummarizer(mode string, gen Generator, timeout time.Duration) (Summarizer, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", SummarizerAuto:
		if gen == nil {
			return Docstring{}, nil
		}
		return WithFallback(NewGeminiSummarizer(gen, timeout), Docstring{}), nil
	case SummarizerGemini:
		if gen == nil {
			return nil, errors.New("gemini summarizer requires GEMINI_API_KEY")
		}
		return WithFallback(NewGeminiSummarizer(gen, timeout), Docstring{}), nil
	case SummarizerDocstring:
		return Docstring{}, nil
	default:
		return nil, fmt.Errorf("unknown summarizer %q", mode)
	}
}

// Docstring summarizes from the first sentence of the doc comment, or from
// the function name and parameters when there is none.
type Docstring struct{}

// Name implements Summarizer
func (Docstring) Name() string { return SummarizerDocstring }

// Summarize implements Summarizer
func (Docstring) Summarize(_ context.Context, _ string, fn Function) (string, error) {
	if sentence := firstSentence(fn.Doc); sentence != "" {
		return sentence, nil
	}

	name, owner := fn.Name, ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		owner, name = name[:i], name[i+1:]
	}

	summary := humanize(name)
	if owner != "" {
		summary += " on " + owner
	}
	summary += "."
	if len(fn.Params) > 0 {
		summary += " Takes " + strings.Join(fn.Params, ", ") + "."
	}
	return summary, nil
}

func firstSentence(doc string) string {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return ""
	}
	if i := strings.Index(doc, "\n\n"); i >= 0 {
		doc = doc[:i]
	}
	doc = strings.Join(strings.Fields(doc), " ")
	if i := strings.Index(doc, ". "); i >= 0 {
		doc = doc[:i+1]
	}
	if !strings.HasSuffix(doc, ".") {
		doc += "."
	}
	return doc
}

// humanize turns get_user_name or getUserName into "Get user name"
func humanize(name string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_':
			flush()
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) ||
			(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()

	if len(words) == 0 {
		return "Function"
	}
	out := []rune(strings.Join(words, " "))
	out[0] = unicode.ToUpper(out[0])
	return string(out)
}

// GeminiSummarizer asks a Gemini model for a one-sentence summary
type GeminiSummarizer struct {
	gen     Generator
	timeout time.Duration
}

// NewGeminiSummarizer creates a summarizer backed by gen
func NewGeminiSummarizer(gen Generator, timeout time.Duration) *GeminiSummarizer {
	return &GeminiSummarizer{gen: gen, timeout: timeout}
}

// Name implements Summarizer
func (g *GeminiSummarizer) Name() string { return SummarizerGemini }

// Summarize implements Summarizer
func (g *GeminiSummarizer) Summarize(ctx context.Context, language string, fn Function) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	snippet := []rune(fn.Snippet)
	if len(snippet) > maxSnippetRunes {
		snippet = snippet[:maxSnippetRunes]
	}

	prompt := fmt.Sprintf("summarize this %s function in one sentence: %s", language, string(snippet))
	out, err := g.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summarize %s: %w", fn.Name, err)
	}

	out = strings.TrimSpace(out)
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = strings.TrimSpace(out[:i])
	}
	if out == "" {
		return "", fmt.Errorf("summarize %s: empty response", fn.Name)
	}
	return out, nil
}

type fallbackSummarizer struct {
	primary, secondary Summarizer
}

// WithFallback uses secondary whenever primary fails
func WithFallback(primary, secondary Summarizer) Summarizer {
	return &fallbackSummarizer{primary: primary, secondary: secondary}
}

func (f *fallbackSummarizer) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

func (f *fallbackSummarizer) Summarize(ctx context.Context, language string, fn Function) (string, error) {
	out, err := f.primary.Summarize(ctx, language, fn)
	if err == nil {
		return out, nil
	}
	slog.Warn("summarizer failed, using fallback", "summarizer", f.primary.Name(), "function", fn.Name, "error", err)
	return f.secondary.Summarize(ctx, language, fn)
}

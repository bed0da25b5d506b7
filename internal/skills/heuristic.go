package skills

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// defaultVocabulary is the built-in technology list matched by the heuristic extractor
var defaultVocabulary = []string{
	"python", "java", "javascript", "typescript", "go", "golang", "rust", "c++", "c#", ".net", "ruby",
	"php", "kotlin", "swift", "scala", "dart", "bash", "sql", "nosql", "html", "css", "sass",
	"react", "angular", "vue", "next.js", "node.js", "express", "django", "flask", "fastapi", "spring",
	"spring boot", "rails", "laravel", "redux", "graphql", "rest", "rest api", "restful", "grpc", "tailwind", "webpack",
	"postgresql", "mysql", "mongodb", "redis", "elasticsearch", "kafka", "rabbitmq", "sqlite", "oracle",
	"aws", "azure", "gcp", "docker", "kubernetes", "terraform", "ansible", "jenkins", "ci/cd", "linux",
	"git", "github", "gitlab", "prometheus", "grafana", "nginx", "microservices",
	"machine learning", "deep learning", "nlp", "computer vision", "statistics", "pandas", "numpy",
	"scikit-learn", "tensorflow", "pytorch", "keras", "spark", "hadoop", "airflow", "mlops",
	"tableau", "power bi", "looker", "excel", "figma", "jira", "agile", "scrum",
	"android", "ios", "flutter", "react native", "firebase",
}

// ambiguousTerms are vocabulary entries that are also plain English words.
// Outside a skills line they only count in one of the listed spellings.
var ambiguousTerms = map[string][]string{
	"go":   {"Go", "GO"},
	"rest": {"REST"},
}

var (
	techToken = regexp.MustCompile(`(?i)\.?[a-z0-9][a-z0-9+#./\-]*`)
	parenNote = regexp.MustCompile(`\([^)]*\)?`)
	skillLine = regexp.MustCompile(`(?i)^\s*(?:technical\s+|key\s+|core\s+)?skills?(?:\s+&\s+tools)?\s*[:\-]\s*(.+)$`)
	itemSplit = regexp.MustCompile(`[,;|]`)
	validRune = regexp.MustCompile(`[A-Za-z0-9#+\-.]`)
)

const maxNGram = 3

// Heuristic matches a keyword vocabulary and "Skills:" lines.
// It is deterministic and needs no external capability.
type Heuristic struct {
	vocab map[string]struct{}
}

// NewHeuristic builds a heuristic extractor over the built-in vocabulary
// plus any extra keywords, typically every role keyword of the catalog.
func NewHeuristic(extra ...string) *Heuristic {
	h := &Heuristic{vocab: make(map[string]struct{}, len(defaultVocabulary)+len(extra))}
	for _, list := range [][]string{defaultVocabulary, extra} {
		for _, kw := range list {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				h.vocab[strings.Join(strings.Fields(kw), " ")] = struct{}{}
			}
		}
	}
	return h
}

// Name implements Extractor
func (h *Heuristic) Name() string { return "heuristic" }

// Extract implements Extractor
func (h *Heuristic) Extract(_ context.Context, text string) []string {
	return sortedSet(h.extract(text))
}

func (h *Heuristic) extract(text string) map[string]struct{} {
	found := make(map[string]struct{})

	words, spelled := tokenize(text)
	for n := 1; n <= maxNGram; n++ {
		for i := 0; i+n <= len(words); i++ {
			gram := strings.Join(words[i:i+n], " ")
			if _, ok := h.vocab[gram]; !ok {
				continue
			}
			if n == 1 && !unambiguous(gram, spelled[i]) {
				continue
			}
			found[gram] = struct{}{}
		}
	}
	// "python/django" also counts as its parts
	for _, w := range words {
		if !strings.Contains(w, "/") {
			continue
		}
		for _, part := range strings.Split(w, "/") {
			if _, ok := h.vocab[part]; ok {
				found[part] = struct{}{}
			}
		}
	}

	for _, line := range strings.Split(text, "\n") {
		m := skillLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		items := parenNote.ReplaceAllString(m[1], " ")
		for _, item := range itemSplit.Split(items, -1) {
			item = strings.ToLower(strings.Join(strings.Fields(item), " "))
			item = strings.Trim(item, ".")
			if ValidCandidate(item) {
				found[item] = struct{}{}
			}
		}
	}

	return found
}

// ValidCandidate reports whether a token can be a skill: 2 to 30 characters
// with at least one letter, digit or one of # + - .
func ValidCandidate(token string) bool {
	n := len([]rune(token))
	return n >= 2 && n <= 30 && validRune.MatchString(token)
}

// tokenize returns the lowercase tokens and, at the same index, their
// spelling in the text.
func tokenize(text string) (words, spelled []string) {
	raw := techToken.FindAllString(text, -1)
	words = make([]string, 0, len(raw))
	spelled = make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.TrimRight(w, ".-/")
		if w != "" {
			words = append(words, strings.ToLower(w))
			spelled = append(spelled, w)
		}
	}
	return words, spelled
}

func unambiguous(term, spelling string) bool {
	forms, ok := ambiguousTerms[term]
	if !ok {
		return true
	}
	for _, f := range forms {
		if spelling == f {
			return true
		}
	}
	return false
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

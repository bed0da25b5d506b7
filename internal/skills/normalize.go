package skills

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	bulletReplacer = strings.NewReplacer(
		"•", "\n", "▪", "\n", "◦", "\n", "●", "\n", "■", "\n", " ", " ",
		"–", "-", "—", "-", "’", "'", "“", `"`, "”", `"`,
	)
	spaceRun = regexp.MustCompile(`[ \t\f\v]+`)
	blankRun = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText folds compatibility characters, turns bullets into line
// breaks and collapses runs of whitespace. Line structure is kept because
// the heuristic extractor reads "Skills:" lines.
func NormalizeText(text string) string {
	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = bulletReplacer.Replace(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankRun.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

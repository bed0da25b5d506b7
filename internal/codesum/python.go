package codesum

import (
	"regexp"
	"strings"
)

var pyDecl = regexp.MustCompile(`^([ \t]*)(async[ \t]+def|def|class)[ \t]+([A-Za-z_][A-Za-z0-9_]*)`)

// pyLexer tracks the string and bracket state that carries across lines
type pyLexer struct {
	quote string // open triple quote, "" outside
	depth int
}

// scan advances over one line and returns the column of the first ':' found
// outside strings at bracket depth 0, or -1.
func (l *pyLexer) scan(line string) int {
	colon := -1
	for i := 0; i < len(line); i++ {
		if l.quote != "" {
			end := strings.Index(line[i:], l.quote)
			if end < 0 {
				return colon
			}
			i += end + len(l.quote) - 1
			l.quote = ""
			continue
		}

		c := line[i]
		switch c {
		case '#':
			return colon
		case '"', '\'':
			triple := strings.Repeat(string(c), 3)
			if strings.HasPrefix(line[i:], triple) {
				l.quote = triple
				i += 2
				continue
			}
			i = skipShortString(line, i)
		case '(', '[', '{':
			l.depth++
		case ')', ']', '}':
			if l.depth > 0 {
				l.depth--
			}
		case ':':
			if l.depth == 0 && colon < 0 {
				colon = i
			}
		}
	}
	return colon
}

// skipShortString returns the index of the closing quote of the string
// starting at i, or the last index of the line when it is unterminated
func skipShortString(line string, i int) int {
	q := line[i]
	for j := i + 1; j < len(line); j++ {
		switch line[j] {
		case '\\':
			j++
		case q:
			return j
		}
	}
	return len(line) - 1
}

type pyScope struct {
	indent int
	class  bool
}

func parsePython(src string) (*Structure, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	lines := strings.Split(src, "\n")

	st := &Structure{Language: LangPython, Functions: []Function{}, Classes: []string{}}
	var (
		lex   pyLexer
		scope []pyScope
	)

	for i := 0; i < len(lines); i++ {
		if lex.quote != "" || lex.depth > 0 {
			lex.scan(lines[i])
			continue
		}

		m := pyDecl.FindStringSubmatch(lines[i])
		if m == nil {
			lex.scan(lines[i])
			continue
		}

		indent := indentWidth(m[1])
		for len(scope) > 0 && scope[len(scope)-1].indent >= indent {
			scope = scope[:len(scope)-1]
		}
		inClass := len(scope) > 0 && scope[len(scope)-1].class

		end, inline, err := pyHeader(lines, i, &lex)
		if err != nil {
			return nil, err
		}

		bodyEnd := end + 1
		if !inline {
			bodyEnd, err = pyBlockEnd(lines, end+1, indent)
			if err != nil {
				return nil, err
			}
		}

		if m[2] == "class" {
			st.Classes = append(st.Classes, m[3])
			scope = append(scope, pyScope{indent: indent, class: true})
		} else {
			kind := KindFunction
			if inClass {
				kind = KindMethod
			}
			header := strings.Join(lines[i:end+1], "\n")
			st.Functions = append(st.Functions, Function{
				Name:    m[3],
				Kind:    kind,
				Line:    i + 1,
				Params:  pyParams(header),
				Doc:     pyDocstring(lines[end+1 : bodyEnd]),
				Snippet: strings.TrimRight(strings.Join(lines[i:bodyEnd], "\n"), " \t\n"),
			})
			scope = append(scope, pyScope{indent: indent})
		}

		// nested declarations are picked up by continuing inside the body
		i = end
	}

	if lex.quote != "" {
		return nil, &ParseError{Msg: "unterminated triple-quoted string"}
	}
	if lex.depth > 0 {
		return nil, &ParseError{Msg: "unbalanced brackets"}
	}
	return st, nil
}

// pyHeader finds the line holding the ':' that ends the declaration header
// starting at line i. inline is true when the body follows on the same line.
func pyHeader(lines []string, i int, lex *pyLexer) (end int, inline bool, err error) {
	for j := i; j < len(lines); j++ {
		col := lex.scan(lines[j])
		if col >= 0 && lex.depth == 0 {
			rest := strings.TrimSpace(lines[j][col+1:])
			return j, rest != "" && !strings.HasPrefix(rest, "#"), nil
		}
		if lex.depth == 0 && lex.quote == "" && !strings.HasSuffix(strings.TrimSpace(lines[j]), "\\") {
			break
		}
	}
	return 0, false, &ParseError{Line: i + 1, Msg: "expected ':' after declaration"}
}

// pyBlockEnd returns the index after the last line of the block that starts
// at line start and is indented deeper than indent
func pyBlockEnd(lines []string, start, indent int) (int, error) {
	var lex pyLexer
	end := -1

	for j := start; j < len(lines); j++ {
		if lex.quote == "" && lex.depth == 0 {
			trimmed := strings.TrimSpace(lines[j])
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			if indentWidth(leadingSpace(lines[j])) <= indent {
				break
			}
		}
		lex.scan(lines[j])
		end = j + 1
	}

	if end < 0 {
		return 0, &ParseError{Line: start + 1, Msg: "expected an indented block"}
	}
	return end, nil
}

func pyParams(header string) []string {
	open := strings.Index(header, "(")
	if open < 0 {
		return nil
	}

	var (
		params []string
		depth  int
		start  = open + 1
	)
	add := func(raw string) {
		p := strings.TrimSpace(raw)
		p = strings.TrimLeft(p, "*")
		if k := strings.IndexAny(p, ":="); k >= 0 {
			p = strings.TrimSpace(p[:k])
		}
		switch p {
		case "", "/", "self", "cls":
			return
		}
		params = append(params, p)
	}

	for i := open + 1; i < len(header); i++ {
		switch header[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				add(header[start:i])
				return params
			}
			depth--
		case ',':
			if depth == 0 {
				add(header[start:i])
				start = i + 1
			}
		}
	}
	return params
}

func pyDocstring(body []string) string {
	for k, line := range body {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		trimmed = strings.TrimLeft(trimmed, "rRuU")

		for _, q := range []string{`"""`, `'''`, `"`, `'`} {
			if !strings.HasPrefix(trimmed, q) {
				continue
			}
			rest := trimmed[len(q):]
			if end := strings.Index(rest, q); end >= 0 {
				return strings.TrimSpace(rest[:end])
			}
			if len(q) == 1 {
				return ""
			}
			parts := []string{strings.TrimSpace(rest)}
			for _, next := range body[k+1:] {
				if end := strings.Index(next, q); end >= 0 {
					parts = append(parts, strings.TrimSpace(next[:end]))
					break
				}
				parts = append(parts, strings.TrimSpace(next))
			}
			return strings.TrimSpace(strings.Join(parts, "\n"))
		}
		return ""
	}
	return ""
}

func leadingSpace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func indentWidth(ws string) int {
	width := 0
	for _, c := range ws {
		if c == '\t' {
			width += 8 - width%8
		} else {
			width++
		}
	}
	return width
}

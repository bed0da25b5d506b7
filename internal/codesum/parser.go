// Package codesum extracts the structure of a source file and summarizes its functions.
package codesum

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Languages
const (
	LangPython = "python"
	LangGo     = "go"
)

// Function kinds
const (
	KindFunction = "function"
	KindMethod   = "method"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

// ParseError reports source that could not be parsed
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// Function is one function or method found in a source file
type Function struct {
	Name    string
	Kind    string
	Line    int
	Params  []string
	Doc     string
	Snippet string
}

// Structure is the parsed layout of a source file
type Structure struct {
	Language  string
	Functions []Function
	Classes   []string
}

// FunctionNames returns the names of every function in source order
func (s *Structure) FunctionNames() []string {
	names := make([]string, len(s.Functions))
	for i, fn := range s.Functions {
		names[i] = fn.Name
	}
	return names
}

// LanguageFor maps a filename to a supported language
func LanguageFor(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".py":
		return LangPython, nil
	case ".go":
		return LangGo, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, filepath.Ext(filename))
	}
}

// Parse extracts the structure of a source file, picking the parser by extension
func Parse(filename string, src []byte) (*Structure, error) {
	lang, err := LanguageFor(filename)
	if err != nil {
		return nil, err
	}

	switch lang {
	case LangGo:
		return parseGo(filename, src)
	default:
		return parsePython(string(src))
	}
}

package models

// CodeStructure lists the callables and types found in a source file
type CodeStructure struct {
	Functions []string `json:"functions"`
	Classes   []string `json:"classes"`
}

// FunctionSummary is the natural-language summary of one function
type FunctionSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // function | method
	Line    int    `json:"line"`
	Summary string `json:"summary"`
}

// CodeReport is the response of the code summarizer
type CodeReport struct {
	Status    string            `json:"status"`
	Filename  string            `json:"filename"`
	Language  string            `json:"language"`
	Structure CodeStructure     `json:"structure"`
	Summaries []FunctionSummary `json:"summaries"`
}

package models

import "strings"

// RoleScore is the weighted keyword match of one role, as a percentage
type RoleScore struct {
	Role  string  `json:"role"`
	Score float64 `json:"score"`
}

// AnalysisResult is the outcome of scoring one resume
type AnalysisResult struct {
	ATSScore         float64     `json:"ats_score"`
	RecommendedRoles []string    `json:"recommended_roles"`
	RoleScores       []RoleScore `json:"role_scores"`
	MissingSkills    []string    `json:"missing_skills"`
	ExtractedSkills  []string    `json:"extracted_skills"`
	JDMatch          float64     `json:"jd_match"`
	TargetRole       string      `json:"target_role"`
}

// AnalysisResponse is returned by the analyze endpoints.
// ID doubles as the report id for /download/{id}.
type AnalysisResponse struct {
	ID string `json:"id"`
	AnalysisResult
	Filename string `json:"filename,omitempty"`
}

// History sources
const (
	SourceJSON = "json"
	SourceFile = "file"
)

// HistoryEntry is an analysis merged with its request metadata.
// It serializes flat, the analysis fields sit next to the metadata.
type HistoryEntry struct {
	ID         string `json:"id"`
	UploadedAt string `json:"uploaded_at"`
	Filename   string `json:"filename,omitempty"`
	Source     string `json:"source"`
	AnalysisResult
}

// AnalyzeRequest is the JSON body of POST /analyze
type AnalyzeRequest struct {
	Resume     string `json:"resume" validate:"required,max=200000"`
	JD         string `json:"jd" validate:"max=100000"`
	TargetRole string `json:"target_role" validate:"max=120"`
}

// Normalize trims surrounding whitespace from every field
func (r *AnalyzeRequest) Normalize() {
	r.Resume = strings.TrimSpace(r.Resume)
	r.JD = strings.TrimSpace(r.JD)
	r.TargetRole = strings.TrimSpace(r.TargetRole)
}

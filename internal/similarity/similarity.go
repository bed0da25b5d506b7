// Package similarity scores how well a resume matches a job description.
package similarity

import (
	"fmt"
	"math"
	"strings"
)

// Scorer computes a raw similarity in [0,1] between a resume and a job description
type Scorer interface {
	Similarity(resume, jd string) float64
	Name() string
}

// Modes accepted by New
const (
	ModeTFIDF   = "tfidf"
	ModeOverlap = "overlap"
)

// New returns the scorer for a mode
func New(mode string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeTFIDF:
		return NewTFIDF(), nil
	case ModeOverlap:
		return Overlap{}, nil
	default:
		return nil, fmt.Errorf("unknown similarity mode %q", mode)
	}
}

// JDMatch returns the 0..100 match of a resume against a job description.
// A blank job description scores 0 without consulting the scorer.
func JDMatch(s Scorer, resume, jd string) float64 {
	if strings.TrimSpace(jd) == "" {
		return 0
	}
	v := s.Similarity(resume, jd)
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return math.Round(v*100*100) / 100
}

// Overlap is the share of job description tokens found in the resume
type Overlap struct{}

// Name implements Scorer
func (Overlap) Name() string { return ModeOverlap }

// Similarity implements Scorer
func (Overlap) Similarity(resume, jd string) float64 {
	jdTokens := tokenSet(jd)
	if len(jdTokens) == 0 {
		return 0
	}
	resumeTokens := tokenSet(resume)

	shared := 0
	for tok := range jdTokens {
		if _, ok := resumeTokens[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(jdTokens))
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		set[tok] = struct{}{}
	}
	return set
}

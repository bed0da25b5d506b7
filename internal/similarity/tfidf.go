package similarity

import (
	"math"
	"strings"
	"unicode"
)

// TFIDF compares documents by the cosine of their TF-IDF vectors.
//
// Terms are lowercase word tokens of at least two characters with English
// stop words removed, expanded to unigrams and bigrams. IDF is smoothed,
// ln((1+n)/(1+df))+1, and vectors are L2-normalized.
type TFIDF struct {
	minN, maxN int
	stopWords  map[string]struct{}
}

// NewTFIDF returns a scorer over 1-2 word n-grams
func NewTFIDF() *TFIDF {
	return &TFIDF{minN: 1, maxN: 2, stopWords: englishStopWords}
}

// Name implements Scorer
func (t *TFIDF) Name() string { return ModeTFIDF }

// Similarity implements Scorer
func (t *TFIDF) Similarity(resume, jd string) float64 {
	docs := []map[string]float64{t.termCounts(resume), t.termCounts(jd)}
	if len(docs[0]) == 0 || len(docs[1]) == 0 {
		return 0
	}

	df := make(map[string]int)
	for _, d := range docs {
		for term := range d {
			df[term]++
		}
	}

	n := float64(len(docs))
	vecs := make([]map[string]float64, len(docs))
	for i, d := range docs {
		vec := make(map[string]float64, len(d))
		for term, tf := range d {
			idf := math.Log((1+n)/(1+float64(df[term]))) + 1
			vec[term] = tf * idf
		}
		normalize(vec)
		vecs[i] = vec
	}

	dot := 0.0
	for term, w := range vecs[0] {
		dot += w * vecs[1][term]
	}
	return dot
}

func (t *TFIDF) termCounts(text string) map[string]float64 {
	var words []string
	for _, w := range wordTokens(text) {
		if _, stop := t.stopWords[w]; !stop {
			words = append(words, w)
		}
	}

	counts := make(map[string]float64)
	for n := t.minN; n <= t.maxN; n++ {
		for i := 0; i+n <= len(words); i++ {
			counts[strings.Join(words[i:i+n], " ")]++
		}
	}
	return counts
}

// wordTokens splits lowercase text into runs of letters, digits and
// underscores, dropping single-character runs.
func wordTokens(text string) []string {
	text = strings.ToLower(text)
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})

	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

func normalize(vec map[string]float64) {
	sum := 0.0
	for _, w := range vec {
		sum += w * w
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for term := range vec {
		vec[term] /= norm
	}
}

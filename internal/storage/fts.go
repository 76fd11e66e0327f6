package storage

import (
	"math"
	"regexp"
	"strings"
)

// FTS5 bareword characters. Everything else in a raw query is either
// FTS5 syntax (quotes, grouping, wildcards, boolean operators) or noise.
var ftsTokenPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

// sanitizeFTSQuery rewrites a raw user query as a conjunction of quoted
// terms so FTS5 syntax embedded in the input is matched literally instead
// of parsed. Quoted strings can never act as operators, which closes off
// query injection through the MATCH argument.
func sanitizeFTSQuery(query string) string {
	tokens := ftsTokenPattern.FindAllString(query, -1)
	if len(tokens) == 0 {
		return ""
	}

	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + tok + `"`
	}

	return strings.Join(quoted, " ")
}

// normalizeBM25 converts a raw BM25 score (negative, lower is better) to a
// positive normalized score in (0, 1]. Raw scores are typically in [-50, 0].
func normalizeBM25(raw float64) float64 {
	return 1.0 / (1.0 + math.Abs(raw)/50.0)
}

package services

// ---------------------------------------------------------------------------
// Text chunker — splits arbitrary prompt text into segments small enough for
// a single synthesis request.
//
// Three passes:
//   1. Split on punctuation boundaries into natural clause-sized pieces.
//   2. Re-split any piece still over the byte limit on word boundaries.
//   3. Greedily merge consecutive pieces into the largest chunk under the
//      limit.
//
// Concatenating the returned chunks in order reproduces the input exactly.
// A chunk only exceeds the limit when it holds a single word that cannot be
// subdivided — nothing is ever truncated.
// ---------------------------------------------------------------------------

import "regexp"

// (?s) lets '.' cross newlines so no character of the input is ever dropped.
var (
	clauseRe = regexp.MustCompile(`(?s).*?[.,!?:;-]|.+`)
	wordRe   = regexp.MustCompile(`(?s).*? |.+`)
)

// SplitText splits text into ordered chunks of at most limit bytes each.
// The caller validates that text is non-empty before synthesis; for empty
// input this returns a single empty chunk, matching the degenerate case of
// the greedy merge's final flush.
func SplitText(text string, limit int) []string {
	if text == "" {
		return []string{""}
	}

	clauses := clauseRe.FindAllString(text, -1)

	// Second pass: clauses that alone exceed the limit are split on spaces
	pieces := make([]string, 0, len(clauses))
	for _, clause := range clauses {
		if len(clause) > limit {
			pieces = append(pieces, wordRe.FindAllString(clause, -1)...)
		} else {
			pieces = append(pieces, clause)
		}
	}

	// Greedy merge: accumulate pieces until the next one would overflow
	var chunks []string
	current := ""
	for _, piece := range pieces {
		if len(current)+len(piece) <= limit {
			current += piece
			continue
		}
		if current != "" {
			chunks = append(chunks, current)
		}
		// A lone word longer than the limit lands here and becomes its own
		// oversized chunk on the next flush.
		current = piece
	}

	return append(chunks, current)
}

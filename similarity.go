package asg

// SimilarityOptions tunes Similarity.
type SimilarityOptions struct {
	// Minimum is the score of two nodes of the same kind with nothing in
	// common. The score of a full match is always 1.
	Minimum float64
	// MinForStrings is the lowest per-string similarity accepted; a string
	// attribute below it makes the whole comparison 0.
	MinForStrings float64
}

// DefaultSimilarity holds the stock thresholds.
var DefaultSimilarity = SimilarityOptions{Minimum: 0.1, MinForStrings: 0.0}

// Similarity compares the attributes of a and b with DefaultSimilarity.
func Similarity(a, b Node) float64 {
	return DefaultSimilarity.Similarity(a, b)
}

// Similarity returns a score in [0, 1]. Nodes of different kinds score 0.
// String attributes contribute their normalized edit distance, boolean and
// enum attributes contribute 1 when equal.
func (o SimilarityOptions) Similarity(a, b Node) float64 {
	if isNil(a) || isNil(b) || a.Kind() != b.Kind() {
		return 0
	}
	ra, rb := a.record(), b.record()
	fa, fb := a.Factory(), b.Factory()

	var matched float64
	n := 0
	for _, attr := range layouts[ra.kind].attrs {
		info := attrTable[attr]
		if !info.similar {
			continue
		}
		n++
		switch info.typ {
		case AttrString:
			sim := StringSimilarity(fa.getString(ra, attr), fb.getString(rb, attr))
			if sim < o.MinForStrings {
				return 0
			}
			matched += sim
		case AttrBool, AttrEnum:
			if fa.word(ra, attr) == fb.word(rb, attr) {
				matched++
			}
		}
	}
	if n == 0 {
		return 1
	}
	return matched/(float64(n)/(1-o.Minimum)) + o.Minimum
}

// StringSimilarity is 1 minus the edit distance of a and b divided by the
// length of the longer one, counted in runes. Two empty strings are equal.
func StringSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(editDistance(ra, rb))/float64(longest)
}

// editDistance is the Levenshtein distance with a two-row table.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

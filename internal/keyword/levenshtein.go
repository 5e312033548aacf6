package keyword

// MaxTypos is the highest typo distance tracked per query word.
const MaxTypos = 3

// LevenshteinDistance returns the number of single-rune insertions, deletions or
// substitutions needed to turn a into b.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// DamerauLevenshteinDistance returns the restricted Damerau-Levenshtein (optimal
// string alignment) distance: like LevenshteinDistance, but swapping two adjacent
// runes costs a single edit. A substring is never edited twice.
func DamerauLevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Three rolling rows: i-2, i-1 and i.
	before := make([]int, len(rb)+1)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d := min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				d = min(d, before[j-2]+1)
			}
			curr[j] = d
		}
		before, prev, curr = prev, curr, before
	}
	return prev[len(rb)]
}

// TypoDistance is the typo count charged to a query word for an indexed word.
// The indexed word is cut to the query word's length first so that a prefix
// extension is free, and the result is clamped to MaxTypos.
func TypoDistance(query, indexed string) int {
	q := []rune(query)
	w := []rune(indexed)
	if len(w) > len(q) {
		w = w[:len(q)]
	}
	return min(DamerauLevenshteinDistance(query, string(w)), MaxTypos)
}

// Package similarity implements the string-similarity and identifier
// normalization rules the Scoring Stage applies across merchant-declared,
// OCR-extracted, and registry-authoritative fields.
package similarity

import "strings"

// Sim returns the similarity of a and b in [0,1]. Both null (nil) inputs
// yield 0; after trimming and uppercasing, an exact match yields 1;
// otherwise the result is the Ratcliff/Obershelp matching-blocks ratio.
// Sim is symmetric and Sim(a,a) == 1 for any non-null a.
func Sim(a, b *string) float64 {
	if a == nil && b == nil {
		return 0
	}
	if a == nil || b == nil {
		return 0
	}
	na := normalize(*a)
	nb := normalize(*b)
	if na == nb {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}
	return ratcliffObershelp(na, nb)
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ratcliffObershelp computes the Ratcliff/Obershelp similarity ratio:
// 2*M / (len(a)+len(b)), where M is the total length of all matching
// blocks found by recursively locating the longest common substring and
// recursing into the unmatched left and right remainders.
func ratcliffObershelp(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	matches := matchingBlockLength(a, b)
	return 2 * float64(matches) / float64(len(a)+len(b))
}

func matchingBlockLength(a, b string) int {
	pos1, pos2, length := longestCommonSubstring(a, b)
	if length == 0 {
		return 0
	}
	total := length
	total += matchingBlockLength(a[:pos1], b[:pos2])
	total += matchingBlockLength(a[pos1+length:], b[pos2+length:])
	return total
}

// longestCommonSubstring returns the start index in a, start index in b,
// and length of the longest common substring of a and b (first found, in
// scan order, on ties — matching Ratcliff/Obershelp's standard tie-break).
func longestCommonSubstring(a, b string) (int, int, int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	bestLen, bestEndA, bestEndB := 0, 0, 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > bestLen {
					bestLen = curr[j]
					bestEndA = i
					bestEndB = j
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return bestEndA - bestLen, bestEndB - bestLen, bestLen
}

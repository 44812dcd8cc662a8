package registry

import "strings"

// MatchDirector implements the §4.5 director-lookup rule: find an officer
// whose name case-insensitively substring-matches declaredName in either
// direction; if declaredDOB is non-empty, additionally require a substring
// overlap between the two date-of-birth strings.
func MatchDirector(officers []Officer, declaredName, declaredDOB string) DirectorMatch {
	name := strings.ToUpper(strings.TrimSpace(declaredName))
	for i := range officers {
		officerName := strings.ToUpper(strings.TrimSpace(officers[i].Name))
		if !substringEitherDirection(name, officerName) {
			continue
		}
		if declaredDOB == "" {
			return DirectorMatch{Verified: true, Officer: &officers[i]}
		}
		if officers[i].DateOfBirth == nil || !dobOverlaps(declaredDOB, *officers[i].DateOfBirth) {
			return DirectorMatch{Verified: false, Reason: "DOB mismatch", Officer: &officers[i]}
		}
		return DirectorMatch{Verified: true, Officer: &officers[i]}
	}
	return DirectorMatch{Verified: false, Reason: "no matching officer"}
}

func substringEitherDirection(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// dobOverlaps reports whether declared and registry date-of-birth strings
// share any substring overlap, a loose comparison tolerant of differing
// date formats (e.g. "1985-03" vs "March 1985").
func dobOverlaps(declared, registry string) bool {
	declared = strings.ToUpper(strings.TrimSpace(declared))
	registry = strings.ToUpper(strings.TrimSpace(registry))
	if declared == "" || registry == "" {
		return false
	}
	if strings.Contains(declared, registry) || strings.Contains(registry, declared) {
		return true
	}
	return longestCommonSubstringLen(declared, registry) >= 4
}

func longestCommonSubstringLen(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}
	best := 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
				if dp[i][j] > best {
					best = dp[i][j]
				}
			}
		}
	}
	return best
}

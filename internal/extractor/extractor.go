// Package extractor finds IPFS content identifiers in free-form message text.
package extractor

import "regexp"

// Pattern order is the tie-break: the first pattern that matches anywhere in
// the text wins, regardless of match position.
var cidPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Qm[1-9A-HJ-NP-Za-km-z]{44}`),   // CIDv0
	regexp.MustCompile(`bafy[1-9A-HJ-NP-Za-km-z]{44}`), // CIDv1
}

// Extract returns the first CID found in text, or the empty string. A miss
// is a normal outcome, not an error.
func Extract(text string) string {
	for _, pattern := range cidPatterns {
		if match := pattern.FindString(text); match != "" {
			return match
		}
	}
	return ""
}

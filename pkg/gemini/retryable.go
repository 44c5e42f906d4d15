package gemini

import "strings"

// retryableMarkers are the case-sensitive substrings the Gemini API embeds
// in error messages that indicate a credential- or quota-level rejection.
// Matching is substring-based on purpose: the API surfaces these conditions
// as free text, not a typed error taxonomy.
var retryableMarkers = []string{
	"429",
	"403",
	"RESOURCE_EXHAUSTED",
	"quota",
	"API_KEY_INVALID",
	"PERMISSION_DENIED",
}

// isRetryable reports whether an error message indicates a failure worth
// retrying with the next credential. Anything that matches no marker,
// including timeouts and malformed-input errors, is final.
func isRetryable(message string) bool {
	for _, marker := range retryableMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}

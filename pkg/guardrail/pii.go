package guardrail

import "regexp"

type piiPattern struct {
	label string
	re    *regexp.Regexp
}

// Order matters: broader number patterns must not shadow more specific ones
// applied earlier.
var piiPatterns = []piiPattern{
	{"EMAIL", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{"PHONE", regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)},
	{"SSN", regexp.MustCompile(`\b\d{3}-?\d{2}-?\d{4}\b`)},
	{"CREDIT_CARD", regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)},
	{"IP_ADDRESS", regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)},
}

// MaskPII replaces detected PII with [MASKED_<TYPE>] tokens.
func MaskPII(text string) string {
	masked := text
	for _, p := range piiPatterns {
		masked = p.re.ReplaceAllString(masked, "[MASKED_"+p.label+"]")
	}
	return masked
}

// HasPII reports whether the text contains any recognized PII.
func HasPII(text string) bool {
	for _, p := range piiPatterns {
		if p.re.MatchString(text) {
			return true
		}
	}
	return false
}

// Package guardrail classifies text against fixed pattern sets: jailbreak
// attempts, hate speech and self-harm indicators, PII, and output policy
// violations. It is stateless and has no external dependencies.
package guardrail

import (
	"regexp"
	"strings"
)

// Issue codes reported by validation.
const (
	IssueJailbreakAttempt       = "jailbreak_attempt"
	IssuePotentialHateSpeech    = "potential_hate_speech"
	IssueSelfHarmIndicator      = "self_harm_indicator"
	IssueContainsPII            = "contains_pii"
	IssuePotentialHallucination = "potential_hallucination"
	IssuePolicyViolation        = "policy_violation"
)

// Result is the outcome of validating a text. MaskedContent is always set:
// identical to the input when no PII was detected.
type Result struct {
	Valid         bool
	Issues        []string
	MaskedContent string
}

var jailbreakPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore.*instructions`),
	regexp.MustCompile(`(?i)override.*safety`),
	regexp.MustCompile(`(?i)bypass.*restrictions`),
	regexp.MustCompile(`(?i)act as.*uncensored`),
	regexp.MustCompile(`(?i)developer.*mode`),
}

var hateWords = []string{"hate", "racist", "offensive"}

var selfHarmPhrases = []string{"suicide", "kill myself", "end it all"}

var policyWords = []string{"illegal", "harmful", "dangerous"}

// Validator classifies text against the pattern sets above.
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateInput checks a raw query for safety issues and masks PII.
func (v *Validator) ValidateInput(content string) *Result {
	var issues []string
	lower := strings.ToLower(content)

	for _, p := range jailbreakPatterns {
		if p.MatchString(content) {
			issues = append(issues, IssueJailbreakAttempt)
			break
		}
	}

	for _, w := range hateWords {
		if strings.Contains(lower, w) {
			issues = append(issues, IssuePotentialHateSpeech)
			break
		}
	}

	for _, w := range selfHarmPhrases {
		if strings.Contains(lower, w) {
			issues = append(issues, IssueSelfHarmIndicator)
			break
		}
	}

	masked := content
	if HasPII(content) {
		issues = append(issues, IssueContainsPII)
		masked = MaskPII(content)
	}

	return &Result{
		Valid:         len(issues) == 0,
		Issues:        issues,
		MaskedContent: masked,
	}
}

// ValidateOutput checks a generated response for policy compliance.
func (v *Validator) ValidateOutput(content string) *Result {
	var issues []string
	lower := strings.ToLower(content)

	// A terse "I don't know" is a hallucination signal rather than an answer
	if strings.Contains(lower, "i don't know") && len(strings.Fields(content)) < 10 {
		issues = append(issues, IssuePotentialHallucination)
	}

	for _, w := range policyWords {
		if strings.Contains(lower, w) {
			issues = append(issues, IssuePolicyViolation)
			break
		}
	}

	return &Result{
		Valid:         len(issues) == 0,
		Issues:        issues,
		MaskedContent: content,
	}
}

package pipeline

import (
	"regexp"
	"strings"
)

// placeholderPattern matches bracketed template tokens such as "[Your Name]"
// that models sometimes emit in sign-offs. Tokens with underscores are left
// alone so masked PII markers survive.
var placeholderPattern = regexp.MustCompile(`\[[A-Za-z][A-Za-z0-9 .,'-]*\]`)

var blankRunPattern = regexp.MustCompile(`\n{3,}`)

// postProcess cleans a generated response: placeholder tokens are stripped,
// lines that contained nothing but placeholders are dropped, and runs of
// blank lines collapse to one.
func postProcess(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		stripped := placeholderPattern.ReplaceAllString(line, "")
		if strings.TrimSpace(stripped) == "" && strings.TrimSpace(line) != "" {
			continue
		}
		kept = append(kept, strings.TrimRight(stripped, " \t"))
	}

	joined := strings.Join(kept, "\n")
	joined = blankRunPattern.ReplaceAllString(joined, "\n\n")
	return strings.TrimSpace(joined)
}

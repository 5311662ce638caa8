// Package sanitize scrubs user-provided text before it enters the pipeline.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	codeFenceRE  = regexp.MustCompile("```[\\s\\S]*?```")
	urlRE        = regexp.MustCompile(`(?i)https?://\S+`)
	emailRE      = regexp.MustCompile(`\b[\w.-]+@[\w.-]+\.[A-Za-z]{2,}\b`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// Clean removes code fences, backticks, URLs and email addresses, collapses
// whitespace, and clamps the result to maxLen bytes.
func Clean(text string, maxLen int) string {
	if text == "" {
		return text
	}
	cleaned := codeFenceRE.ReplaceAllString(text, " ")
	cleaned = strings.ReplaceAll(cleaned, "`", " ")
	cleaned = urlRE.ReplaceAllString(cleaned, " ")
	cleaned = emailRE.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(whitespaceRE.ReplaceAllString(cleaned, " "))
	if maxLen > 0 && len(cleaned) > maxLen {
		cleaned = cleaned[:maxLen]
	}
	return cleaned
}

// Package parser extracts structure from free-form model replies.
//
// The prompt asks the model for "Revised:", "Alternative:" and
// "Summary:" sections, but the reply is untrusted natural language, so
// every extraction is optional and has a defined default. Parse never
// fails on malformed input.
package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// Result is the structured form of one model reply.
type Result struct {
	CorrectedText string   // falls back to the original text
	Alternative   string   // empty when absent
	Issues        []string // discrete issue descriptions, may be empty
	Summary       string   // empty when absent
	HasIssues     bool
	Formatted     string // human-readable suggestion string
}

const noIssuesMessage = "Looks good! No grammar issues were found."

var (
	revisedRe     = regexp.MustCompile(`(?i)(?:revised|corrected)[^:\n]*:[ \t]*([^\n]+)`)
	alternativeRe = regexp.MustCompile(`(?i)alternative[^:\n]*:[ \t]*([^\n]+)`)
	summaryRe     = regexp.MustCompile(`(?i)summary[^:\n]*:[ \t]*([^\n]+)`)

	// Block from an "Issues Found" heading to the next blank line or a
	// Summary heading. The current prompt does not request this heading,
	// models emit it anyway often enough to be worth extracting.
	issuesBlockRe = regexp.MustCompile(`(?is)issues\s*found[^:\n]*:?[ \t]*\n?(.*?)(?:\n[ \t]*\n|\n[ \t]*summary|\z)`)

	bulletRe       = regexp.MustCompile(`^[\s]*(?:[-*•]+|\d+[.)])[\s]*`)
	noCorrectionRe = regexp.MustCompile(`(?i)no correction`)
)

// Parse extracts a Result from a raw model reply. Pattern matching is
// case-insensitive and first-match-wins per field.
func Parse(original, reply string) Result {
	res := Result{CorrectedText: original}

	if m := revisedRe.FindStringSubmatch(reply); m != nil {
		revised := strings.TrimSpace(m[1])
		if revised != "" && !noCorrectionRe.MatchString(revised) {
			res.CorrectedText = revised
		}
	}

	if m := alternativeRe.FindStringSubmatch(reply); m != nil {
		res.Alternative = strings.TrimSpace(m[1])
	}

	if m := issuesBlockRe.FindStringSubmatch(reply); m != nil {
		for _, line := range strings.Split(m[1], "\n") {
			line = bulletRe.ReplaceAllString(line, "")
			line = strings.TrimSpace(line)
			if line == "" || strings.EqualFold(line, "none") {
				continue
			}
			res.Issues = append(res.Issues, line)
		}
	}

	if m := summaryRe.FindStringSubmatch(reply); m != nil {
		summary := bulletRe.ReplaceAllString(m[1], "")
		res.Summary = strings.TrimSpace(summary)
	}

	res.HasIssues = len(res.Issues) > 0 ||
		(res.CorrectedText != original && !noCorrectionRe.MatchString(reply))

	res.Formatted = format(res, res.CorrectedText != original)

	return res
}

// format renders the display string shown on the suggestion card.
func format(res Result, revised bool) string {
	if !res.HasIssues {
		return noIssuesMessage
	}

	var b strings.Builder

	if revised {
		b.WriteString("Suggested revision: ")
		b.WriteString(res.CorrectedText)
		b.WriteString("\n")
	}

	if len(res.Issues) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Issues Found:\n")
		for i, issue := range res.Issues {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, issue))
		}
	}

	if res.Alternative != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Alternative: ")
		b.WriteString(res.Alternative)
		b.WriteString("\n")
	}

	if res.Summary != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Summary: ")
		b.WriteString(res.Summary)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

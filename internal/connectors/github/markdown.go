package github

import (
	"regexp"
	"strings"
)

var (
	codeBlockRe    = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe   = regexp.MustCompile("`([^`]+)`")
	imageRe        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	linkRe         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headingRe      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blockquoteRe   = regexp.MustCompile(`(?m)^>\s*`)
	ruleRe         = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	listMarkerRe   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedListRe = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	htmlCommentRe  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blankLinesRe   = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown reduces an issue body to plain text. It handles the
// formatting issue templates commonly use, not the full grammar.
func stripMarkdown(content string) string {
	content = htmlCommentRe.ReplaceAllString(content, "")
	content = codeBlockRe.ReplaceAllString(content, "")
	content = inlineCodeRe.ReplaceAllString(content, "$1")
	content = imageRe.ReplaceAllString(content, "")
	content = linkRe.ReplaceAllString(content, "$1")
	content = headingRe.ReplaceAllString(content, "")
	content = ruleRe.ReplaceAllString(content, "")
	content = listMarkerRe.ReplaceAllString(content, "")
	content = numberedListRe.ReplaceAllString(content, "")
	content = blockquoteRe.ReplaceAllString(content, "")

	// Emphasis markers
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")

	content = blankLinesRe.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

// Package markdown strips Markdown control syntax from documents so the
// remaining prose reads naturally as speech. It is deliberately regex-based
// and best-effort: malformed Markdown never fails, unmatched markers are left
// in place as literal characters.
package markdown

import (
	"regexp"
	"strings"
)

var (
	// Code is removed entirely, content included.
	fencedCodeRe = regexp.MustCompile("(?s)```[^`]*```")
	inlineCodeRe = regexp.MustCompile("`[^`\n]+`")

	// Images drop alt text too, unlike links which keep their label.
	imageRe = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRe  = regexp.MustCompile(`\[([^\]]+)\]\(([^)]*)\)`)

	headerRe   = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	bulletRe   = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numberedRe = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)
	quoteRe    = regexp.MustCompile(`(?m)^[ \t]*(?:>[ \t]?)+`)

	// Emphasis spans stay within one line so a stray asterisk cannot eat
	// text across line breaks.
	starEmphasisRe       = regexp.MustCompile(`\*{1,2}([^*\n]+)\*{1,2}`)
	underscoreEmphasisRe = regexp.MustCompile(`_{1,2}([^_\n]+)_{1,2}`)

	blankLinesRe = regexp.MustCompile(`\n[ \t]*\n\s*`)
	spaceRunsRe  = regexp.MustCompile(`[ \t]+`)
)

// Strip converts Markdown to plain readable text. Header, list and quote
// markers are removed with their text retained, links keep only their label,
// images and code are dropped entirely, emphasis markers are unwrapped.
// Plain text passes through unchanged.
func Strip(text string) string {
	// Code first, before emphasis or list rules can chew on its contents.
	text = fencedCodeRe.ReplaceAllString(text, "")
	text = inlineCodeRe.ReplaceAllString(text, "")

	// Images before links: both start with a bracket, images also carry "!".
	text = imageRe.ReplaceAllString(text, "")
	text = linkRe.ReplaceAllString(text, "$1")

	text = headerRe.ReplaceAllString(text, "")

	// Line-start markers before emphasis, so "* item" lines lose their
	// bullets instead of pairing asterisks across lines.
	text = bulletRe.ReplaceAllString(text, "")
	text = numberedRe.ReplaceAllString(text, "")
	text = quoteRe.ReplaceAllString(text, "")

	text = starEmphasisRe.ReplaceAllString(text, "$1")
	text = underscoreEmphasisRe.ReplaceAllString(text, "$1")

	// Collapse the holes left by removals: blank-line runs become one
	// paragraph break, space runs become one space.
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	text = spaceRunsRe.ReplaceAllString(text, " ")

	// Removals at line ends leave trailing spaces behind.
	text = strings.ReplaceAll(text, " \n", "\n")

	return strings.TrimSpace(text)
}

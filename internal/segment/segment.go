// Package segment splits normalized text into bounded-length chunks for
// synthesis. Sentences are the atomic unit: chunks are built by greedily
// packing whole sentences up to a character budget, and only a sentence that
// alone exceeds the budget is broken at whitespace as a fallback.
package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChars is the chunk budget used when none is configured. Neural
// TTS models degrade on very long inputs well before any hard API limit.
const DefaultMaxChars = 800

// BoundaryFunc reports the byte offset just past the end of the first
// sentence-like unit in s, or -1 when s contains no boundary. Implementations
// only decide punctuation semantics; paragraph breaks are always boundaries.
type BoundaryFunc func(s string) int

var paragraphRe = regexp.MustCompile(`\n\s*\n`)

// abbreviations whose trailing period does not end a sentence.
var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "sr": {}, "jr": {},
	"st": {}, "vs": {}, "etc": {}, "fig": {}, "inc": {}, "ltd": {}, "dept": {},
}

// Split divides text into chunks of at most maxLen characters using the
// default sentence boundary rules. Empty or whitespace-only input yields an
// empty slice. maxLen values below 1 fall back to DefaultMaxChars.
func Split(text string, maxLen int) []string {
	return SplitWith(text, maxLen, SentenceEnd)
}

// SplitWith is Split with a caller-supplied boundary strategy, for locales
// where the default punctuation rules do not apply.
func SplitWith(text string, maxLen int, boundary BoundaryFunc) []string {
	if maxLen < 1 {
		maxLen = DefaultMaxChars
	}
	if boundary == nil {
		boundary = SentenceEnd
	}

	units := Sentences(text, boundary)
	chunks := make([]string, 0, len(units))

	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, unit := range units {
		n := utf8.RuneCountInString(unit)
		switch {
		case curLen == 0 && n <= maxLen:
			cur.WriteString(unit)
			curLen = n
		case curLen > 0 && curLen+1+n <= maxLen:
			// A joining space counts against the budget; <= keeps a
			// sentence that lands exactly on the boundary inside.
			cur.WriteByte(' ')
			cur.WriteString(unit)
			curLen += 1 + n
		case n <= maxLen:
			flush()
			cur.WriteString(unit)
			curLen = n
		default:
			// The sentence alone is over budget. It is never dropped or
			// truncated: break it at whitespace instead.
			flush()
			chunks = append(chunks, splitOversize(unit, maxLen)...)
		}
	}
	flush()

	return chunks
}

// Sentences extracts sentence-like units from text in document order. Units
// are whitespace-normalized; empty units are skipped. A nil boundary uses
// SentenceEnd.
func Sentences(text string, boundary BoundaryFunc) []string {
	if boundary == nil {
		boundary = SentenceEnd
	}

	var units []string
	for _, para := range paragraphRe.Split(text, -1) {
		rest := para
		for rest != "" {
			end := boundary(rest)
			if end <= 0 || end >= len(rest) {
				if u := normalizeSpace(rest); u != "" {
					units = append(units, u)
				}
				break
			}
			if u := normalizeSpace(rest[:end]); u != "" {
				units = append(units, u)
			}
			rest = rest[end:]
		}
	}
	return units
}

// SentenceEnd is the default boundary strategy: a '.', '!' or '?' followed by
// whitespace or end of text ends a sentence. A period is ignored inside an
// ellipsis run, after a single-letter initial, and after a known
// abbreviation. CJK terminators end a sentence unconditionally.
func SentenceEnd(s string) int {
	prev := rune(0)
	for i, r := range s {
		switch r {
		case '。', '！', '？':
			return i + utf8.RuneLen(r)
		case '!', '?':
			if spaceOrEnd(s, i+1) {
				return i + 1
			}
		case '.':
			if prev != '.' && spaceOrEnd(s, i+1) && !abbreviationBefore(s, i) {
				return i + 1
			}
		}
		prev = r
	}
	return -1
}

// splitOversize breaks a single over-budget sentence at whitespace, cutting
// as late as possible within the budget and recursing on the remainder. A
// token with no whitespace left to cut at is emitted whole; bounding it any
// other way would mean splitting mid-word.
func splitOversize(s string, maxLen int) []string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return []string{s}
	}

	cut := -1
	for i := maxLen; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	if cut == -1 {
		// No whitespace inside the budget. The head is one unbroken token:
		// emit it whole at the next cut point, or in full if none exists.
		for i := maxLen + 1; i < len(runes); i++ {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		if cut == -1 {
			return []string{s}
		}
	}

	head := strings.TrimSpace(string(runes[:cut]))
	tail := strings.TrimSpace(string(runes[cut+1:]))

	out := []string{}
	if head != "" {
		out = append(out, head)
	}
	if tail != "" {
		out = append(out, splitOversize(tail, maxLen)...)
	}
	return out
}

func spaceOrEnd(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsSpace(r)
}

// abbreviationBefore reports whether the word ending at the period at byte
// offset dot should suppress the sentence boundary.
func abbreviationBefore(s string, dot int) bool {
	end := dot
	start := dot
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:start])
		if !unicode.IsLetter(r) {
			break
		}
		start -= size
	}
	if start == end {
		return false
	}
	word := s[start:end]
	if utf8.RuneCountInString(word) == 1 {
		// Single letters are initials: "J. Smith", "e.g.".
		return true
	}
	_, ok := abbreviations[strings.ToLower(word)]
	return ok
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Package textutil provides the pure string and cursor helpers shared by
// the match and resize managers: word extraction with byte offsets,
// trailing-window joins, whole-word backward search and splicing.
package textutil

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Word is a whitespace-delimited token with its byte offsets in the
// original text.
type Word struct {
	Text  string
	Start int
	End   int
}

// Words splits text on unicode whitespace, keeping byte offsets.
func Words(text string) []Word {
	var out []Word
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, Word{Text: text[start:i], Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, Word{Text: text[start:], Start: start, End: len(text)})
	}
	return out
}

// LastToken returns the trailing whitespace-delimited token of text, or ""
// when text ends in whitespace or is empty. A token interrupted by the
// cursor is the one currently being typed.
func LastToken(text string) string {
	ws := Words(text)
	if len(ws) == 0 {
		return ""
	}
	last := ws[len(ws)-1]
	if last.End != len(text) {
		return ""
	}
	return last.Text
}

// TrailingWindow joins the last n tokens of text with single spaces.
// ok is false when text holds fewer than n tokens.
func TrailingWindow(text string, n int) (string, bool) {
	ws := Words(text)
	if n <= 0 || len(ws) < n {
		return "", false
	}
	parts := make([]string, 0, n)
	for _, w := range ws[len(ws)-n:] {
		parts = append(parts, w.Text)
	}
	return strings.Join(parts, " "), true
}

// FindWholeWordBefore locates the last whole-word, case-insensitive
// occurrence of phrase (one or more tokens) ending at or before cursor.
// Punctuation hugging a token is ignored when comparing and excluded from
// the returned span, so a word typed next to a comma still counts as that
// word. Offsets are byte offsets into text.
func FindWholeWordBefore(text, phrase string, cursor int) (start, end int, ok bool) {
	if phrase == "" {
		return 0, 0, false
	}
	if cursor < 0 || cursor > len(text) {
		cursor = len(text)
	}
	want := Words(phrase)
	if len(want) == 0 {
		return 0, 0, false
	}
	wantText := make([]string, len(want))
	for j, w := range want {
		s, e := matchSpan(w)
		wantText[j] = phrase[s:e]
	}
	ws := Words(text)
	// Drop tokens that start past the cursor; a token the cursor sits
	// inside still counts as "before".
	for len(ws) > 0 && ws[len(ws)-1].Start >= cursor {
		ws = ws[:len(ws)-1]
	}
	for i := len(ws) - len(want); i >= 0; i-- {
		match := true
		for j := range want {
			ts, te := matchSpan(ws[i+j])
			if !strings.EqualFold(text[ts:te], wantText[j]) {
				match = false
				break
			}
		}
		if match {
			start, _ = matchSpan(ws[i])
			_, end = matchSpan(ws[i+len(want)-1])
			return start, end, true
		}
	}
	return 0, 0, false
}

// matchSpan returns the offsets of w with leading and trailing punctuation
// stripped, falling back to the raw span for all-punctuation tokens.
func matchSpan(w Word) (start, end int) {
	s := w.Text
	i, j := 0, len(s)
	for i < j {
		r, size := utf8.DecodeRuneInString(s[i:j])
		if !unicode.IsPunct(r) {
			break
		}
		i += size
	}
	for j > i {
		r, size := utf8.DecodeLastRuneInString(s[i:j])
		if !unicode.IsPunct(r) {
			break
		}
		j -= size
	}
	if i == j {
		return w.Start, w.End
	}
	return w.Start + i, w.Start + j
}

// Splice replaces text[start:end] with repl and returns the new text along
// with the cursor position just after the inserted replacement.
func Splice(text string, start, end int, repl string) (string, int) {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start > end {
		start = end
	}
	out := text[:start] + repl + text[end:]
	return out, start + len(repl)
}

// EscapeText escapes a candidate string for safe inclusion in markup.
// Candidates render as literal text, never as tags.
func EscapeText(s string) string {
	return html.EscapeString(s)
}

// WordAt returns the word the cursor sits in or immediately after.
func WordAt(text string, cursor int) (Word, bool) {
	if cursor < 0 || cursor > len(text) {
		cursor = len(text)
	}
	for _, w := range Words(text) {
		if cursor >= w.Start && cursor <= w.End {
			return w, true
		}
	}
	return Word{}, false
}

// NewlineCount counts explicit line breaks in text.
func NewlineCount(text string) int {
	return strings.Count(text, "\n")
}

package textutil

import (
	"testing"
)

func TestWords(t *testing.T) {
	testCases := []struct {
		input       string
		expected    []Word
		description string
	}{
		{"", nil, "Empty string"},
		{"   ", nil, "Whitespace only"},
		{"cat", []Word{{"cat", 0, 3}}, "Single word"},
		{"a photo", []Word{{"a", 0, 1}, {"photo", 2, 7}}, "Two words"},
		{"  lead trail  ", []Word{{"lead", 2, 6}, {"trail", 7, 12}}, "Surrounding whitespace"},
		{"line\nbreak", []Word{{"line", 0, 4}, {"break", 5, 10}}, "Newline separator"},
		{"tab\tsep", []Word{{"tab", 0, 3}, {"sep", 4, 7}}, "Tab separator"},
	}

	for _, tc := range testCases {
		got := Words(tc.input)
		if len(got) != len(tc.expected) {
			t.Errorf("%s: Words(%q) = %v, want %v", tc.description, tc.input, got, tc.expected)
			continue
		}
		for i := range got {
			if got[i] != tc.expected[i] {
				t.Errorf("%s: Words(%q)[%d] = %v, want %v", tc.description, tc.input, i, got[i], tc.expected[i])
			}
		}
	}
}

func TestLastToken(t *testing.T) {
	testCases := []struct {
		input       string
		expected    string
		description string
	}{
		{"", "", "Empty string"},
		{"cat", "cat", "Single word"},
		{"a photo of a dog", "dog", "Trailing word"},
		{"a photo ", "", "Trailing space means no active token"},
		{"a photo\n", "", "Trailing newline means no active token"},
	}

	for _, tc := range testCases {
		if got := LastToken(tc.input); got != tc.expected {
			t.Errorf("%s: LastToken(%q) = %q, want %q", tc.description, tc.input, got, tc.expected)
		}
	}
}

func TestTrailingWindow(t *testing.T) {
	testCases := []struct {
		input       string
		n           int
		expected    string
		ok          bool
		description string
	}{
		{"a photo of a dog", 1, "dog", true, "Last word"},
		{"a photo of a dog", 2, "a dog", true, "Last two words"},
		{"a photo of a dog", 3, "of a dog", true, "Last three words"},
		{"dog", 2, "", false, "Fewer words than window"},
		{"a  spaced   out", 3, "a spaced out", true, "Runs of whitespace collapse"},
		{"dog", 0, "", false, "Zero window"},
		{"", 1, "", false, "Empty text"},
	}

	for _, tc := range testCases {
		got, ok := TrailingWindow(tc.input, tc.n)
		if got != tc.expected || ok != tc.ok {
			t.Errorf("%s: TrailingWindow(%q, %d) = (%q, %v), want (%q, %v)",
				tc.description, tc.input, tc.n, got, ok, tc.expected, tc.ok)
		}
	}
}

func TestFindWholeWordBefore(t *testing.T) {
	testCases := []struct {
		text        string
		phrase      string
		cursor      int
		start, end  int
		ok          bool
		description string
	}{
		// the classic false positive: "cat" inside "category" must not match
		{"category cat", "cat", 12, 9, 12, true, "Whole word only, not substring"},
		{"category", "cat", 8, 0, 0, false, "Substring alone never matches"},

		{"a photo of a dog", "dog", 16, 13, 16, true, "Trailing single word"},
		{"a photo of a DOG", "dog", 16, 13, 16, true, "Case insensitive"},
		{"a dog and a dog", "dog", 15, 12, 15, true, "Last occurrence wins"},
		{"of a dog here", "a dog", 13, 3, 8, true, "Multi word phrase"},

		// punctuation hugging a token neither blocks the match nor lands
		// in the replaced span
		{"a photo of a cat,", "cat", 17, 13, 16, true, "Trailing comma excluded"},
		{"a photo of (cat)", "cat", 16, 12, 15, true, "Surrounding parens excluded"},
		{"a photo, cat", "photo, cat", 12, 2, 12, true, "Punctuation in the phrase too"},
		{"a user-name here", "user-name", 16, 2, 11, true, "Interior punctuation kept"},

		// tokens starting at or after the cursor are out of scope
		{"dog dog", "dog", 3, 0, 3, true, "Cursor inside first token"},
		{"abc dog", "dog", 2, 0, 0, false, "Phrase entirely past cursor"},

		{"", "dog", 0, 0, 0, false, "Empty text"},
		{"a photo", "", 7, 0, 0, false, "Empty phrase"},
	}

	for _, tc := range testCases {
		start, end, ok := FindWholeWordBefore(tc.text, tc.phrase, tc.cursor)
		if start != tc.start || end != tc.end || ok != tc.ok {
			t.Errorf("%s: FindWholeWordBefore(%q, %q, %d) = (%d, %d, %v), want (%d, %d, %v)",
				tc.description, tc.text, tc.phrase, tc.cursor, start, end, ok, tc.start, tc.end, tc.ok)
		}
	}
}

func TestSplice(t *testing.T) {
	testCases := []struct {
		text        string
		start, end  int
		repl        string
		expected    string
		cursor      int
		description string
	}{
		{"a photo of a dog", 13, 16, "${fish} ", "a photo of a ${fish} ", 21, "Replace trailing word"},
		{"abc", 3, 3, "!", "abc!", 4, "Insert at end"},
		{"abc", 0, 0, "x", "xabc", 1, "Insert at start"},
		{"abc", 0, 3, "", "", 0, "Delete everything"},
		{"abc", -5, 99, "z", "z", 1, "Out of range offsets clamp"},
		{"abc", 2, 1, "q", "aqbc", 2, "Inverted range collapses to insert"},
	}

	for _, tc := range testCases {
		got, cursor := Splice(tc.text, tc.start, tc.end, tc.repl)
		if got != tc.expected || cursor != tc.cursor {
			t.Errorf("%s: Splice(%q, %d, %d, %q) = (%q, %d), want (%q, %d)",
				tc.description, tc.text, tc.start, tc.end, tc.repl, got, cursor, tc.expected, tc.cursor)
		}
	}
}

func TestEscapeText(t *testing.T) {
	testCases := []struct {
		input       string
		expected    string
		description string
	}{
		{"plain text", "plain text", "No markup passes through"},
		{"<script>alert(1)</script>", "&lt;script&gt;alert(1)&lt;/script&gt;", "Tags are neutralized"},
		{`a "quoted" & 'single'`, "a &#34;quoted&#34; &amp; &#39;single&#39;", "Quotes and ampersand"},
	}

	for _, tc := range testCases {
		if got := EscapeText(tc.input); got != tc.expected {
			t.Errorf("%s: EscapeText(%q) = %q, want %q", tc.description, tc.input, got, tc.expected)
		}
	}
}

func TestWordAt(t *testing.T) {
	testCases := []struct {
		text        string
		cursor      int
		expected    string
		ok          bool
		description string
	}{
		{"a photo of", 4, "photo", true, "Cursor inside word"},
		{"a photo of", 7, "photo", true, "Cursor just after word"},
		{"a photo of", 0, "a", true, "Cursor at start"},
		{"", 0, "", false, "Empty text"},
	}

	for _, tc := range testCases {
		word, ok := WordAt(tc.text, tc.cursor)
		if word.Text != tc.expected || ok != tc.ok {
			t.Errorf("%s: WordAt(%q, %d) = (%q, %v), want (%q, %v)",
				tc.description, tc.text, tc.cursor, word.Text, ok, tc.expected, tc.ok)
		}
	}
}

func TestNewlineCount(t *testing.T) {
	if got := NewlineCount("a\nb\nc"); got != 2 {
		t.Errorf("NewlineCount = %d, want 2", got)
	}
	if got := NewlineCount("no breaks"); got != 0 {
		t.Errorf("NewlineCount = %d, want 0", got)
	}
}

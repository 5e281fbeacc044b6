package session

import (
	"regexp"
	"strconv"
	"strings"
)

// utteranceKind is the classified intent of one user turn inside a session.
type utteranceKind int

const (
	kindUnclear utteranceKind = iota
	kindSelection
	kindMore
	kindCancel
)

// selectionPattern matches an utterance that is, in its entirety, a pick of
// one item: "2", "number 2", "the second one", "pick 3", "i'll take the
// first". The anchors matter: "one more" must NOT match, so that the more
// classifier gets it.
var selectionPattern = regexp.MustCompile(
	`^(?:(?:ill|i will|lets|let us)\s+)?` +
		`(?:(?:pick|choose|select|take|go with|want)\s+)?` +
		`(?:the\s+)?(?:number\s+)?` +
		`(\d{1,2}(?:st|nd|rd|th)|\d{1,2}|first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth|one|two|three|four|five|six|seven|eight|nine|ten)` +
		`(?:\s+one)?(?:\s+please)?$`)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

var moreWords = map[string]bool{
	"more":     true,
	"next":     true,
	"others":   true,
	"rest":     true,
	"continue": true,
}

var cancelWords = map[string]bool{
	"cancel":    true,
	"stop":      true,
	"quit":      true,
	"nevermind": true,
	"nothing":   true,
	"done":      true,
}

var cancelPhrases = [][]string{
	{"never", "mind"},
	{"forget", "it"},
	{"no", "thanks"},
	{"none", "of", "those"},
	{"none", "of", "them"},
}

// classify maps a free-text utterance to a transition input. Precedence when
// more than one classifier could claim it: selection > more > cancel >
// unclear. The returned int is the 1-based pick for kindSelection and zero
// otherwise.
func classify(utterance string) (utteranceKind, int) {
	norm := normalizeUtterance(utterance)
	if norm == "" {
		return kindUnclear, 0
	}

	if m := selectionPattern.FindStringSubmatch(norm); m != nil {
		if n, ok := parseOrdinal(m[1]); ok {
			return kindSelection, n
		}
	}

	tokens := strings.Fields(norm)
	for _, tok := range tokens {
		if moreWords[tok] {
			return kindMore, 0
		}
	}

	for _, tok := range tokens {
		if cancelWords[tok] {
			return kindCancel, 0
		}
	}
	for _, phrase := range cancelPhrases {
		if hasPhrase(tokens, phrase) {
			return kindCancel, 0
		}
	}

	return kindUnclear, 0
}

// normalizeUtterance lowercases and strips everything but letters, digits and
// single spaces, so "I'll take #2!" becomes "ill take 2".
func normalizeUtterance(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case r == ' ' || r == '\t' || r == '\n' || r == '-':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func parseOrdinal(s string) (int, bool) {
	if n, ok := numberWords[s]; ok {
		return n, true
	}
	s = strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(s, "st"), "nd"), "rd"), "th")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func hasPhrase(tokens []string, phrase []string) bool {
	if len(phrase) == 0 || len(tokens) < len(phrase) {
		return false
	}
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		match := true
		for j, want := range phrase {
			if tokens[i+j] != want {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

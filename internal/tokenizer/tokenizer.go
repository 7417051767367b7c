// Package tokenizer splits field text into lower-cased word tokens and numbers them.
// The position of a token is its ordinal in the stream, starting at 0; separators never
// take a position.
package tokenizer

import (
	"strings"
	"unicode"
)

// Token is a token together with its ordinal position in the token stream.
type Token struct {
	Text     string
	Position int
}

// Analyze tokenizes text and records the position of every token.
//
// Any rune that is neither a letter nor a digit separates tokens. Case changes split words too:
// "theOffice" gives "the" "office", "HTTPRequest" gives "http" "request" and "1Password" gives
// "1" "password".
func Analyze(text string) []Token {
	tokens := make([]Token, 0)
	runes := []rune(text)

	var current strings.Builder
	emit := func() {
		if current.Len() > 0 {
			tokens = append(tokens, Token{Text: current.String(), Position: len(tokens)})
			current.Reset()
		}
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			emit()
			continue
		}
		if i > 0 && wordBoundary(runes, i) {
			emit()
		}
		current.WriteRune(unicode.ToLower(r))
	}
	emit()
	return tokens
}

// wordBoundary reports whether a new word starts at runes[i] because of a case change.
func wordBoundary(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(r) {
		return false
	}
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	// Last capital of an acronym followed by a lower-case run: "HTTPRequest".
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

// Tokenize returns the token texts of Analyze.
func Tokenize(text string) []string {
	tokens := Analyze(text)
	words := make([]string, len(tokens))
	for i, token := range tokens {
		words[i] = token.Text
	}
	return words
}

// TermStats groups the positions of each distinct token of an analyzed stream.
// The positions of a token are ascending, so the first one is its first occurrence.
func TermStats(tokens []Token) map[string][]int {
	stats := make(map[string][]int)
	for _, token := range tokens {
		stats[token.Text] = append(stats[token.Text], token.Position)
	}
	return stats
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ContextInfo stores contextual information about a match
type ContextInfo struct {
	// Text before and after the match
	BeforeText string
	AfterText  string

	// Line containing the match, clipped to the character window
	FullLine string

	// Lower-cased word tokens nearest to the match, closest first
	TokensBefore []string
	TokensAfter  []string
}

// ContextExtractor extracts context around a span of an in-memory text
type ContextExtractor struct {
	// Number of characters before and after the match to consider
	ContextChars int

	// Number of word tokens before and after the match to consider
	ContextTokens int
}

// NewContextExtractor creates a new context extractor with default settings
func NewContextExtractor() *ContextExtractor {
	return &ContextExtractor{
		ContextChars:  80,
		ContextTokens: 6,
	}
}

// WithContextChars sets the number of context characters
func (ce *ContextExtractor) WithContextChars(chars int) *ContextExtractor {
	ce.ContextChars = chars
	return ce
}

// WithContextTokens sets the number of context tokens
func (ce *ContextExtractor) WithContextTokens(tokens int) *ContextExtractor {
	ce.ContextTokens = tokens
	return ce
}

// Extract returns the context of text[start:end].
func (ce *ContextExtractor) Extract(text string, start, end int) ContextInfo {
	info := ContextInfo{}
	if start < 0 || end > len(text) || start > end {
		return info
	}

	beforeStart := max(0, start-ce.ContextChars)
	afterEnd := min(len(text), end+ce.ContextChars)
	info.BeforeText = text[beforeStart:start]
	info.AfterText = text[end:afterEnd]

	lineStart := beforeStart + strings.LastIndexByte(info.BeforeText, '\n') + 1
	lineEnd := afterEnd
	if i := strings.IndexByte(info.AfterText, '\n'); i >= 0 {
		lineEnd = end + i
	}
	info.FullLine = text[lineStart:lineEnd]

	before := LastTokens(text[:start], ce.ContextTokens)
	for i := len(before) - 1; i >= 0; i-- {
		info.TokensBefore = append(info.TokensBefore, before[i])
	}
	after := Tokenize(text[end:afterEnd])
	if len(after) > ce.ContextTokens {
		after = after[:ce.ContextTokens]
	}
	info.TokensAfter = after
	return info
}

// Tokenize splits text into lower-cased word tokens. Dots inside a token are
// kept so abbreviations like "d.n." survive as "d.n".
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !isTokenRune(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if f != "" {
			tokens = append(tokens, strings.ToLower(f))
		}
	}
	return tokens
}

// maxTokenReach bounds how far back LastTokens looks, so the cost of one
// lookup does not depend on the offset of the match.
const maxTokenReach = 4096

// LastTokens returns up to n trailing tokens of text in text order. Only the
// tail of text is tokenized.
func LastTokens(text string, n int) []string {
	if n <= 0 {
		return nil
	}
	for window := 16 * n; ; window *= 2 {
		from := max(0, len(text)-min(window, maxTokenReach))
		for from < len(text) && !utf8.RuneStart(text[from]) {
			from++
		}
		tokens := Tokenize(text[from:])
		if from > 0 && len(tokens) > 0 && isTokenRune(lastRune(text[:from])) && isTokenRune(firstRune(text[from:])) {
			// cut through a word
			tokens = tokens[1:]
		}
		if len(tokens) >= n || from == 0 || window >= maxTokenReach {
			if len(tokens) > n {
				tokens = tokens[len(tokens)-n:]
			}
			return tokens
		}
	}
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.'
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// ContainsKeyword reports whether any token, or any run of adjacent tokens,
// equals one of the keywords. Multi-word keywords are space separated.
func ContainsKeyword(tokens []string, keywords map[string]bool, reversed bool) (string, bool) {
	seq := tokens
	if reversed {
		seq = make([]string, len(tokens))
		for i, tok := range tokens {
			seq[len(tokens)-1-i] = tok
		}
	}
	for i := range seq {
		for j := i + 1; j <= len(seq) && j-i <= 3; j++ {
			candidate := strings.Join(seq[i:j], " ")
			if keywords[candidate] {
				return candidate, true
			}
		}
	}
	return "", false
}

// IsWordBoundary reports whether text[start:end] is not glued to a letter or
// digit on either side.
func IsWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

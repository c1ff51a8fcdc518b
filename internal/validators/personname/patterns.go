// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package personname

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// token is one word of the source text with its byte range.
type token struct {
	text  string
	start int
	end   int
}

// Candidate is a run of capitalized words that may be a person name.
type Candidate struct {
	Tokens []string
	Start  int
	End    int
	// HasParticle is set when a lowercase connector (da, de, dos...) joins
	// two name tokens.
	HasParticle bool

	words []token
}

// NameTokens returns the tokens that are not particles.
func (c Candidate) NameTokens() []string {
	var out []string
	for _, t := range c.Tokens {
		if !isParticle(t) {
			out = append(out, t)
		}
	}
	return out
}

// PatternManager finds name candidates in text.
type PatternManager struct {
	wordRegex *regexp.Regexp
	stopwords map[string]bool
	maxTokens int
}

// NewPatternManager creates a candidate finder for Portuguese text.
func NewPatternManager() *PatternManager {
	return &PatternManager{
		wordRegex: regexp.MustCompile(`\p{L}[\p{L}'’-]*`),
		// Capitalized function words that start sentences
		stopwords: map[string]bool{
			"a": true, "o": true, "as": true, "os": true, "em": true, "no": true,
			"na": true, "nos": true, "nas": true, "ao": true, "aos": true,
			"para": true, "pelo": true, "pela": true, "com": true, "se": true,
			"eu": true, "ele": true, "ela": true, "eles": true, "elas": true,
			"um": true, "uma": true, "este": true, "esta": true, "esse": true,
			"essa": true, "seu": true, "sua": true, "que": true, "quando": true,
			"segundo": true, "conforme": true, "então": true, "também": true,
		},
		maxTokens: 8,
	}
}

// FindCandidates returns capitalized word runs of at least two name tokens.
// Tokens in a run are separated by blanks only; punctuation or a line
// break ends the run.
func (pm *PatternManager) FindCandidates(text string) []Candidate {
	var words []token
	for _, loc := range pm.wordRegex.FindAllStringIndex(text, -1) {
		words = append(words, token{text: text[loc[0]:loc[1]], start: loc[0], end: loc[1]})
	}

	var candidates []Candidate
	var run []token
	flush := func() {
		if c, ok := pm.buildCandidate(run); ok {
			candidates = append(candidates, c)
		}
		run = run[:0]
	}

	for _, w := range words {
		capitalized := isCapitalized(w.text)
		particle := isParticle(w.text)
		if !capitalized && !particle {
			flush()
			continue
		}
		if len(run) > 0 && !blankGap(text[run[len(run)-1].end:w.start]) {
			flush()
		}
		if len(run) == 0 && !capitalized {
			continue
		}
		run = append(run, w)
		if len(run) >= pm.maxTokens {
			flush()
		}
	}
	flush()
	return candidates
}

// buildCandidate trims sentence words and dangling particles from a run.
func (pm *PatternManager) buildCandidate(run []token) (Candidate, bool) {
	for len(run) > 0 && (pm.stopwords[strings.ToLower(run[0].text)] || isParticle(run[0].text)) {
		run = run[1:]
	}
	for len(run) > 0 && isParticle(run[len(run)-1].text) {
		run = run[:len(run)-1]
	}

	return newCandidate(run)
}

func newCandidate(run []token) (Candidate, bool) {
	c := Candidate{words: append([]token(nil), run...)}
	names := 0
	for _, t := range run {
		c.Tokens = append(c.Tokens, t.text)
		if isParticle(t.text) {
			c.HasParticle = true
		} else {
			names++
		}
	}
	if names < 2 {
		return Candidate{}, false
	}
	c.Start = run[0].start
	c.End = run[len(run)-1].end
	return c, true
}

// trimLeading drops leading tokens before the first known first name, as
// long as two name tokens remain.
func trimLeading(c Candidate, isFirstName func(string) bool) Candidate {
	for i, w := range c.words {
		if isParticle(w.text) || !isFirstName(w.text) {
			continue
		}
		if i == 0 {
			return c
		}
		if trimmed, ok := newCandidate(c.words[i:]); ok {
			return trimmed
		}
		return c
	}
	return c
}

var particles = map[string]bool{
	"da": true, "de": true, "do": true, "das": true, "dos": true, "d'": true,
}

func isParticle(s string) bool {
	return particles[strings.ToLower(s)]
}

// isCapitalized reports whether the first letter is upper case. All-caps
// words qualify.
func isCapitalized(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func blankGap(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\u00a0' {
			return false
		}
	}
	return true
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package personname

import (
	"errors"
	"regexp"
	"strings"

	"lethe/internal/detector"
	"lethe/internal/observability"
)

// DefaultThreshold is the minimum confidence for a reported name.
const DefaultThreshold = 50.0

// Recognizer implements detector.PersonRecognizer with name dictionaries,
// capitalization patterns and context keywords.
type Recognizer struct {
	names     *NameDatabases
	patterns  *PatternManager
	threshold float64

	titleRegex *regexp.Regexp

	// Keywords that suggest a person context
	positiveKeywords map[string]bool

	// Keywords that suggest a place, company or institution
	negativeKeywords map[string]bool

	extractor *detector.ContextExtractor
	observer  *observability.StandardObserver
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithThreshold sets the minimum confidence for a reported name.
func WithThreshold(threshold float64) Option {
	return func(r *Recognizer) {
		if threshold > 0 {
			r.threshold = threshold
		}
	}
}

// WithObserver attaches an observer at construction.
func WithObserver(observer *observability.StandardObserver) Option {
	return func(r *Recognizer) {
		r.observer = observer
	}
}

// NewRecognizer builds a recognizer over the given name databases.
func NewRecognizer(names *NameDatabases, opts ...Option) (*Recognizer, error) {
	if names == nil || len(names.FirstNames) == 0 {
		return nil, errors.New("personname: name database is empty")
	}
	r := &Recognizer{
		names:      names,
		patterns:   NewPatternManager(),
		threshold:  DefaultThreshold,
		titleRegex: regexp.MustCompile(`(?i)\b(?:sr|sra|srta|dr|dra|prof|profa|exmo|exma|dona|senhor|senhora)\.?\s*$`),
		positiveKeywords: map[string]bool{
			"nome": true, "nome completo": true, "cliente": true, "paciente": true,
			"autor": true, "autora": true, "réu": true, "ré": true, "requerente": true,
			"requerido": true, "requerida": true, "testemunha": true, "portador": true,
			"portadora": true, "nascido": true, "nascida": true, "cpf": true, "rg": true,
			"filho de": true, "filha de": true, "casado com": true, "casada com": true,
			"assinado": true, "responsável": true, "contratante": true, "contratado": true,
			"locatário": true, "locador": true, "outorgante": true, "beneficiário": true,
		},
		negativeKeywords: map[string]bool{
			"rua": true, "avenida": true, "av": true, "travessa": true, "praça": true,
			"rodovia": true, "alameda": true, "estrada": true, "bairro": true,
			"jardim": true, "vila": true, "parque": true, "edifício": true,
			"banco": true, "hospital": true, "escola": true, "colégio": true,
			"universidade": true, "faculdade": true, "instituto": true, "fundação": true,
			"tribunal": true, "vara": true, "comarca": true, "ministério": true,
			"secretaria": true, "prefeitura": true, "câmara": true, "igreja": true,
			"ltda": true, "s.a": true, "eireli": true,
			"cia": true, "empresa": true, "estado": true, "município": true, "cidade": true,
		},
		extractor: detector.NewContextExtractor().WithContextTokens(6),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewDefaultRecognizer loads the embedded name databases and builds a
// recognizer over them.
func NewDefaultRecognizer(opts ...Option) (*Recognizer, error) {
	names, err := LoadNameDatabases()
	if err != nil {
		return nil, err
	}
	return NewRecognizer(names, opts...)
}

// GetComponentName implements observability.Observable.
func (r *Recognizer) GetComponentName() string {
	return "person_recognizer"
}

// SetObserver sets the observability component
func (r *Recognizer) SetObserver(observer *observability.StandardObserver) {
	r.observer = observer
}

// Names exposes the dictionaries the recognizer was built with.
func (r *Recognizer) Names() *NameDatabases {
	return r.names
}

// DetectPersons implements detector.PersonRecognizer. Spans are sorted and
// non-overlapping.
func (r *Recognizer) DetectPersons(text string) []detector.Span {
	var finishTiming func(bool, map[string]interface{})
	if r.observer != nil {
		finishTiming = r.observer.StartTiming(r.GetComponentName(), "detect_persons", "")
	}

	var spans []detector.Span
	candidates := r.patterns.FindCandidates(text)
	for _, c := range candidates {
		c = trimLeading(c, r.names.HasFirstName)
		confidence, _ := r.CalculateConfidence(text, c)
		if confidence < r.threshold {
			continue
		}
		spans = append(spans, detector.Span{Start: c.Start, End: c.End, Confidence: confidence})
	}

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"candidates":  len(candidates),
			"match_count": len(spans),
		})
	}
	return spans
}

// CalculateConfidence scores a candidate found in text. The checks map
// records which signals fired.
func (r *Recognizer) CalculateConfidence(text string, c Candidate) (float64, map[string]bool) {
	checks := map[string]bool{}
	names := c.NameTokens()
	if len(names) < 2 {
		return 0, checks
	}

	score := 0.0
	if r.names.HasFirstName(names[0]) {
		score += 45
		checks["known_first_name"] = true
	}
	if r.names.HasSurname(names[len(names)-1]) {
		score += 25
		checks["known_surname"] = true
	}

	middle := 0.0
	for _, n := range names[1 : len(names)-1] {
		if r.names.HasFirstName(n) || r.names.HasSurname(n) {
			middle += 5
		}
	}
	if middle > 0 {
		score += min(middle, 10)
		checks["known_middle_name"] = true
	}

	if c.HasParticle {
		score += 5
		checks["particle"] = true
	}
	if len(names) >= 3 {
		score += 5
		checks["three_or_more_names"] = true
	}

	score += r.AnalyzeContext(text, c, checks)
	return max(0, min(score, 100)), checks
}

// AnalyzeContext returns the confidence adjustment from the words around the
// candidate.
func (r *Recognizer) AnalyzeContext(text string, c Candidate, checks map[string]bool) float64 {
	adjustment := 0.0

	if r.titleRegex.MatchString(text[max(0, c.Start-12):c.Start]) {
		adjustment += 20
		checks["title"] = true
	}

	ctx := r.extractor.Extract(text, c.Start, c.End)
	_, before := detector.ContainsKeyword(ctx.TokensBefore, r.positiveKeywords, true)
	after := false
	if len(ctx.TokensAfter) > 0 {
		_, after = detector.ContainsKeyword(ctx.TokensAfter[:min(3, len(ctx.TokensAfter))], r.positiveKeywords, false)
	}
	if before || after {
		adjustment += 15
		checks["positive_context"] = true
	}

	negative := false
	for _, tok := range c.Tokens {
		if r.negativeKeywords[strings.ToLower(tok)] {
			negative = true
		}
	}
	if len(ctx.TokensBefore) > 0 && r.negativeKeywords[ctx.TokensBefore[0]] {
		negative = true
	}
	if len(ctx.TokensAfter) > 0 && r.negativeKeywords[ctx.TokensAfter[0]] {
		negative = true
	}
	if negative {
		adjustment -= 40
		checks["institutional_context"] = true
	}
	return adjustment
}

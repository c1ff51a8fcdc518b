// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"fmt"
	"strings"
)

// EntityType is the category of a detected entity.
type EntityType int

const (
	// EntityUnknown is the zero value and never produced by detection.
	EntityUnknown EntityType = iota
	// Person is a full person name.
	Person
	// NationalIDA is the CPF (Cadastro de Pessoas Físicas).
	NationalIDA
	// NationalIDB is the RG (Registro Geral).
	NationalIDB
	// BirthDate is a date classified as a date of birth by its context.
	BirthDate
)

var entityTypeNames = [...]string{
	EntityUnknown: "UNKNOWN",
	Person:        "PERSON",
	NationalIDA:   "NATIONAL_ID_A",
	NationalIDB:   "NATIONAL_ID_B",
	BirthDate:     "BIRTH_DATE",
}

var entityTypeLabels = [...]string{
	EntityUnknown: "Desconhecido",
	Person:        "Nomes",
	NationalIDA:   "CPFs",
	NationalIDB:   "RGs",
	BirthDate:     "Datas de nascimento",
}

// AllEntityTypes lists the detectable categories in reporting order.
var AllEntityTypes = []EntityType{Person, NationalIDA, NationalIDB, BirthDate}

func (t EntityType) String() string {
	if t < 0 || int(t) >= len(entityTypeNames) {
		return entityTypeNames[EntityUnknown]
	}
	return entityTypeNames[t]
}

// Label is the human-facing plural used in summaries.
func (t EntityType) Label() string {
	if t < 0 || int(t) >= len(entityTypeLabels) {
		return entityTypeLabels[EntityUnknown]
	}
	return entityTypeLabels[t]
}

// Priority breaks ties between overlapping candidates of equal length.
// Higher wins.
func (t EntityType) Priority() int {
	switch t {
	case NationalIDA:
		return 4
	case NationalIDB:
		return 3
	case BirthDate:
		return 2
	case Person:
		return 1
	default:
		return 0
	}
}

// ParseEntityType accepts the wire name of a category.
func ParseEntityType(s string) (EntityType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range entityTypeNames {
		if i != int(EntityUnknown) && name == s {
			return EntityType(i), nil
		}
	}
	return EntityUnknown, fmt.Errorf("unknown entity type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t EntityType) MarshalText() ([]byte, error) {
	if t == EntityUnknown || int(t) >= len(entityTypeNames) || t < 0 {
		return nil, fmt.Errorf("cannot marshal entity type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *EntityType) UnmarshalText(b []byte) error {
	parsed, err := ParseEntityType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Span is a half-open byte range [Start, End) in a source text.
type Span struct {
	Start      int
	End        int
	Confidence float64
}

// Entity is a detected span of sensitive text. Offsets are byte offsets and
// Text always equals source[Start:End].
type Entity struct {
	Type       EntityType
	Text       string
	Start      int
	End        int
	Confidence float64
	// Source names the scanner that produced the entity.
	Source string
}

// Len returns the span length in bytes.
func (e Entity) Len() int {
	return e.End - e.Start
}

// Overlaps reports whether the two spans share at least one byte.
func (e Entity) Overlaps(o Entity) bool {
	return e.Start < o.End && o.Start < e.End
}

// ScanResult is what a pattern validator returns for one text.
type ScanResult struct {
	Entities []Entity
	// Discarded counts pattern hits rejected by checksum, shape or context.
	Discarded int
}

// Validator scans text for one entity category.
type Validator interface {
	Type() EntityType
	Scan(text string) ScanResult
}

// PersonRecognizer finds person-name spans. Implementations may be
// statistical and non-deterministic across versions; the engine depends only
// on this capability.
type PersonRecognizer interface {
	DetectPersons(text string) []Span
}

// PersonRecognizerFunc adapts a function to PersonRecognizer.
type PersonRecognizerFunc func(text string) []Span

// DetectPersons calls f(text).
func (f PersonRecognizerFunc) DetectPersons(text string) []Span {
	return f(text)
}

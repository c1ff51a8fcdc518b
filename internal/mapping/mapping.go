// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package mapping holds the substitutions made in one document and their
// JSON serialization.
package mapping

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"lethe/internal/detector"
	lerrors "lethe/internal/errors"
	"lethe/internal/validators/birthdate"
	"lethe/internal/validators/cpf"
	"lethe/internal/validators/rg"
	"lethe/internal/version"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Substitution records that Original was replaced by Replacement.
type Substitution struct {
	Type        detector.EntityType `json:"type"`
	Original    string              `json:"original"`
	Replacement string              `json:"replacement"`
}

// Key returns the consistency key of original for type t. Surfaces that
// share a key denote the same real-world entity.
func Key(t detector.EntityType, original string) string {
	switch t {
	case detector.Person:
		return strings.Join(strings.Fields(norm.NFC.String(original)), " ")
	case detector.NationalIDA:
		return cpf.Digits(original)
	case detector.NationalIDB:
		return rg.Clean(original)
	case detector.BirthDate:
		if d, ok := birthdate.Parse(original); ok {
			return d.Canonical()
		}
		return original
	default:
		return original
	}
}

type entryKey struct {
	t     detector.EntityType
	value string
}

// Table is the ordered list of substitutions made in one document. Each
// (type, original surface) pair appears at most once. It is not safe for
// concurrent use.
type Table struct {
	Version    int
	DocumentID string
	CreatedAt  time.Time

	entries   []Substitution
	bySurface map[entryKey]int
	byKey     map[entryKey]int
}

// NewTable creates an empty table with a fresh document ID.
func NewTable() *Table {
	return &Table{
		Version:    version.MappingFormat,
		DocumentID: uuid.NewString(),
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		bySurface:  make(map[entryKey]int),
		byKey:      make(map[entryKey]int),
	}
}

// Add appends s. It fails when the (type, original) pair is already present.
func (t *Table) Add(s Substitution) error {
	surface := entryKey{s.Type, s.Original}
	if _, ok := t.bySurface[surface]; ok {
		return fmt.Errorf("duplicate mapping entry for %s %q", s.Type, s.Original)
	}
	t.entries = append(t.entries, s)
	idx := len(t.entries) - 1
	t.bySurface[surface] = idx
	k := entryKey{s.Type, Key(s.Type, s.Original)}
	if _, ok := t.byKey[k]; !ok {
		t.byKey[k] = idx
	}
	return nil
}

// Lookup returns the entry for the exact original surface.
func (t *Table) Lookup(typ detector.EntityType, original string) (Substitution, bool) {
	idx, ok := t.bySurface[entryKey{typ, original}]
	if !ok {
		return Substitution{}, false
	}
	return t.entries[idx], true
}

// LookupKey returns the first entry whose original shares original's
// consistency key.
func (t *Table) LookupKey(typ detector.EntityType, original string) (Substitution, bool) {
	idx, ok := t.byKey[entryKey{typ, Key(typ, original)}]
	if !ok {
		return Substitution{}, false
	}
	return t.entries[idx], true
}

// Entries returns a copy of the entries in insertion order.
func (t *Table) Entries() []Substitution {
	return slices.Clone(t.entries)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Summary counts distinct entities per type. Surfaces sharing a key count
// once.
func (t *Table) Summary() map[detector.EntityType]int {
	summary := make(map[detector.EntityType]int, len(detector.AllEntityTypes))
	for _, typ := range detector.AllEntityTypes {
		summary[typ] = 0
	}
	for k := range t.byKey {
		summary[k.t]++
	}
	return summary
}

type tableJSON struct {
	Version    int            `json:"version"`
	DocumentID string         `json:"document_id"`
	CreatedAt  time.Time      `json:"created_at"`
	Entries    []Substitution `json:"entries"`
}

// MarshalJSON writes the versioned layout.
func (t *Table) MarshalJSON() ([]byte, error) {
	entries := t.entries
	if entries == nil {
		entries = []Substitution{}
	}
	return json.Marshal(tableJSON{
		Version:    t.Version,
		DocumentID: t.DocumentID,
		CreatedAt:  t.CreatedAt,
		Entries:    entries,
	})
}

// legacyCategories maps the keys of the category layout to entity types, in
// the order the categories are replayed.
var legacyCategories = []struct {
	name string
	typ  detector.EntityType
}{
	{"persons", detector.Person},
	{"cpfs", detector.NationalIDA},
	{"rgs", detector.NationalIDB},
	{"dates", detector.BirthDate},
}

// Unmarshal decodes either the versioned layout or the category-keyed
// layout {"persons":{},"cpfs":{},"rgs":{},"dates":{}}. Failures wrap
// errors.ErrCorruptMapping.
func Unmarshal(data []byte) (*Table, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, corrupt("mapping is not a JSON object", err)
	}

	if _, ok := raw["entries"]; ok {
		return unmarshalVersioned(data)
	}
	for _, c := range legacyCategories {
		if _, ok := raw[c.name]; ok {
			return unmarshalLegacy(raw)
		}
	}
	return nil, corrupt("unrecognized mapping layout", nil)
}

func unmarshalVersioned(data []byte) (*Table, error) {
	var doc tableJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, corrupt("invalid mapping document", err)
	}
	if doc.Version != version.MappingFormat {
		return nil, corrupt(fmt.Sprintf("unsupported mapping version %d", doc.Version), nil)
	}

	t := NewTable()
	t.DocumentID = doc.DocumentID
	t.CreatedAt = doc.CreatedAt
	for _, s := range doc.Entries {
		if s.Type == detector.EntityUnknown || s.Original == "" || s.Replacement == "" {
			return nil, corrupt("incomplete mapping entry", nil)
		}
		if err := t.Add(s); err != nil {
			return nil, corrupt("invalid mapping entry", err)
		}
	}
	return t, nil
}

func unmarshalLegacy(raw map[string]json.RawMessage) (*Table, error) {
	t := NewTable()
	t.DocumentID = ""
	t.CreatedAt = time.Time{}

	for _, c := range legacyCategories {
		body, ok := raw[c.name]
		if !ok {
			continue
		}
		var pairs map[string]string
		if err := json.Unmarshal(body, &pairs); err != nil {
			return nil, corrupt("invalid "+c.name+" section", err)
		}
		originals := make([]string, 0, len(pairs))
		for original := range pairs {
			originals = append(originals, original)
		}
		slices.Sort(originals)
		for _, original := range originals {
			s := Substitution{Type: c.typ, Original: original, Replacement: pairs[original]}
			if s.Original == "" || s.Replacement == "" {
				return nil, corrupt("incomplete "+c.name+" entry", nil)
			}
			if err := t.Add(s); err != nil {
				return nil, corrupt("invalid "+c.name+" entry", err)
			}
		}
	}
	return t, nil
}

func corrupt(message string, cause error) error {
	return lerrors.NewError(lerrors.KindCorruptMapping, message, "mapping", cause)
}

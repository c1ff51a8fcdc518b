// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package personname

import (
	"bufio"
	"bytes"
	"compress/gzip"
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Embedded compressed name database files
//
//go:embed data/first_names.txt.gz
var firstNamesDataGZ []byte

//go:embed data/surnames.txt.gz
var surnamesDataGZ []byte

// NameDatabases holds the parsed name data. Lookup maps are keyed by the
// accent-folded lower-case form; the lists keep the display form in file
// order and double as replacement pools.
type NameDatabases struct {
	FirstNames map[string]bool
	Surnames   map[string]bool

	FirstNameList []string
	SurnameList   []string
}

// LoadNameDatabases decompresses and parses the embedded name lists. Each
// call returns an independent value; callers load once and share it.
func LoadNameDatabases() (*NameDatabases, error) {
	return loadDatabases(firstNamesDataGZ, surnamesDataGZ)
}

func loadDatabases(firstGZ, surnameGZ []byte) (*NameDatabases, error) {
	db := &NameDatabases{
		FirstNames: make(map[string]bool, 200),
		Surnames:   make(map[string]bool, 120),
	}

	var err error
	if db.FirstNameList, err = loadNames(firstGZ, db.FirstNames); err != nil {
		return nil, fmt.Errorf("failed to load first names: %w", err)
	}
	if db.SurnameList, err = loadNames(surnameGZ, db.Surnames); err != nil {
		return nil, fmt.Errorf("failed to load surnames: %w", err)
	}
	if len(db.FirstNameList) == 0 || len(db.SurnameList) == 0 {
		return nil, fmt.Errorf("name database is empty")
	}
	return db, nil
}

// loadNames decompresses data and fills index, returning the display list.
func loadNames(compressedData []byte, index map[string]bool) ([]string, error) {
	reader, err := gzip.NewReader(bytes.NewReader(compressedData))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer reader.Close()

	var names []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		name := norm.NFC.String(strings.TrimSpace(scanner.Text()))
		if name == "" || !isValidName(name) {
			continue
		}
		key := FoldName(name)
		if index[key] {
			continue
		}
		index[key] = true
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading decompressed data: %w", err)
	}
	return names, nil
}

// isValidName performs basic validation on name data
func isValidName(name string) bool {
	if n := len([]rune(name)); n < 2 || n > 30 {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}

// HasFirstName reports whether token is a known first name.
func (db *NameDatabases) HasFirstName(token string) bool {
	return db.FirstNames[FoldName(token)]
}

// HasSurname reports whether token is a known surname.
func (db *NameDatabases) HasSurname(token string) bool {
	return db.Surnames[FoldName(token)]
}

// FoldName lower-cases s and strips combining marks, so "JOÃO" and "joao"
// share a key.
func FoldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

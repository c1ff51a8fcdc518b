// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package anonymizer

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	lerrors "lethe/internal/errors"
	"lethe/internal/mapping"
)

// Reverse restores the originals of table in text. Entries are matched
// longest replacement first on word boundaries, and a span claimed by one
// entry is never reused by another. If any replacement cannot be found the
// text was edited after anonymization and Reverse fails with
// errors.ErrReversal, returning no text.
func Reverse(text string, table *mapping.Table) (string, error) {
	if table == nil {
		return "", lerrors.NewError(lerrors.KindReversal, "mapping table cannot be nil", "reverser", nil)
	}

	entries := table.Entries()
	slices.SortStableFunc(entries, func(a, b mapping.Substitution) int {
		return cmp.Compare(len(b.Replacement), len(a.Replacement))
	})

	var claimed []edit
	var missing []string
	resolved := make(map[string]bool)
	for _, s := range entries {
		if resolved[s.Replacement] {
			// Identical replacement surfaces cannot be told apart; the
			// first entry restores them all.
			continue
		}
		found := false
		for _, start := range wordOccurrences(text, s.Replacement) {
			e := edit{start: start, end: start + len(s.Replacement), text: s.Original}
			if overlapsEdits(e, claimed) {
				continue
			}
			claimed = append(claimed, e)
			found = true
		}
		if !found {
			missing = append(missing, fmt.Sprintf("%s %q", s.Type, s.Replacement))
			continue
		}
		resolved[s.Replacement] = true
	}

	if len(missing) > 0 {
		return "", lerrors.NewError(lerrors.KindReversal,
			fmt.Sprintf("replacements not found in text: %s", strings.Join(missing, ", ")),
			"reverser", nil)
	}
	return splice(text, claimed), nil
}

func overlapsEdits(e edit, edits []edit) bool {
	for _, o := range edits {
		if e.start < o.end && o.start < e.end {
			return true
		}
	}
	return false
}

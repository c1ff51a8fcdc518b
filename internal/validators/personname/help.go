// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package personname

import "lethe/internal/help"

// HelpProvider describes PERSON detection without loading the name
// databases.
type HelpProvider struct{}

// GetCheckInfo returns standardized information about person detection
func (HelpProvider) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "PERSON",
		Label:            "Nomes",
		ShortDescription: "Full person names found with name dictionaries and context",
		DetailedDescription: `Person names are runs of two or more capitalized words, optionally joined by the
particles da, de, do, das and dos. A run is scored on whether its tokens appear in
the embedded first-name and surname dictionaries, on its capitalization and on the
words around it. Runs below the confidence threshold (config
detection.person_threshold) are ignored.

Titles such as Sr., Dra. or Prof. are kept outside the replaced span. Context words
such as "rua", "banco" or "ltda" lower the score, so streets, companies and
institutions named after people are usually left alone.

When the dictionaries cannot be loaded, or detection.persons is false, names are not
detected at all and the run is reported as degraded.`,
		Patterns: []string{
			"First Last (e.g., Maria Souza)",
			"First Particle Last (e.g., João da Silva)",
			"Several given names and surnames (e.g., Ana Paula Ferreira Lima)",
			"ALL CAPS names (e.g., MARIA DAS GRAÇAS SOUZA)",
		},
		PositiveKeywords: []string{"nome", "cliente", "requerente", "testemunha", "portador", "contratante", "filho de"},
		Replacement:      "A random name from the same dictionaries with the same number of given names, particles and surnames, in the original's casing.",
		Examples: []string{
			"Cliente: João da Silva",
			"REQUERENTE: MARIA DAS GRAÇAS SOUZA",
		},
	}
}

// GetCheckInfo returns standardized information about person detection
func (r *Recognizer) GetCheckInfo() help.CheckInfo {
	info := HelpProvider{}.GetCheckInfo()
	if r != nil {
		info.PositiveKeywords = help.SortedKeys(r.positiveKeywords)
	}
	return info
}

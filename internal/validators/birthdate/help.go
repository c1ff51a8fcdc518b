// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package birthdate

import "lethe/internal/help"

// GetCheckInfo returns standardized information about the birth date check
func (v *Validator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "BIRTH_DATE",
		Label:            "Datas de nascimento",
		ShortDescription: "Dates marked as a date of birth by nearby words",
		DetailedDescription: `Day-first dates (DD/MM/YYYY, DD-MM-YYYY or DD.MM.YYYY) are reported only when a
birth keyword appears within a few words before or right after the date (config
detection.birth_context_window). Other dates, such as signing or due dates, are
left untouched. Dates that do not exist or lie in the future are rejected.`,
		Patterns: []string{
			"DD/MM/YYYY (e.g., 15/03/1990)",
			"DD-MM-YYYY (e.g., 15-03-1990)",
			"DD.MM.YYYY (e.g., 15.03.1990)",
		},
		PositiveKeywords: help.SortedKeys(v.keywords),
		Replacement:      "A random date for an adult between 19 and substitution.max_age years old, with the original separator.",
		Examples: []string{
			"nascido em 15/03/1990",
			"data de nascimento: 01.02.1975",
		},
	}
}

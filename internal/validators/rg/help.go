// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package rg

import "lethe/internal/help"

// GetCheckInfo returns standardized information about the RG check
func (v *Validator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "NATIONAL_ID_B",
		Label:            "RGs",
		ShortDescription: "RG numbers (Registro Geral) in the punctuated layout",
		DetailedDescription: `RG layouts vary by issuing state and there is no national checksum, so only the
shape is checked: one or two digits, two groups of three digits and an optional
verifier that may be X. Values preceded by a currency sign are ignored.`,
		Patterns: []string{
			"DD.DDD.DDD-V (e.g., 12.345.678-9)",
			"D.DDD.DDD-X (e.g., 1.234.567-X)",
			"DD.DDD.DDD (e.g., 12.345.678)",
		},
		PositiveKeywords: help.SortedKeys(v.positiveKeywords),
		Replacement:      "Random digits in the original's layout; the verifier is X with probability 1/11.",
		Examples: []string{
			"RG 12.345.678-9 SSP/SP",
		},
	}
}

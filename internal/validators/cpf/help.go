// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cpf

import "lethe/internal/help"

// GetCheckInfo returns standardized information about the CPF check
func (v *Validator) GetCheckInfo() help.CheckInfo {
	return help.CheckInfo{
		Name:             "NATIONAL_ID_A",
		Label:            "CPFs",
		ShortDescription: "CPF numbers (Cadastro de Pessoas Físicas), checksum validated",
		DetailedDescription: `A CPF is eleven digits, written either as DDD.DDD.DDD-DD or as a bare run of
eleven digits. Both verifier digits are checked with the mod-11 algorithm, and
numbers made of a single repeated digit are rejected. Candidates that fail the
checksum are discarded and counted, never replaced.`,
		Patterns: []string{
			"DDD.DDD.DDD-DD (e.g., 123.456.789-09)",
			"DDDDDDDDDDD (e.g., 12345678909)",
		},
		PositiveKeywords: help.SortedKeys(v.positiveKeywords),
		Replacement:      "A random CPF with valid verifier digits, punctuated only if the original was.",
		Examples: []string{
			"CPF 123.456.789-09",
			"inscrito no CPF sob o nº 12345678909",
		},
	}
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package cpf validates, formats and scans for CPF numbers (Cadastro de
// Pessoas Físicas), the primary Brazilian national identifier.
package cpf

import (
	"strings"
)

// Length is the number of digits in a CPF, check digits included.
const Length = 11

// Digits returns only the ASCII digits of value, in order.
func Digits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] >= '0' && value[i] <= '9' {
			b.WriteByte(value[i])
		}
	}
	return b.String()
}

// CheckDigits computes the two verifier digits for the first nine digits of a
// CPF. base must hold at least nine values in [0, 9]; extra values are ignored.
func CheckDigits(base []int) (int, int) {
	first := verifier(base[:9], 10)
	withFirst := make([]int, 10)
	copy(withFirst, base[:9])
	withFirst[9] = first
	second := verifier(withFirst, 11)
	return first, second
}

// verifier applies the descending weights starting at weight.
func verifier(digits []int, weight int) int {
	sum := 0
	for i, d := range digits {
		sum += d * (weight - i)
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

// Validate reports whether value is a CPF with correct check digits.
// Punctuation is ignored. Sequences of one repeated digit are rejected.
func Validate(value string) bool {
	digits := Digits(value)
	if len(digits) != Length {
		return false
	}
	if allEqual(digits) {
		return false
	}

	nums := make([]int, Length)
	for i := 0; i < Length; i++ {
		nums[i] = int(digits[i] - '0')
	}
	first, second := CheckDigits(nums)
	return nums[9] == first && nums[10] == second
}

// Format renders eleven digits as XXX.XXX.XXX-XX. Any other input is
// returned unchanged.
func Format(digits string) string {
	if len(digits) != Length || Digits(digits) != digits {
		return digits
	}
	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}

// IsPunctuated reports whether value uses the XXX.XXX.XXX-XX layout.
func IsPunctuated(value string) bool {
	return punctuatedRegex.MatchString(value)
}

func allEqual(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

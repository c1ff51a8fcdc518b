// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package rg validates and scans for RG numbers (Registro Geral). RG layout
// varies by issuing state, so only the shape is checked.
package rg

import (
	"regexp"
	"strings"
)

const (
	// MinLength and MaxLength bound the cleaned value (digits plus an
	// optional trailing X verifier).
	MinLength = 7
	MaxLength = 9
)

var canonicalRegex = regexp.MustCompile(`^\d{1,2}\.\d{3}\.\d{3}(?:-[\dXx])?$`)

// Clean keeps digits and the X verifier, upper-cased.
func Clean(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'X' || r == 'x':
			b.WriteByte('X')
		}
	}
	return b.String()
}

// Validate reports whether value has the shape of an RG: seven to nine
// characters of digits where only the last may be X. Punctuated input must
// follow the D{1,2}.DDD.DDD(-V) layout.
func Validate(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	for _, r := range value {
		if !(r >= '0' && r <= '9' || r == 'X' || r == 'x' || r == '.' || r == '-') {
			return false
		}
	}
	if strings.ContainsAny(value, ".-") && !canonicalRegex.MatchString(value) {
		return false
	}

	cleaned := Clean(value)
	if len(cleaned) < MinLength || len(cleaned) > MaxLength {
		return false
	}
	if idx := strings.IndexByte(cleaned, 'X'); idx >= 0 && idx != len(cleaned)-1 {
		return false
	}
	return true
}

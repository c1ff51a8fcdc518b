// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package birthdate finds day-first dates that the surrounding text marks as
// a date of birth.
package birthdate

import (
	"fmt"
	"time"
)

// MaxAge is the oldest plausible age for a birth date.
const MaxAge = 120

// Date is a calendar date written as DD<sep>MM<sep>YYYY.
type Date struct {
	Day   int
	Month time.Month
	Year  int
	// Sep is one of '/', '-', '.'.
	Sep byte
}

// Parse reads DD/MM/YYYY, DD-MM-YYYY or DD.MM.YYYY. Both separators must be
// the same and the date must exist in the calendar.
func Parse(value string) (Date, bool) {
	if len(value) != 10 {
		return Date{}, false
	}
	sep := value[2]
	if sep != '/' && sep != '-' && sep != '.' || value[5] != sep {
		return Date{}, false
	}
	day, ok1 := atoi(value[0:2])
	month, ok2 := atoi(value[3:5])
	year, ok3 := atoi(value[6:10])
	if !ok1 || !ok2 || !ok3 {
		return Date{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > DaysIn(time.Month(month), year) {
		return Date{}, false
	}
	return Date{Day: day, Month: time.Month(month), Year: year, Sep: sep}, true
}

// String renders the date with its own separator.
func (d Date) String() string {
	sep := d.Sep
	if sep == 0 {
		sep = '/'
	}
	return fmt.Sprintf("%02d%c%02d%c%04d", d.Day, sep, int(d.Month), sep, d.Year)
}

// Canonical renders the date as YYYY-MM-DD, independent of separator.
func (d Date) Canonical() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AgeAt returns completed years between the date and now.
func (d Date) AgeAt(now time.Time) int {
	age := now.Year() - d.Year
	if now.Month() < d.Month || now.Month() == d.Month && now.Day() < d.Day {
		age--
	}
	return age
}

// Plausible reports whether the date can be a birth date at now.
func (d Date) Plausible(now time.Time) bool {
	age := d.AgeAt(now)
	return age >= 0 && age <= MaxAge && !d.Time().After(now)
}

// Validate reports whether value parses and is a plausible birth date.
func Validate(value string, now time.Time) bool {
	d, ok := Parse(value)
	return ok && d.Plausible(now)
}

// DaysIn returns the number of days of month in year.
func DaysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func atoi(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}

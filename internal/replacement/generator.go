// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package replacement generates synthetic stand-ins for detected entities.
// Every value it returns passes the validator of its category, so an
// anonymized document still looks like a real one.
package replacement

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	mrand "math/rand/v2"
	"strings"
	"time"
	"unicode"

	"lethe/internal/detector"
	"lethe/internal/validators/birthdate"
	"lethe/internal/validators/cpf"
	"lethe/internal/validators/personname"
	"lethe/internal/validators/rg"

	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultMaxAge is the oldest age a generated birth date may imply.
	DefaultMaxAge = 80

	// MinAdultAge is the youngest age a generated birth date may imply.
	// Drawing years up to now.Year()-MinAdultAge-1 keeps every date at or
	// above it whatever the day of the year.
	MinAdultAge = 18

	// nameDraws bounds re-sampling of a person name before the middle
	// initial fallback kicks in.
	nameDraws = 32
)

// Pools are the name lists a Generator draws from.
type Pools struct {
	FirstNames []string
	Surnames   []string
}

// PoolsFromNames uses the display lists of the recognizer dictionaries.
func PoolsFromNames(db *personname.NameDatabases) Pools {
	if db == nil {
		return Pools{}
	}
	return Pools{FirstNames: db.FirstNameList, Surnames: db.SurnameList}
}

// DefaultPools loads the embedded name databases.
func DefaultPools() (Pools, error) {
	db, err := personname.LoadNameDatabases()
	if err != nil {
		return Pools{}, err
	}
	return PoolsFromNames(db), nil
}

// Built-in lists used when a pool is empty, so Generate stays total.
var (
	fallbackFirstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Elisa", "Fábio", "Gabriela", "Heitor"}
	fallbackSurnames   = []string{"Almeida", "Barbosa", "Cardoso", "Duarte", "Esteves", "Freitas", "Gomes", "Hora"}
)

// Generator draws replacements from a ChaCha8 stream. It is not safe for
// concurrent use; create one per document.
type Generator struct {
	pools  Pools
	rng    *mrand.Rand
	now    func() time.Time
	maxAge int
	seed   *[32]byte
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the output a pure function of seed and the inputs.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(seed))
		sum := sha256.Sum256(b[:])
		g.seed = &sum
	}
}

// WithClock overrides the clock used for birth-date generation.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithMaxAge sets the oldest age a generated birth date may imply. Values
// outside [MinAdultAge+1, birthdate.MaxAge] are ignored.
func WithMaxAge(age int) Option {
	return func(g *Generator) {
		if age > MinAdultAge && age <= birthdate.MaxAge {
			g.maxAge = age
		}
	}
}

// NewGenerator builds a generator over pools. Without WithSeed the stream is
// seeded from crypto/rand.
func NewGenerator(pools Pools, opts ...Option) *Generator {
	g := &Generator{
		pools:  pools,
		now:    time.Now,
		maxAge: DefaultMaxAge,
	}
	if len(g.pools.FirstNames) == 0 {
		g.pools.FirstNames = fallbackFirstNames
	}
	if len(g.pools.Surnames) == 0 {
		g.pools.Surnames = fallbackSurnames
	}
	for _, opt := range opts {
		opt(g)
	}

	seed := g.seed
	if seed == nil {
		var b [32]byte
		// crypto/rand.Read never returns an error on supported platforms
		_, _ = rand.Read(b[:])
		seed = &b
	}
	g.rng = mrand.New(mrand.NewChaCha8(*seed))
	return g
}

// Generate returns a replacement for e.Text of e's category. The result is
// never equal to the original and always passes the category validator.
func (g *Generator) Generate(e detector.Entity) string {
	switch e.Type {
	case detector.Person:
		return g.Person(e.Text)
	case detector.NationalIDA:
		return g.CPF(e.Text)
	case detector.NationalIDB:
		return g.RG(e.Text)
	case detector.BirthDate:
		return g.BirthDate(e.Text)
	default:
		return g.letters(len([]rune(e.Text)))
	}
}

// Person draws a name with the token structure of original.
func (g *Generator) Person(original string) string {
	tokens := strings.Fields(original)
	particle := ""
	names := 0
	for _, t := range tokens {
		if isParticle(t) {
			if particle == "" {
				particle = strings.ToLower(t)
			}
			continue
		}
		names++
	}
	want := 2
	if names >= 3 {
		want = 3
	}
	upper := isAllUpper(original)
	normalized := strings.Join(tokens, " ")

	finish := func(parts []string) string {
		s := strings.Join(parts, " ")
		if upper {
			s = strings.ToUpper(s)
		}
		return s
	}

	var parts []string
	for range nameDraws {
		parts = g.drawName(want, particle)
		if candidate := finish(parts); !strings.EqualFold(candidate, normalized) {
			return candidate
		}
	}

	// Pools too small to escape the original: add a middle initial.
	for {
		initial := string(rune('A'+g.rng.IntN(26))) + "."
		withInitial := append([]string{parts[0], initial}, parts[1:]...)
		if candidate := finish(withInitial); !strings.EqualFold(candidate, normalized) {
			return candidate
		}
	}
}

// drawName returns a first name followed by want-1 surnames. The particle,
// when set, goes before the last surname.
func (g *Generator) drawName(want int, particle string) []string {
	parts := []string{g.pick(g.pools.FirstNames)}
	for i := 1; i < want; i++ {
		surname := g.pick(g.pools.Surnames)
		for tries := 0; tries < 4 && contains(parts, surname); tries++ {
			surname = g.pick(g.pools.Surnames)
		}
		if i == want-1 && particle != "" {
			parts = append(parts, particle)
		}
		parts = append(parts, surname)
	}
	return parts
}

// CPF draws a valid CPF rendered in the layout of original.
func (g *Generator) CPF(original string) string {
	origDigits := cpf.Digits(original)
	base := make([]int, 9)
	for {
		for i := range base {
			base[i] = g.rng.IntN(10)
		}
		first, second := cpf.CheckDigits(base)

		var b strings.Builder
		for _, d := range base {
			b.WriteByte(byte('0' + d))
		}
		b.WriteByte(byte('0' + first))
		b.WriteByte(byte('0' + second))
		digits := b.String()

		if digits == origDigits || !cpf.Validate(digits) {
			continue
		}
		if cpf.IsPunctuated(original) {
			return cpf.Format(digits)
		}
		return digits
	}
}

// RG replaces every digit of original and keeps its punctuation. A trailing
// digit verifier becomes X with probability 1/11; a letter verifier stays a
// letter in its own case, so surfaces differing only in that case keep
// distinct renderings.
func (g *Generator) RG(original string) string {
	template := original
	if !rg.Validate(template) {
		template = "00.000.000-0"
	}
	verifierAt := -1
	n := len(template)
	if template[n-2] == '-' || template[n-1] == 'X' || template[n-1] == 'x' {
		verifierAt = n - 1
	}
	origClean := rg.Clean(original)

	for {
		out := []byte(template)
		for i := range out {
			switch {
			case i == verifierAt && (out[i] == 'X' || out[i] == 'x'):
			case i == verifierAt:
				if v := g.rng.IntN(11); v == 10 {
					out[i] = 'X'
				} else {
					out[i] = byte('0' + v)
				}
			case out[i] >= '0' && out[i] <= '9', out[i] == 'X', out[i] == 'x':
				out[i] = byte('0' + g.rng.IntN(10))
			}
		}
		candidate := string(out)
		if rg.Clean(candidate) != origClean && rg.Validate(candidate) {
			return candidate
		}
	}
}

// BirthDate draws an adult birth date with the separator of original.
func (g *Generator) BirthDate(original string) string {
	sep := byte('/')
	if d, ok := birthdate.Parse(original); ok {
		sep = d.Sep
	}

	now := g.now()
	maxYear := now.Year() - MinAdultAge - 1
	minYear := now.Year() - g.maxAge
	for {
		year := minYear + g.rng.IntN(maxYear-minYear+1)
		month := time.Month(1 + g.rng.IntN(12))
		day := 1 + g.rng.IntN(birthdate.DaysIn(month, year))

		candidate := birthdate.Date{Day: day, Month: month, Year: year, Sep: sep}.String()
		if candidate != original {
			return candidate
		}
	}
}

// Render restyles replacement, generated for another surface of the same
// entity, into the layout of original.
func Render(t detector.EntityType, original, replacement string) string {
	switch t {
	case detector.NationalIDA:
		digits := cpf.Digits(replacement)
		if cpf.IsPunctuated(original) {
			return cpf.Format(digits)
		}
		return digits
	case detector.NationalIDB:
		cleaned := rg.Clean(replacement)
		if len(cleaned) != len(rg.Clean(original)) {
			return replacement
		}
		out := []byte(original)
		j := 0
		for i := range out {
			if out[i] >= '0' && out[i] <= '9' || out[i] == 'X' || out[i] == 'x' {
				c := cleaned[j]
				if out[i] == 'x' && c == 'X' {
					c = 'x'
				}
				out[i] = c
				j++
			}
		}
		return string(out)
	case detector.BirthDate:
		d, ok := birthdate.Parse(replacement)
		o, ok2 := birthdate.Parse(original)
		if !ok || !ok2 {
			return replacement
		}
		d.Sep = o.Sep
		return d.String()
	case detector.Person:
		return renderName(original, replacement)
	default:
		return replacement
	}
}

// renderName lays the words of replacement out with the whitespace, letter
// case and normalization form of original.
func renderName(original, replacement string) string {
	words := strings.Fields(replacement)
	origWords := strings.Fields(original)
	if len(words) != len(origWords) {
		return replacement
	}

	var b strings.Builder
	rest := original
	for i, w := range origWords {
		j := strings.Index(rest, w)
		if i > 0 {
			b.WriteString(rest[:j])
		}
		b.WriteString(words[i])
		rest = rest[j+len(w):]
	}

	out := b.String()
	if isAllUpper(original) {
		out = strings.ToUpper(out)
	}
	if !norm.NFC.IsNormalString(original) {
		out = norm.NFD.String(out)
	}
	return out
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.IntN(len(pool))]
}

func (g *Generator) letters(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, max(n, 1))
	for i := range b {
		b[i] = alphabet[g.rng.IntN(len(alphabet))]
	}
	return string(b)
}

var particles = map[string]bool{"da": true, "de": true, "do": true, "das": true, "dos": true}

func isParticle(s string) bool {
	return particles[strings.ToLower(s)]
}

// isAllUpper reports whether s has letters and none of them is lower case.
func isAllUpper(s string) bool {
	letters := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters = true
		}
	}
	return letters
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

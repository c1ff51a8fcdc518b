// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityTypeText(t *testing.T) {
	for _, et := range AllEntityTypes {
		b, err := et.MarshalText()
		require.NoError(t, err)

		var parsed EntityType
		require.NoError(t, parsed.UnmarshalText(b))
		assert.Equal(t, et, parsed)
	}

	_, err := EntityUnknown.MarshalText()
	assert.Error(t, err)

	_, err = ParseEntityType("EMAIL")
	assert.Error(t, err)

	parsed, err := ParseEntityType(" national_id_a ")
	require.NoError(t, err)
	assert.Equal(t, NationalIDA, parsed)
}

func TestEntityTypeInJSON(t *testing.T) {
	type row struct {
		Type EntityType `json:"type"`
	}
	b, err := json.Marshal(row{Type: BirthDate})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"BIRTH_DATE"}`, string(b))
}

func TestEntityTypePriority(t *testing.T) {
	assert.Greater(t, NationalIDA.Priority(), NationalIDB.Priority())
	assert.Greater(t, NationalIDB.Priority(), BirthDate.Priority())
	assert.Greater(t, BirthDate.Priority(), Person.Priority())
	assert.Equal(t, "CPFs", NationalIDA.Label())
}

func TestEntityOverlaps(t *testing.T) {
	a := Entity{Start: 0, End: 5}
	b := Entity{Start: 4, End: 8}
	c := Entity{Start: 5, End: 8}
	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c))
	assert.Equal(t, 3, c.Len())
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("Maria, nasc. em 01/02/1980 (D.N.) Nascimento")
	assert.Equal(t, []string{"maria", "nasc", "em", "01", "02", "1980", "d.n", "nascimento"}, tokens)
}

func TestContainsKeyword(t *testing.T) {
	keywords := map[string]bool{"data de nascimento": true, "dn": true}

	kw, ok := ContainsKeyword([]string{"em", "nascimento", "de", "data"}, keywords, true)
	assert.True(t, ok)
	assert.Equal(t, "data de nascimento", kw)

	_, ok = ContainsKeyword([]string{"data", "de", "admissão"}, keywords, false)
	assert.False(t, ok)
}

func TestContextExtractor(t *testing.T) {
	text := "linha um\nNascido em 15/03/1990 na capital\nfim"
	start := len("linha um\nNascido em ")
	end := start + len("15/03/1990")

	info := NewContextExtractor().WithContextTokens(2).Extract(text, start, end)
	assert.Equal(t, "Nascido em 15/03/1990 na capital", info.FullLine)
	assert.Equal(t, []string{"em", "nascido"}, info.TokensBefore)
	assert.Equal(t, []string{"na", "capital"}, info.TokensAfter)

	empty := NewContextExtractor().Extract(text, 10, 2)
	assert.Empty(t, empty.FullLine)
}

func TestLastTokens(t *testing.T) {
	assert.Equal(t, []string{"data", "de", "nascimento"}, LastTokens("Maria, data de nascimento", 3))
	assert.Equal(t, []string{"maria", "nasc"}, LastTokens("Maria, nasc.", 5))
	assert.Nil(t, LastTokens("qualquer", 0))

	// a long prefix is never tokenized, and a word cut by the window is dropped
	long := strings.Repeat("palavra ", 10000) + "nascido em"
	assert.Equal(t, []string{"palavra", "nascido", "em"}, LastTokens(long, 3))

	far := "nascido" + strings.Repeat(" ", 2*maxTokenReach) + "em"
	assert.Equal(t, []string{"em"}, LastTokens(far, 2))
}

func TestIsWordBoundary(t *testing.T) {
	text := "Ana Anabela ana"
	assert.True(t, IsWordBoundary(text, 0, 3))
	assert.False(t, IsWordBoundary(text, 4, 7))
	assert.True(t, IsWordBoundary("(José)", 1, len("(José")))
	assert.False(t, IsWordBoundary("Joséa", 0, len("José")))
}

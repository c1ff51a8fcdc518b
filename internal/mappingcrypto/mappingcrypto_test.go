// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mappingcrypto

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"lethe/internal/detector"
	lerrors "lethe/internal/errors"
	"lethe/internal/mapping"

	"github.com/fernet/fernet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *mapping.Table {
	t.Helper()
	table := mapping.NewTable()
	require.NoError(t, table.Add(mapping.Substitution{Type: detector.Person, Original: "João da Silva", Replacement: "Pedro Costa"}))
	require.NoError(t, table.Add(mapping.Substitution{Type: detector.NationalIDA, Original: "123.456.789-09", Replacement: "529.982.247-25"}))
	require.NoError(t, table.Add(mapping.Substitution{Type: detector.BirthDate, Original: "15/03/1990", Replacement: "02/07/1971"}))
	return table
}

func TestFernetKnownVector(t *testing.T) {
	key, err := base64.URLEncoding.DecodeString("cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4=")
	require.NoError(t, err)
	const want = "gAAAAAAdwJ6wAAECAwQFBgcICQoLDA0ODy021cpGVWKZ_eEwCGM4BLLF_5CV9dOPmrhuVUPgJobwOz7JcbmrR64jVmpU4IwqDA=="

	k, err := newFernetKey(key)
	require.NoError(t, err)
	defer clearFernetKey(k)

	raw, err := base64.URLEncoding.DecodeString(want)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(openToken(raw, k)))

	em, err := fromToken([SaltSize]byte{}, raw)
	require.NoError(t, err)
	assert.Equal(t, int64(499162800), em.Timestamp.Unix())
	for i, b := range em.IV {
		assert.Equal(t, byte(i), b)
	}
	assert.Equal(t, raw, em.Token())

	// tokens we seal are readable by any Fernet implementation holding the key
	sealed, err := sealToken([]byte("hello"), k)
	require.NoError(t, err)
	other, err := fernet.DecodeKey("cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4=")
	require.NoError(t, err)
	msg := fernet.VerifyAndDecrypt([]byte(base64.URLEncoding.EncodeToString(sealed)), 0, []*fernet.Key{other})
	assert.Equal(t, "hello", string(msg))
}

func TestFernetRejectsBadKeySize(t *testing.T) {
	_, err := newFernetKey(make([]byte, 16))
	assert.Error(t, err)
}

func TestOpenTokenWithWrongKey(t *testing.T) {
	k, err := newFernetKey(DeriveKey([]byte("certa"), make([]byte, SaltSize)))
	require.NoError(t, err)
	wrong, err := newFernetKey(DeriveKey([]byte("errada"), make([]byte, SaltSize)))
	require.NoError(t, err)

	token, err := sealToken([]byte("segredo"), k)
	require.NoError(t, err)
	assert.Equal(t, "segredo", string(openToken(token, k)))
	assert.Nil(t, openToken(token, wrong))

	clearFernetKey(k)
	assert.Equal(t, fernet.Key{}, *k)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	table := sampleTable(t)
	password := []byte("senha-forte")

	em, err := Encrypt(table, password)
	require.NoError(t, err)
	assert.Equal(t, []byte("senha-forte"), password, "password buffer must not be modified")

	decoded, err := Decrypt(em, password)
	require.NoError(t, err)
	assert.Equal(t, table.Entries(), decoded.Entries())
	assert.Equal(t, table.DocumentID, decoded.DocumentID)
}

func TestArtifactRoundTripAndWrongPassword(t *testing.T) {
	em, err := Encrypt(sampleTable(t), []byte("correta"))
	require.NoError(t, err)

	data, err := em.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, em.Salt[:], data[:SaltSize])
	assert.Equal(t, byte('g'), data[SaltSize], "Fernet tokens start with 0x80, base64url 'g'")

	parsed, err := ParseArtifact(append(data, '\n'))
	require.NoError(t, err)
	assert.Equal(t, em, parsed)

	_, err = Decrypt(parsed, []byte("errada"))
	require.Error(t, err)
	assert.True(t, lerrors.Is(err, lerrors.ErrAuthentication))
}

func TestTamperingFailsAuthentication(t *testing.T) {
	password := []byte("pw")
	em, err := Encrypt(sampleTable(t), password)
	require.NoError(t, err)

	t.Run("ciphertext byte", func(t *testing.T) {
		tampered := *em
		tampered.Ciphertext = append([]byte(nil), em.Ciphertext...)
		tampered.Ciphertext[0] ^= 0x01
		_, err := Decrypt(&tampered, password)
		assert.True(t, lerrors.Is(err, lerrors.ErrAuthentication))
	})

	t.Run("salt byte", func(t *testing.T) {
		tampered := *em
		tampered.Salt[3] ^= 0xff
		_, err := Decrypt(&tampered, password)
		assert.True(t, lerrors.Is(err, lerrors.ErrAuthentication))
	})

	t.Run("undecodable token", func(t *testing.T) {
		data, err := em.MarshalBinary()
		require.NoError(t, err)
		data[SaltSize+4] = '*'
		_, err = ParseArtifact(data)
		assert.True(t, lerrors.Is(err, lerrors.ErrAuthentication))
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := ParseArtifact([]byte("short"))
		assert.True(t, lerrors.Is(err, lerrors.ErrCorruptMapping))
	})
}

func TestFreshSaltPerEncryption(t *testing.T) {
	table := sampleTable(t)
	a, err := Encrypt(table, []byte("pw"))
	require.NoError(t, err)
	b, err := Encrypt(table, []byte("pw"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestAuthenticPayloadThatDoesNotParse(t *testing.T) {
	var salt [SaltSize]byte
	token, err := seal([]byte("not a mapping"), []byte("pw"), salt)
	require.NoError(t, err)
	em, err := fromToken(salt, token)
	require.NoError(t, err)

	_, err = Decrypt(em, []byte("pw"))
	require.Error(t, err)
	assert.True(t, lerrors.Is(err, lerrors.ErrCorruptMapping))
	assert.False(t, lerrors.Is(err, lerrors.ErrAuthentication))
}

func TestWriteAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc_mapping.lethe")
	em, err := Encrypt(sampleTable(t), []byte("pw"))
	require.NoError(t, err)

	require.NoError(t, WriteFile(path, em))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	read, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, em, read)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.lethe"))
	assert.Error(t, err)
}

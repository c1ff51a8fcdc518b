// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package mappingcrypto encrypts mapping tables with a password.
//
// A password and a fresh random salt go through PBKDF2-HMAC-SHA256 to give a
// 32-byte Fernet key. The table's JSON is sealed as a Fernet token
// (AES-128-CBC with an HMAC-SHA256 tag). The persisted artifact is
//
//	salt (16 bytes) || base64url(token)
//
// The token itself is standard Fernet, readable by any Fernet library given
// the derived key.
//
// Key material only lives inside Encrypt and Decrypt and is zeroed before
// they return. The password buffer is never modified.
package mappingcrypto

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	lerrors "lethe/internal/errors"
	"lethe/internal/mapping"
	"lethe/internal/security"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 work factor.
	Iterations = 480_000

	// SaltSize is the length of the salt stored at the head of an artifact.
	SaltSize = 16

	component = "mappingcrypto"
)

var errInvalidToken = lerrors.New("invalid token")

// EncryptedMapping is a Fernet token decomposed into its fields, plus the
// salt its key was derived with.
type EncryptedMapping struct {
	Salt       [SaltSize]byte
	Timestamp  time.Time
	IV         [ivSize]byte
	Ciphertext []byte
	Tag        [tagSize]byte
}

// DeriveKey runs PBKDF2-HMAC-SHA256 over password and salt. The caller owns
// the returned key and should zero it after use.
func DeriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, Iterations, KeySize, sha256.New)
}

// Encrypt serializes table and seals it under a key derived from password
// with a fresh salt.
func Encrypt(table *mapping.Table, password []byte) (*EncryptedMapping, error) {
	if table == nil {
		return nil, fmt.Errorf("mapping table cannot be nil")
	}
	plaintext, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize mapping: %w", err)
	}
	defer security.Zero(plaintext)

	var salt [SaltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	token, err := seal(plaintext, password, salt)
	if err != nil {
		return nil, err
	}
	return fromToken(salt, token)
}

func seal(plaintext, password []byte, salt [SaltSize]byte) ([]byte, error) {
	key := DeriveKey(password, salt[:])
	defer security.Zero(key)

	k, err := newFernetKey(key)
	if err != nil {
		return nil, err
	}
	defer clearFernetKey(k)
	return sealToken(plaintext, k)
}

// Decrypt verifies em under password and parses the mapping it holds. A
// wrong password or any modification yields errors.ErrAuthentication; an
// authentic payload that does not parse yields errors.ErrCorruptMapping.
func Decrypt(em *EncryptedMapping, password []byte) (*mapping.Table, error) {
	if em == nil {
		return nil, lerrors.NewError(lerrors.KindCorruptMapping, "encrypted mapping cannot be nil", component, nil)
	}

	key := DeriveKey(password, em.Salt[:])
	defer security.Zero(key)

	k, err := newFernetKey(key)
	if err != nil {
		return nil, err
	}
	defer clearFernetKey(k)

	plaintext := openToken(em.Token(), k)
	if plaintext == nil {
		return nil, lerrors.NewError(lerrors.KindAuthentication, "wrong password or tampered mapping", component, nil)
	}
	defer security.Zero(plaintext)

	return mapping.Unmarshal(plaintext)
}

// Token reassembles the raw Fernet token.
func (em *EncryptedMapping) Token() []byte {
	token := make([]byte, 0, headerSize+len(em.Ciphertext)+tagSize)
	token = append(token, fernetVersion)
	token = binary.BigEndian.AppendUint64(token, uint64(em.Timestamp.Unix()))
	token = append(token, em.IV[:]...)
	token = append(token, em.Ciphertext...)
	return append(token, em.Tag[:]...)
}

// MarshalBinary renders the artifact: salt followed by the base64url token.
func (em *EncryptedMapping) MarshalBinary() ([]byte, error) {
	token := em.Token()
	out := make([]byte, SaltSize+base64.URLEncoding.EncodedLen(len(token)))
	copy(out, em.Salt[:])
	base64.URLEncoding.Encode(out[SaltSize:], token)
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler via ParseArtifact.
func (em *EncryptedMapping) UnmarshalBinary(data []byte) error {
	parsed, err := ParseArtifact(data)
	if err != nil {
		return err
	}
	*em = *parsed
	return nil
}

// ParseArtifact splits an artifact into its fields. Input too short to hold
// a salt is a corrupt mapping; a token that cannot be decoded fails
// authentication like any other tampering.
func ParseArtifact(data []byte) (*EncryptedMapping, error) {
	if len(data) <= SaltSize {
		return nil, lerrors.NewError(lerrors.KindCorruptMapping, "mapping artifact is truncated", component, nil)
	}
	var salt [SaltSize]byte
	copy(salt[:], data[:SaltSize])

	encoded := bytes.TrimSpace(data[SaltSize:])
	token := make([]byte, base64.URLEncoding.DecodedLen(len(encoded)))
	n, err := base64.URLEncoding.Decode(token, encoded)
	if err != nil {
		return nil, lerrors.NewError(lerrors.KindAuthentication, "mapping token is not valid base64url", component, err)
	}
	token = token[:n]

	em, err := fromToken(salt, token)
	if err != nil {
		return nil, lerrors.NewError(lerrors.KindAuthentication, "malformed mapping token", component, err)
	}
	return em, nil
}

func fromToken(salt [SaltSize]byte, token []byte) (*EncryptedMapping, error) {
	if len(token) < minTokenSize || token[0] != fernetVersion {
		return nil, errInvalidToken
	}
	if (len(token)-headerSize-tagSize)%ivSize != 0 {
		return nil, errInvalidToken
	}
	em := &EncryptedMapping{
		Salt:       salt,
		Timestamp:  time.Unix(int64(binary.BigEndian.Uint64(token[1:9])), 0).UTC(),
		Ciphertext: append([]byte(nil), token[headerSize:len(token)-tagSize]...),
	}
	copy(em.IV[:], token[9:headerSize])
	copy(em.Tag[:], token[len(token)-tagSize:])
	return em, nil
}

// WriteFile writes the artifact to path with owner-only permissions.
func WriteFile(path string, em *EncryptedMapping) error {
	data, err := em.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0o600); err != nil {
		return fmt.Errorf("failed to write mapping file: %w", err)
	}
	return nil
}

// ReadFile reads and parses an artifact.
func ReadFile(path string) (*EncryptedMapping, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	return ParseArtifact(data)
}

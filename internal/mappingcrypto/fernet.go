// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mappingcrypto

import (
	"encoding/base64"
	"fmt"

	"lethe/internal/security"

	"github.com/fernet/fernet-go"
)

const (
	// KeySize is the size of a Fernet key: a 16-byte HMAC-SHA256 signing key
	// followed by a 16-byte AES-128 encryption key.
	KeySize = len(fernet.Key{})

	fernetVersion byte = 0x80
	ivSize             = 16
	tagSize            = 32
	headerSize         = 1 + 8 + ivSize

	// minTokenSize is a header, one cipher block and the tag.
	minTokenSize = headerSize + ivSize + tagSize
)

// Tokens follow the Fernet layout
//
//	0x80 || timestamp (8 bytes, big endian) || IV (16) || AES-128-CBC ciphertext || HMAC-SHA256 (32)
//
// fernet-go works on the base64url form; the helpers below convert to and
// from the raw bytes EncryptedMapping is built from.

// newFernetKey copies a derived key. The caller must clearFernetKey it.
func newFernetKey(key []byte) (*fernet.Key, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("fernet key must be %d bytes, got %d", KeySize, len(key))
	}
	k := new(fernet.Key)
	copy(k[:], key)
	return k, nil
}

func clearFernetKey(k *fernet.Key) {
	security.Zero(k[:])
}

// sealToken encrypts plaintext with a random IV and the current time and
// returns the raw token.
func sealToken(plaintext []byte, k *fernet.Key) ([]byte, error) {
	encoded, err := fernet.EncryptAndSign(plaintext, k)
	if err != nil {
		return nil, fmt.Errorf("failed to seal mapping: %w", err)
	}
	raw := make([]byte, base64.URLEncoding.DecodedLen(len(encoded)))
	n, err := base64.URLEncoding.Decode(raw, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sealed token: %w", err)
	}
	return raw[:n], nil
}

// openToken verifies and decrypts a raw token. Tokens never expire. It
// returns nil when the token does not authenticate under k.
func openToken(raw []byte, k *fernet.Key) []byte {
	encoded := make([]byte, base64.URLEncoding.EncodedLen(len(raw)))
	base64.URLEncoding.Encode(encoded, raw)
	return fernet.VerifyAndDecrypt(encoded, 0, []*fernet.Key{k})
}

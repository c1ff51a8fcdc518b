// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package security

// Zero overwrites b with zeros. It is used on derived keys and password
// buffers once a cryptographic operation returns.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// SecureBytes holds a password or other secret with best-effort scrubbing on
// Clear.
//
// Limitations: the garbage collector may move or copy memory, and any string
// conversion made by a caller creates an immutable copy that cannot be zeroed.
// Clear shortens the exposure window; it does not guarantee erasure.
type SecureBytes struct {
	data []byte
}

// NewSecureBytes takes ownership of b. The caller must not reuse b.
func NewSecureBytes(b []byte) *SecureBytes {
	return &SecureBytes{data: b}
}

// NewSecureString copies s into a mutable buffer.
func NewSecureString(s string) *SecureBytes {
	data := make([]byte, len(s))
	copy(data, s)
	return &SecureBytes{data: data}
}

// Bytes returns the live buffer. It is invalidated by Clear.
func (sb *SecureBytes) Bytes() []byte {
	return sb.data
}

// Len returns the secret length in bytes.
func (sb *SecureBytes) Len() int {
	return len(sb.data)
}

// Equal compares two secrets without converting them to strings.
func (sb *SecureBytes) Equal(other *SecureBytes) bool {
	if sb == nil || other == nil {
		return sb == other
	}
	if len(sb.data) != len(other.data) {
		return false
	}
	var diff byte
	for i := range sb.data {
		diff |= sb.data[i] ^ other.data[i]
	}
	return diff == 0
}

// Clear overwrites the buffer with zeros and releases it.
func (sb *SecureBytes) Clear() {
	if sb.data != nil {
		Zero(sb.data)
		sb.data = nil
	}
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package security

import (
	"testing"
)

func TestZero(t *testing.T) {
	b := []byte("derived-key-material")
	Zero(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not zeroed: %d", i, v)
		}
	}
}

func TestNewSecureString_IsolatesFromOriginal(t *testing.T) {
	original := "senha-forte"
	sb := NewSecureString(original)
	sb.Clear()
	if original != "senha-forte" {
		t.Errorf("original string modified: %q", original)
	}
}

func TestSecureBytes_ClearZeroesOwnedBuffer(t *testing.T) {
	buf := []byte("segredo")
	sb := NewSecureBytes(buf)
	if sb.Len() != 7 {
		t.Errorf("expected length 7, got %d", sb.Len())
	}
	sb.Clear()
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("byte %d not zeroed after Clear", i)
		}
	}
	if sb.Bytes() != nil {
		t.Error("expected nil buffer after Clear")
	}
	// idempotent
	sb.Clear()
}

func TestSecureBytes_Equal(t *testing.T) {
	a := NewSecureString("pw1")
	b := NewSecureString("pw1")
	c := NewSecureString("pw2")
	d := NewSecureString("pw")

	if !a.Equal(b) {
		t.Error("expected equal secrets")
	}
	if a.Equal(c) {
		t.Error("expected different secrets")
	}
	if a.Equal(d) {
		t.Error("expected different lengths to differ")
	}
	var nilBytes *SecureBytes
	if a.Equal(nilBytes) {
		t.Error("expected nil to differ")
	}
}

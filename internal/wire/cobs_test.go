/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package wire

import (
	"bytes"
	"testing"
)

func TestCOBSRoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		{0},
		{0, 0, 0},
		{1, 2, 3},
		{1, 0, 2, 0, 3},
		bytes.Repeat([]byte{1}, 300), // exercises the 0xFF block-split path
		bytes.Repeat([]byte{0}, 10),
	}

	for _, data := range cases {
		encoded := EncodeCOBS(data)
		if bytes.Contains(encoded[:len(encoded)-1], []byte{0}) {
			t.Fatalf("encoded frame contains an interior zero byte: %v", encoded)
		}
		if encoded[len(encoded)-1] != 0 {
			t.Fatalf("encoded frame missing terminator: %v", encoded)
		}

		decoded, err := DecodeCOBS(encoded)
		if err != nil {
			t.Fatalf("DecodeCOBS(%v) error: %v", encoded, err)
		}
		if !bytes.Equal(decoded, data) {
			t.Errorf("round trip mismatch: got %v, want %v", decoded, data)
		}
	}
}

func TestDecodeCOBSRejectsZeroCode(t *testing.T) {
	_, err := DecodeCOBS([]byte{0, 1, 2})
	if err == nil {
		t.Fatal("expected error decoding a frame with an interior zero code byte")
	}
}

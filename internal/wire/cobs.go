/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package wire implements the binary Command/Event codec named in
// spec.md §6: a compact, self-delimiting tag+length+payload encoding
// wrapped in COBS framing with a 0x00 terminator. Hand-rolled rather
// than protobuf/gob because the protocol demands exact round-trip
// equality over a format with no external schema compiler available in
// this build (see DESIGN.md).
package wire

// EncodeCOBS applies Consistent Overhead Byte Stuffing to data so the result contains no zero
// bytes, then appends the 0x00 terminator (spec.md §6).
func EncodeCOBS(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/254+2)
	codeIndex := 0
	out = append(out, 0) // placeholder for first code byte
	code := byte(1)

	for _, b := range data {
		if b == 0 {
			out[codeIndex] = code
			codeIndex = len(out)
			out = append(out, 0)
			code = 1
			continue
		}
		out = append(out, b)
		code++
		if code == 0xFF {
			out[codeIndex] = code
			codeIndex = len(out)
			out = append(out, 0)
			code = 1
		}
	}

	out[codeIndex] = code
	out = append(out, 0)
	return out
}

// DecodeCOBS reverses EncodeCOBS on a single frame (terminator excluded
// or included; trailing 0x00 is ignored if present).
func DecodeCOBS(frame []byte) ([]byte, error) {
	if len(frame) > 0 && frame[len(frame)-1] == 0 {
		frame = frame[:len(frame)-1]
	}
	if len(frame) == 0 {
		return nil, nil
	}

	out := make([]byte, 0, len(frame))
	i := 0
	for i < len(frame) {
		code := int(frame[i])
		if code == 0 {
			return nil, errInvalidCOBSFrame
		}
		i++
		end := i + code - 1
		if end > len(frame) {
			return nil, errInvalidCOBSFrame
		}
		out = append(out, frame[i:end]...)
		i = end
		if code != 0xFF && i < len(frame) {
			out = append(out, 0)
		}
	}
	return out, nil
}

var errInvalidCOBSFrame = cobsError("invalid cobs frame")

type cobsError string

func (e cobsError) Error() string { return string(e) }

// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import "encoding/binary"

// headerLength is the wire size of a handshake header: type(1) +
// length(3) + message_seq(2) + fragment_offset(3) + fragment_length(3).
const headerLength = 12

// Header is the handshake fragment header of spec §3.
type Header struct {
	Type            Type
	Length          uint32 // 24-bit total message length
	MessageSequence uint16
	FragmentOffset  uint32 // 24-bit
	FragmentLength  uint32 // 24-bit
}

// Size returns the marshaled size of a Header: always 12 bytes.
func (h Header) Size() int {
	return headerLength
}

// Marshal encodes the Header.
func (h *Header) Marshal() ([]byte, error) {
	out := make([]byte, headerLength)
	out[0] = byte(h.Type)
	putUint24(out[1:4], h.Length)
	binary.BigEndian.PutUint16(out[4:6], h.MessageSequence)
	putUint24(out[6:9], h.FragmentOffset)
	putUint24(out[9:12], h.FragmentLength)
	return out, nil
}

// Unmarshal decodes a Header from the front of data.
func (h *Header) Unmarshal(data []byte) error {
	if len(data) < headerLength {
		return errBufferTooSmall
	}

	h.Type = Type(data[0])
	h.Length = getUint24(data[1:4])
	h.MessageSequence = binary.BigEndian.Uint16(data[4:6])
	h.FragmentOffset = getUint24(data[6:9])
	h.FragmentLength = getUint24(data[9:12])
	return nil
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

func getUint24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package recordlayer implements the DTLS record framing of RFC 6347
// Section 4.1: a fixed 13-byte header followed by an opaque fragment.
package recordlayer

import (
	"encoding/binary"

	"github.com/pionwire/dtls-endpoint/pkg/protocol"
)

// headerSize is the wire size of a record header: type(1) + version(2) +
// epoch(2) + sequence number(6) + fragment length(2).
const headerSize = 13

// MaxSequenceNumber is the largest value the 48-bit sequence number field
// can hold.
const MaxSequenceNumber = (uint64(1) << 48) - 1

// Header is the 13-byte record-layer header described in spec §3.
type Header struct {
	ContentType    protocol.ContentType
	Version        protocol.Version
	Epoch          uint16
	SequenceNumber uint64 // only the low 48 bits are meaningful
	ContentLen     uint16
}

// Size returns the marshaled size of a Header: always 13 bytes.
func (h *Header) Size() int {
	return headerSize
}

// Marshal encodes the Header.
func (h *Header) Marshal() ([]byte, error) {
	if h.SequenceNumber > MaxSequenceNumber {
		return nil, errSequenceNumberOverflow
	}

	out := make([]byte, headerSize)
	out[0] = byte(h.ContentType)
	out[1] = h.Version.Major
	out[2] = h.Version.Minor
	binary.BigEndian.PutUint16(out[3:], h.Epoch)

	// 48-bit sequence number packed into bytes [5:11).
	seq := make([]byte, 8)
	binary.BigEndian.PutUint64(seq, h.SequenceNumber)
	copy(out[5:11], seq[2:])

	binary.BigEndian.PutUint16(out[11:], h.ContentLen)
	return out, nil
}

// Unmarshal decodes a Header from the front of data.
func (h *Header) Unmarshal(data []byte) error {
	if len(data) < headerSize {
		return errBufferTooSmall
	}

	h.ContentType = protocol.ContentType(data[0])
	h.Version.Major = data[1]
	h.Version.Minor = data[2]
	h.Epoch = binary.BigEndian.Uint16(data[3:])

	seq := make([]byte, 8)
	copy(seq[2:], data[5:11])
	h.SequenceNumber = binary.BigEndian.Uint64(seq)

	h.ContentLen = binary.BigEndian.Uint16(data[11:])
	return nil
}

// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"encoding/binary"

	"github.com/pionwire/dtls-endpoint/pkg/protocol"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/extension"
)

// MessageClientHello is the first message an initiator sends, RFC 5246
// Section 7.4.1.2, with the DTLS cookie field of RFC 6347 Section 4.2.1.
type MessageClientHello struct {
	Version            protocol.Version
	Random             Random
	SessionID          []byte
	Cookie             []byte
	CipherSuiteIDs     []uint16
	CompressionMethods []*protocol.CompressionMethod
	Extensions         []extension.Extension
}

// Type returns the Handshake Type.
func (m MessageClientHello) Type() Type {
	return TypeClientHello
}

// Marshal encodes the Handshake.
func (m *MessageClientHello) Marshal() ([]byte, error) {
	if len(m.Cookie) > 255 {
		return nil, errInvalidCookieLength
	}
	if len(m.SessionID) > 255 {
		return nil, errInvalidSessionIDLength
	}

	out := make([]byte, 2)
	out[0] = m.Version.Major
	out[1] = m.Version.Minor

	rand := m.Random.MarshalFixed()
	out = append(out, rand[:]...)

	out = append(out, byte(len(m.SessionID)))
	out = append(out, m.SessionID...)

	out = append(out, byte(len(m.Cookie)))
	out = append(out, m.Cookie...)

	out = append(out, 0x00, 0x00)
	binary.BigEndian.PutUint16(out[len(out)-2:], uint16(len(m.CipherSuiteIDs)*2))
	for _, id := range m.CipherSuiteIDs {
		out = append(out, 0x00, 0x00)
		binary.BigEndian.PutUint16(out[len(out)-2:], id)
	}

	out = append(out, byte(len(m.CompressionMethods)))
	for _, cm := range m.CompressionMethods {
		out = append(out, byte(cm.ID))
	}

	extensions, err := extension.Marshal(m.Extensions)
	if err != nil {
		return nil, err
	}

	return append(out, extensions...), nil
}

// Unmarshal populates the message from encoded data.
func (m *MessageClientHello) Unmarshal(data []byte) error {
	if len(data) < 2+RandomLength+1 {
		return errBufferTooSmall
	}

	m.Version.Major = data[0]
	m.Version.Minor = data[1]

	var random [RandomLength]byte
	copy(random[:], data[2:2+RandomLength])
	m.Random.UnmarshalFixed(random)

	offset := 2 + RandomLength
	n := int(data[offset])
	offset++
	if len(data) < offset+n {
		return errBufferTooSmall
	}
	m.SessionID = append([]byte{}, data[offset:offset+n]...)
	offset += n

	if len(data) <= offset {
		return errBufferTooSmall
	}
	n = int(data[offset])
	offset++
	if len(data) < offset+n {
		return errBufferTooSmall
	}
	m.Cookie = append([]byte{}, data[offset:offset+n]...)
	offset += n

	if len(data) < offset+2 {
		return errBufferTooSmall
	}
	cipherSuiteBytes := int(binary.BigEndian.Uint16(data[offset:]))
	offset += 2
	if len(data) < offset+cipherSuiteBytes {
		return errBufferTooSmall
	}
	for i := 0; i+1 < cipherSuiteBytes; i += 2 {
		m.CipherSuiteIDs = append(m.CipherSuiteIDs, binary.BigEndian.Uint16(data[offset+i:]))
	}
	offset += cipherSuiteBytes

	if len(data) <= offset {
		return errBufferTooSmall
	}
	n = int(data[offset])
	offset++
	if len(data) < offset+n {
		return errBufferTooSmall
	}
	methods := protocol.CompressionMethods()
	for i := 0; i < n; i++ {
		if cm, ok := methods[protocol.CompressionMethodID(data[offset+i])]; ok {
			m.CompressionMethods = append(m.CompressionMethods, cm)
		}
	}
	offset += n

	if len(data) <= offset {
		m.Extensions = []extension.Extension{}
		return nil
	}

	extensions, err := extension.Unmarshal(data[offset:])
	if err != nil {
		return err
	}
	m.Extensions = extensions
	return nil
}

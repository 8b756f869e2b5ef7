// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import "encoding/binary"

// MessageNewSessionTicket is parsed for wire compatibility but, per spec §1
// ("No session resumption via ticket reuse"), its contents are never acted
// on: the handshake engine accepts and discards it.
type MessageNewSessionTicket struct {
	LifetimeHint uint32
	Ticket       []byte
}

// Type returns the Handshake Type.
func (m MessageNewSessionTicket) Type() Type {
	return TypeNewSessionTicket
}

// Marshal encodes the Handshake.
func (m *MessageNewSessionTicket) Marshal() ([]byte, error) {
	out := make([]byte, 4+2)
	binary.BigEndian.PutUint32(out[0:4], m.LifetimeHint)
	binary.BigEndian.PutUint16(out[4:6], uint16(len(m.Ticket)))
	return append(out, m.Ticket...), nil
}

// Unmarshal populates the message from encoded data.
func (m *MessageNewSessionTicket) Unmarshal(data []byte) error {
	if len(data) < 6 {
		return errBufferTooSmall
	}
	m.LifetimeHint = binary.BigEndian.Uint32(data[0:4])
	n := int(binary.BigEndian.Uint16(data[4:6]))
	if len(data) != 6+n {
		return errBufferTooSmall
	}
	m.Ticket = append([]byte{}, data[6:6+n]...)
	return nil
}

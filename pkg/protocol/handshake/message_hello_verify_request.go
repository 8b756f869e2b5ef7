// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import "github.com/pionwire/dtls-endpoint/pkg/protocol"

// MessageHelloVerifyRequest is sent by the responder to require the
// initiator to demonstrate reachability at its claimed address before any
// per-peer state is allocated, RFC 6347 Section 4.2.1.
type MessageHelloVerifyRequest struct {
	Version protocol.Version
	Cookie  []byte
}

// Type returns the Handshake Type.
func (m MessageHelloVerifyRequest) Type() Type {
	return TypeHelloVerifyRequest
}

// Marshal encodes the Handshake.
func (m *MessageHelloVerifyRequest) Marshal() ([]byte, error) {
	if len(m.Cookie) > 255 {
		return nil, errInvalidCookieLength
	}
	out := []byte{m.Version.Major, m.Version.Minor, byte(len(m.Cookie))}
	return append(out, m.Cookie...), nil
}

// Unmarshal populates the message from encoded data.
func (m *MessageHelloVerifyRequest) Unmarshal(data []byte) error {
	if len(data) < 3 {
		return errBufferTooSmall
	}
	m.Version.Major = data[0]
	m.Version.Minor = data[1]

	n := int(data[2])
	if len(data) < 3+n {
		return errBufferTooSmall
	}
	m.Cookie = append([]byte{}, data[3:3+n]...)
	return nil
}

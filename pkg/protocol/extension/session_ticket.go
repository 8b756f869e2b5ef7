// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

// SessionTicket is the SessionTicket TLS extension, RFC 5077. Per spec §1
// ("No session resumption via ticket reuse"), this library parses it when a
// peer sends it but never advertises it, and a NewSessionTicket handshake
// message is never acted on (see handshake.MessageNewSessionTicket).
type SessionTicket struct {
	Ticket []byte
}

// TypeValue returns the extension's wire type value.
func (s SessionTicket) TypeValue() TypeValue {
	return SessionTicketTypeValue
}

// Marshal encodes the extension body.
func (s *SessionTicket) Marshal() ([]byte, error) {
	return append([]byte{}, s.Ticket...), nil
}

// Unmarshal decodes the extension body.
func (s *SessionTicket) Unmarshal(data []byte) error {
	s.Ticket = append([]byte{}, data...)
	return nil
}

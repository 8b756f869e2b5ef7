// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

// MessageServerHelloDone marks the end of the responder's first flight,
// RFC 5246 Section 7.4.5. It carries no body.
type MessageServerHelloDone struct{}

// Type returns the Handshake Type.
func (m MessageServerHelloDone) Type() Type {
	return TypeServerHelloDone
}

// Marshal encodes the Handshake.
func (m *MessageServerHelloDone) Marshal() ([]byte, error) {
	return []byte{}, nil
}

// Unmarshal populates the message from encoded data.
func (m *MessageServerHelloDone) Unmarshal(data []byte) error {
	if len(data) != 0 {
		return errLengthMismatch
	}
	return nil
}

// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

// MessageCertificate carries the peer's DER certificate chain, RFC 5246
// Section 7.4.2. PEM parsing and chain validation are external collaborators
// per spec §1/§6; this type only moves opaque DER bytes.
type MessageCertificate struct {
	Certificate [][]byte
}

// Type returns the Handshake Type.
func (m MessageCertificate) Type() Type {
	return TypeCertificate
}

func put24(out []byte, v int) []byte {
	b := make([]byte, 3)
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
	return append(out, b...)
}

func get24(data []byte) int {
	return int(data[0])<<16 | int(data[1])<<8 | int(data[2])
}

// Marshal encodes the Handshake.
func (m *MessageCertificate) Marshal() ([]byte, error) {
	var certsBody []byte
	for _, cert := range m.Certificate {
		certsBody = put24(certsBody, len(cert))
		certsBody = append(certsBody, cert...)
	}

	out := put24(nil, len(certsBody))
	return append(out, certsBody...), nil
}

// Unmarshal populates the message from encoded data.
func (m *MessageCertificate) Unmarshal(data []byte) error {
	if len(data) < 3 {
		return errBufferTooSmall
	}
	declared := get24(data)
	data = data[3:]
	if declared > len(data) {
		return errLengthMismatch
	}
	data = data[:declared]

	for len(data) != 0 {
		if len(data) < 3 {
			return errBufferTooSmall
		}
		n := get24(data)
		data = data[3:]
		if n > len(data) {
			return errLengthMismatch
		}
		m.Certificate = append(m.Certificate, append([]byte{}, data[:n]...))
		data = data[n:]
	}

	if m.Certificate == nil {
		m.Certificate = [][]byte{}
	}
	return nil
}

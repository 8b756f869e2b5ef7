// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"encoding/binary"

	"github.com/pionwire/dtls-endpoint/pkg/crypto/signaturehash"
)

// ClientCertificateType identifies an acceptable client certificate
// signature type, RFC 5246 Section 7.4.4.
type ClientCertificateType byte

// Client certificate types this library can request/provide.
const (
	ClientCertificateTypeRSASign   ClientCertificateType = 1
	ClientCertificateTypeECDSASign ClientCertificateType = 64
)

// MessageCertificateRequest is sent by the responder to request a client
// certificate, RFC 5246 Section 7.4.4.
type MessageCertificateRequest struct {
	CertificateTypes            []ClientCertificateType
	SignatureHashAlgorithms     []signaturehash.Algorithm
	CertificateAuthoritiesNames [][]byte
}

// Type returns the Handshake Type.
func (m MessageCertificateRequest) Type() Type {
	return TypeCertificateRequest
}

// Marshal encodes the Handshake.
func (m *MessageCertificateRequest) Marshal() ([]byte, error) {
	out := []byte{byte(len(m.CertificateTypes))}
	for _, t := range m.CertificateTypes {
		out = append(out, byte(t))
	}

	out = append(out, 0x00, 0x00)
	binary.BigEndian.PutUint16(out[len(out)-2:], uint16(len(m.SignatureHashAlgorithms)*2))
	for _, a := range m.SignatureHashAlgorithms {
		out = append(out, byte(a.Hash), byte(a.Signature))
	}

	var caBody []byte
	for _, ca := range m.CertificateAuthoritiesNames {
		caBody = append(caBody, 0x00, 0x00)
		binary.BigEndian.PutUint16(caBody[len(caBody)-2:], uint16(len(ca)))
		caBody = append(caBody, ca...)
	}
	out = append(out, 0x00, 0x00)
	binary.BigEndian.PutUint16(out[len(out)-2:], uint16(len(caBody)))
	return append(out, caBody...), nil
}

// Unmarshal populates the message from encoded data.
func (m *MessageCertificateRequest) Unmarshal(data []byte) error {
	if len(data) < 1 {
		return errBufferTooSmall
	}
	n := int(data[0])
	offset := 1
	if len(data) < offset+n {
		return errBufferTooSmall
	}
	for i := 0; i < n; i++ {
		m.CertificateTypes = append(m.CertificateTypes, ClientCertificateType(data[offset+i]))
	}
	offset += n

	if len(data) < offset+2 {
		return errBufferTooSmall
	}
	sigBytes := int(binary.BigEndian.Uint16(data[offset:]))
	offset += 2
	if len(data) < offset+sigBytes {
		return errBufferTooSmall
	}
	for i := 0; i+1 < sigBytes; i += 2 {
		m.SignatureHashAlgorithms = append(m.SignatureHashAlgorithms, signaturehash.Algorithm{
			Hash:      signaturehash.Hash(data[offset+i]),
			Signature: signaturehash.Signature(data[offset+i+1]),
		})
	}
	offset += sigBytes

	if len(data) < offset+2 {
		return errBufferTooSmall
	}
	caBytes := int(binary.BigEndian.Uint16(data[offset:]))
	offset += 2
	if len(data) < offset+caBytes {
		return errBufferTooSmall
	}
	end := offset + caBytes
	for offset < end {
		if end-offset < 2 {
			return errBufferTooSmall
		}
		caLen := int(binary.BigEndian.Uint16(data[offset:]))
		offset += 2
		if offset+caLen > end {
			return errBufferTooSmall
		}
		m.CertificateAuthoritiesNames = append(m.CertificateAuthoritiesNames, append([]byte{}, data[offset:offset+caLen]...))
		offset += caLen
	}

	return nil
}

// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import (
	"encoding/binary"

	"github.com/pionwire/dtls-endpoint/pkg/crypto/signaturehash"
)

// SupportedSignatureAlgorithms is the signature_algorithms extension,
// RFC 5246 Section 7.4.1.4.1.
type SupportedSignatureAlgorithms struct {
	SignatureHashAlgorithms []signaturehash.Algorithm
}

// TypeValue returns the extension's wire type value.
func (s SupportedSignatureAlgorithms) TypeValue() TypeValue {
	return SupportedSignatureAlgorithmsType
}

// Marshal encodes the extension body.
func (s *SupportedSignatureAlgorithms) Marshal() ([]byte, error) {
	out := make([]byte, 2)
	for _, a := range s.SignatureHashAlgorithms {
		out = append(out, byte(a.Hash), byte(a.Signature))
	}
	binary.BigEndian.PutUint16(out[0:2], uint16(len(out)-2))
	return out, nil
}

// Unmarshal decodes the extension body.
func (s *SupportedSignatureAlgorithms) Unmarshal(data []byte) error {
	if len(data) < 2 {
		return errBufferTooSmall
	}
	declared := int(binary.BigEndian.Uint16(data[0:2]))
	data = data[2:]
	if declared > len(data) {
		return errLengthMismatch
	}
	for i := 0; i+1 < declared; i += 2 {
		s.SignatureHashAlgorithms = append(s.SignatureHashAlgorithms, signaturehash.Algorithm{
			Hash:      signaturehash.Hash(data[i]),
			Signature: signaturehash.Signature(data[i+1]),
		})
	}
	return nil
}

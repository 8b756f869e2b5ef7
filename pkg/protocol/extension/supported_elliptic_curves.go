// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import (
	"encoding/binary"

	"github.com/pionwire/dtls-endpoint/pkg/crypto/elliptic"
)

// SupportedEllipticCurves is the elliptic_curves extension, RFC 8422
// Section 5.1.1.
type SupportedEllipticCurves struct {
	EllipticCurves []elliptic.Curve
}

// TypeValue returns the extension's wire type value.
func (s SupportedEllipticCurves) TypeValue() TypeValue {
	return SupportedEllipticCurvesTypeValue
}

// Marshal encodes the extension body.
func (s *SupportedEllipticCurves) Marshal() ([]byte, error) {
	out := make([]byte, 2)
	for _, c := range s.EllipticCurves {
		out = append(out, 0x00, 0x00)
		binary.BigEndian.PutUint16(out[len(out)-2:], uint16(c))
	}
	binary.BigEndian.PutUint16(out[0:2], uint16(len(out)-2))
	return out, nil
}

// Unmarshal decodes the extension body.
func (s *SupportedEllipticCurves) Unmarshal(data []byte) error {
	if len(data) < 2 {
		return errBufferTooSmall
	}
	declared := int(binary.BigEndian.Uint16(data[0:2]))
	data = data[2:]
	if declared > len(data) {
		return errLengthMismatch
	}
	for i := 0; i+1 < declared; i += 2 {
		s.EllipticCurves = append(s.EllipticCurves, elliptic.Curve(binary.BigEndian.Uint16(data[i:i+2])))
	}
	return nil
}

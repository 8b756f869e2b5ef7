// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import "github.com/pionwire/dtls-endpoint/pkg/crypto/elliptic"

// SupportedPointFormats is the ec_point_formats extension, RFC 8422
// Section 5.1.2. This library only ever advertises/accepts Uncompressed.
type SupportedPointFormats struct {
	PointFormats []elliptic.CurvePointFormat
}

// TypeValue returns the extension's wire type value.
func (s SupportedPointFormats) TypeValue() TypeValue {
	return SupportedPointFormatsTypeValue
}

// Marshal encodes the extension body.
func (s *SupportedPointFormats) Marshal() ([]byte, error) {
	out := []byte{byte(len(s.PointFormats))}
	for _, p := range s.PointFormats {
		out = append(out, byte(p))
	}
	return out, nil
}

// Unmarshal decodes the extension body.
func (s *SupportedPointFormats) Unmarshal(data []byte) error {
	if len(data) < 1 {
		return errBufferTooSmall
	}
	n := int(data[0])
	if len(data) < 1+n {
		return errLengthMismatch
	}
	for i := 0; i < n; i++ {
		s.PointFormats = append(s.PointFormats, elliptic.CurvePointFormat(data[1+i]))
	}
	return nil
}

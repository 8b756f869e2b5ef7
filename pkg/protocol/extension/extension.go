// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package extension implements the Hello-message extension codec of spec
// §4.1: EllipticCurves, EllipticCurvePointFormats, SignatureAlgorithms,
// ExtendedMasterSecret, EncryptThenMAC, SessionTicketTLS,
// ClientCertificateType, ServerCertificateType and ServerName.
package extension

import "encoding/binary"

// TypeValue is the 16-bit extension type field, RFC 6066.
type TypeValue uint16

// Extension type values this library recognizes.
const (
	SupportedEllipticCurvesTypeValue  TypeValue = 10
	SupportedPointFormatsTypeValue    TypeValue = 11
	SupportedSignatureAlgorithmsType  TypeValue = 13
	UseSRTPTypeValue                  TypeValue = 14
	ALPNTypeValue                     TypeValue = 16
	UseExtendedMasterSecretTypeValue  TypeValue = 23
	SessionTicketTypeValue            TypeValue = 35
	EncryptThenMACTypeValue           TypeValue = 22
	RenegotiationInfoTypeValue        TypeValue = 0xff01
	ServerNameTypeValue               TypeValue = 0
	ClientCertificateTypeTypeValue    TypeValue = 19
	ServerCertificateTypeTypeValue    TypeValue = 20
)

// Extension is implemented by every extension payload this library parses
// or emits.
type Extension interface {
	TypeValue() TypeValue
	Marshal() ([]byte, error)
	Unmarshal(data []byte) error
}

// Marshal encodes a list of Extensions into the wire `extensions` vector
// (2-byte total length prefix, then a sequence of {type:2, len:2, body}).
func Marshal(e []Extension) ([]byte, error) {
	out := []byte{0x00, 0x00}
	for _, ext := range e {
		body, err := ext.Marshal()
		if err != nil {
			return nil, err
		}

		raw := make([]byte, 4+len(body))
		binary.BigEndian.PutUint16(raw[0:2], uint16(ext.TypeValue()))
		binary.BigEndian.PutUint16(raw[2:4], uint16(len(body)))
		copy(raw[4:], body)
		out = append(out, raw...)
	}

	binary.BigEndian.PutUint16(out[0:2], uint16(len(out)-2))
	return out, nil
}

// Unmarshal decodes the wire `extensions` vector into a list of Extensions.
// Unknown extension types are skipped rather than rejected, matching the
// liberal-parsing posture the rest of the codec takes for optional fields.
func Unmarshal(data []byte) ([]Extension, error) {
	if len(data) < 2 {
		return nil, errBufferTooSmall
	}

	declared := binary.BigEndian.Uint16(data[0:2])
	data = data[2:]
	if int(declared) > len(data) {
		return nil, errLengthMismatch
	}
	data = data[:declared]

	out := []Extension{}
	for len(data) != 0 {
		if len(data) < 4 {
			return nil, errBufferTooSmall
		}
		typeValue := TypeValue(binary.BigEndian.Uint16(data[0:2]))
		length := binary.BigEndian.Uint16(data[2:4])
		if int(length) > len(data)-4 {
			return nil, errLengthMismatch
		}
		body := data[4 : 4+length]

		ext, err := newExtension(typeValue)
		if err == nil {
			if uErr := ext.Unmarshal(body); uErr != nil {
				return nil, uErr
			}
			out = append(out, ext)
		}

		data = data[4+length:]
	}

	return out, nil
}

func newExtension(t TypeValue) (Extension, error) {
	switch t {
	case SupportedEllipticCurvesTypeValue:
		return &SupportedEllipticCurves{}, nil
	case SupportedPointFormatsTypeValue:
		return &SupportedPointFormats{}, nil
	case SupportedSignatureAlgorithmsType:
		return &SupportedSignatureAlgorithms{}, nil
	case UseExtendedMasterSecretTypeValue:
		return &UseExtendedMasterSecret{}, nil
	case EncryptThenMACTypeValue:
		return &EncryptThenMAC{}, nil
	case SessionTicketTypeValue:
		return &SessionTicket{}, nil
	case ServerNameTypeValue:
		return &ServerName{}, nil
	case ClientCertificateTypeTypeValue:
		return &ClientCertificateType{}, nil
	case ServerCertificateTypeTypeValue:
		return &ServerCertificateType{}, nil
	case RenegotiationInfoTypeValue:
		return &RenegotiationInfo{}, nil
	default:
		return nil, errInvalidExtensionType
	}
}

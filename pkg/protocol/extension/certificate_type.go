// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

// CertificateType identifies the wire representation of a certificate, RFC
// 7250. This library only ever negotiates X.509 (value 0); raw public keys
// are out of scope per spec §1.
type CertificateType byte

// CertificateTypeX509 is the only certificate type this library negotiates.
const CertificateTypeX509 CertificateType = 0

// ClientCertificateType is the client_certificate_type extension.
type ClientCertificateType struct {
	CertificateTypes []CertificateType
}

// TypeValue returns the extension's wire type value.
func (c ClientCertificateType) TypeValue() TypeValue {
	return ClientCertificateTypeTypeValue
}

// Marshal encodes the extension body.
func (c *ClientCertificateType) Marshal() ([]byte, error) {
	out := []byte{byte(len(c.CertificateTypes))}
	for _, t := range c.CertificateTypes {
		out = append(out, byte(t))
	}
	return out, nil
}

// Unmarshal decodes the extension body.
func (c *ClientCertificateType) Unmarshal(data []byte) error {
	return unmarshalCertificateTypeList(data, &c.CertificateTypes)
}

// ServerCertificateType is the server_certificate_type extension.
type ServerCertificateType struct {
	CertificateTypes []CertificateType
}

// TypeValue returns the extension's wire type value.
func (s ServerCertificateType) TypeValue() TypeValue {
	return ServerCertificateTypeTypeValue
}

// Marshal encodes the extension body.
func (s *ServerCertificateType) Marshal() ([]byte, error) {
	out := []byte{byte(len(s.CertificateTypes))}
	for _, t := range s.CertificateTypes {
		out = append(out, byte(t))
	}
	return out, nil
}

// Unmarshal decodes the extension body.
func (s *ServerCertificateType) Unmarshal(data []byte) error {
	return unmarshalCertificateTypeList(data, &s.CertificateTypes)
}

func unmarshalCertificateTypeList(data []byte, out *[]CertificateType) error {
	if len(data) < 1 {
		return errBufferTooSmall
	}
	n := int(data[0])
	if len(data) < 1+n {
		return errLengthMismatch
	}
	for i := 0; i < n; i++ {
		*out = append(*out, CertificateType(data[1+i]))
	}
	return nil
}

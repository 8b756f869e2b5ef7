// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import "encoding/binary"

const serverNameTypeHostName = 0

// ServerName is the server_name extension, RFC 6066 Section 3.
type ServerName struct {
	ServerName string
}

// TypeValue returns the extension's wire type value.
func (s ServerName) TypeValue() TypeValue {
	return ServerNameTypeValue
}

// Marshal encodes the extension body.
func (s *ServerName) Marshal() ([]byte, error) {
	name := []byte(s.ServerName)

	out := make([]byte, 2+1+2)
	binary.BigEndian.PutUint16(out[0:2], uint16(1+2+len(name)))
	out[2] = serverNameTypeHostName
	binary.BigEndian.PutUint16(out[3:5], uint16(len(name)))
	return append(out, name...), nil
}

// Unmarshal decodes the extension body.
func (s *ServerName) Unmarshal(data []byte) error {
	if len(data) < 5 {
		return errBufferTooSmall
	}
	if data[2] != serverNameTypeHostName {
		return errInvalidExtensionType
	}
	n := int(binary.BigEndian.Uint16(data[3:5]))
	if len(data) < 5+n {
		return errLengthMismatch
	}
	s.ServerName = string(data[5 : 5+n])
	return nil
}

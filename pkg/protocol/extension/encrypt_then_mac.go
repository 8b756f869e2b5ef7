// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

// EncryptThenMAC is the encrypt_then_mac extension, RFC 7366. This library
// parses it when a peer sends it but never advertises it, and its CBC
// suites always compute MAC-then-encrypt per spec §4.2; a parsed
// EncryptThenMAC never changes the CBC construction used.
type EncryptThenMAC struct {
	Supported bool
}

// TypeValue returns the extension's wire type value.
func (e EncryptThenMAC) TypeValue() TypeValue {
	return EncryptThenMACTypeValue
}

// Marshal encodes the extension body (always empty on the wire).
func (e *EncryptThenMAC) Marshal() ([]byte, error) {
	return []byte{}, nil
}

// Unmarshal decodes the extension body; its mere presence implies support.
func (e *EncryptThenMAC) Unmarshal(_ []byte) error {
	e.Supported = true
	return nil
}

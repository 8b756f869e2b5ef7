// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

// RenegotiationInfo is the renegotiation_info extension, RFC 5746. Per
// spec §1 ("No renegotiation"), this library never renegotiates; it parses
// the extension when a peer sends it, but neither advertises it nor checks
// the renegotiated_connection value it carries.
type RenegotiationInfo struct {
	RenegotiatedConnection byte
}

// TypeValue returns the extension's wire type value.
func (r RenegotiationInfo) TypeValue() TypeValue {
	return RenegotiationInfoTypeValue
}

// Marshal encodes the extension body.
func (r *RenegotiationInfo) Marshal() ([]byte, error) {
	return []byte{r.RenegotiatedConnection}, nil
}

// Unmarshal decodes the extension body.
func (r *RenegotiationInfo) Unmarshal(data []byte) error {
	if len(data) < 1 {
		return errBufferTooSmall
	}
	r.RenegotiatedConnection = data[0]
	return nil
}

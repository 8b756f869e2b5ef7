// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

// UseExtendedMasterSecret is the extended_master_secret extension,
// RFC 7627. Its presence (empty body) selects the extended master-secret
// derivation in C2.
type UseExtendedMasterSecret struct {
	Supported bool
}

// TypeValue returns the extension's wire type value.
func (u UseExtendedMasterSecret) TypeValue() TypeValue {
	return UseExtendedMasterSecretTypeValue
}

// Marshal encodes the extension body (always empty on the wire).
func (u *UseExtendedMasterSecret) Marshal() ([]byte, error) {
	return []byte{}, nil
}

// Unmarshal decodes the extension body; its mere presence implies support.
func (u *UseExtendedMasterSecret) Unmarshal(_ []byte) error {
	u.Supported = true
	return nil
}

// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package protocol

// ApplicationData represents the content of an ApplicationData record,
// RFC 6347 Section 4.1. It carries opaque user bytes once the record layer's
// cipher has already decrypted the fragment.
type ApplicationData struct {
	Data []byte
}

// ContentType returns the content type of an ApplicationData record.
func (a ApplicationData) ContentType() ContentType {
	return ContentTypeApplicationData
}

// Marshal encodes the ApplicationData content.
func (a *ApplicationData) Marshal() ([]byte, error) {
	return append([]byte{}, a.Data...), nil
}

// Unmarshal populates the ApplicationData content from wire bytes.
func (a *ApplicationData) Unmarshal(data []byte) error {
	a.Data = append([]byte{}, data...)
	return nil
}

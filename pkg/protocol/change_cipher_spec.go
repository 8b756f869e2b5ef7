// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package protocol

// ChangeCipherSpec is the single-byte ChangeCipherSpec content, RFC 6347
// Section 4.2.2's epoch-bump signal: the sender is about to switch to the
// pending CipherState for all records at epoch+1.
type ChangeCipherSpec struct{}

// ContentType returns the content type of a ChangeCipherSpec record.
func (c ChangeCipherSpec) ContentType() ContentType {
	return ContentTypeChangeCipherSpec
}

// Marshal encodes the ChangeCipherSpec content: a single byte, value 1.
func (c *ChangeCipherSpec) Marshal() ([]byte, error) {
	return []byte{1}, nil
}

// Unmarshal populates the ChangeCipherSpec content from wire bytes.
func (c *ChangeCipherSpec) Unmarshal(data []byte) error {
	if len(data) != 1 || data[0] != 1 {
		return errInvalidChangeCipherSpec
	}
	return nil
}

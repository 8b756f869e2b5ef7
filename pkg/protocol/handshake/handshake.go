// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package handshake implements the DTLS handshake layer: the 12-byte
// fragment header (RFC 6347 Section 4.2.2) and every handshake message kind
// this library negotiates.
package handshake

// Handshake is a record-layer Content wrapping a single (possibly
// fragmented) handshake Message.
type Handshake struct {
	Header  Header
	Message Message
}

// Message is implemented by every concrete handshake message type.
type Message interface {
	Type() Type
	Marshal() ([]byte, error)
	Unmarshal(data []byte) error
}

// Marshal encodes the full Handshake, fragmenting per the Header's Offset/
// Length fields (a single Handshake value always represents one fragment;
// the caller is responsible for slicing a logical message into several
// Handshake values when it exceeds the MTU, see the fragmentation helper in
// the top-level package).
func (h *Handshake) Marshal() ([]byte, error) {
	if h.Message == nil {
		return nil, errHandshakeMessageUnset
	}

	body, err := h.Message.Marshal()
	if err != nil {
		return nil, err
	}

	h.Header.Type = h.Message.Type()
	if h.Header.Length == 0 {
		h.Header.Length = uint32(len(body))
	}
	if h.Header.FragmentLength == 0 {
		h.Header.FragmentLength = uint32(len(body))
	}

	header, err := h.Header.Marshal()
	if err != nil {
		return nil, err
	}

	return append(header, body...), nil
}

// Unmarshal decodes a Handshake fragment. The Message field must already
// carry a zero-value of the correct concrete type, selected by the caller
// from the decoded Header.Type (see messageFromType below).
func (h *Handshake) Unmarshal(data []byte) error {
	if err := h.Header.Unmarshal(data); err != nil {
		return err
	}

	reportedLen := len(data) - h.Header.Size()
	if uint32(reportedLen) < h.Header.FragmentLength {
		return errLengthMismatch
	}
	fragment := data[h.Header.Size() : h.Header.Size()+int(h.Header.FragmentLength)]

	if h.Message == nil {
		msg, err := messageFromType(h.Header.Type)
		if err != nil {
			return err
		}
		h.Message = msg
	}

	return h.Message.Unmarshal(fragment)
}

// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package recordlayer

import "errors"

var (
	errBufferTooSmall         = errors.New("recordlayer: buffer too small to unmarshal header")
	errSequenceNumberOverflow = errors.New("recordlayer: sequence number exceeds 48 bits")
	errInvalidPacketLength    = errors.New("recordlayer: declared fragment length exceeds remaining datagram")
)

// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import "errors"

var (
	errBufferTooSmall       = errors.New("extension: buffer too small to unmarshal")
	errLengthMismatch       = errors.New("extension: declared length exceeds remaining buffer")
	errInvalidExtensionType = errors.New("extension: unsupported extension type")
)

// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package fragmentbuffer

import "errors"

var (
	errBufferTooSmall   = errors.New("fragmentbuffer: buffer too small to unmarshal")
	errFragmentOverflow = errors.New("fragmentbuffer: pending bytes exceed the per-peer cap")
)

// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package elliptic

import "errors"

var errUnsupportedCurve = errors.New("elliptic: unsupported named curve")

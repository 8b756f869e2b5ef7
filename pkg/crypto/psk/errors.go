// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package psk

import "errors"

var (
	errUnknownIdentity         = errors.New("psk: unknown identity")
	errNoIdentitiesConfigured  = errors.New("psk: store has no identities configured")
)

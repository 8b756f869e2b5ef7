// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import "errors"

var (
	errCipherSuiteNotFound   = errors.New("ciphersuite: unknown cipher suite ID")
	errNoMutualCipherSuite   = errors.New("ciphersuite: no mutually supported cipher suite")
	errNotEnoughRoomForNonce = errors.New("ciphersuite: payload too small to contain explicit nonce")
	errInvalidMAC            = errors.New("ciphersuite: BadRecordMac")
	errCipherNotInitialized  = errors.New("ciphersuite: cipher not yet initialized")
	errNonceMismatch         = errors.New("ciphersuite: decrypted nonce does not match record epoch/sequence")
)

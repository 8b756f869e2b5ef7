// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package signaturehash

import "errors"

var (
	errInsecureHashAlgorithm      = errors.New("signaturehash: SHA-1 requires InsecureHashes")
	errNoAvailableSignatureScheme = errors.New("signaturehash: no mutually supported signature algorithm")
	errUnsupportedSigningKey      = errors.New("signaturehash: unsupported private/public key type")
	errVerificationFailed         = errors.New("signaturehash: signature verification failed")
)

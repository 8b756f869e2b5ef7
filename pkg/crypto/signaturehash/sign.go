// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package signaturehash

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // SHA-1 is one of the negotiable signature hashes
	"crypto/sha256"
)

func (a Algorithm) cryptoHash() crypto.Hash {
	switch a.Hash {
	case HashSHA256:
		return crypto.SHA256
	default:
		return crypto.SHA1
	}
}

func (a Algorithm) digest(msg []byte) []byte {
	switch a.Hash {
	case HashSHA256:
		sum := sha256.Sum256(msg)
		return sum[:]
	default:
		sum := sha1.Sum(msg) //nolint:gosec
		return sum[:]
	}
}

// Sign produces a CertificateVerify signature over msg (the running
// transcript hash) under the given Algorithm and private key handle.
func Sign(signer crypto.Signer, alg Algorithm, msg []byte) ([]byte, error) {
	digest := alg.digest(msg)

	switch signer.Public().(type) {
	case *rsa.PublicKey, *ecdsa.PublicKey:
		return signer.Sign(rand.Reader, digest, alg.cryptoHash())
	default:
		return nil, errUnsupportedSigningKey
	}
}

// Verify checks a CertificateVerify signature against the peer's public key.
func Verify(pub crypto.PublicKey, alg Algorithm, msg, sig []byte) error {
	digest := alg.digest(msg)

	switch key := pub.(type) {
	case *rsa.PublicKey:
		return rsa.VerifyPKCS1v15(key, alg.cryptoHash(), digest, sig)
	case *ecdsa.PublicKey:
		if !ecdsa.VerifyASN1(key, digest, sig) {
			return errVerificationFailed
		}
		return nil
	default:
		return errUnsupportedSigningKey
	}
}

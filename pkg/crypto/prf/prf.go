// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package prf is the C2 crypto façade's pseudo-random-function layer:
// P_hash/HMAC-SHA256 for DTLS 1.2, the legacy MD5/SHA-1 split for DTLS 1.0,
// master-secret and key-block derivation, and the PSK/RSA premaster
// constructions of spec §4.2.
package prf

import (
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // required for the DTLS 1.0 legacy PRF
	"crypto/sha1" //nolint:gosec // required for the DTLS 1.0 legacy PRF
	"hash"
)

const masterSecretLength = 48

// HashFunc constructs the underlying hash for P_hash. DTLS 1.2 always uses
// SHA-256 regardless of cipher suite (RFC 5246 Section 5); only the legacy
// DTLS 1.0 PRF differs structurally.
type HashFunc func() hash.Hash

// pHash implements RFC 5246 Section 5's P_hash(secret, seed) expansion to
// nBytes using the given HMAC hash constructor.
func pHash(secret, seed []byte, nBytes int, h HashFunc) ([]byte, error) {
	hmacHash := hmac.New(h, secret)

	var aRun []byte
	aRun = append(aRun, seed...)

	out := []byte{}
	for len(out) < nBytes {
		hmacHash.Reset()
		if _, err := hmacHash.Write(aRun); err != nil {
			return nil, err
		}
		aRun = hmacHash.Sum(nil)

		hmacHash.Reset()
		if _, err := hmacHash.Write(aRun); err != nil {
			return nil, err
		}
		if _, err := hmacHash.Write(seed); err != nil {
			return nil, err
		}
		out = append(out, hmacHash.Sum(nil)...)
	}

	return out[:nBytes], nil
}

// legacyPRF implements the DTLS 1.0/TLS 1.0 PRF: the secret is split in
// half, P_MD5 and P_SHA1 are each run over a half, and the results are
// XORed together (RFC 2246 Section 5).
func legacyPRF(secret, label, seed []byte, nBytes int) ([]byte, error) {
	full := append(append([]byte{}, label...), seed...)

	half := (len(secret) + 1) / 2
	s1 := secret[:half]
	s2 := secret[len(secret)-half:]

	md5Out, err := pHash(s1, full, nBytes, md5.New) //nolint:gosec
	if err != nil {
		return nil, err
	}
	sha1Out, err := pHash(s2, full, nBytes, sha1.New) //nolint:gosec
	if err != nil {
		return nil, err
	}

	out := make([]byte, nBytes)
	for i := range out {
		out[i] = md5Out[i] ^ sha1Out[i]
	}
	return out, nil
}

// PRF is the C2 façade entry point: PRF(secret, label, seed, nBytes). When
// hashFunc is nil the legacy DTLS 1.0 split PRF is used; otherwise P_hash
// runs with the given hash (DTLS 1.2 always passes sha256.New).
func PRF(secret, label, seed []byte, nBytes int, hashFunc HashFunc) ([]byte, error) {
	if hashFunc == nil {
		return legacyPRF(secret, label, seed, nBytes)
	}

	full := append(append([]byte{}, label...), seed...)
	return pHash(secret, full, nBytes, hashFunc)
}

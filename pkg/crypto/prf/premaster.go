// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package prf

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/pionwire/dtls-endpoint/pkg/crypto/elliptic"
)

// ECDHEPreMasterSecret computes the ECDH shared secret to use directly as
// the premaster for ECDHE_ECDSA, RFC 8422 Section 5.11.
func ECDHEPreMasterSecret(peerPublicKey []byte, local *elliptic.KeyPair) ([]byte, error) {
	return local.SharedSecret(peerPublicKey)
}

// PSKPreMasterSecret assembles the PSK premaster of spec §4.2:
// len(other_secret):u16 || other_secret || len(psk):u16 || psk. For pure
// PSK, otherSecret is a zero buffer the same length as psk (RFC 4279
// Section 2); for ECDHE_PSK, otherSecret is the ECDH shared secret.
func PSKPreMasterSecret(psk, otherSecret []byte) []byte {
	out := make([]byte, 2, 2+len(otherSecret)+2+len(psk))
	binary.BigEndian.PutUint16(out, uint16(len(otherSecret)))
	out = append(out, otherSecret...)
	out = append(out, 0x00, 0x00)
	binary.BigEndian.PutUint16(out[len(out)-2:], uint16(len(psk)))
	return append(out, psk...)
}

// PSKOtherSecretZeros builds the zero-filled other_secret used for pure-PSK
// suites, one byte per byte of the PSK.
func PSKOtherSecretZeros(pskLen int) []byte {
	return make([]byte, pskLen)
}

// RSAPreMasterSecret generates the 48-byte RSA premaster: the first two
// bytes are the client's advertised version, the remaining 46 are CSPRNG
// output, RFC 5246 Section 7.4.7.1.
func RSAPreMasterSecret(clientVersionMajor, clientVersionMinor byte) ([]byte, error) {
	out := make([]byte, masterSecretLength)
	out[0] = clientVersionMajor
	out[1] = clientVersionMinor
	if _, err := rand.Read(out[2:]); err != nil {
		return nil, err
	}
	return out, nil
}

// Zero overwrites a premaster secret buffer in place once it has been
// consumed (spec §4.2: "the pre-master is zeroed after use").
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

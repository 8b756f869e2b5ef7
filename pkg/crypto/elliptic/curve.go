// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package elliptic is the C2 ECDHE façade: named-curve identifiers, point
// formats, and ephemeral keypair generation/shared-secret computation for
// the curves this library negotiates.
package elliptic

// Curve is a TLS NamedCurve identifier, RFC 8422 Section 5.1.1. Per spec
// §4.5, this library advertises every supported curve up through, but not
// including, secp521r1.
type Curve uint16

// Curve identifiers this library negotiates.
const (
	P256    Curve = 23
	P384    Curve = 24
	X25519  Curve = 29
)

// SupportedCurves is the ordered advertisement list for ClientHello's
// elliptic_curves extension.
func SupportedCurves() []Curve {
	return []Curve{X25519, P256, P384}
}

// CurvePointFormat is an EC point format, RFC 8422 Section 5.1.2.
type CurvePointFormat byte

// CurvePointFormatUncompressed is the only point format this library
// advertises or accepts.
const CurvePointFormatUncompressed CurvePointFormat = 0

// KeyPair is an ephemeral ECDHE keypair plus the peer computation needed to
// derive a shared secret.
type KeyPair struct {
	Curve      Curve
	PublicKey  []byte
	privateKey []byte
}

// GenerateKeypair creates an ephemeral keypair on the given curve.
func GenerateKeypair(curve Curve) (*KeyPair, error) {
	switch curve {
	case X25519:
		return generateX25519Keypair()
	case P256:
		return generateNISTKeypair(p256Curve{})
	case P384:
		return generateNISTKeypair(p384Curve{})
	default:
		return nil, errUnsupportedCurve
	}
}

// SharedSecret computes the ECDH shared secret given the peer's public key.
func (k *KeyPair) SharedSecret(peerPublicKey []byte) ([]byte, error) {
	switch k.Curve {
	case X25519:
		return x25519SharedSecret(k.privateKey, peerPublicKey)
	case P256:
		return nistSharedSecret(p256Curve{}, k.privateKey, peerPublicKey)
	case P384:
		return nistSharedSecret(p384Curve{}, k.privateKey, peerPublicKey)
	default:
		return nil, errUnsupportedCurve
	}
}

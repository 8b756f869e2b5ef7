// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package elliptic

import (
	"crypto/ecdh"
	"crypto/rand"
)

type nistCurve interface {
	ecdhCurve() ecdh.Curve
}

type p256Curve struct{}

func (p256Curve) ecdhCurve() ecdh.Curve { return ecdh.P256() }

type p384Curve struct{}

func (p384Curve) ecdhCurve() ecdh.Curve { return ecdh.P384() }

func generateNISTKeypair(c nistCurve) (*KeyPair, error) {
	curve := c.ecdhCurve()
	key, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	namedCurve := P256
	if _, ok := c.(p384Curve); ok {
		namedCurve = P384
	}

	return &KeyPair{
		Curve:      namedCurve,
		PublicKey:  key.PublicKey().Bytes(),
		privateKey: key.Bytes(),
	}, nil
}

func nistSharedSecret(c nistCurve, privBytes, peerPublic []byte) ([]byte, error) {
	curve := c.ecdhCurve()

	priv, err := curve.NewPrivateKey(privBytes)
	if err != nil {
		return nil, err
	}

	pub, err := curve.NewPublicKey(peerPublic)
	if err != nil {
		return nil, err
	}

	return priv.ECDH(pub)
}

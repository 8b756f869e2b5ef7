// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package elliptic

import (
	"crypto/rand"

	"golang.org/x/crypto/curve25519"
)

func generateX25519Keypair() (*KeyPair, error) {
	var priv [32]byte
	if _, err := rand.Read(priv[:]); err != nil {
		return nil, err
	}

	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}

	return &KeyPair{Curve: X25519, PublicKey: pub, privateKey: append([]byte{}, priv[:]...)}, nil
}

func x25519SharedSecret(priv, peerPublic []byte) ([]byte, error) {
	secret, err := curve25519.X25519(priv, peerPublic)
	if err != nil {
		return nil, err
	}
	return secret, nil
}

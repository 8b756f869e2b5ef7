// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package ciphersuite is the C2 crypto façade's bulk-cipher layer: the
// six named suites of spec §6, their AEAD/CBC+HMAC lifecycles, and the
// encode/decode operations the record layer (C4) calls on send/receive.
package ciphersuite

import (
	"hash"

	"github.com/pionwire/dtls-endpoint/pkg/protocol/recordlayer"
)

// ID is the 16-bit wire cipher-suite identifier, RFC 5246 Appendix A.5 and
// the IANA TLS Cipher Suite registry.
type ID uint16

// Cipher suite IDs this library negotiates, per spec §6.
const (
	TLS_PSK_WITH_AES_128_CBC_SHA256          ID = 0xC0A8 //nolint:revive,stylecheck
	TLS_PSK_WITH_AES_128_CCM_8               ID = 0xC0A4 //nolint:revive,stylecheck
	TLS_ECDHE_PSK_WITH_AES_128_CBC_SHA256    ID = 0xC035 //nolint:revive,stylecheck
	TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA256  ID = 0xC023 //nolint:revive,stylecheck
	TLS_ECDHE_ECDSA_WITH_AES_128_CCM_8       ID = 0xC0AE //nolint:revive,stylecheck
	TLS_RSA_WITH_AES_256_CBC_SHA             ID = 0x0035 //nolint:revive,stylecheck
)

// KeyExchangeAlgorithm tags which ClientKeyExchange/ServerKeyExchange shape
// a suite uses, mirroring the capability-interface design note of spec §9.
type KeyExchangeAlgorithm byte

// Key exchange algorithm tags.
const (
	KeyExchangePSK KeyExchangeAlgorithm = iota
	KeyExchangeECDHEECDSA
	KeyExchangeECDHEPSK
	KeyExchangeRSA
)

// CipherSuite is implemented by every negotiable suite. Encrypt/Decrypt
// implement C2's `encode`/`decode` operations; the record layer (C4) never
// touches key material directly.
type CipherSuite interface {
	ID() ID
	String() string
	KeyExchangeAlgorithm() KeyExchangeAlgorithm
	ECC() bool
	HashFunc() func() hash.Hash

	// KeyLength, IVLength and MACKeyLength report what InitCipher needs
	// carved out of the key_block, per spec §3's CipherState shape.
	KeyLength() int
	IVLength() int
	MACKeyLength() int

	// InitCipher installs local/remote (key, MAC key, IV) material derived
	// from the key_block, building the pending cipher described in spec §3.
	InitCipher(localKey, localMACKey, localIV, remoteKey, remoteMACKey, remoteIV []byte) error

	// Encrypt/Decrypt are C2's encode/decode: AAD covers
	// seq_nonce||type||version||plaintext_length for AEAD suites; CBC
	// suites MAC-then-encrypt and compare MACs in constant time.
	Encrypt(pkt *recordlayer.RecordLayer, raw []byte) ([]byte, error)
	Decrypt(h recordlayer.Header, in []byte) ([]byte, error)

	IsInitialized() bool
}

// AllSuites returns every CipherSuite this library can negotiate, in the
// order the initiator advertises them.
func AllSuites() []CipherSuite {
	return []CipherSuite{
		newECDHEECDSAWithAES128CCM8(),
		newECDHEPSKWithAES128CBCSHA256(),
		newECDHEECDSAWithAES128CBCSHA256(),
		newPSKWithAES128CCM8(),
		newPSKWithAES128CBCSHA256(),
		newRSAWithAES256CBCSHA(),
	}
}

// SuiteForID returns the CipherSuite with the given wire ID, or an error.
func SuiteForID(id ID) (CipherSuite, error) {
	for _, s := range AllSuites() {
		if s.ID() == id {
			return s, nil
		}
	}
	return nil, errCipherSuiteNotFound
}

// SelectSuite picks the first mutually supported suite from the
// initiator's offered ID list, preferring the responder's configured order.
func SelectSuite(ours []CipherSuite, offered []uint16) (CipherSuite, error) {
	for _, s := range ours {
		for _, id := range offered {
			if ID(id) == s.ID() {
				return s, nil
			}
		}
	}
	return nil, errNoMutualCipherSuite
}

// generateAEADAdditionalData builds the AEAD AAD of spec §4.2:
// seq_nonce(8) || type(1) || version(2) || length(2).
func generateAEADAdditionalData(h *recordlayer.Header, payloadLen int) []byte {
	var additionalData [13]byte
	nonce := recordlayer.ComposeNonce(h.Epoch, h.SequenceNumber)
	for i := 0; i < 8; i++ {
		additionalData[i] = byte(nonce >> (56 - 8*i))
	}
	additionalData[8] = byte(h.ContentType)
	additionalData[9] = h.Version.Major
	additionalData[10] = h.Version.Minor
	additionalData[11] = byte(payloadLen >> 8)
	additionalData[12] = byte(payloadLen)
	return additionalData[:]
}

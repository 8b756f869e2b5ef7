// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package signaturehash negotiates and applies the SignatureAlgorithms
// extension of spec §4.1, and implements C2's sign/verify façade for
// CertificateVerify: RSA and ECDSA, with ECDSA signatures always in the
// ASN.1 DER form; the raw r||s ECDSA encoding of TLS 1.0/1.1 is not
// implemented.
package signaturehash

// Hash is the hash half of a SignatureAndHashAlgorithm pair, RFC 5246
// Section 7.4.1.4.1.
type Hash byte

// Hash algorithm identifiers.
const (
	HashSHA1   Hash = 2
	HashSHA256 Hash = 4
)

// Signature is the signature half of a SignatureAndHashAlgorithm pair.
type Signature byte

// Signature algorithm identifiers.
const (
	SignatureRSA   Signature = 1
	SignatureECDSA Signature = 3
)

// Algorithm is a (hash, signature) pair as carried on the wire.
type Algorithm struct {
	Hash      Hash
	Signature Signature
}

// Open question resolution (SPEC_FULL.md): offer SHA256+ECDSA ahead of the
// source's SHA1-only RSA default, while keeping SHA1+RSA for interop.
func defaultAlgorithms() []Algorithm {
	return []Algorithm{
		{HashSHA256, SignatureECDSA},
		{HashSHA256, SignatureRSA},
		{HashSHA1, SignatureRSA},
	}
}

// DefaultAlgorithms returns the SignatureAlgorithms this library advertises
// by default.
func DefaultAlgorithms() []Algorithm {
	return defaultAlgorithms()
}

// ParseSignatureSchemes validates a caller-supplied algorithm list, falling
// back to DefaultAlgorithms when empty.
func ParseSignatureSchemes(requested []Algorithm, insecureHashes bool) ([]Algorithm, error) {
	if len(requested) == 0 {
		return defaultAlgorithms(), nil
	}
	for _, a := range requested {
		if a.Hash == HashSHA1 && !insecureHashes {
			return nil, errInsecureHashAlgorithm
		}
	}
	return requested, nil
}

// SelectSignatureScheme picks the first mutually supported algorithm from
// peerAlgorithms, preferring the order of ours.
func SelectSignatureScheme(ours, peerAlgorithms []Algorithm) (Algorithm, error) {
	for _, want := range ours {
		for _, have := range peerAlgorithms {
			if want == have {
				return want, nil
			}
		}
	}
	return Algorithm{}, errNoAvailableSignatureScheme
}

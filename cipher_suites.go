// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import "github.com/pionwire/dtls-endpoint/pkg/crypto/ciphersuite"

// CipherSuiteID is the wire cipher suite identifier a Config uses to
// restrict negotiation.
type CipherSuiteID = ciphersuite.ID

// parseCipherSuites resolves a caller-supplied ID list (in preference
// order) into concrete CipherSuite implementations, falling back to every
// suite of spec §6 when ids is empty.
func parseCipherSuites(ids []ciphersuite.ID) ([]ciphersuite.CipherSuite, error) {
	if len(ids) == 0 {
		return ciphersuite.AllSuites(), nil
	}

	out := make([]ciphersuite.CipherSuite, 0, len(ids))
	for _, id := range ids {
		suite, err := ciphersuite.SuiteForID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, suite)
	}
	return out, nil
}

// filterCipherSuitesForCertificate drops suites this endpoint cannot serve
// given its configured credentials, RFC 5246 Section 7.4.3: without a PSK
// callback both PSK families (PSK and ECDHE_PSK) are dropped, and without a
// certificate the certificate-keyed suites (ECDHE_ECDSA and RSA) are
// dropped, so a responder with neither is left with no suites.
func filterCipherSuitesForCertificate(suites []ciphersuite.CipherSuite, haveCertificate, havePSK bool) []ciphersuite.CipherSuite {
	out := make([]ciphersuite.CipherSuite, 0, len(suites))
	for _, s := range suites {
		switch s.KeyExchangeAlgorithm() {
		case ciphersuite.KeyExchangePSK:
			if havePSK {
				out = append(out, s)
			}
		case ciphersuite.KeyExchangeECDHEPSK:
			if havePSK {
				out = append(out, s)
			}
		case ciphersuite.KeyExchangeECDHEECDSA, ciphersuite.KeyExchangeRSA:
			if haveCertificate {
				out = append(out, s)
			}
		}
	}
	return out
}

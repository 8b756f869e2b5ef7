// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"encoding/binary"

	"github.com/pionwire/dtls-endpoint/internal/handshakecache"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/ciphersuite"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/elliptic"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/prf"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/signaturehash"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/alert"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/handshake"
)

// ecdheNamedCurveType is the ECParameters curve_type this library signs
// over, RFC 8422 Section 5.4; it must match the responder's ServerKeyExchange
// encoding (always named_curve, 3).
const ecdheNamedCurveType = 3

// verifyServerKeyExchangeSignature checks the ECDHE_ECDSA responder's
// signature over client_random || server_random || ServerECDHParams,
// RFC 8422 Section 5.4.
func verifyServerKeyExchangeSignature(state *State) error {
	if state.remoteCertificate == nil || len(state.remoteCertificate.Certificate) == 0 {
		return errMissingServerKeyExchange
	}
	cert, err := x509.ParseCertificate(state.remoteCertificate.Certificate[0])
	if err != nil {
		return errInvalidServerCertificate
	}

	clientRandom := state.localRandom.MarshalFixed()
	serverRandom := state.remoteRandom.MarshalFixed()

	ske := state.remoteServerKeyExchange
	signed := make([]byte, 0, 64+3+2+1+len(ske.PublicKey))
	signed = append(signed, clientRandom[:]...)
	signed = append(signed, serverRandom[:]...)
	signed = append(signed, ecdheNamedCurveType)
	curveBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(curveBytes, uint16(ske.EllipticCurve))
	signed = append(signed, curveBytes...)
	signed = append(signed, byte(len(ske.PublicKey)))
	signed = append(signed, ske.PublicKey...)

	if err := signaturehash.Verify(cert.PublicKey, ske.SignatureAlgorithm, signed, ske.Signature); err != nil {
		return errServerKeyExchangeSignature
	}
	return nil
}

// clientSignatureAlgorithm maps a CertificateVerify signer's key type onto
// the wire SignatureAndHashAlgorithm this library emits for it. It reports
// false for key types Sign cannot handle (only RSA and ECDSA are wired).
func clientSignatureAlgorithm(signer crypto.Signer) (signaturehash.Algorithm, bool) {
	switch signer.Public().(type) {
	case *rsa.PublicKey:
		return signaturehash.Algorithm{Hash: signaturehash.HashSHA256, Signature: signaturehash.SignatureRSA}, true
	case *ecdsa.PublicKey:
		return signaturehash.Algorithm{Hash: signaturehash.HashSHA256, Signature: signaturehash.SignatureECDSA}, true
	default:
		return signaturehash.Algorithm{}, false
	}
}

// resolveClientCertificate picks the chain the responder's CertificateRequest
// should get, preferring a caller-supplied selector over the static list.
func resolveClientCertificate(cfg *handshakeConfig) *CertificatePair {
	if cfg.localGetClientCertificate != nil {
		if pair, err := cfg.localGetClientCertificate(nil); err == nil && pair != nil {
			return pair
		}
	}
	if len(cfg.localCertificates) > 0 {
		return &cfg.localCertificates[0]
	}
	return nil
}

// flight5Generate sends the initiator's half of the key exchange: an
// optional Certificate (only when flight4's CertificateRequest arrived), a
// ClientKeyExchange shaped by the negotiated suite's KeyExchangeAlgorithm,
// an optional CertificateVerify, ChangeCipherSpec, and Finished, RFC 5246
// Section 7.3. Messages are pushed into the transcript as they are built
// (see cacheOwnMessage) because Finished's verify_data covers all of them.
func flight5Generate(_ flightConn, state *State, cache *handshakecache.Cache, cfg *handshakeConfig) ([]*packet, *alert.Alert, error) {
	suite := state.cipherSuite
	if suite == nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errHandshakeInProgress
	}

	var pkts []*packet

	var clientCert *CertificatePair
	if state.remoteRequestedCertificate {
		clientCert = resolveClientCertificate(cfg)
		certMsg := &handshake.MessageCertificate{}
		if clientCert != nil {
			certMsg.Certificate = clientCert.Certificate
		}
		p, err := cacheOwnMessage(state, cache, 0, certMsg, false)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
		pkts = append(pkts, p)
	}

	cke := &handshake.MessageClientKeyExchange{}
	var preMasterSecret []byte

	switch suite.KeyExchangeAlgorithm() {
	case ciphersuite.KeyExchangePSK:
		if cfg.localPSKCallback == nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errNoPSKConfigured
		}
		key, err := cfg.localPSKCallback(cfg.localPSKIdentityHint)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, err
		}
		cke.IdentityHint = cfg.localPSKIdentityHint
		preMasterSecret = prf.PSKPreMasterSecret(key, prf.PSKOtherSecretZeros(len(key)))

	case ciphersuite.KeyExchangeECDHEPSK:
		if cfg.localPSKCallback == nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errNoPSKConfigured
		}
		if state.remoteServerKeyExchange == nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errMissingServerKeyExchange
		}
		key, err := cfg.localPSKCallback(cfg.localPSKIdentityHint)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, err
		}
		kp, err := elliptic.GenerateKeypair(state.remoteServerKeyExchange.EllipticCurve)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
		ecdheSecret, err := kp.SharedSecret(state.remoteServerKeyExchange.PublicKey)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, err
		}
		state.localKeypair = kp
		cke.IdentityHint = cfg.localPSKIdentityHint
		cke.PublicKey = kp.PublicKey
		preMasterSecret = prf.PSKPreMasterSecret(key, ecdheSecret)

	case ciphersuite.KeyExchangeECDHEECDSA:
		if state.remoteServerKeyExchange == nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errMissingServerKeyExchange
		}
		if err := verifyServerKeyExchangeSignature(state); err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.DecryptError}, err
		}
		kp, err := elliptic.GenerateKeypair(state.remoteServerKeyExchange.EllipticCurve)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
		secret, err := prf.ECDHEPreMasterSecret(state.remoteServerKeyExchange.PublicKey, kp)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, err
		}
		state.localKeypair = kp
		cke.PublicKey = kp.PublicKey
		preMasterSecret = secret

	case ciphersuite.KeyExchangeRSA:
		if state.remoteCertificate == nil || len(state.remoteCertificate.Certificate) == 0 {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errMissingServerKeyExchange
		}
		cert, err := x509.ParseCertificate(state.remoteCertificate.Certificate[0])
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.BadCertificate}, errInvalidServerCertificate
		}
		pub, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errInvalidServerCertificate
		}
		pre, err := prf.RSAPreMasterSecret(state.version.Major, state.version.Minor)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
		encrypted, err := rsa.EncryptPKCS1v15(rand.Reader, pub, pre)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
		cke.EncryptedPreMasterSecret = encrypted
		preMasterSecret = pre

	default:
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errUnknownKeyExchangeAlgorithm
	}

	ckePacket, err := cacheOwnMessage(state, cache, 0, cke, false)
	if err != nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}
	pkts = append(pkts, ckePacket)

	if state.remoteRequestedCertificate && clientCert != nil {
		if signer, ok := clientCert.PrivateKey.(crypto.Signer); ok {
			if alg, ok := clientSignatureAlgorithm(signer); ok {
				h := suite.HashFunc()()
				h.Write(cache.Transcript())
				sig, err := signaturehash.Sign(signer, alg, h.Sum(nil))
				if err != nil {
					return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
				}
				cv := &handshake.MessageCertificateVerify{Algorithm: alg, Signature: sig}
				cvPacket, err := cacheOwnMessage(state, cache, 0, cv, false)
				if err != nil {
					return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
				}
				pkts = append(pkts, cvPacket)
			}
		}
	}

	if err := initializeCipherSuite(state, cache, cfg, preMasterSecret); err != nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}

	pkts = append(pkts, changeCipherSpecPacket(state.getLocalEpoch(), state.version))

	newEpoch := state.getLocalEpoch() + 1
	state.setLocalEpoch(newEpoch)

	transcriptHash := suite.HashFunc()()
	transcriptHash.Write(cache.Transcript())
	verifyData, err := prf.VerifyDataClient(state.masterSecret, transcriptHash.Sum(nil), state.prfHashFunc(suite))
	if err != nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}

	finPacket, err := cacheOwnMessage(state, cache, newEpoch, &handshake.MessageFinished{VerifyData: verifyData}, true)
	if err != nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}
	pkts = append(pkts, finPacket)

	return pkts, nil, nil
}

// flight5Parse waits for the responder's ChangeCipherSpec + Finished at the
// new epoch and verifies the Finished verify_data against the transcript up
// to (but excluding) the responder's own Finished message. It returns
// flightDone rather than flight6: flight6 names the responder's generator,
// and this FSM instance is the initiator's.
func flight5Parse(_ context.Context, _ flightConn, state *State, cache *handshakecache.Cache, _ *handshakeConfig) (flightVal, *alert.Alert, error) {
	newEpoch := state.getLocalEpoch()

	msgs, ok := cache.FullPullMap(
		handshakecache.PullRule{Type: handshake.TypeFinished, Epoch: newEpoch, IsClient: false},
	)
	if !ok {
		return flight5, nil, nil
	}

	fin, ok := msgs[handshake.TypeFinished].(*handshake.MessageFinished)
	if !ok {
		return flight5, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errHandshakeInProgress
	}

	suite := state.cipherSuite
	transcriptHash := suite.HashFunc()()
	transcriptHash.Write(cache.PullAndMerge(
		handshakecache.PullRule{Type: handshake.TypeClientHello, Epoch: 0, IsClient: true},
		handshakecache.PullRule{Type: handshake.TypeServerHello, Epoch: 0, IsClient: false},
		handshakecache.PullRule{Type: handshake.TypeCertificate, Epoch: 0, IsClient: false, Optional: true},
		handshakecache.PullRule{Type: handshake.TypeServerKeyExchange, Epoch: 0, IsClient: false, Optional: true},
		handshakecache.PullRule{Type: handshake.TypeCertificateRequest, Epoch: 0, IsClient: false, Optional: true},
		handshakecache.PullRule{Type: handshake.TypeServerHelloDone, Epoch: 0, IsClient: false},
		handshakecache.PullRule{Type: handshake.TypeCertificate, Epoch: 0, IsClient: true, Optional: true},
		handshakecache.PullRule{Type: handshake.TypeClientKeyExchange, Epoch: 0, IsClient: true},
		handshakecache.PullRule{Type: handshake.TypeCertificateVerify, Epoch: 0, IsClient: true, Optional: true},
		handshakecache.PullRule{Type: handshake.TypeFinished, Epoch: newEpoch, IsClient: true},
	))
	expected, err := prf.VerifyDataServer(state.masterSecret, transcriptHash.Sum(nil), state.prfHashFunc(suite))
	if err != nil {
		return flight5, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}
	if subtle.ConstantTimeCompare(expected, fin.VerifyData) != 1 {
		return flight5, &alert.Alert{Level: alert.Fatal, Description: alert.DecryptError}, errFinishedVerifyDataMismatch
	}

	state.setRemoteEpoch(newEpoch)
	return flightDone, nil, nil
}

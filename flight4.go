// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"

	"github.com/pionwire/dtls-endpoint/internal/handshakecache"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/ciphersuite"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/elliptic"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/prf"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/signaturehash"
	"github.com/pionwire/dtls-endpoint/pkg/protocol"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/alert"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/handshake"
)

// selectCurve picks the first curve both sides advertise, preferring our
// own order; it falls back to our first configured/default curve if the
// peer sent no elliptic_curves extension at all.
func selectCurve(cfg *handshakeConfig, peerCurves []elliptic.Curve) elliptic.Curve {
	ours := cfg.ellipticCurves
	if len(ours) == 0 {
		ours = elliptic.SupportedCurves()
	}
	if len(peerCurves) == 0 {
		return ours[0]
	}
	for _, want := range ours {
		for _, have := range peerCurves {
			if want == have {
				return want
			}
		}
	}
	return ours[0]
}

// resolveServerCertificate picks the responder's own certificate chain,
// honoring SNI via GetCertificate when set.
func resolveServerCertificate(cfg *handshakeConfig) *CertificatePair {
	if cfg.localGetCertificate != nil {
		if pair, err := cfg.localGetCertificate(cfg.serverName); err == nil && pair != nil {
			return pair
		}
	}
	if len(cfg.localCertificates) > 0 {
		return &cfg.localCertificates[0]
	}
	return nil
}

// rsaServerPreMasterSecret decrypts the RSA-encrypted premaster. On any
// decryption failure, or a version mismatch in the recovered plaintext, it
// returns a freshly generated random premaster instead of an error: per
// RFC 5246 Section 7.4.7.1, the responder must not let a Bleichenbacher
// oracle form by behaving differently on bad ciphertext. The handshake
// then runs to completion on bogus key material and fails only once
// Finished's verify_data cannot be reproduced.
func rsaServerPreMasterSecret(key *rsa.PrivateKey, encrypted []byte, version protocol.Version) ([]byte, error) {
	randomPreMaster, err := prf.RSAPreMasterSecret(version.Major, version.Minor)
	if err != nil {
		return nil, err
	}

	decrypted, err := rsa.DecryptPKCS1v15(rand.Reader, key, encrypted)
	if err != nil || len(decrypted) != len(randomPreMaster) {
		return randomPreMaster, nil
	}
	if decrypted[0] != version.Major || decrypted[1] != version.Minor {
		return randomPreMaster, nil
	}
	return decrypted, nil
}

// flight4Generate sends the responder's half of the negotiation: ServerHello
// (picking the cipher suite and echoing extensions), an optional Certificate
// and ServerKeyExchange shaped by the negotiated suite, an optional
// CertificateRequest, and ServerHelloDone, RFC 5246 Section 7.3.
func flight4Generate(_ flightConn, state *State, cache *handshakecache.Cache, cfg *handshakeConfig) ([]*packet, *alert.Alert, error) {
	chMsgs, ok := cache.FullPullMap(
		handshakecache.PullRule{Type: handshake.TypeClientHello, Epoch: 0, IsClient: true},
	)
	if !ok {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errHandshakeInProgress
	}
	ch, ok := chMsgs[handshake.TypeClientHello].(*handshake.MessageClientHello)
	if !ok {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errHandshakeInProgress
	}

	suite, err := ciphersuite.SelectSuite(cfg.localCipherSuites, ch.CipherSuiteIDs)
	if err != nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errNoMutualCipherSuite
	}
	state.cipherSuite = suite
	state.extendedMasterSecret = cfg.extendedMasterSecret != DisableExtendedMasterSecret && negotiatedExtendedMasterSecret(ch.Extensions)

	if err := state.localRandom.Populate(); err != nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}

	var pkts []*packet

	cipherSuiteID := uint16(suite.ID())
	hello := &handshake.MessageServerHello{
		Version:           state.version,
		Random:            state.localRandom,
		CipherSuiteID:     &cipherSuiteID,
		CompressionMethod: &protocol.CompressionMethod{ID: protocol.CompressionMethodNull},
		Extensions:        serverHelloExtensions(cfg, ch.Extensions),
	}
	helloPacket, err := cacheOwnMessage(state, cache, 0, hello, false)
	if err != nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}
	pkts = append(pkts, helloPacket)

	needsCertificate := suite.KeyExchangeAlgorithm() == ciphersuite.KeyExchangeECDHEECDSA || suite.KeyExchangeAlgorithm() == ciphersuite.KeyExchangeRSA
	var serverCert *CertificatePair
	if needsCertificate {
		serverCert = resolveServerCertificate(cfg)
		if serverCert == nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errNoCertificateConfigured
		}
		certPacket, err := cacheOwnMessage(state, cache, 0, &handshake.MessageCertificate{Certificate: serverCert.Certificate}, false)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
		pkts = append(pkts, certPacket)
	}

	switch suite.KeyExchangeAlgorithm() {
	case ciphersuite.KeyExchangePSK:
		if cfg.localPSKIdentityHint != nil {
			ske := &handshake.MessageServerKeyExchange{IdentityHint: cfg.localPSKIdentityHint}
			p, err := cacheOwnMessage(state, cache, 0, ske, false)
			if err != nil {
				return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
			}
			pkts = append(pkts, p)
		}

	case ciphersuite.KeyExchangeECDHEPSK:
		curve := selectCurve(cfg, peerSupportedCurves(ch.Extensions))
		kp, err := elliptic.GenerateKeypair(curve)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
		state.localKeypair = kp
		ske := &handshake.MessageServerKeyExchange{
			IdentityHint:  cfg.localPSKIdentityHint,
			EllipticCurve: curve,
			PublicKey:     kp.PublicKey,
		}
		p, err := cacheOwnMessage(state, cache, 0, ske, false)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
		pkts = append(pkts, p)

	case ciphersuite.KeyExchangeECDHEECDSA:
		curve := selectCurve(cfg, peerSupportedCurves(ch.Extensions))
		kp, err := elliptic.GenerateKeypair(curve)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
		state.localKeypair = kp

		signer, ok := serverCert.PrivateKey.(crypto.Signer)
		if !ok {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errInvalidPrivateKey
		}
		alg, ok := clientSignatureAlgorithm(signer)
		if !ok {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errInvalidPrivateKey
		}
		if peerSchemes := peerSignatureSchemes(ch.Extensions); len(peerSchemes) > 0 {
			if chosen, err := signaturehash.SelectSignatureScheme([]signaturehash.Algorithm{alg}, peerSchemes); err == nil {
				alg = chosen
			}
		}

		clientRandom := ch.Random.MarshalFixed()
		serverRandom := state.localRandom.MarshalFixed()
		signed := make([]byte, 0, 64+3+2+1+len(kp.PublicKey))
		signed = append(signed, clientRandom[:]...)
		signed = append(signed, serverRandom[:]...)
		signed = append(signed, ecdheNamedCurveType, byte(curve>>8), byte(curve))
		signed = append(signed, byte(len(kp.PublicKey)))
		signed = append(signed, kp.PublicKey...)

		sig, err := signaturehash.Sign(signer, alg, signed)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}

		ske := &handshake.MessageServerKeyExchange{
			EllipticCurve:      curve,
			PublicKey:          kp.PublicKey,
			SignatureAlgorithm: alg,
			Signature:          sig,
		}
		p, err := cacheOwnMessage(state, cache, 0, ske, false)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
		pkts = append(pkts, p)

	case ciphersuite.KeyExchangeRSA:
		// No ServerKeyExchange: the premaster travels RSA-encrypted under
		// the certificate's own public key, RFC 5246 Section 7.4.3.

	default:
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errUnknownKeyExchangeAlgorithm
	}

	if cfg.clientAuth != NoClientCert {
		cr := &handshake.MessageCertificateRequest{
			CertificateTypes:        []handshake.ClientCertificateType{handshake.ClientCertificateTypeECDSASign, handshake.ClientCertificateTypeRSASign},
			SignatureHashAlgorithms: cfg.localSignatureSchemes,
		}
		p, err := cacheOwnMessage(state, cache, 0, cr, false)
		if err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
		pkts = append(pkts, p)
	}

	donePacket, err := cacheOwnMessage(state, cache, 0, &handshake.MessageServerHelloDone{}, false)
	if err != nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}
	pkts = append(pkts, donePacket)

	return pkts, nil, nil
}

// flight4Parse waits for the initiator's flight5: an optional Certificate,
// ClientKeyExchange, an optional CertificateVerify, and then (at the new
// epoch) ChangeCipherSpec + Finished. It derives the cipher state from
// ClientKeyExchange and validates Finished's verify_data before handing
// control to flight6Generate.
func flight4Parse(ctx context.Context, c flightConn, state *State, cache *handshakecache.Cache, cfg *handshakeConfig) (flightVal, *alert.Alert, error) {
	suite := state.cipherSuite
	if suite == nil {
		return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errHandshakeInProgress
	}

	rules := []handshakecache.PullRule{
		{Type: handshake.TypeClientKeyExchange, Epoch: 0, IsClient: true},
	}
	if cfg.clientAuth != NoClientCert {
		rules = append(rules, handshakecache.PullRule{Type: handshake.TypeCertificate, Epoch: 0, IsClient: true, Optional: true})
		rules = append(rules, handshakecache.PullRule{Type: handshake.TypeCertificateVerify, Epoch: 0, IsClient: true, Optional: true})
	}
	full, ok := cache.FullPullMap(rules...)
	if !ok {
		return flight4, nil, nil
	}

	cke, ok := full[handshake.TypeClientKeyExchange].(*handshake.MessageClientKeyExchange)
	if !ok {
		return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errHandshakeInProgress
	}

	var preMasterSecret []byte
	switch suite.KeyExchangeAlgorithm() {
	case ciphersuite.KeyExchangePSK:
		if cfg.localPSKCallback == nil {
			return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errNoPSKConfigured
		}
		key, err := cfg.localPSKCallback(cke.IdentityHint)
		if err != nil {
			return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, err
		}
		preMasterSecret = prf.PSKPreMasterSecret(key, prf.PSKOtherSecretZeros(len(key)))

	case ciphersuite.KeyExchangeECDHEPSK:
		if cfg.localPSKCallback == nil {
			return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errNoPSKConfigured
		}
		if state.localKeypair == nil {
			return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errMissingServerKeyExchange
		}
		key, err := cfg.localPSKCallback(cke.IdentityHint)
		if err != nil {
			return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, err
		}
		ecdheSecret, err := state.localKeypair.SharedSecret(cke.PublicKey)
		if err != nil {
			return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, err
		}
		preMasterSecret = prf.PSKPreMasterSecret(key, ecdheSecret)

	case ciphersuite.KeyExchangeECDHEECDSA:
		if state.localKeypair == nil {
			return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errMissingServerKeyExchange
		}
		secret, err := state.localKeypair.SharedSecret(cke.PublicKey)
		if err != nil {
			return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, err
		}
		preMasterSecret = secret

	case ciphersuite.KeyExchangeRSA:
		serverCert := resolveServerCertificate(cfg)
		if serverCert == nil {
			return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errNoCertificateConfigured
		}
		rsaKey, ok := serverCert.PrivateKey.(*rsa.PrivateKey)
		if !ok {
			return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errInvalidPrivateKey
		}
		pre, err := rsaServerPreMasterSecret(rsaKey, cke.EncryptedPreMasterSecret, state.version)
		if err != nil {
			return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
		preMasterSecret = pre

	default:
		return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errUnknownKeyExchangeAlgorithm
	}

	if cv, ok := full[handshake.TypeCertificateVerify].(*handshake.MessageCertificateVerify); ok {
		if cert, ok := full[handshake.TypeCertificate].(*handshake.MessageCertificate); ok && len(cert.Certificate) > 0 {
			peerCert, err := x509.ParseCertificate(cert.Certificate[0])
			if err != nil {
				return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.BadCertificate}, errInvalidCertificate
			}
			verifyHash := suite.HashFunc()()
			verifyHash.Write(cache.PullAndMerge(
				handshakecache.PullRule{Type: handshake.TypeClientHello, Epoch: 0, IsClient: true},
				handshakecache.PullRule{Type: handshake.TypeServerHello, Epoch: 0, IsClient: false},
				handshakecache.PullRule{Type: handshake.TypeCertificate, Epoch: 0, IsClient: false, Optional: true},
				handshakecache.PullRule{Type: handshake.TypeServerKeyExchange, Epoch: 0, IsClient: false, Optional: true},
				handshakecache.PullRule{Type: handshake.TypeCertificateRequest, Epoch: 0, IsClient: false, Optional: true},
				handshakecache.PullRule{Type: handshake.TypeServerHelloDone, Epoch: 0, IsClient: false},
				handshakecache.PullRule{Type: handshake.TypeCertificate, Epoch: 0, IsClient: true},
				handshakecache.PullRule{Type: handshake.TypeClientKeyExchange, Epoch: 0, IsClient: true},
			))
			if err := signaturehash.Verify(peerCert.PublicKey, cv.Algorithm, verifyHash.Sum(nil), cv.Signature); err != nil {
				return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.DecryptError}, errServerKeyExchangeSignature
			}
			state.peerCertificates = cert.Certificate
		}
	} else if cfg.clientAuth == RequireAnyClientCert || cfg.clientAuth == RequireAndVerifyClientCert {
		return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errInvalidCertificate
	}

	if !suite.IsInitialized() {
		if err := initializeCipherSuite(state, cache, cfg, preMasterSecret); err != nil {
			return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
		// Records of the next epoch that arrived before the keys existed
		// (the initiator's ChangeCipherSpec and Finished) can be read now.
		if err := c.handleQueuedPackets(ctx); err != nil {
			return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
	}

	newRemoteEpoch := state.getLocalEpoch() + 1
	finMsgs, ok := cache.FullPullMap(
		handshakecache.PullRule{Type: handshake.TypeFinished, Epoch: newRemoteEpoch, IsClient: true},
	)
	if !ok {
		return flight4, nil, nil
	}
	fin, ok := finMsgs[handshake.TypeFinished].(*handshake.MessageFinished)
	if !ok {
		return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errHandshakeInProgress
	}

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
	))
	expected, err := prf.VerifyDataClient(state.masterSecret, transcriptHash.Sum(nil), state.prfHashFunc(suite))
	if err != nil {
		return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}
	if subtle.ConstantTimeCompare(expected, fin.VerifyData) != 1 {
		return flight4, &alert.Alert{Level: alert.Fatal, Description: alert.DecryptError}, errFinishedVerifyDataMismatch
	}

	state.setRemoteEpoch(newRemoteEpoch)
	return flight6, nil, nil
}

// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"github.com/pionwire/dtls-endpoint/internal/handshakecache"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/ciphersuite"
	"github.com/pionwire/dtls-endpoint/pkg/protocol"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/alert"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/handshake"
)

// newClientHello builds the ClientHello message common to flight1 (no
// cookie) and flight3 (cookie echoed back), RFC 6347 Section 4.2.1.
func newClientHello(state *State, cfg *handshakeConfig, cookie []byte) (*handshake.MessageClientHello, *alert.Alert, error) {
	if len(state.localRandom.RandomBytes) == 0 {
		if err := state.localRandom.Populate(); err != nil {
			return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
		}
	}

	ids := make([]uint16, 0, len(cfg.localCipherSuites))
	for _, s := range cfg.localCipherSuites {
		ids = append(ids, uint16(s.ID()))
	}
	if len(ids) == 0 {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errNoAvailableCipherSuites
	}

	return &handshake.MessageClientHello{
		Version:            state.version,
		Random:             state.localRandom,
		Cookie:             cookie,
		CipherSuiteIDs:     ids,
		CompressionMethods: protocol.DefaultCompressionMethods(),
		Extensions:         clientHelloExtensions(cfg),
	}, nil, nil
}

// serverFlightMessages is every message the responder's ServerHello flight
// may carry, decoded from the transcript cache.
type serverFlightMessages struct {
	serverHello         *handshake.MessageServerHello
	certificate         *handshake.MessageCertificate
	serverKeyExchange    *handshake.MessageServerKeyExchange
	certificateRequest  *handshake.MessageCertificateRequest
}

// parseServerFlight pulls the responder's ServerHello...ServerHelloDone
// flight from the cache. It first resolves ServerHello alone (the cipher
// suite it carries decides which further messages are mandatory), then
// pulls the rest; it returns ok=false if the flight has not fully arrived
// yet (the caller keeps waiting rather than treating this as an error).
func parseServerFlight(state *State, cache *handshakecache.Cache, epoch uint16) (*serverFlightMessages, bool, *alert.Alert, error) {
	helloOnly, ok := cache.FullPullMap(
		handshakecache.PullRule{Type: handshake.TypeServerHello, Epoch: epoch, IsClient: false},
	)
	if !ok {
		return nil, false, nil, nil
	}
	serverHello, _ := helloOnly[handshake.TypeServerHello].(*handshake.MessageServerHello)
	if serverHello == nil || serverHello.CipherSuiteID == nil {
		return nil, false, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errHandshakeInProgress
	}

	suite, err := ciphersuite.SuiteForID(ciphersuite.ID(*serverHello.CipherSuiteID))
	if err != nil {
		return nil, false, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, err
	}
	state.cipherSuite = suite
	state.remoteRandom = serverHello.Random
	state.extendedMasterSecret = negotiatedExtendedMasterSecret(serverHello.Extensions)
	// RFC 6347 Section 4.2.1: the initiator downgrades to whichever of DTLS
	// 1.2 and the responder's ServerHello version is older.
	state.version = protocol.MinVersion(serverHello.Version, protocol.Version1_2)

	rules := []handshakecache.PullRule{
		{Type: handshake.TypeServerHello, Epoch: epoch, IsClient: false},
		{Type: handshake.TypeServerHelloDone, Epoch: epoch, IsClient: false},
	}
	needsCertificate := suite.KeyExchangeAlgorithm() == ciphersuite.KeyExchangeECDHEECDSA || suite.KeyExchangeAlgorithm() == ciphersuite.KeyExchangeRSA
	needsServerKeyExchange := suite.KeyExchangeAlgorithm() == ciphersuite.KeyExchangeECDHEECDSA || suite.KeyExchangeAlgorithm() == ciphersuite.KeyExchangeECDHEPSK || suite.KeyExchangeAlgorithm() == ciphersuite.KeyExchangePSK

	if needsCertificate {
		rules = append(rules, handshakecache.PullRule{Type: handshake.TypeCertificate, Epoch: epoch, IsClient: false})
	}
	if needsServerKeyExchange {
		rules = append(rules, handshakecache.PullRule{Type: handshake.TypeServerKeyExchange, Epoch: epoch, IsClient: false, Optional: suite.KeyExchangeAlgorithm() == ciphersuite.KeyExchangePSK})
	}
	rules = append(rules, handshakecache.PullRule{Type: handshake.TypeCertificateRequest, Epoch: epoch, IsClient: false, Optional: true})

	full, ok := cache.FullPullMap(rules...)
	if !ok {
		return nil, false, nil, nil
	}

	out := &serverFlightMessages{serverHello: serverHello}
	if m, ok := full[handshake.TypeCertificate].(*handshake.MessageCertificate); ok {
		out.certificate = m
		state.remoteCertificate = m
	}
	if m, ok := full[handshake.TypeServerKeyExchange].(*handshake.MessageServerKeyExchange); ok {
		out.serverKeyExchange = m
		state.remoteServerKeyExchange = m
	}
	if m, ok := full[handshake.TypeCertificateRequest].(*handshake.MessageCertificateRequest); ok {
		out.certificateRequest = m
		state.remoteCertificateRequest = m
		state.remoteRequestedCertificate = true
	}
	return out, true, nil, nil
}

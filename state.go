// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"sync"
	"sync/atomic"

	"github.com/pion/transport/v3/replaydetector"

	"github.com/pionwire/dtls-endpoint/pkg/crypto/ciphersuite"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/elliptic"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/prf"
	"github.com/pionwire/dtls-endpoint/pkg/protocol"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/handshake"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/recordlayer"
)

// State is the negotiated connection state of spec §3's Session shape:
// epoch/sequence counters, the active CipherState, and the handshake
// material needed to keep negotiating across flights. A State is mutable
// while a handshake runs and frozen once it completes; ConnectionState
// returns a point-in-time copy via clone.
type State struct {
	isClient bool

	localEpoch  atomic.Uint32
	remoteEpoch atomic.Uint32

	sequenceMu          sync.Mutex
	localSequenceNumber []uint64 // per epoch
	replayDetector      []replaydetector.ReplayDetector

	cipherSuite          ciphersuite.CipherSuite
	masterSecret         []byte
	extendedMasterSecret bool

	localRandom  handshake.Random
	remoteRandom handshake.Random

	localKeypair *elliptic.KeyPair

	handshakeSendSequence int
	handshakeRecvSequence int

	version protocol.Version

	remoteRequestedCertificate bool
	peerCertificates           [][]byte

	cookie []byte // client: cookie echoed from HelloVerifyRequest

	remoteCertificate        *handshake.MessageCertificate
	remoteServerKeyExchange  *handshake.MessageServerKeyExchange
	remoteCertificateRequest *handshake.MessageCertificateRequest

	remoteCipherSuiteID uint16

	nameFn NameToCertificateFunc
}

// getLocalEpoch returns the epoch outbound records are currently written
// under.
func (s *State) getLocalEpoch() uint16 {
	return uint16(s.localEpoch.Load())
}

func (s *State) setLocalEpoch(epoch uint16) {
	s.localEpoch.Store(uint32(epoch))
	s.sequenceMu.Lock()
	defer s.sequenceMu.Unlock()
	for len(s.localSequenceNumber) <= int(epoch) {
		s.localSequenceNumber = append(s.localSequenceNumber, 0)
	}
}

// getRemoteEpoch returns the highest epoch accepted from the peer so far.
func (s *State) getRemoteEpoch() uint16 {
	return uint16(s.remoteEpoch.Load())
}

func (s *State) setRemoteEpoch(epoch uint16) {
	s.remoteEpoch.Store(uint32(epoch))
}

// nextLocalSequenceNumber allocates the next sequence number for epoch,
// growing the per-epoch slice as needed.
func (s *State) nextLocalSequenceNumber(epoch uint16) uint64 {
	s.sequenceMu.Lock()
	defer s.sequenceMu.Unlock()
	for len(s.localSequenceNumber) <= int(epoch) {
		s.localSequenceNumber = append(s.localSequenceNumber, 0)
	}
	seq := s.localSequenceNumber[epoch]
	s.localSequenceNumber[epoch]++
	return seq
}

// replayDetectorForEpoch returns (creating if necessary) the anti-replay
// window for epoch, per spec §4.4's "one sliding window per epoch".
func (s *State) replayDetectorForEpoch(epoch uint16, window uint) replaydetector.ReplayDetector {
	s.sequenceMu.Lock()
	defer s.sequenceMu.Unlock()
	for len(s.replayDetector) <= int(epoch) {
		s.replayDetector = append(s.replayDetector, nil)
	}
	if s.replayDetector[epoch] == nil {
		s.replayDetector[epoch] = replaydetector.New(window, recordlayer.MaxSequenceNumber)
	}
	return s.replayDetector[epoch]
}

// prfHashFunc selects the PRF hash for the negotiated version: DTLS 1.0
// falls back to prf.PRF's legacy MD5/SHA-1 split (hashFunc nil), spec §4.2;
// every other negotiated version uses the cipher suite's own hash.
func (s *State) prfHashFunc(suite ciphersuite.CipherSuite) prf.HashFunc {
	if s.version.Equal(protocol.Version1_0) {
		return nil
	}
	return suite.HashFunc()
}

// clone returns a snapshot safe to hand to a caller outside the Conn's
// locking discipline (ConnectionState).
func (s *State) clone() State {
	c := State{
		isClient:                   s.isClient,
		cipherSuite:                s.cipherSuite,
		masterSecret:               append([]byte{}, s.masterSecret...),
		extendedMasterSecret:       s.extendedMasterSecret,
		localRandom:                s.localRandom,
		remoteRandom:               s.remoteRandom,
		handshakeSendSequence:      s.handshakeSendSequence,
		handshakeRecvSequence:      s.handshakeRecvSequence,
		version:                    s.version,
		remoteRequestedCertificate: s.remoteRequestedCertificate,
		peerCertificates:           append([][]byte{}, s.peerCertificates...),
	}
	c.localEpoch.Store(s.localEpoch.Load())
	c.remoteEpoch.Store(s.remoteEpoch.Load())
	return c
}

// NameToCertificateFunc resolves a certificate chain for a requested SNI
// server name, used by the responder's GetCertificate hook.
type NameToCertificateFunc func(serverName string) (*CertificatePair, error)

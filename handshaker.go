// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"context"
	"crypto/x509"
	"io"
	"net"
	"time"

	"github.com/pion/logging"

	"github.com/pionwire/dtls-endpoint/internal/handshakecache"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/ciphersuite"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/elliptic"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/psk"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/signaturehash"
	"github.com/pionwire/dtls-endpoint/pkg/protocol"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/alert"
)

// initialFlightInterval is RFC 4347 Section 4.2.4.1's starting retransmit
// timeout.
const initialFlightInterval = time.Second

// maxFlightInterval is the cap the exponential retransmit backoff never
// exceeds.
const maxFlightInterval = 60 * time.Second

// handshakeState is one node of RFC 6347 Section 4.2.4's state diagram.
type handshakeState int

const (
	handshakeErrored handshakeState = iota
	handshakePreparing
	handshakeSending
	handshakeWaiting
	handshakeFinished
)

func (s handshakeState) String() string {
	switch s {
	case handshakePreparing:
		return "Preparing"
	case handshakeSending:
		return "Sending"
	case handshakeWaiting:
		return "Waiting"
	case handshakeFinished:
		return "Finished"
	default:
		return "Errored"
	}
}

// flightVal names one flight of spec §4.5's initiator/responder state
// machines. flight0 is the responder's implicit starting point (nothing
// sent yet); flight6/flight5 are each side's final flight.
type flightVal int

const (
	flight0 flightVal = iota
	flight1
	flight2
	flight3
	flight4
	flight5
	flight6

	// flightDone is never sent on the wire; a parser returns it to signal
	// that the handshake is complete and nothing further needs preparing
	// (the initiator reaches this after validating the responder's
	// Finished that closes flight6).
	flightDone
)

func (f flightVal) isLastSendFlight() bool {
	return f == flight6
}

// flightConn is the capability handshakeFSM needs from Conn: sending
// packets, waking on newly arrived handshake fragments, and touching the
// epoch the record layer writes under.
type flightConn interface {
	notify(ctx context.Context, level alert.Level, desc alert.Description) error
	writePackets(ctx context.Context, pkts []*packet) error
	recvHandshake() <-chan chan struct{}
	setLocalEpoch(epoch uint16)
	handleQueuedPackets(ctx context.Context) error
	sessionKey() []byte
	RemoteAddr() net.Addr
}

// handshakeConfig is the negotiation-time configuration derived from
// Config plus the side (client/server) running the handshake; it is
// immutable for the lifetime of one handshake attempt.
type handshakeConfig struct {
	localPSKCallback      psk.LookupFunc
	localPSKIdentityHint  []byte
	localCipherSuites     []ciphersuite.CipherSuite
	localSignatureSchemes []signaturehash.Algorithm
	extendedMasterSecret  ExtendedMasterSecretType

	serverName string
	clientAuth ClientAuthType

	localCertificates         []CertificatePair
	localGetCertificate       NameToCertificateFunc
	localGetClientCertificate func(identityHint []byte) (*CertificatePair, error)

	// serverVersion is the version a responder advertises in its
	// HelloVerifyRequest/ServerHello, spec §4.5/§8 scenario 5. Client
	// handshakes ignore this; the client always offers protocol.Version1_2
	// and downgrades based on what the responder sends back.
	serverVersion protocol.Version

	insecureSkipVerify      bool
	insecureSkipVerifyHello bool
	verifyPeerCertificate   func([][]byte, [][]*x509.Certificate) error
	rootCAs                 *x509.CertPool
	clientCAs               *x509.CertPool

	ellipticCurves []elliptic.Curve

	retransmitInterval       time.Duration
	disableRetransmitBackoff bool

	log logging.LeveledLogger

	initialEpoch uint16
	keyLogWriter io.Writer

	helloRandomBytesGenerator func() [28]byte

	cookieGenerator *cookieGenerator // server side only

	onFlightState func(flightVal, handshakeState)
}

func (c *handshakeConfig) writeKeyLog(label string, clientRandom, secret []byte) {
	if c.keyLogWriter == nil {
		return
	}
	_, _ = io.WriteString(c.keyLogWriter, label+" ")
	_, _ = c.keyLogWriter.Write(clientRandom)
	_, _ = io.WriteString(c.keyLogWriter, " ")
	_, _ = c.keyLogWriter.Write(secret)
	_, _ = io.WriteString(c.keyLogWriter, "\n")
}

// flightParser consumes the transcript cache to decide the flight has
// fully arrived, validates it, and returns which flight to prepare next.
type flightParser func(ctx context.Context, c flightConn, state *State, cache *handshakecache.Cache, cfg *handshakeConfig) (flightVal, *alert.Alert, error)

// flightGenerator builds the packets one flight sends.
type flightGenerator func(c flightConn, state *State, cache *handshakecache.Cache, cfg *handshakeConfig) ([]*packet, *alert.Alert, error)

// handshakeFSM drives one side of the handshake through RFC 6347 Section
// 4.2.4's Preparing/Sending/Waiting/Finished cycle, doubling the
// retransmit timeout on every Waiting timeout up to maxFlightInterval.
type handshakeFSM struct {
	currentFlight flightVal
	flights       []*packet
	retransmit    bool

	state *State
	cache *handshakecache.Cache
	cfg   *handshakeConfig
}

func newHandshakeFSM(state *State, cache *handshakecache.Cache, cfg *handshakeConfig, initialFlight flightVal) *handshakeFSM {
	return &handshakeFSM{
		currentFlight: initialFlight,
		state:         state,
		cache:         cache,
		cfg:           cfg,
	}
}

// Run drives the FSM to completion, returning when the handshake finishes,
// the context is canceled, or an unrecoverable error/alert occurs.
func (s *handshakeFSM) Run(ctx context.Context, c flightConn, initialState handshakeState) error {
	state := initialState
	for {
		s.notifyState(state)
		switch state {
		case handshakePreparing:
			next, err := s.prepare(ctx, c)
			if err != nil {
				return err
			}
			state = next
		case handshakeSending:
			next, err := s.send(ctx, c)
			if err != nil {
				return err
			}
			state = next
		case handshakeWaiting:
			next, err := s.wait(ctx, c)
			if err != nil {
				return err
			}
			state = next
		case handshakeFinished:
			return nil
		case handshakeErrored:
			return errHandshakeInProgress
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (s *handshakeFSM) notifyState(state handshakeState) {
	if s.cfg.onFlightState != nil {
		s.cfg.onFlightState(s.currentFlight, state)
	}
}

func (s *handshakeFSM) prepare(ctx context.Context, c flightConn) (handshakeState, error) {
	s.flights = nil

	gen, ok := flightGenerators[s.currentFlight]
	if !ok {
		// No flight to prepare (flightDone, or any flight this side never
		// generates): the handshake is complete.
		return handshakeFinished, nil
	}

	pkts, a, err := gen(c, s.state, s.cache, s.cfg)
	if a != nil {
		_ = c.notify(ctx, alert.Fatal, a.Description)
		return handshakeErrored, &alertError{a}
	}
	if err != nil {
		return handshakeErrored, err
	}

	s.flights = pkts
	s.retransmit = false
	return handshakeSending, nil
}

func (s *handshakeFSM) send(ctx context.Context, c flightConn) (handshakeState, error) {
	if err := c.writePackets(ctx, s.flights); err != nil {
		return handshakeErrored, err
	}

	if s.currentFlight.isLastSendFlight() {
		return handshakeFinished, nil
	}
	return handshakeWaiting, nil
}

func (s *handshakeFSM) retransmitTimeout() time.Duration {
	interval := s.cfg.retransmitInterval
	if interval <= 0 {
		interval = initialFlightInterval
	}
	return interval
}

func (s *handshakeFSM) wait(ctx context.Context, c flightConn) (handshakeState, error) {
	parser, ok := flightParsers[s.currentFlight]
	if !ok {
		return handshakeErrored, errHandshakeInProgress
	}

	timer := time.NewTimer(s.retransmitTimeout())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return handshakeErrored, ctx.Err()

		case doneRecv := <-c.recvHandshake():
			next, a, err := parser(ctx, c, s.state, s.cache, s.cfg)
			if doneRecv != nil {
				close(doneRecv)
			}
			if a != nil {
				_ = c.notify(ctx, alert.Fatal, a.Description)
				return handshakeErrored, &alertError{a}
			}
			if err != nil {
				return handshakeErrored, err
			}
			if next == s.currentFlight {
				// Flight is still incomplete; keep waiting on the same timer.
				continue
			}
			s.currentFlight = next
			return handshakePreparing, nil

		case <-timer.C:
			if !s.cfg.disableRetransmitBackoff {
				s.cfg.retransmitInterval *= 2
				if s.cfg.retransmitInterval > maxFlightInterval {
					s.cfg.retransmitInterval = maxFlightInterval
				}
			}
			return handshakeSending, nil
		}
	}
}

var flightGenerators map[flightVal]flightGenerator
var flightParsers map[flightVal]flightParser

func init() {
	flightGenerators = map[flightVal]flightGenerator{
		flight1: flight1Generate,
		flight2: flight2Generate,
		flight3: flight3Generate,
		flight4: flight4Generate,
		flight5: flight5Generate,
		flight6: flight6Generate,
	}
	flightParsers = map[flightVal]flightParser{
		flight0: flight0Parse,
		flight1: flight1Parse,
		flight2: flight2Parse,
		flight3: flight3Parse,
		flight4: flight4Parse,
		flight5: flight5Parse,
	}
}

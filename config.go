// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"io"
	"net"
	"time"

	"github.com/pion/logging"

	"github.com/pionwire/dtls-endpoint/pkg/crypto/ciphersuite"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/elliptic"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/psk"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/signaturehash"
	"github.com/pionwire/dtls-endpoint/pkg/protocol"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/handshake"
)

// defaultMTUIPv4 and defaultMTUIPv6 are the unfragmented-plaintext-record
// ceilings of spec §6: this library does no path-MTU discovery, it only
// assumes the static defaults for the remote address's family (or whatever
// MTU the caller overrides in Config).
const (
	defaultMTUIPv4 = 508
	defaultMTUIPv6 = 1212
)

const defaultReplayProtectionWindow = 64

// ClientAuthType mirrors crypto/tls's enum: how strongly the server should
// request and verify a client certificate.
type ClientAuthType int

// Client authentication policies, RFC 5246 Section 7.4.4.
const (
	NoClientCert ClientAuthType = iota
	RequestClientCert
	RequireAnyClientCert
	VerifyClientCertIfGiven
	RequireAndVerifyClientCert
)

// ExtendedMasterSecretType controls whether this endpoint offers, requires,
// or refuses RFC 7627's extended master secret derivation.
type ExtendedMasterSecretType int

// Extended master secret policies.
const (
	RequestExtendedMasterSecret ExtendedMasterSecretType = iota
	RequireExtendedMasterSecret
	DisableExtendedMasterSecret
)

// CertificatePair is a DER certificate chain plus its private key, the
// external-collaborator shape spec §1 leaves PEM/X.509 decoding to the
// caller for.
type CertificatePair struct {
	Certificate [][]byte
	PrivateKey  crypto.PrivateKey
}

// Config configures a Client/Server handshake. Every field is read-only
// for the lifetime of a Conn (spec §5: "Config is immutable once a
// handshake begins"); callers must not mutate a Config shared across Dial
// calls after the first one starts.
type Config struct {
	// Certificates is this endpoint's own certificate chain(s), used for
	// the ECDHE_ECDSA and RSA key-exchange suites.
	Certificates []CertificatePair

	// PSK resolves an identity hint to a pre-shared key. PSKIdentityHint is
	// the initiator's advertised identity; both must be set together on
	// the client (errPSKAndIdentityMustBeSetForClient).
	PSK             psk.LookupFunc
	PSKIdentityHint []byte

	// CipherSuites restricts negotiation to this subset (in preference
	// order). Nil selects every suite of spec §6.
	CipherSuites []ciphersuite.ID

	// SignatureSchemes restricts the SignatureAlgorithms extension this
	// endpoint advertises/accepts. Nil selects signaturehash.DefaultAlgorithms.
	SignatureSchemes []signaturehash.Algorithm
	InsecureHashes   bool

	ClientAuth           ClientAuthType
	ExtendedMasterSecret ExtendedMasterSecretType

	InsecureSkipVerify       bool
	InsecureSkipVerifyHello  bool
	VerifyPeerCertificate    func(rawCertificates [][]byte, verifiedChains [][]*x509.Certificate) error
	RootCAs                  *x509.CertPool
	ClientCAs                *x509.CertPool
	ServerName               string

	// GetCertificate resolves a certificate chain by SNI server name, used
	// by a responder serving more than one name.
	GetCertificate       NameToCertificateFunc
	GetClientCertificate func(identityHint []byte) (*CertificatePair, error)

	EllipticCurves []elliptic.Curve

	// ServerVersion is the version a responder advertises in its
	// HelloVerifyRequest/ServerHello (spec §4.5). The zero value means
	// protocol.Version1_2; set it to protocol.Version1_0 to exercise the
	// downgrade path of spec §8 scenario 5. Client-side Config ignores
	// this field.
	ServerVersion protocol.Version

	// FlightInterval is the retransmit timer's starting value, RFC 6347
	// Section 4.2.4.1 (default 1s). DisableRetransmitBackoff pins every
	// retransmit to FlightInterval instead of doubling it.
	FlightInterval           time.Duration
	DisableRetransmitBackoff bool

	// MTU overrides the per-family default record ceiling of spec §6.
	MTU int

	ReplayProtectionWindow int

	LoggerFactory logging.LoggerFactory

	KeyLogWriter io.Writer

	// ConnectContextMaker, if set, builds the context.Context used to bound
	// one Dial/Accept handshake attempt (default: context.Background with
	// no deadline).
	ConnectContextMaker func() (context.Context, func())

	HelloRandomBytesGenerator func() [handshake.RandomLength - 4]byte

	OnConnectionAttempt func(net.Addr) error
}

func (c *Config) includeCertificateSuites() bool {
	return len(c.Certificates) > 0 || c.GetCertificate != nil || c.GetClientCertificate != nil
}

func (c *Config) mtuFor(addr net.Addr) int {
	if c.MTU > 0 {
		return c.MTU
	}

	host := addr
	if udpAddr, ok := addr.(*net.UDPAddr); ok {
		if udpAddr.IP.To4() != nil {
			return defaultMTUIPv4
		}
		return defaultMTUIPv6
	}
	_ = host
	return defaultMTUIPv6
}

func (c *Config) serverVersion() protocol.Version {
	if (c.ServerVersion == protocol.Version{}) {
		return protocol.Version1_2
	}
	return c.ServerVersion
}

func (c *Config) replayProtectionWindow() uint {
	if c.ReplayProtectionWindow > 0 {
		return uint(c.ReplayProtectionWindow)
	}
	return defaultReplayProtectionWindow
}

func (c *Config) retransmitInterval() time.Duration {
	if c.FlightInterval > 0 {
		return c.FlightInterval
	}
	return initialFlightInterval
}

func (c *Config) connectContextMaker() (context.Context, func()) {
	if c.ConnectContextMaker != nil {
		return c.ConnectContextMaker()
	}
	return context.WithCancel(context.Background())
}

func validateConfig(config *Config) error {
	if config == nil {
		return errNoConfigProvided
	}

	if config.PSKIdentityHint != nil && config.PSK == nil {
		return errIdentityNoPSK
	}

	for _, pair := range config.Certificates {
		if len(pair.Certificate) == 0 {
			return errInvalidCertificate
		}
		switch pair.PrivateKey.(type) {
		case ed25519.PrivateKey, *ecdsa.PrivateKey, *rsa.PrivateKey:
		default:
			return errInvalidPrivateKey
		}
	}

	if _, err := parseCipherSuites(config.CipherSuites); err != nil {
		return err
	}

	if _, err := signaturehash.ParseSignatureSchemes(config.SignatureSchemes, config.InsecureHashes); err != nil {
		return err
	}

	return nil
}

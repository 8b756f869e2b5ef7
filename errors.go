// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"errors"
	"fmt"

	"github.com/pionwire/dtls-endpoint/pkg/protocol/alert"
)

// Sentinel errors surfaced directly by the Conn/Config/handshake layer.
var (
	errNilNextConn                      = errors.New("dtls: next PacketConn must not be nil")
	errNoConfigProvided                 = errors.New("dtls: no Config provided")
	errPSKAndIdentityMustBeSetForClient = errors.New("dtls: PSK and PSKIdentityHint must both be set for a client")
	errIdentityNoPSK                    = errors.New("dtls: PSKIdentityHint set without a PSK callback")
	errNoAvailableCipherSuites          = errors.New("dtls: no available cipher suites")
	errNoAvailableSignatureSchemes      = errors.New("dtls: no available signature schemes")
	errInvalidCertificate               = errors.New("dtls: certificate chain is invalid")
	errInvalidPrivateKey                = errors.New("dtls: private key type is not supported")
	errServerMustHaveCertificate        = errors.New("dtls: server must have a certificate for non-PSK suites")
	errServerNameEmpty                  = errors.New("dtls: ServerName must not be empty when verifying the peer")

	errHandshakeInProgress     = errors.New("dtls: handshake is in progress")
	errBufferTooSmall          = errors.New("dtls: buffer is too small to hold the decrypted data")
	errDeadlineExceeded        = errors.New("dtls: read/write deadline exceeded")
	errSequenceNumberOverflow  = errors.New("dtls: sequence number overflowed the 48-bit record field")
	errApplicationDataEpochZero = errors.New("dtls: received application data under epoch zero")
	errFailedToAccessPoolReadBuffer = errors.New("dtls: failed to access pooled read buffer")
	errNotEnoughRoomForNonce   = errors.New("dtls: not enough room to extract the AEAD nonce")
	errUnhandledContextType    = errors.New("dtls: unhandled record content type")

	// ErrConnClosed is returned from Close when the Conn was already closed
	// by the user.
	ErrConnClosed = errors.New("dtls: conn is already closed")

	errNoCookieOrHelloVerifyOnServer = errors.New("dtls: server handshake configuration is inconsistent")

	errNoPSKConfigured             = errors.New("dtls: no PSK callback configured for a PSK cipher suite")
	errMissingServerKeyExchange    = errors.New("dtls: cipher suite requires a ServerKeyExchange the peer did not send")
	errServerKeyExchangeSignature  = errors.New("dtls: ServerKeyExchange signature verification failed")
	errNoCertificateConfigured     = errors.New("dtls: cipher suite requires a local certificate, none configured")
	errInvalidServerCertificate    = errors.New("dtls: responder certificate chain did not parse as X.509")
	errUnknownKeyExchangeAlgorithm = errors.New("dtls: unknown key exchange algorithm")
	errFinishedVerifyDataMismatch  = errors.New("dtls: peer Finished verify_data did not match")
	errCookieMismatch              = errors.New("dtls: ClientHello cookie did not verify")
	errNoMutualCipherSuite         = errors.New("dtls: no cipher suite mutually supported")
)

// HandshakeError wraps any error that aborted a handshake in progress, so
// callers can distinguish "never connected" from "connected, then a later
// I/O error occurred" (spec §7: "handshake failures surface through a
// distinct error type from post-handshake I/O errors").
type HandshakeError struct {
	Err error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("dtls: handshake failed: %s", e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// alertError wraps an Alert received from the peer so the read/handshake
// loops can tell a close_notify or fatal alert apart from a transport error.
type alertError struct {
	*alert.Alert
}

func (e *alertError) Error() string {
	return fmt.Sprintf("dtls: received alert: %s", e.Alert.Error())
}

// IsFatalOrCloseNotify reports whether this alert should terminate the
// connection: every fatal alert does, and so does a warning-level
// close_notify (RFC 6347 Section 4.2.8).
func (e *alertError) IsFatalOrCloseNotify() bool {
	return e.Level == alert.Fatal || e.Description == alert.CloseNotify
}

// errorToAlert gives the Alert Description for an internal error that was
// never wrapped in an explicit alert. Every error, including
// errHandshakeInProgress and errSequenceNumberOverflow, maps to
// InternalError.
func errorToAlert(err error) alert.Description {
	switch {
	case errors.Is(err, errHandshakeInProgress), errors.Is(err, errSequenceNumberOverflow):
		return alert.InternalError
	default:
		return alert.InternalError
	}
}

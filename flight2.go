// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"context"

	"github.com/pionwire/dtls-endpoint/internal/handshakecache"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/alert"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/handshake"
)

// flight2Generate sends a stateless HelloVerifyRequest carrying a cookie
// derived from (peer address, ClientHello.Random), RFC 6347 Section 4.2.1.
// Nothing about the attempt is remembered; flight2Parse recomputes the same
// cookie to verify the retry rather than comparing against stored state.
func flight2Generate(c flightConn, state *State, _ *handshakecache.Cache, cfg *handshakeConfig) ([]*packet, *alert.Alert, error) {
	if cfg.cookieGenerator == nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, errNoCookieOrHelloVerifyOnServer
	}

	clientRandom := state.remoteRandom.MarshalFixed()
	cookie := cfg.cookieGenerator.generate(c.RemoteAddr(), clientRandom)

	// spec §4.5/§8 scenario 5: the responder's advertised version here is
	// what the initiator adopts for the rest of the handshake.
	state.version = cfg.serverVersion
	hvr := &handshake.MessageHelloVerifyRequest{Version: state.version, Cookie: cookie}
	return []*packet{handshakePacket(0, state.version, hvr, false)}, nil, nil
}

// flight2Parse waits for the initiator to retry its ClientHello with the
// cookie echoed back. A cookieless retry (the peer hasn't gotten the
// HelloVerifyRequest yet) is treated as "still waiting", not a protocol
// error, since flight1 may simply be racing flight2 over a lossy link.
func flight2Parse(_ context.Context, c flightConn, state *State, cache *handshakecache.Cache, cfg *handshakeConfig) (flightVal, *alert.Alert, error) {
	msgs, ok := cache.FullPullMap(
		handshakecache.PullRule{Type: handshake.TypeClientHello, Epoch: 0, IsClient: true},
	)
	if !ok {
		return flight2, nil, nil
	}

	ch, ok := msgs[handshake.TypeClientHello].(*handshake.MessageClientHello)
	if !ok || len(ch.Cookie) == 0 {
		return flight2, nil, nil
	}

	clientRandom := ch.Random.MarshalFixed()
	if cfg.cookieGenerator == nil || !cfg.cookieGenerator.verify(ch.Cookie, c.RemoteAddr(), clientRandom) {
		return flight2, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errCookieMismatch
	}

	state.remoteRandom = ch.Random
	return flight4, nil, nil
}

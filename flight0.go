// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"context"

	"github.com/pionwire/dtls-endpoint/internal/handshakecache"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/alert"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/handshake"
)

// flight0Parse waits for the initiator's first ClientHello. flight0 has no
// generator: the responder never sends anything until it has seen at least
// one ClientHello, RFC 6347 Section 4.2.1. The cookie itself is verified
// one flight later (flight2Parse); this step only confirms something
// arrived and records the random the cookie binds to.
func flight0Parse(_ context.Context, _ flightConn, state *State, cache *handshakecache.Cache, _ *handshakeConfig) (flightVal, *alert.Alert, error) {
	msgs, ok := cache.FullPullMap(
		handshakecache.PullRule{Type: handshake.TypeClientHello, Epoch: 0, IsClient: true},
	)
	if !ok {
		return flight0, nil, nil
	}

	ch, ok := msgs[handshake.TypeClientHello].(*handshake.MessageClientHello)
	if !ok {
		return flight0, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errHandshakeInProgress
	}

	state.remoteRandom = ch.Random
	return flight2, nil, nil
}

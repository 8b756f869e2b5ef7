// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"context"

	"github.com/pionwire/dtls-endpoint/internal/handshakecache"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/alert"
)

// flight3Generate resends the ClientHello, now carrying the cookie the
// responder handed back in its HelloVerifyRequest. Unlike the flight1
// ClientHello, this one becomes part of the transcript (spec §3 invariant
// 3): Conn.writePackets pushes it under the same cache key as the flight1
// ClientHello, replacing those bytes, and Cache.Transcript leaves out the
// HelloVerifyRequest.
func flight3Generate(_ flightConn, state *State, _ *handshakecache.Cache, cfg *handshakeConfig) ([]*packet, *alert.Alert, error) {
	hello, a, err := newClientHello(state, cfg, state.cookie)
	if a != nil || err != nil {
		return nil, a, err
	}
	return []*packet{handshakePacket(0, state.version, hello, false)}, nil, nil
}

// flight3Parse waits for the responder's full ServerHello...ServerHelloDone
// flight.
func flight3Parse(_ context.Context, _ flightConn, state *State, cache *handshakecache.Cache, _ *handshakeConfig) (flightVal, *alert.Alert, error) {
	_, ok, a, err := parseServerFlight(state, cache, 0)
	if a != nil || err != nil {
		return flight3, a, err
	}
	if !ok {
		return flight3, nil, nil
	}
	return flight5, nil, nil
}

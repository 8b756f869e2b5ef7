// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"context"

	"github.com/pionwire/dtls-endpoint/internal/handshakecache"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/alert"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/handshake"
)

// flight1Generate sends the initiator's first ClientHello, with no cookie,
// RFC 6347 Section 4.2.1. Conn.writePackets pushes it into the handshake
// cache like any other message, but the flight3 ClientHello shares its cache
// key and overwrites it, so the cookieless ClientHello never ends up in a
// transcript that is hashed (spec §3 invariant 3).
func flight1Generate(_ flightConn, state *State, _ *handshakecache.Cache, cfg *handshakeConfig) ([]*packet, *alert.Alert, error) {
	hello, a, err := newClientHello(state, cfg, nil)
	if a != nil || err != nil {
		return nil, a, err
	}
	return []*packet{handshakePacket(0, state.version, hello, false)}, nil, nil
}

// flight1Parse waits for either a HelloVerifyRequest (the common case, RFC
// 6347's cookie exchange) or, if the responder chose to skip it, a direct
// ServerHello flight.
func flight1Parse(_ context.Context, _ flightConn, state *State, cache *handshakecache.Cache, _ *handshakeConfig) (flightVal, *alert.Alert, error) {
	if msgs, ok := cache.FullPullMap(
		handshakecache.PullRule{Type: handshake.TypeHelloVerifyRequest, Epoch: 0, IsClient: false},
	); ok {
		if hvr, ok := msgs[handshake.TypeHelloVerifyRequest].(*handshake.MessageHelloVerifyRequest); ok {
			state.cookie = append([]byte{}, hvr.Cookie...)
			// RFC 6347 Section 4.2.1: adopt the responder's advertised
			// version as our own before resending ClientHello.
			state.version = hvr.Version
			return flight3, nil, nil
		}
	}

	if _, ok, a, err := parseServerFlight(state, cache, 0); ok || a != nil || err != nil {
		if a != nil || err != nil {
			return flight1, a, err
		}
		return flight5, nil, nil
	}

	return flight1, nil, nil
}

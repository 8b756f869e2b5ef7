// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"github.com/pionwire/dtls-endpoint/internal/handshakecache"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/prf"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/alert"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/handshake"
)

// flight6Generate sends the responder's ChangeCipherSpec + Finished, RFC
// 5246 Section 7.3. By the time this runs, flight4Parse has already derived
// the master secret and validated the initiator's Finished, so this flight
// only needs to prove the responder reached the same state. flight6 is the
// only flight with isLastSendFlight() true: nothing more is exchanged once
// it has been sent.
func flight6Generate(_ flightConn, state *State, cache *handshakecache.Cache, _ *handshakeConfig) ([]*packet, *alert.Alert, error) {
	suite := state.cipherSuite
	if suite == nil || state.masterSecret == nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}, errHandshakeInProgress
	}

	pkts := []*packet{changeCipherSpecPacket(state.getLocalEpoch(), state.version)}

	newEpoch := state.getLocalEpoch() + 1
	state.setLocalEpoch(newEpoch)

	transcriptHash := suite.HashFunc()()
	transcriptHash.Write(cache.Transcript())
	verifyData, err := prf.VerifyDataServer(state.masterSecret, transcriptHash.Sum(nil), state.prfHashFunc(suite))
	if err != nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}

	finPacket, err := cacheOwnMessage(state, cache, newEpoch, &handshake.MessageFinished{VerifyData: verifyData}, true)
	if err != nil {
		return nil, &alert.Alert{Level: alert.Fatal, Description: alert.InternalError}, err
	}
	pkts = append(pkts, finPacket)

	return pkts, nil, nil
}

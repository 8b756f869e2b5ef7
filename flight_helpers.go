// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"github.com/pionwire/dtls-endpoint/internal/handshakecache"
	"github.com/pionwire/dtls-endpoint/pkg/protocol"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/handshake"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/recordlayer"
)

// handshakePacket wraps one handshake Message for transmission at epoch,
// encrypted once the epoch's cipher is live. Conn.writePackets assigns the
// MessageSequence, fragments per MTU, and pushes the reassembled message
// into the handshake transcript cache.
func handshakePacket(epoch uint16, version protocol.Version, msg handshake.Message, encrypt bool) *packet {
	return &packet{
		record: &recordlayer.RecordLayer{
			Header: recordlayer.Header{
				ContentType: protocol.ContentTypeHandshake,
				Version:     version,
				Epoch:       epoch,
			},
			Content: &handshake.Handshake{Message: msg},
		},
		shouldEncrypt: encrypt,
	}
}

// changeCipherSpecPacket wraps a ChangeCipherSpec at epoch, the epoch the
// sender is leaving; the record takes that epoch's next sequence number.
// The calling flight generator moves the local epoch to epoch+1 right
// after, and the new epoch's sequence numbers start at 0.
func changeCipherSpecPacket(epoch uint16, version protocol.Version) *packet {
	return &packet{
		record: &recordlayer.RecordLayer{
			Header: recordlayer.Header{
				ContentType: protocol.ContentTypeChangeCipherSpec,
				Version:     version,
				Epoch:       epoch,
			},
			Content: &protocol.ChangeCipherSpec{},
		},
		shouldEncrypt: epoch > 0,
	}
}

// cacheOwnMessage assigns the next handshake send sequence number to msg,
// marshals it, and pushes the result into cache immediately rather than
// waiting for Conn.writePackets. flight4/flight5/flight6 need this: they
// compute a Finished verify_data (and, for an extended master secret, a
// session hash) over their own just-built messages before those messages
// have actually been sent, so the transcript must already reflect them.
// It returns a packet with alreadyCached set, telling writePackets to send
// the record as-is without re-pushing or reassigning MessageSequence.
func cacheOwnMessage(state *State, cache *handshakecache.Cache, epoch uint16, msg handshake.Message, encrypt bool) (*packet, error) {
	seq := state.handshakeSendSequence
	state.handshakeSendSequence++

	h := &handshake.Handshake{Header: handshake.Header{MessageSequence: uint16(seq)}, Message: msg}
	raw, err := h.Marshal()
	if err != nil {
		return nil, err
	}
	cache.Push(raw, epoch, uint16(seq), msg.Type(), state.isClient)

	return &packet{
		record: &recordlayer.RecordLayer{
			Header: recordlayer.Header{
				ContentType: protocol.ContentTypeHandshake,
				Version:     state.version,
				Epoch:       epoch,
			},
			Content: h,
		},
		shouldEncrypt: encrypt,
		alreadyCached: true,
	}, nil
}

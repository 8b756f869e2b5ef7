// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import "github.com/pionwire/dtls-endpoint/pkg/protocol/recordlayer"

// packet is one outbound record queued for marshaling, optional encryption,
// and coalescing into an outbound datagram.
type packet struct {
	record        *recordlayer.RecordLayer
	shouldEncrypt bool

	// resetLocalSequenceNumber makes Conn.processPacket stamp sequence
	// number 0 on this record instead of the epoch's next one; the epoch's
	// counter is left as it is. No packet built in this package sets it.
	resetLocalSequenceNumber bool

	// alreadyCached is set by flight generators that must know their own
	// handshake transcript before they finish building later messages in
	// the same flight (flight4/flight5/flight6 computing Finished's
	// verify_data). Those generators assign MessageSequence and push the
	// raw bytes into the handshake cache themselves; writePackets skips
	// re-pushing a packet carrying this flag.
	alreadyCached bool
}

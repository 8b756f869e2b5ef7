// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package fragmentbuffer implements C5, the handshake fragment reassembler
// of spec §4.3: for each message_sequence it coalesces fragments by offset
// until the whole [0, total_length) range is covered, tolerating
// out-of-order arrival and idempotent overlapping duplicates.
package fragmentbuffer

import (
	"encoding/binary"
	"sort"
)

// maxPendingBytes bounds the bytes a single peer may have buffered across
// all incomplete messages before the buffer drops the partial set, per
// spec §4.3's recommended 64 KiB cap.
const maxPendingBytes = 64 * 1024

const (
	recordHeaderSize    = 13
	handshakeHeaderSize = 12
)

type span struct {
	offset, length uint32
}

type pending struct {
	epoch           uint16
	messageSequence uint16
	typ             byte
	totalLength     uint32
	data            []byte // totalLength bytes, only the covered ranges are meaningful
	covered         []span // sorted, merged, non-overlapping
	pendingBytes    int
}

func (p *pending) coveredAll() bool {
	return len(p.covered) == 1 && p.covered[0].offset == 0 && p.covered[0].length == p.totalLength
}

func (p *pending) addSpan(offset, length uint32, frag []byte) {
	if offset+length > uint32(len(p.data)) {
		return
	}
	copy(p.data[offset:offset+length], frag)

	merged := append(p.covered, span{offset, length})
	sort.Slice(merged, func(i, j int) bool { return merged[i].offset < merged[j].offset })

	out := merged[:0]
	for _, s := range merged {
		if len(out) > 0 && s.offset <= out[len(out)-1].offset+out[len(out)-1].length {
			last := &out[len(out)-1]
			if end := s.offset + s.length; end > last.offset+last.length {
				last.length = end - last.offset
			}
			continue
		}
		out = append(out, s)
	}
	p.covered = out

	p.pendingBytes = 0
	for _, s := range p.covered {
		p.pendingBytes += int(s.length)
	}
}

// FragmentBuffer accumulates handshake-record fragments for one peer and
// yields reassembled logical handshake messages in the order they complete
// (not necessarily message_sequence order; the handshake cache sorts that
// out). It is not safe for concurrent use.
type FragmentBuffer struct {
	byMessageSequence map[uint16]*pending
	ready             []readyMessage
}

type readyMessage struct {
	epoch uint16
	data  []byte
}

// New returns an empty FragmentBuffer.
func New() *FragmentBuffer {
	return &FragmentBuffer{byMessageSequence: make(map[uint16]*pending)}
}

// Push feeds one inbound record's raw bytes (header + fragment) into the
// buffer. It reports whether the record was a Handshake-content record (the
// caller routes non-handshake content elsewhere); a non-handshake record is
// not an error. Completed messages become available via Pop.
func (b *FragmentBuffer) Push(raw []byte) (bool, error) {
	if len(raw) < recordHeaderSize {
		return false, errBufferTooSmall
	}
	if raw[0] != contentTypeHandshake {
		return false, nil
	}

	epoch := binary.BigEndian.Uint16(raw[3:5])
	body := raw[recordHeaderSize:]
	if len(body) < handshakeHeaderSize {
		return false, errBufferTooSmall
	}

	typ := body[0]
	totalLength := get24(body[1:4])
	messageSequence := binary.BigEndian.Uint16(body[4:6])
	fragmentOffset := get24(body[6:9])
	fragmentLength := get24(body[9:12])
	fragment := body[handshakeHeaderSize:]
	if uint32(len(fragment)) < fragmentLength {
		return false, errBufferTooSmall
	}
	fragment = fragment[:fragmentLength]

	p, ok := b.byMessageSequence[messageSequence]
	if !ok {
		if totalLength > maxPendingBytes {
			return false, errFragmentOverflow
		}
		p = &pending{
			epoch:           epoch,
			messageSequence: messageSequence,
			typ:             typ,
			totalLength:     totalLength,
			data:            make([]byte, totalLength),
		}
		b.byMessageSequence[messageSequence] = p
	}

	if p.pendingBytes+int(fragmentLength) > maxPendingBytes {
		delete(b.byMessageSequence, messageSequence)
		return false, errFragmentOverflow
	}

	p.addSpan(fragmentOffset, fragmentLength, fragment)
	if !p.coveredAll() {
		return true, nil
	}

	delete(b.byMessageSequence, messageSequence)

	out := make([]byte, handshakeHeaderSize+len(p.data))
	out[0] = p.typ
	put24(out[1:4], p.totalLength)
	binary.BigEndian.PutUint16(out[4:6], p.messageSequence)
	put24(out[6:9], 0)
	put24(out[9:12], p.totalLength)
	copy(out[handshakeHeaderSize:], p.data)

	b.ready = append(b.ready, readyMessage{epoch: epoch, data: out})
	return true, nil
}

// Pop returns the next reassembled logical handshake message (header
// reconstructed with offset 0, fragment_length = total_length) along with
// the epoch it arrived under, or (nil, 0) if none is ready.
func (b *FragmentBuffer) Pop() ([]byte, uint16) {
	if len(b.ready) == 0 {
		return nil, 0
	}
	m := b.ready[0]
	b.ready = b.ready[1:]
	return m.data, m.epoch
}

const contentTypeHandshake = 22

func put24(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

func get24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

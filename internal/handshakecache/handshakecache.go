// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package handshakecache is the running transcript the handshake engine
// (C6) uses to build VerifyData and CertificateVerify input deterministically
// (spec §3's "rolling transcript accumulator", invariant 3). Every
// transmitted or received handshake message except HelloVerifyRequest and
// the cookieless initial ClientHello is pushed here exactly once, keyed by
// (type, direction, epoch); later PullRule-driven queries reconstruct the
// ordered byte ranges VerifyData/CertificateVerify sign over.
package handshakecache

import (
	"github.com/pionwire/dtls-endpoint/pkg/protocol/handshake"
)

type entryKey struct {
	typ      handshake.Type
	isClient bool
	epoch    uint16
}

type entry struct {
	messageSequence uint16
	raw             []byte // header(12) + body, as transmitted/received
}

// PullRule selects one transcript entry: the message Type, the epoch it
// was sent/received under, which side sent it, and whether its absence is
// tolerated (Optional) or fatal to the pull.
type PullRule struct {
	Type     handshake.Type
	Epoch    uint16
	IsClient bool
	Optional bool
}

// Cache is the per-peer handshake transcript. Not safe for concurrent use;
// callers serialize access the same way they serialize the rest of a
// peer's handshake state (spec §5: "per-session lock").
type Cache struct {
	byKey map[entryKey]*entry
	order []entryKey // insertion order, used to rebuild the session hash
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{byKey: make(map[entryKey]*entry)}
}

// Push records one reassembled handshake message. A retransmission of a
// message already in the cache (same type/direction/epoch) replaces the
// stored bytes but keeps its position in transcript order, since a
// retransmit is never itself transcript-distinct input (spec §3).
func (c *Cache) Push(raw []byte, epoch uint16, messageSequence uint16, typ handshake.Type, isClient bool) {
	key := entryKey{typ: typ, isClient: isClient, epoch: epoch}
	if _, ok := c.byKey[key]; !ok {
		c.order = append(c.order, key)
	}
	c.byKey[key] = &entry{messageSequence: messageSequence, raw: append([]byte{}, raw...)}
}

// PullAndMerge concatenates the raw (header+body) bytes of every rule's
// entry, in rule order, skipping every rule whose entry is absent, whether
// or not it is marked Optional.
// This reconstructs the exact byte range spec §3 requires VerifyData and
// CertificateVerify to sign over.
func (c *Cache) PullAndMerge(rules ...PullRule) []byte {
	var out []byte
	for _, r := range rules {
		e, ok := c.byKey[entryKey{typ: r.Type, isClient: r.IsClient, epoch: r.Epoch}]
		if !ok {
			continue
		}
		out = append(out, e.raw...)
	}
	return out
}

// Transcript concatenates every cached message's raw bytes in the order
// they were first pushed, excluding HelloVerifyRequest: RFC 6347 Section
// 4.2.1 excludes it from the handshake message hash regardless of whether
// the responder chose to send one. The cookieless initial ClientHello needs
// no separate exclusion here: it shares its cache key with the cookie-
// bearing retry that follows it, so Push has already overwritten its bytes
// by the time a transcript is taken.
func (c *Cache) Transcript() []byte {
	var out []byte
	for _, key := range c.order {
		if key.typ == handshake.TypeHelloVerifyRequest {
			continue
		}
		out = append(out, c.byKey[key].raw...)
	}
	return out
}

// FullPullMap decodes every rule's cached entry into its concrete
// handshake.Message. It reports ok=false if any non-Optional rule has no
// matching entry.
func (c *Cache) FullPullMap(rules ...PullRule) (map[handshake.Type]handshake.Message, bool) {
	out := make(map[handshake.Type]handshake.Message, len(rules))
	for _, r := range rules {
		e, ok := c.byKey[entryKey{typ: r.Type, isClient: r.IsClient, epoch: r.Epoch}]
		if !ok {
			if r.Optional {
				continue
			}
			return nil, false
		}

		h := &handshake.Handshake{}
		if err := h.Unmarshal(e.raw); err != nil {
			return nil, false
		}
		out[r.Type] = h.Message
	}
	return out, true
}

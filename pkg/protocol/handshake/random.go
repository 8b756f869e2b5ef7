// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// RandomLength is the wire size of a Random: 4-byte gmt_unix_time followed
// by 28 bytes of random data.
const RandomLength = 32

const randomBytesLength = 28

// Random is the 32-byte Random structure carried in ClientHello/ServerHello,
// RFC 5246 Section 7.4.1.2.
type Random struct {
	GMTUnixTime time.Time
	RandomBytes [randomBytesLength]byte
}

// Populate fills in the current time and CSPRNG bytes.
func (r *Random) Populate() error {
	r.GMTUnixTime = time.Now()
	_, err := rand.Read(r.RandomBytes[:])
	return err
}

// MarshalFixed encodes the Random into its fixed 32-byte wire form.
func (r *Random) MarshalFixed() [RandomLength]byte {
	var out [RandomLength]byte
	binary.BigEndian.PutUint32(out[0:4], uint32(r.GMTUnixTime.Unix()))
	copy(out[4:], r.RandomBytes[:])
	return out
}

// UnmarshalFixed decodes a Random from its fixed 32-byte wire form.
func (r *Random) UnmarshalFixed(in [RandomLength]byte) {
	r.GMTUnixTime = time.Unix(int64(binary.BigEndian.Uint32(in[0:4])), 0)
	copy(r.RandomBytes[:], in[4:])
}

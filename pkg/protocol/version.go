// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package protocol

// Version is the record layer protocol version, encoded major.minor per RFC 6347.
type Version struct {
	Major, Minor uint8
}

// Equal reports whether two Versions refer to the same wire value.
func (v Version) Equal(x Version) bool {
	return v.Major == x.Major && v.Minor == x.Minor
}

// String implements fmt.Stringer.
func (v Version) String() string {
	switch {
	case v.Equal(Version1_2):
		return "DTLS 1.2"
	case v.Equal(Version1_0):
		return "DTLS 1.0"
	default:
		return "DTLS unknown"
	}
}

var (
	// Version1_2 is DTLS 1.2, wire-encoded as {254, 253}.
	Version1_2 = Version{Major: 0xfe, Minor: 0xfd}
	// Version1_0 is DTLS 1.0, wire-encoded as {254, 255}.
	Version1_0 = Version{Major: 0xfe, Minor: 0xff}
)

// olderOrEqual reports whether v is no newer than w. DTLS's wire encoding
// counts down from 1.0, so a smaller minor byte is the newer version.
func (v Version) olderOrEqual(w Version) bool {
	return v.Minor >= w.Minor
}

// MinVersion returns whichever of a, b is the older of the two, the
// downgrade rule an initiator applies when a responder advertises a
// version below the one it offered (RFC 6347 Section 4.2.1).
func MinVersion(a, b Version) Version {
	if a.olderOrEqual(b) {
		return a
	}
	return b
}

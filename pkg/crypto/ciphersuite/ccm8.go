// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"

	"github.com/pionwire/dtls-endpoint/pkg/protocol/recordlayer"
)

const (
	ccmTagLength   = 8 // CCM_8 per RFC 6655
	ccmNonceLength = 12
)

// ccm implements the AES-128-CCM-8 AEAD construction shared by the two
// *_CCM_8 suites of spec §6, adapted from the teacher's GCM cipher: the
// same explicit-nonce/fixed-IV split and AAD shape, with an 8-byte
// authentication tag instead of GCM's 16.
type ccm struct {
	localCCM, remoteCCM         cipher.AEAD
	localWriteIV, remoteWriteIV []byte
	initialized                 bool
}

func newCCM() *ccm {
	return &ccm{}
}

// HashFunc implements the CipherSuite.HashFunc shape: every CCM_8 suite
// here uses SHA-256 for the PRF and Finished verify_data, per RFC 6655.
func (c *ccm) HashFunc() func() hash.Hash {
	return sha256.New
}

// InitCipher implements the CipherSuite.InitCipher shape.
func (c *ccm) InitCipher(localKey, localMACKey, localIV, remoteKey, remoteMACKey, remoteIV []byte) error {
	return c.initCipher(localKey, localMACKey, localIV, remoteKey, remoteMACKey, remoteIV)
}

func (c *ccm) initCipher(localKey, _, localIV, remoteKey, _, remoteIV []byte) error {
	localBlock, err := aes.NewCipher(localKey)
	if err != nil {
		return err
	}
	localAEAD, err := cipher.NewCCMWithTagSize(localBlock, ccmTagLength)
	if err != nil {
		return err
	}

	remoteBlock, err := aes.NewCipher(remoteKey)
	if err != nil {
		return err
	}
	remoteAEAD, err := cipher.NewCCMWithTagSize(remoteBlock, ccmTagLength)
	if err != nil {
		return err
	}

	c.localCCM = localAEAD
	c.localWriteIV = localIV
	c.remoteCCM = remoteAEAD
	c.remoteWriteIV = remoteIV
	c.initialized = true
	return nil
}

// Encrypt implements the CipherSuite.Encrypt shape.
func (c *ccm) Encrypt(pkt *recordlayer.RecordLayer, raw []byte) ([]byte, error) {
	if !c.initialized {
		return nil, errCipherNotInitialized
	}

	payload := raw[pkt.Header.Size():]
	raw = raw[:pkt.Header.Size()]

	nonce := make([]byte, ccmNonceLength)
	copy(nonce, c.localWriteIV[:4])
	if _, err := rand.Read(nonce[4:]); err != nil {
		return nil, err
	}

	additionalData := generateAEADAdditionalData(&pkt.Header, len(payload))
	encryptedPayload := c.localCCM.Seal(nil, nonce, payload, additionalData)

	r := make([]byte, len(raw)+len(nonce[4:])+len(encryptedPayload))
	copy(r, raw)
	copy(r[len(raw):], nonce[4:])
	copy(r[len(raw)+len(nonce[4:]):], encryptedPayload)

	binary.BigEndian.PutUint16(r[pkt.Header.Size()-2:], uint16(len(r)-pkt.Header.Size()))
	return r, nil
}

// Decrypt implements the CipherSuite.Decrypt shape.
func (c *ccm) Decrypt(h recordlayer.Header, in []byte) ([]byte, error) {
	if !c.initialized {
		return nil, errCipherNotInitialized
	}

	switch {
	case len(in) <= (8 + h.Size()):
		return nil, errNotEnoughRoomForNonce
	}

	nonce := make([]byte, 0, ccmNonceLength)
	nonce = append(append(nonce, c.remoteWriteIV[:4]...), in[h.Size():h.Size()+8]...)
	out := in[h.Size()+8:]

	additionalData := generateAEADAdditionalData(&h, len(out)-ccmTagLength)
	out, err := c.remoteCCM.Open(out[:0], nonce, out, additionalData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidMAC, err) //nolint:errorlint
	}

	// Callers (Conn.handleIncomingPacket) dispatch on the decrypted bytes
	// as if they were a fresh record: they read buf[0] as a ContentType and
	// unmarshal a Header from the front, so the original header must stay
	// attached to the decrypted content, not just the plaintext payload.
	// ContentLen in that header describes the encrypted wire length, not
	// the shorter plaintext, so it has to be rewritten to match.
	result := append(in[:h.Size()], out...)
	binary.BigEndian.PutUint16(result[h.Size()-2:], uint16(len(out)))
	return result, nil
}

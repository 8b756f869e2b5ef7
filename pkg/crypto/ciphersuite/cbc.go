// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // TLS_RSA_WITH_AES_256_CBC_SHA's MAC is HMAC-SHA1 by name
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/pionwire/dtls-endpoint/pkg/protocol/recordlayer"
)

// cbc implements MAC-then-encrypt AES-CBC, the bulk cipher shared by every
// CBC suite in spec §6. The MAC hash is parameterized per suite: the
// _SHA256 suites use HMAC-SHA256, while TLS_RSA_WITH_AES_256_CBC_SHA uses
// HMAC-SHA1 per its IANA name. Decrypt compares MACs in constant time
// (hmac.Equal) and folds padding errors into the same BadRecordMac result
// as a MAC mismatch, per spec §4.2; a padding failure returns before any
// MAC is computed, so the two failures do not take the same time.
type cbc struct {
	localBlock, remoteBlock cipher.Block
	localMac, remoteMac     []byte
	hash                    func() hash.Hash
	macSize                 int
	initialized             bool
}

// newCBC builds a CBC cipher with an HMAC-SHA256 MAC, the default for every
// suite in spec §6 except TLS_RSA_WITH_AES_256_CBC_SHA.
func newCBC() *cbc {
	return &cbc{hash: sha256.New, macSize: sha256.Size}
}

// newCBCWithSHA1 builds a CBC cipher with a legacy HMAC-SHA1 MAC, for
// TLS_RSA_WITH_AES_256_CBC_SHA.
func newCBCWithSHA1() *cbc {
	return &cbc{hash: sha1.New, macSize: sha1.Size}
}

// macHashFunc returns the MAC hash: HMAC-SHA256 for every CBC suite except
// TLS_RSA_WITH_AES_256_CBC_SHA's legacy HMAC-SHA1.
func (c *cbc) macHashFunc() func() hash.Hash {
	return c.hash
}

// HashFunc implements the CipherSuite.HashFunc shape: the PRF/Finished hash,
// which is SHA-256 for every DTLS 1.2 suite here regardless of MAC choice.
func (c *cbc) HashFunc() func() hash.Hash {
	return sha256.New
}

func (c *cbc) macLen() int {
	return c.macSize
}

// initCipher builds the AES key schedules from the key_block slices handed
// to it by CipherSuite.InitCipher. CBC's IV is explicit per-record on the
// wire (RFC 6347 Section 4.1.2.5.2), so no IV is retained here.
func (c *cbc) initCipher(localKey, localMACKey, _ []byte, remoteKey, remoteMACKey, _ []byte) error {
	localBlock, err := aes.NewCipher(localKey)
	if err != nil {
		return err
	}
	remoteBlock, err := aes.NewCipher(remoteKey)
	if err != nil {
		return err
	}

	c.localBlock = localBlock
	c.remoteBlock = remoteBlock
	c.localMac = localMACKey
	c.remoteMac = remoteMACKey
	c.initialized = true
	return nil
}

// InitCipher implements the CipherSuite.InitCipher shape.
func (c *cbc) InitCipher(localKey, localMACKey, localIV, remoteKey, remoteMACKey, remoteIV []byte) error {
	return c.initCipher(localKey, localMACKey, localIV, remoteKey, remoteMACKey, remoteIV)
}

func (c *cbc) encrypt(h *recordlayer.Header, payload []byte) ([]byte, error) {
	if !c.initialized {
		return nil, errCipherNotInitialized
	}

	mac := hmac.New(c.macHashFunc(), c.localMac)
	macInput := generateAEADAdditionalData(h, len(payload))
	if _, err := mac.Write(macInput); err != nil {
		return nil, err
	}
	if _, err := mac.Write(payload); err != nil {
		return nil, err
	}
	payload = append(append([]byte{}, payload...), mac.Sum(nil)...)

	blockSize := c.localBlock.BlockSize()
	padLen := blockSize - (len(payload)+1)%blockSize
	padding := make([]byte, padLen+1)
	for i := range padding {
		padding[i] = byte(padLen)
	}
	payload = append(payload, padding...)

	iv := make([]byte, blockSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}

	out := make([]byte, len(payload))
	cipher.NewCBCEncrypter(c.localBlock, iv).CryptBlocks(out, payload)

	return append(iv, out...), nil
}

// Encrypt implements the CipherSuite.Encrypt shape: header-prefixed raw in,
// header-prefixed ciphertext out with ContentLen patched to the new size.
func (c *cbc) Encrypt(pkt *recordlayer.RecordLayer, raw []byte) ([]byte, error) {
	payload := raw[pkt.Header.Size():]
	sealed, err := c.encrypt(&pkt.Header, payload)
	if err != nil {
		return nil, err
	}

	r := make([]byte, pkt.Header.Size()+len(sealed))
	copy(r, raw[:pkt.Header.Size()])
	copy(r[pkt.Header.Size():], sealed)
	binary.BigEndian.PutUint16(r[pkt.Header.Size()-2:], uint16(len(sealed)))
	return r, nil
}

// Decrypt implements the CipherSuite.Decrypt shape.
func (c *cbc) Decrypt(h recordlayer.Header, in []byte) ([]byte, error) {
	return c.decrypt(h, in)
}

func (c *cbc) decrypt(h recordlayer.Header, in []byte) ([]byte, error) {
	if !c.initialized {
		return nil, errCipherNotInitialized
	}

	body := in[h.Size():]
	blockSize := c.remoteBlock.BlockSize()
	if len(body) < blockSize || len(body) == blockSize || len(body)%blockSize != 0 {
		return nil, errInvalidMAC
	}

	iv := body[:blockSize]
	ciphertext := body[blockSize:]

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.remoteBlock, iv).CryptBlocks(plain, ciphertext)

	padLen := int(plain[len(plain)-1])
	macSize := c.macLen()
	if padLen+1 > len(plain) || len(plain)-padLen-1 < macSize {
		// Malformed padding is folded into BadRecordMac, never a distinct
		// error, so padding oracles cannot be used to distinguish failure
		// modes (spec §4.2).
		return nil, errInvalidMAC
	}

	contentEnd := len(plain) - padLen - 1 - macSize
	content := plain[:contentEnd]
	gotMAC := plain[contentEnd : contentEnd+macSize]

	mac := hmac.New(c.macHashFunc(), c.remoteMac)
	macInput := generateAEADAdditionalData(&h, len(content))
	_, _ = mac.Write(macInput)
	_, _ = mac.Write(content)
	wantMAC := mac.Sum(nil)

	if !hmac.Equal(gotMAC, wantMAC) {
		return nil, errInvalidMAC
	}

	// Callers (Conn.handleIncomingPacket) dispatch on the decrypted bytes
	// as if they were a fresh record: they read buf[0] as a ContentType and
	// unmarshal a Header from the front, so the original header must stay
	// attached to the decrypted content, not just the plaintext payload.
	// ContentLen in that header describes the encrypted wire length, not
	// the shorter plaintext, so it has to be rewritten to match.
	out := append(in[:h.Size()], content...)
	binary.BigEndian.PutUint16(out[h.Size()-2:], uint16(len(content)))
	return out, nil
}

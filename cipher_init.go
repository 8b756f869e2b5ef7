// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"github.com/pionwire/dtls-endpoint/internal/handshakecache"
	"github.com/pionwire/dtls-endpoint/pkg/crypto/prf"
	"github.com/pionwire/dtls-endpoint/pkg/protocol/handshake"
)

// initializeCipherSuite derives the master secret (extended or classic, per
// cfg.extendedMasterSecret) from preMasterSecret and installs the key_block
// into state.cipherSuite, per spec §4.2's CipherState lifecycle. preMasterSecret
// is zeroed once consumed.
func initializeCipherSuite(state *State, cache *handshakecache.Cache, cfg *handshakeConfig, preMasterSecret []byte) error {
	defer prf.Zero(preMasterSecret)

	suite := state.cipherSuite
	hashFunc := state.prfHashFunc(suite)

	clientRandom := state.localRandom.MarshalFixed()
	serverRandom := state.remoteRandom.MarshalFixed()
	if !state.isClient {
		clientRandom, serverRandom = state.remoteRandom.MarshalFixed(), state.localRandom.MarshalFixed()
	}

	var masterSecret []byte
	var err error
	if cfg.extendedMasterSecret != DisableExtendedMasterSecret && state.extendedMasterSecret {
		h := suite.HashFunc()()
		h.Write(cache.PullAndMerge(
			handshakecache.PullRule{Type: handshake.TypeClientHello, Epoch: 0, IsClient: true},
			handshakecache.PullRule{Type: handshake.TypeServerHello, Epoch: 0, IsClient: false},
			handshakecache.PullRule{Type: handshake.TypeCertificate, Epoch: 0, IsClient: false, Optional: true},
			handshakecache.PullRule{Type: handshake.TypeServerKeyExchange, Epoch: 0, IsClient: false, Optional: true},
			handshakecache.PullRule{Type: handshake.TypeCertificateRequest, Epoch: 0, IsClient: false, Optional: true},
			handshakecache.PullRule{Type: handshake.TypeServerHelloDone, Epoch: 0, IsClient: false},
			handshakecache.PullRule{Type: handshake.TypeCertificate, Epoch: 0, IsClient: true, Optional: true},
			handshakecache.PullRule{Type: handshake.TypeClientKeyExchange, Epoch: 0, IsClient: true},
		))
		masterSecret, err = prf.ExtendedMasterSecret(preMasterSecret, h.Sum(nil), hashFunc)
	} else {
		masterSecret, err = prf.MasterSecret(preMasterSecret, clientRandom[:], serverRandom[:], hashFunc)
	}
	if err != nil {
		return err
	}
	state.masterSecret = masterSecret

	macLen := suite.MACKeyLength()
	keyLen := suite.KeyLength()
	ivLen := suite.IVLength()
	total := 2*macLen + 2*keyLen + 2*ivLen

	keyBlock, err := prf.KeyExpansion(masterSecret, serverRandom[:], clientRandom[:], total, hashFunc)
	if err != nil {
		return err
	}

	offset := 0
	next := func(n int) []byte {
		b := keyBlock[offset : offset+n]
		offset += n
		return b
	}
	clientMAC, serverMAC := next(macLen), next(macLen)
	clientKey, serverKey := next(keyLen), next(keyLen)
	clientIV, serverIV := next(ivLen), next(ivLen)

	cfg.writeKeyLog("CLIENT_RANDOM", clientRandom[:], masterSecret)

	if state.isClient {
		return suite.InitCipher(clientKey, clientMAC, clientIV, serverKey, serverMAC, serverIV)
	}
	return suite.InitCipher(serverKey, serverMAC, serverIV, clientKey, clientMAC, clientIV)
}

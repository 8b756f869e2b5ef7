// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package prf

var (
	masterSecretLabel         = []byte("master secret")
	extendedMasterSecretLabel = []byte("extended master secret")
	keyExpansionLabel         = []byte("key expansion")
	clientFinishedLabel       = []byte("client finished")
	serverFinishedLabel       = []byte("server finished")
)

// MasterSecret derives the classic (non-extended) 48-byte master secret,
// RFC 5246 Section 8.1: label "master secret", seed = client_random ||
// server_random.
func MasterSecret(preMasterSecret, clientRandom, serverRandom []byte, hashFunc HashFunc) ([]byte, error) {
	seed := append(append([]byte{}, clientRandom...), serverRandom...)
	return PRF(preMasterSecret, masterSecretLabel, seed, masterSecretLength, hashFunc)
}

// ExtendedMasterSecret derives the 48-byte master secret per RFC 7627:
// label "extended master secret", seed = session_hash (the running
// transcript hash at the point ClientKeyExchange was sent).
func ExtendedMasterSecret(preMasterSecret, sessionHash []byte, hashFunc HashFunc) ([]byte, error) {
	return PRF(preMasterSecret, extendedMasterSecretLabel, sessionHash, masterSecretLength, hashFunc)
}

// KeyExpansion derives the key_block, RFC 5246 Section 6.3. Note the
// argument order: label "key expansion", seed = server_random ||
// client_random (reversed relative to master-secret derivation).
func KeyExpansion(masterSecret, serverRandom, clientRandom []byte, size int, hashFunc HashFunc) ([]byte, error) {
	seed := append(append([]byte{}, serverRandom...), clientRandom...)
	return PRF(masterSecret, keyExpansionLabel, seed, size, hashFunc)
}

// VerifyDataClient computes the client's Finished VerifyData.
func VerifyDataClient(masterSecret, transcriptHash []byte, hashFunc HashFunc) ([]byte, error) {
	return PRF(masterSecret, clientFinishedLabel, transcriptHash, 12, hashFunc)
}

// VerifyDataServer computes the server's Finished VerifyData.
func VerifyDataServer(masterSecret, transcriptHash []byte, hashFunc HashFunc) ([]byte, error) {
	return PRF(masterSecret, serverFinishedLabel, transcriptHash, 12, hashFunc)
}

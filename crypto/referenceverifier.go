package crypto

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// ReferenceXMSSVerifier is a concrete XMSSVerifier for tests and local
// development networks, exactly as ReferencePowHasher stands in for the
// production PoW function. Real XMSS verification is an external
// collaborator per §1 Non-goals ("key-derivation and hash primitives");
// this checks a BLAKE2b-256 commitment over (publicKey, otsIndex,
// messageHash) instead of a real Winternitz one-time signature, which is
// enough to exercise every call site (chain, txpool, rpcapi) without
// pulling in an XMSS implementation this corpus does not carry.
type ReferenceXMSSVerifier struct{}

// Verify reports whether signature equals the BLAKE2b-256 commitment over
// publicKey, otsIndex, and messageHash.
func (ReferenceXMSSVerifier) Verify(publicKey []byte, otsIndex uint32, messageHash Hash, signature []byte) bool {
	expected := referenceCommitment(publicKey, otsIndex, messageHash)
	if len(signature) != len(expected) {
		return false
	}
	for i := range expected {
		if signature[i] != expected[i] {
			return false
		}
	}
	return true
}

func referenceCommitment(publicKey []byte, otsIndex uint32, messageHash Hash) []byte {
	var indexBytes [4]byte
	binary.BigEndian.PutUint32(indexBytes[:], otsIndex)

	buf := make([]byte, 0, len(publicKey)+4+HashSize)
	buf = append(buf, publicKey...)
	buf = append(buf, indexBytes[:]...)
	buf = append(buf, messageHash[:]...)

	sum := blake2b.Sum256(buf)
	return sum[:]
}

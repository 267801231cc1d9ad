// Package crypto defines the black-box hash and signature primitives the
// rest of the core is built against (§1 Out of scope: "key-derivation and
// hash primitives (consumed as black-box functions)"). XMSS and the
// memory-hard PoW hash are reached only through the interfaces named
// here, the way the teacher's blockdag package treats MedianTimeSource as
// a pluggable interface rather than owning a clock. The package does
// implement the SHA2-256 content hash (Sum256) and two BLAKE2b-based
// stand-ins, ReferencePowHasher and ReferenceXMSSVerifier.
package crypto

import "crypto/sha256"

// HashSize is the length in bytes of a header hash, a transaction content
// hash, and every other digest this package produces (§3, GLOSSARY).
const HashSize = 32

// Hash is a 32-byte digest, used both for block header hashes and
// transaction content hashes.
type Hash [HashSize]byte

// ZeroHash is the all-zero digest, used as the prev_headerhash of genesis.
var ZeroHash Hash

// String returns the lowercase hex encoding of h.
func (h Hash) String() string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 2*HashSize)
	for i, b := range h {
		buf[i*2] = hexDigits[b>>4]
		buf[i*2+1] = hexDigits[b&0x0f]
	}
	return string(buf)
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Sum256 computes the content hash H named throughout §3: SHA2-256 over
// the concatenated input buffers. This is the one primitive this package
// implements directly rather than merely declaring an interface for,
// since the spec pins it to a concrete algorithm ("content hash computed
// as H(canonical_fields ∥ H(public_key ∥ ots_key))") rather than leaving
// it pluggable.
func Sum256(parts ...[]byte) Hash {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p) //nolint:errcheck // hash.Hash.Write never errors
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// XMSSVerifier verifies an XMSS one-time signature against a message
// digest and a declared leaf (OTS) index. A real implementation is an
// external collaborator (§1); this core only calls through the interface.
type XMSSVerifier interface {
	// Verify reports whether signature is a valid XMSS signature over
	// messageHash, produced by the leaf at otsIndex under publicKey.
	Verify(publicKey []byte, otsIndex uint32, messageHash Hash, signature []byte) bool
}

// XMSSSigner produces XMSS signatures for the Miner's own coinbase-less
// transactions and, in a full node, the wallet shell (§1 Out of scope).
// The consensus core never calls Sign itself — only Verify — but the
// interface is declared alongside it because real implementations pair
// the two.
type XMSSSigner interface {
	Sign(privateKey []byte, otsIndex uint32, messageHash Hash) (signature []byte, err error)
}

// PowHasher computes the memory-hard proof-of-work digest named in §4.4:
// H_pow(mining_hash ∥ mining_nonce). Swappable behind an interface because
// the concrete memory-hard function (e.g. a RandomX/Argon2-family
// construction) is an external primitive, not part of this spec's scope.
type PowHasher interface {
	Hash(miningHash Hash, miningNonce uint32) Hash
}

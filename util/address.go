// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
)

// AddressSize is the length in bytes of an Address: a 1-byte descriptor, a
// 15-byte hash fragment, and a 4-byte checksum (§3 Address State).
const AddressSize = 20

// checksumSize is the number of trailing bytes of Address reserved for the
// checksum.
const checksumSize = 4

// descriptorSize is the number of leading bytes of Address reserved for the
// type/signature-scheme descriptor.
const descriptorSize = 1

// ErrChecksumMismatch is returned when an address's trailing checksum does
// not match the digest of its leading bytes.
var ErrChecksumMismatch = errors.New("address: checksum mismatch")

// ErrInvalidAddressLength is returned when a byte slice isn't exactly
// AddressSize bytes long.
var ErrInvalidAddressLength = errors.New("address: invalid length")

// Descriptor identifies the signature scheme an address was derived under.
// XMSS is presently the only scheme this core verifies transactions
// against (§3).
type Descriptor byte

// Recognized address descriptors.
const (
	DescriptorXMSS Descriptor = 0x01
)

// Address is the 20-byte account identifier named in §3: a 1-byte
// descriptor, a hash fragment derived from the public key, and a 4-byte
// checksum over the preceding bytes.
type Address [AddressSize]byte

// ZeroAddress is the all-zero address; it never has a valid checksum and
// is used as a sentinel for "no destination".
var ZeroAddress Address

// NewAddressFromPublicKey derives the Address for an XMSS public key the
// way §3 requires: "the derived address from public_key must equal src".
// The hash fragment is SHA2-256(descriptor || public_key) truncated to
// fill the non-checksum portion of the address, and the checksum is
// SHA2-256 of the descriptor-plus-fragment bytes, truncated to 4 bytes.
func NewAddressFromPublicKey(descriptor Descriptor, publicKey []byte) Address {
	var addr Address
	addr[0] = byte(descriptor)

	h := sha256.Sum256(append([]byte{byte(descriptor)}, publicKey...))
	copy(addr[descriptorSize:AddressSize-checksumSize], h[:AddressSize-descriptorSize-checksumSize])

	checksum := sha256.Sum256(addr[:AddressSize-checksumSize])
	copy(addr[AddressSize-checksumSize:], checksum[:checksumSize])

	return addr
}

// NewAddressFromBytes validates and wraps a raw 20-byte address, verifying
// its checksum.
func NewAddressFromBytes(b []byte) (Address, error) {
	var addr Address
	if len(b) != AddressSize {
		return addr, ErrInvalidAddressLength
	}
	copy(addr[:], b)
	if !addr.ChecksumValid() {
		return addr, ErrChecksumMismatch
	}
	return addr, nil
}

// ChecksumValid reports whether the address's trailing 4 bytes match the
// digest of its leading bytes.
func (a Address) ChecksumValid() bool {
	checksum := sha256.Sum256(a[:AddressSize-checksumSize])
	return hex.EncodeToString(checksum[:checksumSize]) == hex.EncodeToString(a[AddressSize-checksumSize:])
}

// Descriptor returns the address's signature-scheme descriptor byte.
func (a Address) Descriptor() Descriptor {
	return Descriptor(a[0])
}

// String returns the hex encoding of the address, prefixed with "Q" in the
// manner of QRL's user-facing address format.
func (a Address) String() string {
	return "Q" + hex.EncodeToString(a[:])
}

// Bytes returns a copy of the address's underlying bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressSize)
	copy(b, a[:])
	return b
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Package txn implements the tagged transaction variants of §3, replacing
// the source's dynamic dispatch over transaction subtypes with the
// uniform trait called for in §9: every variant implements
// hashable-bytes, static validation, and application against a
// speculative address-state overlay.
package txn

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/theQRL/qrl-core-go/addrstate"
	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/util"
)

// Kind tags which transaction variant a Transaction is.
type Kind uint8

// Recognized transaction kinds (§3).
const (
	KindTransfer Kind = iota
	KindCoinbase
	KindTransferToken
	KindToken
	KindStake
	KindLattice
)

func (k Kind) String() string {
	switch k {
	case KindTransfer:
		return "Transfer"
	case KindCoinbase:
		return "Coinbase"
	case KindTransferToken:
		return "TransferToken"
	case KindToken:
		return "Token"
	case KindStake:
		return "Stake"
	case KindLattice:
		return "Lattice"
	default:
		return "Unknown"
	}
}

// Sentinel errors matching §7's policy table.
var (
	ErrInvalidSignature    = errors.New("txn: invalid signature")
	ErrNegativeAmount      = errors.New("txn: negative or zero amount")
	ErrSrcMismatch         = errors.New("txn: derived address does not match src")
	ErrNotCoinbase         = errors.New("txn: expected Coinbase as first transaction")
	ErrUnexpectedCoinbase  = errors.New("txn: Coinbase not permitted here")
	ErrBadCoinbaseAmount   = errors.New("txn: Coinbase amount does not match reward plus fees")
	ErrWrongCoinbaseTarget = errors.New("txn: Coinbase destination is not the stake selector")
)

// BlockContext carries the information a transaction needs to validate
// and apply itself against, beyond its own fields: the verifier for its
// signature, and (for Coinbase) the block's reward/fee accounting (§4.5
// steps 5-6).
type BlockContext struct {
	Verifier      crypto.XMSSVerifier
	StakeSelector util.Address
	FixedReward   uint64
	FeesTotal     uint64
}

// Transaction is the uniform trait every transaction variant implements,
// per §9's design note replacing dynamic dispatch with a tagged sum.
type Transaction interface {
	Kind() Kind

	// Hash returns the content hash H(canonical_fields ‖
	// H(public_key ‖ ots_key)) named in §3, memoized after first call.
	Hash() crypto.Hash

	// StaticValidate checks everything that doesn't require chain state:
	// well-formedness, non-negative amounts, the src/public-key
	// relationship, and the signature.
	StaticValidate(ctx BlockContext) error

	// Apply debits/credits overlay as this transaction's semantics
	// require. Callers are responsible for the nonce/OTS sequencing
	// check (addrstate.Overlay.CheckAndConsumeSequencing) before calling
	// Apply, since that check is shared by every non-Coinbase variant
	// and the spec applies it uniformly in §4.5 step 6.
	Apply(overlay *addrstate.Overlay, ctx BlockContext) error

	// Source returns the paying address, or the zero address for
	// Coinbase (which has none).
	Source() util.Address
	Fee() uint64
	Nonce() uint64
	OTSIndex() uint32
	PublicKey() []byte
	Signature() []byte
}

// header is the common field set every non-Coinbase transaction carries
// (§3: "Every non-Coinbase transaction carries: public_key, ots_key,
// signature").
type header struct {
	publicKey []byte
	otsIndex  uint32
	signature []byte
	nonce     uint64
	fee       uint64
	src       util.Address

	hash     crypto.Hash
	hashedOK bool
}

func (h *header) Nonce() uint64      { return h.nonce }
func (h *header) Fee() uint64        { return h.fee }
func (h *header) OTSIndex() uint32   { return h.otsIndex }
func (h *header) PublicKey() []byte  { return h.publicKey }
func (h *header) Signature() []byte  { return h.signature }
func (h *header) Source() util.Address { return h.src }

// verifySrcAndSignature runs the two checks every signed variant shares:
// the public key must derive src, and the signature must verify against
// contentHash under XMSS at the declared OTS leaf (§3).
func (h *header) verifySrcAndSignature(ctx BlockContext, contentHash crypto.Hash) error {
	derived := util.NewAddressFromPublicKey(util.DescriptorXMSS, h.publicKey)
	if derived != h.src {
		return ErrSrcMismatch
	}
	if ctx.Verifier == nil {
		return errors.New("txn: no XMSS verifier configured")
	}
	if !ctx.Verifier.Verify(h.publicKey, h.otsIndex, contentHash, h.signature) {
		return ErrInvalidSignature
	}
	return nil
}

// contentHash computes H(canonical ‖ H(public_key ‖ ots_key)) for a
// signed variant's canonical field bytes.
func contentHash(canonical []byte, publicKey []byte, otsIndex uint32) crypto.Hash {
	var otsBytes [4]byte
	binary.BigEndian.PutUint32(otsBytes[:], otsIndex)
	inner := crypto.Sum256(publicKey, otsBytes[:])
	return crypto.Sum256(canonical, inner[:])
}

func putUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func putUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

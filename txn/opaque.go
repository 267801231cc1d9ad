package txn

import (
	"github.com/theQRL/qrl-core-go/addrstate"
	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/util"
)

// opaqueBody is the undifferentiated payload of a Stake or Lattice
// transaction: §3 treats both "as opaque for this spec except that they
// also consume an OTS index." The body bytes are carried and hashed but
// never interpreted.
type opaqueBody struct {
	header
	kind    Kind
	Payload []byte
}

func (o *opaqueBody) Kind() Kind { return o.kind }

func (o *opaqueBody) Hash() crypto.Hash {
	if !o.hashedOK {
		buf := []byte{byte(o.kind)}
		buf = append(buf, o.src[:]...)
		buf = append(buf, o.Payload...)
		buf = putUint64(buf, o.fee)
		buf = putUint64(buf, o.nonce)
		o.hash = contentHash(buf, o.publicKey, o.otsIndex)
		o.hashedOK = true
	}
	return o.hash
}

func (o *opaqueBody) StaticValidate(ctx BlockContext) error {
	return o.verifySrcAndSignature(ctx, o.Hash())
}

// Apply only debits the fee: an opaque body carries no modeled balance
// effect beyond consuming its OTS index and paying into the block
// (§3: "they also consume an OTS index").
func (o *opaqueBody) Apply(overlay *addrstate.Overlay, ctx BlockContext) error {
	return overlay.Debit(o.src, o.fee)
}

func (o *opaqueBody) SetSignature(sig []byte) { o.signature = sig }

// Stake is treated as opaque per §3; it still consumes an OTS index and
// pays a fee like every other signed variant.
type Stake struct{ opaqueBody }

// NewStake constructs an unsigned, opaque Stake transaction.
func NewStake(src util.Address, payload []byte, fee, nonce uint64, publicKey []byte, otsIndex uint32) *Stake {
	return &Stake{opaqueBody{
		header:  header{src: src, fee: fee, nonce: nonce, publicKey: publicKey, otsIndex: otsIndex},
		kind:    KindStake,
		Payload: payload,
	}}
}

// Lattice is treated as opaque per §3; see Stake.
type Lattice struct{ opaqueBody }

// NewLattice constructs an unsigned, opaque Lattice transaction.
func NewLattice(src util.Address, payload []byte, fee, nonce uint64, publicKey []byte, otsIndex uint32) *Lattice {
	return &Lattice{opaqueBody{
		header:  header{src: src, fee: fee, nonce: nonce, publicKey: publicKey, otsIndex: otsIndex},
		kind:    KindLattice,
		Payload: payload,
	}}
}

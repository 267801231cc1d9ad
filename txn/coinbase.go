package txn

import (
	"github.com/theQRL/qrl-core-go/addrstate"
	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/util"
)

// Coinbase pays a block's fixed reward plus the sum of every other
// transaction's fee to the configured stake selector (§3, §4.5 step 5).
// It carries none of the signed-transaction header fields: no
// public_key, ots_key, or signature, and no nonce/OTS sequencing check
// applies to it.
type Coinbase struct {
	Dst    util.Address
	Amount uint64

	hash     crypto.Hash
	hashedOK bool
}

// NewCoinbase constructs a Coinbase paying amount to dst.
func NewCoinbase(dst util.Address, amount uint64) *Coinbase {
	return &Coinbase{Dst: dst, Amount: amount}
}

func (c *Coinbase) Kind() Kind            { return KindCoinbase }
func (c *Coinbase) Source() util.Address  { return util.ZeroAddress }
func (c *Coinbase) Fee() uint64           { return 0 }
func (c *Coinbase) Nonce() uint64         { return 0 }
func (c *Coinbase) OTSIndex() uint32      { return 0 }
func (c *Coinbase) PublicKey() []byte     { return nil }
func (c *Coinbase) Signature() []byte     { return nil }

func (c *Coinbase) Hash() crypto.Hash {
	if !c.hashedOK {
		buf := []byte{byte(KindCoinbase)}
		buf = append(buf, c.Dst[:]...)
		buf = putUint64(buf, c.Amount)
		c.hash = crypto.Sum256(buf)
		c.hashedOK = true
	}
	return c.hash
}

// StaticValidate checks the destination is the configured stake selector
// and the amount equals fixed_reward + Σ fees (§4.5 step 5). It cannot
// check the fee sum on its own — the caller (chain.Manager) computes
// FeesTotal from the rest of the block before calling this.
func (c *Coinbase) StaticValidate(ctx BlockContext) error {
	if c.Dst != ctx.StakeSelector {
		return ErrWrongCoinbaseTarget
	}
	if c.Amount != ctx.FixedReward+ctx.FeesTotal {
		return ErrBadCoinbaseAmount
	}
	return nil
}

func (c *Coinbase) Apply(overlay *addrstate.Overlay, ctx BlockContext) error {
	return overlay.Credit(c.Dst, c.Amount)
}

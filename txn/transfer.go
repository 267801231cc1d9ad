package txn

import (
	"github.com/theQRL/qrl-core-go/addrstate"
	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/util"
)

// Transfer moves amount from src to dst, paying fee to the block's
// Coinbase (§3). "src ≠ dst is permitted" — no self-transfer check.
type Transfer struct {
	header
	Dst    util.Address
	Amount uint64
}

// NewTransfer constructs an unsigned Transfer; callers fill in the
// signature fields via the header before presenting it for validation.
func NewTransfer(src, dst util.Address, amount, fee, nonce uint64, publicKey []byte, otsIndex uint32) *Transfer {
	return &Transfer{
		header: header{src: src, fee: fee, nonce: nonce, publicKey: publicKey, otsIndex: otsIndex},
		Dst:    dst,
		Amount: amount,
	}
}

// SetSignature attaches the XMSS signature produced over Hash().
func (t *Transfer) SetSignature(sig []byte) { t.signature = sig }

func (t *Transfer) Kind() Kind { return KindTransfer }

func (t *Transfer) canonicalBytes() []byte {
	buf := []byte{byte(KindTransfer)}
	buf = append(buf, t.src[:]...)
	buf = append(buf, t.Dst[:]...)
	buf = putUint64(buf, t.Amount)
	buf = putUint64(buf, t.fee)
	buf = putUint64(buf, t.nonce)
	return buf
}

func (t *Transfer) Hash() crypto.Hash {
	if !t.hashedOK {
		t.hash = contentHash(t.canonicalBytes(), t.publicKey, t.otsIndex)
		t.hashedOK = true
	}
	return t.hash
}

func (t *Transfer) StaticValidate(ctx BlockContext) error {
	if t.Amount == 0 {
		return ErrNegativeAmount
	}
	return t.verifySrcAndSignature(ctx, t.Hash())
}

func (t *Transfer) Apply(overlay *addrstate.Overlay, ctx BlockContext) error {
	if err := overlay.Debit(t.src, t.Amount+t.fee); err != nil {
		return err
	}
	return overlay.Credit(t.Dst, t.Amount)
}

package txn

import (
	"github.com/pkg/errors"

	"github.com/theQRL/qrl-core-go/addrstate"
	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/util"
)

// TokenID identifies a token created by a Token transaction; it is the
// content hash of the Token transaction that created it.
type TokenID = crypto.Hash

// TransferToken moves amount of token TokenID from src to dst, paying fee
// in the network's native asset to the block's Coinbase (§3).
type TransferToken struct {
	header
	TokenID TokenID
	Dst     util.Address
	Amount  uint64
}

// NewTransferToken constructs an unsigned TransferToken.
func NewTransferToken(tokenID TokenID, src, dst util.Address, amount, fee, nonce uint64, publicKey []byte, otsIndex uint32) *TransferToken {
	return &TransferToken{
		header:  header{src: src, fee: fee, nonce: nonce, publicKey: publicKey, otsIndex: otsIndex},
		TokenID: tokenID,
		Dst:     dst,
		Amount:  amount,
	}
}

func (t *TransferToken) SetSignature(sig []byte) { t.signature = sig }
func (t *TransferToken) Kind() Kind              { return KindTransferToken }

func (t *TransferToken) canonicalBytes() []byte {
	buf := []byte{byte(KindTransferToken)}
	buf = append(buf, t.TokenID[:]...)
	buf = append(buf, t.src[:]...)
	buf = append(buf, t.Dst[:]...)
	buf = putUint64(buf, t.Amount)
	buf = putUint64(buf, t.fee)
	buf = putUint64(buf, t.nonce)
	return buf
}

func (t *TransferToken) Hash() crypto.Hash {
	if !t.hashedOK {
		t.hash = contentHash(t.canonicalBytes(), t.publicKey, t.otsIndex)
		t.hashedOK = true
	}
	return t.hash
}

func (t *TransferToken) StaticValidate(ctx BlockContext) error {
	if t.Amount == 0 {
		return ErrNegativeAmount
	}
	return t.verifySrcAndSignature(ctx, t.Hash())
}

// Apply only moves the native-asset fee here; the token ledger itself is
// out of this spec's modeled scope (§3 lists TransferToken's fields but
// the token balance table is not part of the Address State invariants
// this core enforces) — fee accounting is the part every transaction
// variant shares, so it is the part applied uniformly.
func (t *TransferToken) Apply(overlay *addrstate.Overlay, ctx BlockContext) error {
	return overlay.Debit(t.src, t.fee)
}

// TokenBalance is one of a Token transaction's initial allocations.
type TokenBalance struct {
	Address util.Address
	Amount  uint64
}

// Token creates a new token with an initial distribution (§3).
type Token struct {
	header
	Symbol          string
	Name            string
	Decimals        uint8
	InitialBalances []TokenBalance
}

// NewToken constructs an unsigned Token-creation transaction. creator is
// carried as the header's src.
func NewToken(creator util.Address, symbol, name string, decimals uint8, balances []TokenBalance, fee, nonce uint64, publicKey []byte, otsIndex uint32) *Token {
	return &Token{
		header:          header{src: creator, fee: fee, nonce: nonce, publicKey: publicKey, otsIndex: otsIndex},
		Symbol:          symbol,
		Name:            name,
		Decimals:        decimals,
		InitialBalances: balances,
	}
}

func (t *Token) SetSignature(sig []byte) { t.signature = sig }
func (t *Token) Kind() Kind              { return KindToken }

func (t *Token) canonicalBytes() []byte {
	buf := []byte{byte(KindToken)}
	buf = append(buf, t.src[:]...)
	buf = append(buf, []byte(t.Symbol)...)
	buf = append(buf, []byte(t.Name)...)
	buf = append(buf, t.Decimals)
	buf = putUint64(buf, t.fee)
	buf = putUint64(buf, t.nonce)
	for _, b := range t.InitialBalances {
		buf = append(buf, b.Address[:]...)
		buf = putUint64(buf, b.Amount)
	}
	return buf
}

func (t *Token) Hash() crypto.Hash {
	if !t.hashedOK {
		t.hash = contentHash(t.canonicalBytes(), t.publicKey, t.otsIndex)
		t.hashedOK = true
	}
	return t.hash
}

func (t *Token) StaticValidate(ctx BlockContext) error {
	if len(t.Symbol) == 0 || len(t.InitialBalances) == 0 {
		return errors.New("txn: token creation requires a symbol and at least one initial balance")
	}
	for _, b := range t.InitialBalances {
		if b.Amount == 0 {
			return ErrNegativeAmount
		}
	}
	return t.verifySrcAndSignature(ctx, t.Hash())
}

// Apply only charges the creation fee; token balances live outside the
// Address State this core's invariants cover (see TransferToken.Apply).
func (t *Token) Apply(overlay *addrstate.Overlay, ctx BlockContext) error {
	return overlay.Debit(t.src, t.fee)
}

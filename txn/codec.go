package txn

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/theQRL/qrl-core-go/util"
)

// wireEnvelope is the canonical on-wire JSON shape for any Transaction
// variant (§6: "full tx" payload of the TX/ST message codes, and the
// open question in §9 resolved toward one canonical on-wire form per
// variant). Every field that doesn't apply to a given Kind is simply
// omitted (zero value) on encode and ignored on decode.
type wireEnvelope struct {
	Kind      Kind           `json:"kind"`
	Src       util.Address   `json:"src,omitempty"`
	Dst       util.Address   `json:"dst,omitempty"`
	Amount    uint64         `json:"amount,omitempty"`
	Fee       uint64         `json:"fee,omitempty"`
	Nonce     uint64         `json:"nonce,omitempty"`
	TokenID   [32]byte       `json:"token_id,omitempty"`
	Symbol    string         `json:"symbol,omitempty"`
	Name      string         `json:"name,omitempty"`
	Decimals  uint8          `json:"decimals,omitempty"`
	Balances  []TokenBalance `json:"balances,omitempty"`
	Payload   []byte         `json:"payload,omitempty"`
	PublicKey []byte         `json:"public_key,omitempty"`
	OTSIndex  uint32         `json:"ots_key,omitempty"`
	Signature []byte         `json:"signature,omitempty"`
}

// Encode serializes tx to its canonical wire form.
func Encode(tx Transaction) ([]byte, error) {
	env := wireEnvelope{
		Kind:      tx.Kind(),
		Src:       tx.Source(),
		Fee:       tx.Fee(),
		Nonce:     tx.Nonce(),
		PublicKey: tx.PublicKey(),
		OTSIndex:  tx.OTSIndex(),
		Signature: tx.Signature(),
	}

	switch v := tx.(type) {
	case *Transfer:
		env.Dst, env.Amount = v.Dst, v.Amount
	case *Coinbase:
		env.Dst, env.Amount = v.Dst, v.Amount
	case *TransferToken:
		env.TokenID, env.Dst, env.Amount = v.TokenID, v.Dst, v.Amount
	case *Token:
		env.Symbol, env.Name, env.Decimals, env.Balances = v.Symbol, v.Name, v.Decimals, v.InitialBalances
	case *Stake:
		env.Payload = v.Payload
	case *Lattice:
		env.Payload = v.Payload
	default:
		return nil, errors.Errorf("txn: unknown transaction type %T", tx)
	}

	return json.Marshal(env)
}

// Decode parses the canonical wire form back into a concrete Transaction.
func Decode(raw []byte) (Transaction, error) {
	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(err, "decoding transaction")
	}

	switch env.Kind {
	case KindTransfer:
		t := NewTransfer(env.Src, env.Dst, env.Amount, env.Fee, env.Nonce, env.PublicKey, env.OTSIndex)
		t.SetSignature(env.Signature)
		return t, nil
	case KindCoinbase:
		return NewCoinbase(env.Dst, env.Amount), nil
	case KindTransferToken:
		t := NewTransferToken(env.TokenID, env.Src, env.Dst, env.Amount, env.Fee, env.Nonce, env.PublicKey, env.OTSIndex)
		t.SetSignature(env.Signature)
		return t, nil
	case KindToken:
		t := NewToken(env.Src, env.Symbol, env.Name, env.Decimals, env.Balances, env.Fee, env.Nonce, env.PublicKey, env.OTSIndex)
		t.SetSignature(env.Signature)
		return t, nil
	case KindStake:
		t := NewStake(env.Src, env.Payload, env.Fee, env.Nonce, env.PublicKey, env.OTSIndex)
		t.SetSignature(env.Signature)
		return t, nil
	case KindLattice:
		t := NewLattice(env.Src, env.Payload, env.Fee, env.Nonce, env.PublicKey, env.OTSIndex)
		t.SetSignature(env.Signature)
		return t, nil
	default:
		return nil, errors.Errorf("txn: unknown transaction kind %d", env.Kind)
	}
}

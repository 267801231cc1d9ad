package txn

import (
	"testing"

	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/util"
)

// fakeVerifier stubs out XMSS verification with a fixed outcome, the way
// the teacher's mempool tests stub out script validation with a
// fixed-outcome fake rather than a real signer.
type fakeVerifier struct{ accept bool }

func (f fakeVerifier) Verify(publicKey []byte, otsIndex uint32, messageHash crypto.Hash, signature []byte) bool {
	return f.accept
}

func testAddress(b byte) util.Address {
	pk := []byte{b, b, b}
	return util.NewAddressFromPublicKey(util.DescriptorXMSS, pk)
}

func TestTransferRoundTrip(t *testing.T) {
	src := testAddress(1)
	dst := testAddress(2)
	tx := NewTransfer(src, dst, 100, 1, 1, []byte{1, 1, 1}, 0)
	tx.SetSignature([]byte{9, 9, 9})

	wantHash := tx.Hash()

	raw, err := Encode(tx)
	if err != nil {
		t.Fatalf("Encode: %+v", err)
	}
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %+v", err)
	}
	if decoded.Hash() != wantHash {
		t.Fatalf("hash mismatch after round-trip: got %s want %s", decoded.Hash(), wantHash)
	}
	dt, ok := decoded.(*Transfer)
	if !ok {
		t.Fatalf("decoded type = %T, want *Transfer", decoded)
	}
	if dt.Amount != 100 || dt.Dst != dst {
		t.Fatalf("decoded fields mismatch: %+v", dt)
	}
}

func TestTransferZeroAmountRejected(t *testing.T) {
	src := testAddress(1)
	dst := testAddress(2)
	tx := NewTransfer(src, dst, 0, 1, 1, []byte{1, 1, 1}, 0)
	tx.SetSignature([]byte{9})

	err := tx.StaticValidate(BlockContext{Verifier: fakeVerifier{accept: true}})
	if err != ErrNegativeAmount {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestTransferSrcMismatchRejected(t *testing.T) {
	wrongSrc := testAddress(99)
	dst := testAddress(2)
	tx := NewTransfer(wrongSrc, dst, 10, 1, 1, []byte{1, 1, 1}, 0)
	tx.SetSignature([]byte{9})

	err := tx.StaticValidate(BlockContext{Verifier: fakeVerifier{accept: true}})
	if err != ErrSrcMismatch {
		t.Fatalf("expected ErrSrcMismatch, got %v", err)
	}
}

func TestTransferInvalidSignatureRejected(t *testing.T) {
	src := testAddress(1)
	dst := testAddress(2)
	tx := NewTransfer(src, dst, 10, 1, 1, []byte{1, 1, 1}, 0)
	tx.SetSignature([]byte{9})

	err := tx.StaticValidate(BlockContext{Verifier: fakeVerifier{accept: false}})
	if err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestCoinbaseValidation(t *testing.T) {
	selector := testAddress(3)
	cb := NewCoinbase(selector, 500000001)
	ctx := BlockContext{StakeSelector: selector, FixedReward: 500000000, FeesTotal: 1}
	if err := cb.StaticValidate(ctx); err != nil {
		t.Fatalf("expected valid coinbase, got %+v", err)
	}

	wrongTarget := NewCoinbase(testAddress(4), 500000001)
	if err := wrongTarget.StaticValidate(ctx); err != ErrWrongCoinbaseTarget {
		t.Fatalf("expected ErrWrongCoinbaseTarget, got %v", err)
	}

	wrongAmount := NewCoinbase(selector, 1)
	if err := wrongAmount.StaticValidate(ctx); err != ErrBadCoinbaseAmount {
		t.Fatalf("expected ErrBadCoinbaseAmount, got %v", err)
	}
}

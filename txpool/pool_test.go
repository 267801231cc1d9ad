package txpool

import (
	"testing"

	"github.com/theQRL/qrl-core-go/addrstate"
	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/txn"
	"github.com/theQRL/qrl-core-go/util"
)

// fakeChainView is an in-memory stand-in for the live chain tip, the way
// the teacher's mempool tests stub out the UTXO view with a fixed map
// instead of a real chain.
type fakeChainView struct {
	states map[util.Address]*addrstate.State
}

func newFakeChainView() *fakeChainView {
	return &fakeChainView{states: make(map[util.Address]*addrstate.State)}
}

func (f *fakeChainView) set(address util.Address, balance, nonce uint64) {
	f.states[address] = &addrstate.State{Balance: balance, Nonce: nonce, UsedOTS: make(map[uint32]struct{})}
}

func (f *fakeChainView) TipAddressState(address util.Address) (*addrstate.State, error) {
	if s, ok := f.states[address]; ok {
		return s, nil
	}
	return addrstate.NewState(), nil
}

func (f *fakeChainView) BlockContext() txn.BlockContext {
	return txn.BlockContext{Verifier: acceptAllVerifier{}}
}

type acceptAllVerifier struct{}

func (acceptAllVerifier) Verify(publicKey []byte, otsIndex uint32, messageHash crypto.Hash, signature []byte) bool {
	return true
}

func testAddr(b byte) util.Address {
	return util.NewAddressFromPublicKey(util.DescriptorXMSS, []byte{b, b, b})
}

func signedTransfer(src, dst util.Address, amount, fee, nonce uint64, ots uint32) *txn.Transfer {
	tx := txn.NewTransfer(src, dst, amount, fee, nonce, []byte{1, 2, 3}, ots)
	tx.SetSignature([]byte{9})
	return tx
}

func TestAdmitAcceptsValidTransfer(t *testing.T) {
	src := testAddr(1)
	dst := testAddr(2)
	chain := newFakeChainView()
	chain.set(src, 1000, 0)

	pool := New(10, chain)
	outcome, err := pool.Admit(signedTransfer(src, dst, 100, 1, 1, 0))
	if err != nil {
		t.Fatalf("expected acceptance, got %+v", err)
	}
	if outcome != Accepted {
		t.Fatalf("expected Accepted, got %v", outcome)
	}
	if pool.Len() != 1 {
		t.Fatalf("expected 1 pooled tx, got %d", pool.Len())
	}
}

func TestAdmitRejectsDuplicateHash(t *testing.T) {
	src := testAddr(1)
	dst := testAddr(2)
	chain := newFakeChainView()
	chain.set(src, 1000, 0)
	pool := New(10, chain)

	tx := signedTransfer(src, dst, 100, 1, 1, 0)
	if _, err := pool.Admit(tx); err != nil {
		t.Fatalf("first admit: %+v", err)
	}
	_, err := pool.Admit(tx)
	if err != ErrDuplicateTx {
		t.Fatalf("expected ErrDuplicateTx, got %v", err)
	}
}

func TestAdmitRejectsOTSConflict(t *testing.T) {
	src := testAddr(1)
	dst := testAddr(2)
	chain := newFakeChainView()
	chain.set(src, 1000, 0)
	pool := New(10, chain)

	first := signedTransfer(src, dst, 100, 1, 1, 5)
	if _, err := pool.Admit(first); err != nil {
		t.Fatalf("first admit: %+v", err)
	}

	second := signedTransfer(src, dst, 50, 1, 2, 5)
	_, err := pool.Admit(second)
	if err != ErrOtsConflict {
		t.Fatalf("expected ErrOtsConflict, got %v", err)
	}
}

func TestAdmitRejectsInsufficientFunds(t *testing.T) {
	src := testAddr(1)
	dst := testAddr(2)
	chain := newFakeChainView()
	chain.set(src, 50, 0)
	pool := New(10, chain)

	_, err := pool.Admit(signedTransfer(src, dst, 100, 1, 1, 0))
	if err != addrstate.ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestAdmitRejectsPoolFull(t *testing.T) {
	src := testAddr(1)
	dst := testAddr(2)
	chain := newFakeChainView()
	chain.set(src, 100000, 0)
	pool := New(1, chain)

	if _, err := pool.Admit(signedTransfer(src, dst, 1, 1, 1, 0)); err != nil {
		t.Fatalf("first admit: %+v", err)
	}
	other := testAddr(7)
	chain.set(other, 100000, 0)
	_, err := pool.Admit(signedTransfer(other, dst, 1, 1, 1, 0))
	if err != ErrPoolFull {
		t.Fatalf("expected ErrPoolFull, got %v", err)
	}
}

func TestIterByPriorityOrdersByFeeDescending(t *testing.T) {
	dst := testAddr(2)
	chain := newFakeChainView()
	pool := New(10, chain)

	addrs := []util.Address{testAddr(10), testAddr(11), testAddr(12)}
	fees := []uint64{5, 50, 25}
	for i, a := range addrs {
		chain.set(a, 100000, 0)
		if _, err := pool.Admit(signedTransfer(a, dst, 1, fees[i], 1, 0)); err != nil {
			t.Fatalf("admit %d: %+v", i, err)
		}
	}

	ordered := pool.IterByPriority()
	if len(ordered) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(ordered))
	}
	for i := 0; i < len(ordered)-1; i++ {
		if ordered[i].Fee() < ordered[i+1].Fee() {
			t.Fatalf("not fee-descending at %d: %d < %d", i, ordered[i].Fee(), ordered[i+1].Fee())
		}
	}
}

func TestRemoveIncludedDropsConflictingEntries(t *testing.T) {
	src := testAddr(1)
	dst := testAddr(2)
	chain := newFakeChainView()
	chain.set(src, 1000, 0)
	pool := New(10, chain)

	tx := signedTransfer(src, dst, 100, 1, 1, 3)
	if _, err := pool.Admit(tx); err != nil {
		t.Fatalf("admit: %+v", err)
	}
	pool.RemoveIncluded([]txn.Transaction{tx})
	if pool.Len() != 0 {
		t.Fatalf("expected pool empty after removal, got %d", pool.Len())
	}
	if pool.Has(tx.Hash()) {
		t.Fatalf("expected tx no longer pooled")
	}
}

package addrstate

import (
	"os"
	"testing"

	"github.com/theQRL/qrl-core-go/store"
	"github.com/theQRL/qrl-core-go/util"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir, err := os.MkdirTemp("", "addrstate-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %+v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	st, err := store.Open(dir)
	if err != nil {
		t.Fatalf("store.Open: %+v", err)
	}
	t.Cleanup(func() { st.Close() })

	return NewManager(st)
}

func TestLoadDefaultsToZeroState(t *testing.T) {
	m := newTestManager(t)
	var addr util.Address
	addr[0] = 0x01

	s, err := m.Load(addr)
	if err != nil {
		t.Fatalf("Load: %+v", err)
	}
	if s.Balance != 0 || s.Nonce != 0 || len(s.UsedOTS) != 0 {
		t.Fatalf("expected zero state, got %+v", s)
	}
}

func TestOverlayDebitCreditRollsBackOnDiscard(t *testing.T) {
	m := newTestManager(t)
	var alice, bob util.Address
	alice[0], bob[0] = 0x01, 0x02

	// Seed Alice with a durable balance first.
	overlay := m.NewOverlay()
	if err := overlay.Credit(alice, 1000); err != nil {
		t.Fatalf("Credit: %+v", err)
	}
	batch := m.storeForTest().NewBatch()
	if err := m.Flush(overlay, batch); err != nil {
		t.Fatalf("Flush: %+v", err)
	}
	if err := m.storeForTest().Commit(batch); err != nil {
		t.Fatalf("Commit: %+v", err)
	}

	// A second, discarded overlay must not affect durable state.
	discarded := m.NewOverlay()
	if err := discarded.Debit(alice, 999); err != nil {
		t.Fatalf("Debit: %+v", err)
	}
	if err := discarded.Credit(bob, 999); err != nil {
		t.Fatalf("Credit: %+v", err)
	}
	// discarded is simply never flushed.

	reloaded, err := m.Load(alice)
	if err != nil {
		t.Fatalf("Load: %+v", err)
	}
	if reloaded.Balance != 1000 {
		t.Fatalf("expected durable balance to remain 1000, got %d", reloaded.Balance)
	}
}

func TestDebitInsufficientFunds(t *testing.T) {
	m := newTestManager(t)
	var addr util.Address
	overlay := m.NewOverlay()
	if err := overlay.Debit(addr, 1); err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestCheckAndConsumeSequencing(t *testing.T) {
	m := newTestManager(t)
	var addr util.Address
	overlay := m.NewOverlay()

	if err := overlay.CheckAndConsumeSequencing(addr, 1, 0); err != nil {
		t.Fatalf("first sequencing: %+v", err)
	}

	// Replaying the same OTS index against the next nonce must fail.
	if err := overlay.CheckAndConsumeSequencing(addr, 2, 0); err != ErrOtsReused {
		t.Fatalf("expected ErrOtsReused, got %v", err)
	}

	// A nonce that skips ahead must fail even with a fresh OTS index.
	if err := overlay.CheckAndConsumeSequencing(addr, 5, 1); err != ErrNonceMismatch {
		t.Fatalf("expected ErrNonceMismatch, got %v", err)
	}

	if err := overlay.CheckAndConsumeSequencing(addr, 2, 1); err != nil {
		t.Fatalf("second sequencing: %+v", err)
	}
}

func (m *Manager) storeForTest() *store.Store { return m.store }

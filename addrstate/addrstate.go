// Package addrstate implements the per-account state described in §3
// (Address State) and §4.2 (Address State Manager): balance, nonce, and
// the used-OTS index set, plus the speculative copy-on-write overlay used
// to validate a candidate block atomically before committing (GLOSSARY:
// Speculative overlay).
package addrstate

import (
	"github.com/pkg/errors"

	"github.com/theQRL/qrl-core-go/store"
	"github.com/theQRL/qrl-core-go/util"
)

// Sentinel errors matching the policy table in §7.
var (
	ErrInsufficientFunds = errors.New("addrstate: insufficient funds")
	ErrNonceMismatch     = errors.New("addrstate: nonce mismatch")
	ErrOtsReused         = errors.New("addrstate: OTS index reused")
)

// State is one account's durable record: balance, nonce, and the set of
// OTS leaf indices this address has ever signed with (§3).
//
// UsedOTS is a map rather than a bitmap over the full XMSS tree height
// because the tree height (and thus the theoretical index space) is a
// per-network config value, not a compile-time constant; the map is
// exercised the same way a bitmap invariant would be ("never accept an
// index twice") without committing to one fixed tree height in the type.
type State struct {
	Balance uint64
	Nonce   uint64
	UsedOTS map[uint32]struct{}
}

// NewState returns the default (zero) state assigned to an address that
// has never been seen, per §4.2: "load(address) → AddressState | default".
func NewState() *State {
	return &State{UsedOTS: make(map[uint32]struct{})}
}

// Clone returns a deep copy of s, suitable for seeding a fresh speculative
// overlay entry from a durable snapshot (§4.5 step 3).
func (s *State) Clone() *State {
	cp := &State{Balance: s.Balance, Nonce: s.Nonce, UsedOTS: make(map[uint32]struct{}, len(s.UsedOTS))}
	for idx := range s.UsedOTS {
		cp.UsedOTS[idx] = struct{}{}
	}
	return cp
}

// HasUsedOTS reports whether otsIndex has already been consumed by this
// address.
func (s *State) HasUsedOTS(otsIndex uint32) bool {
	_, used := s.UsedOTS[otsIndex]
	return used
}

// Overlay is the in-memory copy-on-write map of address states used to
// validate a candidate block before committing it (GLOSSARY). It is
// always seeded from durable state on first touch of a given address and
// discarded wholesale if the block it is validating is rejected (§4.2:
// "any failure rolls back the whole block's speculative map").
type Overlay struct {
	manager   *Manager
	entries   map[util.Address]*State
	seedEmpty bool
}

// Get returns the overlay's view of address, loading it from the durable
// store on first access — or, for an overlay built by NewEmptyOverlay,
// from the zero state, since that overlay is rebuilding a branch's state
// from genesis rather than continuing from whatever the store currently
// holds (§4.5 step 3).
func (o *Overlay) Get(address util.Address) (*State, error) {
	if s, ok := o.entries[address]; ok {
		return s, nil
	}
	if o.seedEmpty {
		s := NewState()
		o.entries[address] = s
		return s, nil
	}
	s, err := o.manager.Load(address)
	if err != nil {
		return nil, err
	}
	cloned := s.Clone()
	o.entries[address] = cloned
	return cloned, nil
}

// Debit subtracts amount from address's balance, failing with
// ErrInsufficientFunds if the balance would go negative (§4.2).
func (o *Overlay) Debit(address util.Address, amount uint64) error {
	s, err := o.Get(address)
	if err != nil {
		return err
	}
	if s.Balance < amount {
		return ErrInsufficientFunds
	}
	s.Balance -= amount
	return nil
}

// Credit adds amount to address's balance.
func (o *Overlay) Credit(address util.Address, amount uint64) error {
	s, err := o.Get(address)
	if err != nil {
		return err
	}
	s.Balance += amount
	return nil
}

// CheckAndConsumeSequencing verifies tx.nonce == state.nonce+1 and
// otsIndex hasn't been used yet, then advances the nonce and marks the
// index used — the per-transaction sequencing step applied during both
// block ingest (§4.5 step 6) and pool admission (§4.3).
func (o *Overlay) CheckAndConsumeSequencing(address util.Address, nonce uint64, otsIndex uint32) error {
	s, err := o.Get(address)
	if err != nil {
		return err
	}
	if nonce != s.Nonce+1 {
		return ErrNonceMismatch
	}
	if s.HasUsedOTS(otsIndex) {
		return ErrOtsReused
	}
	s.Nonce = nonce
	s.UsedOTS[otsIndex] = struct{}{}
	return nil
}

// Entries exposes the overlay's touched addresses, for Manager.Flush.
func (o *Overlay) Entries() map[util.Address]*State {
	return o.entries
}

// Manager loads and durably flushes AddressState records against the
// state store (§4.2).
type Manager struct {
	store *store.Store
}

// NewManager returns a Manager reading and writing through st.
func NewManager(st *store.Store) *Manager {
	return &Manager{store: st}
}

// Load returns the durable state for address, or the default zero state
// if none has ever been written.
func (m *Manager) Load(address util.Address) (*State, error) {
	raw, err := m.store.Get(store.AddressKey(address))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewState(), nil
		}
		return nil, errors.Wrapf(err, "loading address state for %s", address)
	}
	return decodeState(raw)
}

// NewOverlay returns a fresh speculative overlay rooted at this manager's
// durable view, with nothing yet touched.
func (m *Manager) NewOverlay() *Overlay {
	return &Overlay{manager: m, entries: make(map[util.Address]*State)}
}

// NewEmptyOverlay returns a fresh overlay that seeds every address from
// its zero state rather than from durable storage. The durable addr_
// records only ever reflect the current main-chain tip, so validating a
// block whose parent is not that tip (a competing branch) must rebuild
// address state from genesis instead of reading the wrong branch's
// numbers out of the store (§4.5 step 3, §8 "Reorg correctness").
func (m *Manager) NewEmptyOverlay() *Overlay {
	return &Overlay{manager: m, entries: make(map[util.Address]*State), seedEmpty: true}
}

// Flush stages every touched entry of overlay into batch, to be committed
// alongside the rest of a block's mutations in one atomic write (§4.2:
// "flush(speculative_map, batch)").
func (m *Manager) Flush(overlay *Overlay, batch *store.Batch) error {
	for address, state := range overlay.entries {
		encoded, err := encodeState(state)
		if err != nil {
			return errors.Wrapf(err, "encoding address state for %s", address)
		}
		batch.Put(store.AddressKey(address), encoded)
	}
	return nil
}

// Package txpool implements the fee-priority mempool described in §4.3:
// an admission pipeline guarding replay via per-address OTS conflicts, a
// max-priority ordering by fee, and a duplicate-hash guard, in the style
// of the teacher's mempool package (a priority-ordered txDescs map plus
// secondary conflict indices).
package txpool

import (
	"container/heap"
	"sync"

	"github.com/pkg/errors"

	"github.com/theQRL/qrl-core-go/addrstate"
	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/txn"
	"github.com/theQRL/qrl-core-go/util"
)

// Outcome is the admission result named in §4.3: "admit(tx) →
// {Accepted, Rejected(reason)}".
type Outcome int

const (
	Accepted Outcome = iota
	Rejected
)

// Sentinel rejection reasons, matching §7's policy table.
var (
	ErrPoolFull      = errors.New("txpool: pool is full")
	ErrDuplicateTx   = errors.New("txpool: duplicate transaction")
	ErrOtsConflict   = errors.New("txpool: OTS index already committed by a pending transaction")
)

// otsKey is the (address, ots_key) pair tracked by the pool's secondary
// conflict index (§4.3).
type otsKey struct {
	address util.Address
	ots     uint32
}

// entry is one pooled transaction plus its priority key.
type entry struct {
	tx    txn.Transaction
	index int // heap bookkeeping
}

// priorityQueue is a max-heap ordered by fee descending (§4.3).
type priorityQueue []*entry

func (q priorityQueue) Len() int { return len(q) }
func (q priorityQueue) Less(i, j int) bool {
	return q[i].tx.Fee() > q[j].tx.Fee()
}
func (q priorityQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}
func (q *priorityQueue) Push(x interface{}) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}
func (q *priorityQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// ChainView is what the pool needs from the live chain tip to validate
// admission against current balances (§4.3: "checks balance against the
// live chain tip's address-state").
type ChainView interface {
	TipAddressState(address util.Address) (*addrstate.State, error)
	BlockContext() txn.BlockContext
}

// Pool is the fee-priority mempool of §4.3.
type Pool struct {
	mu sync.Mutex

	cap int

	queue    priorityQueue
	byHash   map[crypto.Hash]*entry
	byOTS    map[otsKey]*entry
	chain    ChainView
}

// New returns an empty Pool capped at capacity entries and validating
// admission against chain.
func New(capacity int, chain ChainView) *Pool {
	return &Pool{
		cap:    capacity,
		queue:  priorityQueue{},
		byHash: make(map[crypto.Hash]*entry),
		byOTS:  make(map[otsKey]*entry),
		chain:  chain,
	}
}

// Admit runs static validation, the pool-level OTS conflict check, a
// balance check against the live tip, and the pool-size cap, per §4.3.
func (p *Pool) Admit(tx txn.Transaction) (Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	hash := tx.Hash()
	if _, exists := p.byHash[hash]; exists {
		return Rejected, ErrDuplicateTx
	}

	if tx.Kind() == txn.KindCoinbase {
		return Rejected, errors.New("txpool: coinbase transactions are not admitted to the pool")
	}

	ctx := p.chain.BlockContext()
	if err := tx.StaticValidate(ctx); err != nil {
		return Rejected, err
	}

	src := tx.Source()
	key := otsKey{address: src, ots: tx.OTSIndex()}
	if _, conflict := p.byOTS[key]; conflict {
		return Rejected, ErrOtsConflict
	}

	state, err := p.chain.TipAddressState(src)
	if err != nil {
		return Rejected, err
	}
	if state.HasUsedOTS(tx.OTSIndex()) {
		return Rejected, ErrOtsConflict
	}
	if tx.Nonce() != state.Nonce+1 {
		return Rejected, addrstate.ErrNonceMismatch
	}

	if amt, ok := amountOf(tx); ok && state.Balance < amt+tx.Fee() {
		return Rejected, addrstate.ErrInsufficientFunds
	}

	if len(p.byHash) >= p.cap {
		return Rejected, ErrPoolFull
	}

	e := &entry{tx: tx}
	heap.Push(&p.queue, e)
	p.byHash[hash] = e
	p.byOTS[key] = e

	return Accepted, nil
}

// amountOf extracts the debited amount from variants that spend a native
// balance beyond their fee (Transfer); other variants only ever debit
// their fee, which Admit already accounts for via tx.Fee().
func amountOf(tx txn.Transaction) (uint64, bool) {
	if t, ok := tx.(*txn.Transfer); ok {
		return t.Amount, true
	}
	return 0, false
}

// IterByPriority returns every pooled transaction in fee-descending
// order, without mutating the pool (§4.3: "iter_by_priority() → lazy
// sequence"). Go's heap order isn't stably sorted across Push/Pop
// sequences that don't fully drain it, so this takes a sorted snapshot.
func (p *Pool) IterByPriority() []txn.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := make(priorityQueue, len(p.queue))
	copy(snapshot, p.queue)
	heap.Init(&snapshot)

	out := make([]txn.Transaction, 0, len(snapshot))
	for snapshot.Len() > 0 {
		e := heap.Pop(&snapshot).(*entry)
		out = append(out, e.tx)
	}
	return out
}

// RemoveIncluded drops every transaction in txs from the pool, along with
// any other pooled entry sharing a (address, ots_key) pair with one of
// them (§4.3: "as are any other pool entries sharing the same (address,
// ots_key)").
func (p *Pool) RemoveIncluded(txs []txn.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()

	conflictKeys := make(map[otsKey]struct{}, len(txs))
	for _, tx := range txs {
		conflictKeys[otsKey{address: tx.Source(), ots: tx.OTSIndex()}] = struct{}{}
	}

	for key := range conflictKeys {
		if e, ok := p.byOTS[key]; ok {
			p.removeEntry(e)
		}
	}
}

func (p *Pool) removeEntry(e *entry) {
	delete(p.byHash, e.tx.Hash())
	delete(p.byOTS, otsKey{address: e.tx.Source(), ots: e.tx.OTSIndex()})
	if e.index >= 0 && e.index < len(p.queue) && p.queue[e.index] == e {
		heap.Remove(&p.queue, e.index)
	}
}

// Has reports whether hash is already pooled, used by gossip receipt
// handling to avoid re-requesting a payload already admitted.
func (p *Pool) Has(hash crypto.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.byHash[hash]
	return ok
}

// Len returns the number of pooled transactions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byHash)
}

// Package miner implements candidate block construction and the nonce
// search of §4.6, grounded on mining/mining.go's BlockForMining/
// nonce-search/preemption pattern, simplified to single-parent block
// templates and fee-priority transaction selection from txpool.
package miner

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/theQRL/qrl-core-go/block"
	"github.com/theQRL/qrl-core-go/chain"
	"github.com/theQRL/qrl-core-go/logger"
	"github.com/theQRL/qrl-core-go/powverify"
	"github.com/theQRL/qrl-core-go/txn"
	"github.com/theQRL/qrl-core-go/util"
)

// PoolView is what the Miner needs from the transaction pool: a
// fee-descending snapshot to select a candidate's transaction set from.
type PoolView interface {
	IterByPriority() []txn.Transaction
}

// Clock abstracts wall-clock time so tests can supply a fixed sequence of
// timestamps instead of depending on real time; §1 treats NTP clock
// sourcing as an external out-of-scope collaborator.
type Clock func() int64

// Miner builds candidate blocks on the current tip and searches for a
// valid nonce, per §4.6.
type Miner struct {
	chain *chain.Manager
	pool  PoolView
	now   Clock
}

// New constructs a Miner driving chain through pool's priority view,
// using now for candidate timestamps.
func New(chainMgr *chain.Manager, pool PoolView, now Clock) *Miner {
	return &Miner{chain: chainMgr, pool: pool, now: now}
}

// BuildCandidate assembles an unmined block on the current tip: the
// highest-fee subset of the pool that respects per-sender nonce
// sequencing and the block transaction-count limit, prepended with a
// Coinbase paying fixed_reward + Σ selected fees to the stake selector
// (§4.6).
func (m *Miner) BuildCandidate() (*block.Block, error) {
	tipHH, tipHeight, _ := m.chain.Tip()
	tipBlock, err := m.chain.GetBlockByHeaderHash(tipHH)
	if err != nil {
		return nil, errors.Wrap(err, "loading tip block for candidate")
	}

	timestamp := m.now()
	if timestamp <= tipBlock.Timestamp {
		timestamp = tipBlock.Timestamp + 1
	}

	params := m.chain.Params()
	selected, feesTotal := m.selectTransactions(params.MaxBlockTransactionCount - 1)

	cb := txn.NewCoinbase(params.StakeSelector, params.FixedBlockReward+feesTotal)
	all := make([]txn.Transaction, 0, len(selected)+1)
	all = append(all, cb)
	all = append(all, selected...)

	logger.Miner().Debugf("built candidate on tip %s height %d with %d transactions", tipHH, tipHeight, len(selected))
	return block.New(tipHeight+1, timestamp, tipHH, all), nil
}

// selectTransactions returns the highest-fee subset of the pool's
// priority view, up to limit entries, preserving each sender's nonce
// order among the selected set (§4.6: "satisfies per-sender
// sequencing").
func (m *Miner) selectTransactions(limit int) ([]txn.Transaction, uint64) {
	if limit <= 0 {
		return nil, 0
	}

	candidates := m.pool.IterByPriority()

	bySender := make(map[util.Address][]txn.Transaction)
	for _, tx := range candidates {
		bySender[tx.Source()] = append(bySender[tx.Source()], tx)
	}
	for _, txs := range bySender {
		sort.Slice(txs, func(i, j int) bool { return txs[i].Nonce() < txs[j].Nonce() })
	}

	nextIdx := make(map[util.Address]int)
	var selected []txn.Transaction
	var feesTotal uint64

	// Repeatedly take the highest-fee sender whose next-in-sequence
	// transaction is still available, until the limit is hit or every
	// sender's queue is exhausted.
	for len(selected) < limit {
		var bestSender util.Address
		var bestTx txn.Transaction
		found := false
		for sender, txs := range bySender {
			idx := nextIdx[sender]
			if idx >= len(txs) {
				continue
			}
			candidate := txs[idx]
			if !found || candidate.Fee() > bestTx.Fee() {
				bestSender, bestTx, found = sender, candidate, true
			}
		}
		if !found {
			break
		}
		selected = append(selected, bestTx)
		feesTotal += bestTx.Fee()
		nextIdx[bestSender]++
	}

	return selected, feesTotal
}

// Search increments candidate's mining nonce until it satisfies the
// retargeted target or stop reports true (§4.6: "preemption occurs when
// the Chain Manager installs a new tip"). stop is polled between
// iterations so cancellation is cooperative, per §5's concurrency model.
func (m *Miner) Search(candidate *block.Block, stop func() bool) (bool, error) {
	_, target, err := m.chain.CandidateDifficultyAndTarget(candidate.Timestamp)
	if err != nil {
		return false, err
	}
	hasher := m.chain.PowHasher()
	miningHash := candidate.MiningHash()

	for nonce := uint32(0); ; nonce++ {
		if stop != nil && stop() {
			return false, nil
		}
		candidate.MiningNonce = nonce
		if powverify.VerifyNonce(hasher, miningHash, nonce, target) {
			return true, nil
		}
		if nonce == ^uint32(0) {
			return false, nil
		}
	}
}

// Submit feeds a completed (nonce-found) block through the same
// add_block path used for peer-received blocks — "no shortcut is taken"
// per §4.6.
func (m *Miner) Submit(b *block.Block) (bool, error) {
	return m.chain.AddBlock(b)
}

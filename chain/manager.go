// Package chain implements the Chain Manager of §4.5: the only component
// that mutates the canonical chain. Grounded on blockdag.BlockDAG and
// blockdag/process.go's ProcessBlock/processBlockNoLock orphan/accept/
// reject flow, simplified from a DAG (multi-parent, blue-score) to the
// spec's linear chain (single parent, cumulative-difficulty fork choice,
// height-map rewrite on reorg).
package chain

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/theQRL/qrl-core-go/addrstate"
	"github.com/theQRL/qrl-core-go/block"
	"github.com/theQRL/qrl-core-go/chaincfg"
	"github.com/theQRL/qrl-core-go/chainerr"
	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/logger"
	"github.com/theQRL/qrl-core-go/powverify"
	"github.com/theQRL/qrl-core-go/store"
	"github.com/theQRL/qrl-core-go/txn"
	"github.com/theQRL/qrl-core-go/txpool"
	"github.com/theQRL/qrl-core-go/util"
)

// PoolView is what the Chain Manager needs from the transaction pool:
// dropping entries once their transactions land in a main-chain block,
// and (after a reorg) re-offering transactions that were only ever on the
// abandoned branch (§4.5 step 9, §8 "Reorg correctness").
type PoolView interface {
	RemoveIncluded(txs []txn.Transaction)
	Admit(tx txn.Transaction) (txpool.Outcome, error)
}

// TipChangeFunc is invoked whenever the Manager installs a new tip,
// giving the Miner (§4.6) its preemption signal.
type TipChangeFunc func(newTip crypto.Hash)

// Manager is the Chain Manager of §4.5.
type Manager struct {
	mu sync.Mutex

	store    *store.Store
	addrMgr  *addrstate.Manager
	params   *chaincfg.Params
	verifier crypto.XMSSVerifier
	hasher   crypto.PowHasher
	pool     PoolView
	onTip    TipChangeFunc

	tipHeaderHash  crypto.Hash
	tipHeight      uint64
	tipCumulative  *big.Int

	// orphansByParent indexes not-yet-connected blocks by the header
	// hash of their (currently unknown) parent, so arrival of that
	// parent can trigger re-evaluation (§3 Lifecycle, §4.5 step 10).
	orphansByParent map[crypto.Hash][]crypto.Hash
}

// New constructs a Manager. Load must be called before any other
// operation to install the genesis block.
func New(st *store.Store, addrMgr *addrstate.Manager, params *chaincfg.Params, verifier crypto.XMSSVerifier, hasher crypto.PowHasher, pool PoolView, onTip TipChangeFunc) *Manager {
	return &Manager{
		store:           st,
		addrMgr:         addrMgr,
		params:          params,
		verifier:        verifier,
		hasher:          hasher,
		pool:            pool,
		onTip:           onTip,
		orphansByParent: make(map[crypto.Hash][]crypto.Hash),
	}
}

// Load installs genesis at height 0 with its fixed difficulty and
// initializes the height-map and tip, per §4.5.
func (m *Manager) Load(genesis *block.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hh := genesis.HeaderHash()
	if has, err := m.store.Has(store.BlockKey(hh)); err != nil {
		return err
	} else if has {
		return m.restoreTipLocked()
	}

	metadata := block.NewMetadata(m.params.GenesisDifficulty, m.params.GenesisDifficulty, false)

	overlay := m.addrMgr.NewOverlay()
	ctx := m.blockContextLocked(m.params.GenesisDifficulty, 0)
	for _, tx := range genesis.Transactions {
		if err := tx.Apply(overlay, ctx); err != nil {
			return errors.Wrap(err, "applying genesis transaction")
		}
	}

	batch := m.store.NewBatch()
	if err := m.addrMgr.Flush(overlay, batch); err != nil {
		return err
	}
	if err := m.writeBlockLocked(batch, genesis, metadata); err != nil {
		return err
	}
	batch.Put(store.HeightKey(0), hh[:])
	if err := m.store.Commit(batch); err != nil {
		return errors.Wrap(err, "committing genesis")
	}

	m.tipHeaderHash = hh
	m.tipHeight = 0
	m.tipCumulative = new(big.Int).Set(m.params.GenesisDifficulty)
	return nil
}

func (m *Manager) restoreTipLocked() error {
	// A restart finds genesis already durable; walk height_<n> forward
	// from 0 until a height is missing, landing on the persisted tip.
	height := uint64(0)
	var last crypto.Hash
	for {
		raw, err := m.store.Get(store.HeightKey(height))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				break
			}
			return err
		}
		copy(last[:], raw)
		height++
	}
	if height == 0 {
		return errors.New("chain: height map empty on restore despite block_ entry present")
	}
	meta, err := m.loadMetadataLocked(last)
	if err != nil {
		return err
	}
	m.tipHeaderHash = last
	m.tipHeight = height - 1
	m.tipCumulative = meta.CumulativeDifficulty
	return nil
}

// BlockContext returns a txn.BlockContext usable by the pool's static
// validation step, carrying the current verifier and stake selector but
// no fee total (the pool validates transactions individually, not as
// part of a block).
func (m *Manager) BlockContext() txn.BlockContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return txn.BlockContext{Verifier: m.verifier, StakeSelector: m.params.StakeSelector}
}

func (m *Manager) blockContextLocked(difficulty *big.Int, feesTotal uint64) txn.BlockContext {
	return txn.BlockContext{
		Verifier:      m.verifier,
		StakeSelector: m.params.StakeSelector,
		FixedReward:   m.params.FixedBlockReward,
		FeesTotal:     feesTotal,
	}
}

// TipAddressState returns address's state as of the current tip, used by
// the pool's admission check (§4.3: "checks balance against the live
// chain tip's address-state").
func (m *Manager) TipAddressState(address util.Address) (*addrstate.State, error) {
	return m.addrMgr.Load(address)
}

// Tip returns the current tip's header hash, height, and cumulative
// difficulty.
func (m *Manager) Tip() (crypto.Hash, uint64, *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tipHeaderHash, m.tipHeight, new(big.Int).Set(m.tipCumulative)
}

// CandidateDifficultyAndTarget returns the (difficulty, target) pair a
// block built on the current tip with the given timestamp would need to
// satisfy, per §4.4's retarget function — the same computation
// connectBlockLocked performs during ingest, exposed so the Miner (§4.6)
// can build a compliant candidate without duplicating the retarget
// logic.
func (m *Manager) CandidateDifficultyAndTarget(candidateTimestamp int64) (*big.Int, *big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tipMeta, err := m.loadMetadataLocked(m.tipHeaderHash)
	if err != nil {
		return nil, nil, err
	}
	tipBlock, err := m.GetBlockByHeaderHash(m.tipHeaderHash)
	if err != nil {
		return nil, nil, err
	}

	difficulty := powverify.Retarget(tipMeta.BlockDifficulty, candidateTimestamp-tipBlock.Timestamp, m.retargetConfig())
	return difficulty, powverify.Target(difficulty), nil
}

// PowHasher exposes the configured PoW primitive, used by the Miner's
// nonce search.
func (m *Manager) PowHasher() crypto.PowHasher { return m.hasher }

// Params exposes the chain's consensus configuration.
func (m *Manager) Params() *chaincfg.Params { return m.params }

// GetBlockByHeaderHash returns the block indexed under hh.
func (m *Manager) GetBlockByHeaderHash(hh crypto.Hash) (*block.Block, error) {
	raw, err := m.store.Get(store.BlockKey(hh))
	if err != nil {
		return nil, err
	}
	return block.DecodeBlock(raw)
}

// GetBlockByNumber returns the main-chain block at height n.
func (m *Manager) GetBlockByNumber(n uint64) (*block.Block, error) {
	raw, err := m.store.Get(store.HeightKey(n))
	if err != nil {
		return nil, err
	}
	var hh crypto.Hash
	copy(hh[:], raw)
	return m.GetBlockByHeaderHash(hh)
}

func (m *Manager) loadMetadataLocked(hh crypto.Hash) (*block.Metadata, error) {
	raw, err := m.store.Get(store.MetadataKey(hh))
	if err != nil {
		return nil, err
	}
	return block.DecodeMetadata(raw)
}

// GetMetadataByHeaderHash returns the stored Metadata for hh, for
// callers (such as rpcapi's GetBlockMiningCompatible) that need
// difficulty/cumulative-difficulty without mutating chain state.
func (m *Manager) GetMetadataByHeaderHash(hh crypto.Hash) (*block.Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadMetadataLocked(hh)
}

func (m *Manager) writeBlockLocked(batch *store.Batch, b *block.Block, metadata *block.Metadata) error {
	hh := b.HeaderHash()
	encodedBlock, err := block.EncodeBlock(b)
	if err != nil {
		return err
	}
	encodedMeta, err := block.EncodeMetadata(metadata)
	if err != nil {
		return err
	}
	batch.Put(store.BlockKey(hh), encodedBlock)
	batch.Put(store.MetadataKey(hh), encodedMeta)
	return nil
}

// AddBlock is the ingest entry point of §4.5: it returns true iff the
// block is accepted into the index, whether as tip, alternate, or
// pending orphan.
func (m *Manager) AddBlock(b *block.Block) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addBlockLocked(b)
}

func (m *Manager) addBlockLocked(b *block.Block) (bool, error) {
	hh := b.HeaderHash()

	// Step 1: reject invalid height or already-indexed blocks.
	if b.BlockNumber < 1 {
		return false, chainerr.New(chainerr.ErrBadHeight, "block number must be >= 1")
	}
	if has, err := m.store.Has(store.BlockKey(hh)); err != nil {
		return false, err
	} else if has {
		return false, chainerr.New(chainerr.ErrDuplicateBlock, "block already indexed")
	}

	// Step 2: fetch parent; orphan if absent.
	parent, err := m.GetBlockByHeaderHash(b.PrevHeaderHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return m.recordOrphanLocked(b)
		}
		return false, err
	}

	accepted, err := m.connectBlockLocked(b, parent)
	if err != nil {
		return false, err
	}
	if !accepted {
		return false, nil
	}

	// Step 10: recursively attempt any orphan waiting on this block.
	m.resolveOrphansLocked(hh)
	m.pruneStaleOrphansLocked()
	return true, nil
}

// pruneStaleOrphansLocked drops orphans that can no longer be reached
// because they sit more than MaxOrphanDepth below the current tip (§3
// Lifecycle: "unreachable orphans past a configurable depth are
// pruned").
func (m *Manager) pruneStaleOrphansLocked() {
	if m.tipHeight < m.params.MaxOrphanDepth {
		return
	}
	floor := m.tipHeight - m.params.MaxOrphanDepth

	for parentHH, children := range m.orphansByParent {
		kept := children[:0]
		for _, hh := range children {
			orphan, err := m.GetBlockByHeaderHash(hh)
			if err != nil || orphan.BlockNumber >= floor {
				kept = append(kept, hh)
				continue
			}
			_ = m.store.Delete(store.BlockKey(hh))
			_ = m.store.Delete(store.MetadataKey(hh))
			logger.ChainManager().Debugf("pruned stale orphan %s at height %d", hh, orphan.BlockNumber)
		}
		if len(kept) == 0 {
			delete(m.orphansByParent, parentHH)
		} else {
			m.orphansByParent[parentHH] = kept
		}
	}
}

func (m *Manager) recordOrphanLocked(b *block.Block) (bool, error) {
	hh := b.HeaderHash()
	metadata := block.NewMetadata(big.NewInt(0), big.NewInt(0), true)
	batch := m.store.NewBatch()
	if err := m.writeBlockLocked(batch, b, metadata); err != nil {
		return false, err
	}
	if err := m.store.Commit(batch); err != nil {
		return false, errors.Wrap(err, "persisting orphan")
	}
	m.orphansByParent[b.PrevHeaderHash] = append(m.orphansByParent[b.PrevHeaderHash], hh)
	logger.ChainManager().Debugf("recorded orphan %s awaiting parent %s", hh, b.PrevHeaderHash)
	return true, nil
}

// overlayForParentLocked returns the speculative overlay a candidate
// block built on parent should validate against (§4.5 step 3: "fetch
// parent_address_state_snapshot... build a fresh speculative overlay
// seeded from it"). The durable addr_ records always reflect the
// *current tip*, so when parent actually is the tip, a normal overlay
// (lazily seeded from those records) is already parent's state and
// reuse is safe and cheap. When parent sits on a different branch — a
// competing chain the tip overtook, or one still catching up to it —
// the durable records reflect the wrong ancestry entirely, so the
// overlay must instead be rebuilt by replaying that branch from
// genesis, the way blockdag's UTXO diff-layering rebuilds a DAG tip's
// UTXO set from its selected-parent chain rather than trusting a single
// mutable table.
func (m *Manager) overlayForParentLocked(parent *block.Block) (*addrstate.Overlay, error) {
	if parent.HeaderHash() == m.tipHeaderHash {
		return m.addrMgr.NewOverlay(), nil
	}
	return m.replayOverlayLocked(parent)
}

// replayOverlayLocked rebuilds address state as of target by walking
// target's ancestry back to genesis and replaying every block's
// transactions into a zero-seeded overlay, in order. This is the
// fallback path for a block extending a branch that is not the current
// tip (§4.5 step 3, §8 "Reorg correctness"); it trades per-block cost
// for never reading another branch's numbers out of the durable store.
func (m *Manager) replayOverlayLocked(target *block.Block) (*addrstate.Overlay, error) {
	chainBlocks := make([]*block.Block, 0, target.BlockNumber+1)
	cursor := target
	for {
		chainBlocks = append(chainBlocks, cursor)
		if cursor.BlockNumber == 0 {
			break
		}
		prev, err := m.GetBlockByHeaderHash(cursor.PrevHeaderHash)
		if err != nil {
			return nil, errors.Wrapf(err, "replaying ancestry of %s", target.HeaderHash())
		}
		cursor = prev
	}
	for i, j := 0, len(chainBlocks)-1; i < j; i, j = i+1, j-1 {
		chainBlocks[i], chainBlocks[j] = chainBlocks[j], chainBlocks[i]
	}

	overlay := m.addrMgr.NewEmptyOverlay()
	for _, blk := range chainBlocks {
		meta, err := m.loadMetadataLocked(blk.HeaderHash())
		if err != nil {
			return nil, err
		}
		var feesTotal uint64
		for _, tx := range blk.Transactions[1:] {
			feesTotal += tx.Fee()
		}
		ctx := m.blockContextLocked(meta.BlockDifficulty, feesTotal)

		cb, ok := blk.Transactions[0].(*txn.Coinbase)
		if !ok {
			return nil, chainerr.New(chainerr.ErrBadCoinbase, "first transaction is not a coinbase")
		}
		if err := cb.Apply(overlay, ctx); err != nil {
			return nil, err
		}
		for _, tx := range blk.Transactions[1:] {
			if err := overlay.CheckAndConsumeSequencing(tx.Source(), tx.Nonce(), tx.OTSIndex()); err != nil {
				return nil, err
			}
			if err := tx.Apply(overlay, ctx); err != nil {
				return nil, err
			}
		}
	}
	return overlay, nil
}

// connectBlockLocked runs steps 3-9 of the ingest algorithm against a
// block whose parent is known, regardless of whether that parent is
// currently the tip.
func (m *Manager) connectBlockLocked(b *block.Block, parent *block.Block) (bool, error) {
	hh := b.HeaderHash()

	if b.Timestamp <= parent.Timestamp {
		return false, chainerr.New(chainerr.ErrBadTimestamp, "block timestamp does not exceed parent")
	}
	if b.BlockNumber != parent.BlockNumber+1 {
		return false, chainerr.New(chainerr.ErrBadHeight, "block number is not parent height + 1")
	}

	parentMeta, err := m.loadMetadataLocked(parent.HeaderHash())
	if err != nil {
		return false, err
	}

	// Step 4: retarget and verify PoW.
	difficulty := powverify.Retarget(parentMeta.BlockDifficulty, b.Timestamp-parent.Timestamp, m.retargetConfig())
	target := powverify.Target(difficulty)
	if !powverify.VerifyNonce(m.hasher, b.MiningHash(), b.MiningNonce, target) {
		return false, chainerr.New(chainerr.ErrInvalidPoW, "nonce hash exceeds target")
	}

	if len(b.Transactions) == 0 {
		return false, chainerr.New(chainerr.ErrBadCoinbase, "block has no coinbase")
	}
	if len(b.Transactions) > m.params.MaxBlockTransactionCount {
		return false, chainerr.New(chainerr.ErrTooManyTransactions, "block exceeds transaction limit")
	}
	cb, ok := b.Transactions[0].(*txn.Coinbase)
	if !ok {
		return false, chainerr.New(chainerr.ErrBadCoinbase, "first transaction is not a coinbase")
	}

	var feesTotal uint64
	for _, tx := range b.Transactions[1:] {
		feesTotal += tx.Fee()
	}
	ctx := m.blockContextLocked(difficulty, feesTotal)

	overlay, err := m.overlayForParentLocked(parent)
	if err != nil {
		return false, err
	}
	if err := cb.StaticValidate(ctx); err != nil {
		return false, err
	}
	if err := cb.Apply(overlay, ctx); err != nil {
		return false, err
	}

	// Step 6: validate and apply the remaining transactions in order.
	for _, tx := range b.Transactions[1:] {
		if err := tx.StaticValidate(ctx); err != nil {
			return false, err
		}
		if err := overlay.CheckAndConsumeSequencing(tx.Source(), tx.Nonce(), tx.OTSIndex()); err != nil {
			return false, err
		}
		if err := tx.Apply(overlay, ctx); err != nil {
			return false, err
		}
	}

	cumulative, ok := powverify.AddCumulative(parentMeta.CumulativeDifficulty, difficulty)
	if !ok {
		return false, chainerr.New(chainerr.ErrDifficultyOverflow, "cumulative difficulty overflow")
	}
	metadata := block.NewMetadata(difficulty, cumulative, false)

	// Step 8: commit block and metadata, plus the parent's child set, in
	// one batch. The speculative overlay is only flushed into the durable
	// addr_ records below once becomesTip is known, since those records
	// are the single global view of "address state as of the tip" (§4.5
	// step 3) — flushing a non-tip branch's overlay would corrupt that
	// view with a competing branch's numbers.
	batch := m.store.NewBatch()
	if err := m.writeBlockLocked(batch, b, metadata); err != nil {
		return false, err
	}
	parentMeta.AddChild(hh)
	encodedParentMeta, err := block.EncodeMetadata(parentMeta)
	if err != nil {
		return false, err
	}
	batch.Put(store.MetadataKey(parent.HeaderHash()), encodedParentMeta)

	becomesTip := cumulative.Cmp(m.tipCumulative) > 0
	if becomesTip {
		if err := m.addrMgr.Flush(overlay, batch); err != nil {
			return false, err
		}
		if err := m.stageReorgLocked(batch, b); err != nil {
			return false, err
		}
	}

	if err := m.store.Commit(batch); err != nil {
		return false, chainerr.New(chainerr.ErrStoreIoError, err.Error())
	}

	if becomesTip {
		m.tipHeaderHash = hh
		m.tipHeight = b.BlockNumber
		m.tipCumulative = cumulative
		if m.pool != nil {
			m.pool.RemoveIncluded(b.Transactions)
		}
		if m.onTip != nil {
			m.onTip(hh)
		}
	}

	logger.ChainManager().Infof("connected block %s at height %d (tip=%v)", hh, b.BlockNumber, becomesTip)
	return true, nil
}

// stageReorgLocked walks back from newTip to the current height-map's
// common ancestor and rewrites the height-map entries along the new
// branch (§4.5 step 9). It also collects every transaction of the
// abandoned branch's blocks and offers each non-Coinbase one back to the
// pool itself.
func (m *Manager) stageReorgLocked(batch *store.Batch, newTip *block.Block) error {
	type rewrite struct {
		height uint64
		hh     crypto.Hash
	}
	var rewrites []rewrite
	var abandonedTxs []txn.Transaction

	cursor := newTip
	for {
		existing, err := m.GetBlockByNumber(cursor.BlockNumber)
		if err == nil {
			if existing.HeaderHash() == cursor.HeaderHash() {
				break // reached the point where height-map already agrees
			}
			abandonedTxs = append(abandonedTxs, existing.Transactions...)
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		rewrites = append(rewrites, rewrite{height: cursor.BlockNumber, hh: cursor.HeaderHash()})

		if cursor.BlockNumber == 0 {
			break
		}
		parent, err := m.GetBlockByHeaderHash(cursor.PrevHeaderHash)
		if err != nil {
			return err
		}
		cursor = parent
	}

	for _, r := range rewrites {
		batch.Put(store.HeightKey(r.height), r.hh[:])
	}

	if m.pool != nil {
		for _, tx := range abandonedTxs {
			if tx.Kind() == txn.KindCoinbase {
				continue
			}
			// Re-offer only if still replayable: Admit re-validates
			// nonce/OTS against the new tip's address state, so a
			// transaction whose OTS index was consumed on the new
			// branch is silently rejected here (§8 "Reorg correctness").
			_, _ = m.pool.Admit(tx)
		}
	}

	return nil
}

func (m *Manager) resolveOrphansLocked(parentHH crypto.Hash) {
	waiting := m.orphansByParent[parentHH]
	delete(m.orphansByParent, parentHH)
	for _, hh := range waiting {
		orphan, err := m.GetBlockByHeaderHash(hh)
		if err != nil {
			logger.ChainManager().Warnf("failed to load orphan %s: %v", hh, err)
			continue
		}
		parent, err := m.GetBlockByHeaderHash(orphan.PrevHeaderHash)
		if err != nil {
			continue
		}
		if _, err := m.connectBlockLocked(orphan, parent); err != nil {
			logger.ChainManager().Warnf("orphan %s failed to connect: %v", hh, err)
			continue
		}
		m.resolveOrphansLocked(hh)
	}
}

func (m *Manager) retargetConfig() powverify.RetargetConfig {
	return powverify.RetargetConfig{
		TargetBlockTime: m.params.TargetBlockTime,
		ClampPercent:    m.params.RetargetClampPercent,
		MinDifficulty:   m.params.MinDifficulty,
		MaxDifficulty:   m.params.MaxDifficulty,
	}
}

package chain

import (
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/theQRL/qrl-core-go/addrstate"
	"github.com/theQRL/qrl-core-go/block"
	"github.com/theQRL/qrl-core-go/chaincfg"
	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/store"
	"github.com/theQRL/qrl-core-go/txn"
	"github.com/theQRL/qrl-core-go/util"
)

type acceptAllVerifier struct{}

func (acceptAllVerifier) Verify(publicKey []byte, otsIndex uint32, messageHash crypto.Hash, signature []byte) bool {
	return true
}

// zeroHasher always returns the zero hash, so every nonce satisfies even
// the tightest target — these tests exercise ingest logic, not the PoW
// search itself.
type zeroHasher struct{}

func (zeroHasher) Hash(miningHash crypto.Hash, nonce uint32) crypto.Hash { return crypto.Hash{} }

func testAddr(b byte) util.Address {
	return util.NewAddressFromPublicKey(util.DescriptorXMSS, []byte{b, b, b})
}

func testParams() *chaincfg.Params {
	p := chaincfg.TestNetParams
	p.GenesisDifficulty = big.NewInt(10)
	p.MinDifficulty = big.NewInt(1)
	p.MaxDifficulty = new(big.Int).Lsh(big.NewInt(1), 250)
	p.StakeSelector = testAddr(255)
	p.FixedBlockReward = 500000000
	p.MaxBlockTransactionCount = 100
	p.MaxOrphanDepth = 10
	return &p
}

func newTestManager(t *testing.T) (*Manager, *block.Block) {
	t.Helper()
	dir, err := os.MkdirTemp("", "chain-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	st, err := store.Open(dir)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	addrMgr := addrstate.NewManager(st)
	params := testParams()

	mgr := New(st, addrMgr, params, acceptAllVerifier{}, zeroHasher{}, nil, nil)

	genesisCoinbase := txn.NewCoinbase(params.StakeSelector, params.FixedBlockReward)
	genesis := block.New(0, params.GenesisTimestamp.Unix(), crypto.ZeroHash, []txn.Transaction{genesisCoinbase})
	if err := mgr.Load(genesis); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return mgr, genesis
}

func mineChild(t *testing.T, mgr *Manager, parent *block.Block, txs []txn.Transaction) *block.Block {
	t.Helper()
	params := testParams()
	cb := txn.NewCoinbase(params.StakeSelector, params.FixedBlockReward+feesOf(txs))
	all := append([]txn.Transaction{cb}, txs...)
	b := block.New(parent.BlockNumber+1, parent.Timestamp+int64(params.TargetBlockTime/time.Second), parent.HeaderHash(), all)
	return b
}

func feesOf(txs []txn.Transaction) uint64 {
	var total uint64
	for _, tx := range txs {
		total += tx.Fee()
	}
	return total
}

func TestLinearExtension(t *testing.T) {
	mgr, genesis := newTestManager(t)

	b1 := mineChild(t, mgr, genesis, nil)
	accepted, err := mgr.AddBlock(b1)
	if err != nil {
		t.Fatalf("AddBlock: %+v", err)
	}
	if !accepted {
		t.Fatalf("expected block 1 to be accepted")
	}

	tip, height, _ := mgr.Tip()
	if tip != b1.HeaderHash() || height != 1 {
		t.Fatalf("expected tip=b1 height=1, got tip=%s height=%d", tip, height)
	}
}

func TestTransferApply(t *testing.T) {
	mgr, genesis := newTestManager(t)

	alice := testAddr(1)
	bob := testAddr(2)

	overlay := mgr.addrMgr.NewOverlay()
	if err := overlay.Credit(alice, 1000); err != nil {
		t.Fatalf("seed credit: %v", err)
	}
	batch := mgr.store.NewBatch()
	if err := mgr.addrMgr.Flush(overlay, batch); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := mgr.store.Commit(batch); err != nil {
		t.Fatalf("commit: %v", err)
	}

	transfer := txn.NewTransfer(alice, bob, 100, 1, 1, []byte{1, 1, 1}, 0)
	transfer.SetSignature([]byte{9})

	b1 := mineChild(t, mgr, genesis, []txn.Transaction{transfer})
	accepted, err := mgr.AddBlock(b1)
	if err != nil {
		t.Fatalf("AddBlock: %+v", err)
	}
	if !accepted {
		t.Fatalf("expected acceptance")
	}

	aliceState, _ := mgr.TipAddressState(alice)
	if aliceState.Balance != 899 || aliceState.Nonce != 1 {
		t.Fatalf("unexpected alice state: %+v", aliceState)
	}
	if !aliceState.HasUsedOTS(0) {
		t.Fatalf("expected OTS index 0 consumed")
	}
	bobState, _ := mgr.TipAddressState(bob)
	if bobState.Balance != 100 {
		t.Fatalf("unexpected bob balance: %d", bobState.Balance)
	}
}

func TestOrphanResolution(t *testing.T) {
	mgr, genesis := newTestManager(t)

	b1 := mineChild(t, mgr, genesis, nil)
	b2 := mineChild(t, mgr, b1, nil)

	accepted, err := mgr.AddBlock(b2)
	if err != nil {
		t.Fatalf("AddBlock(b2): %+v", err)
	}
	if !accepted {
		t.Fatalf("expected orphan to be recorded as accepted")
	}
	tip, height, _ := mgr.Tip()
	if tip != genesis.HeaderHash() || height != 0 {
		t.Fatalf("expected tip still at genesis while b2 is orphaned, got height=%d", height)
	}

	accepted, err = mgr.AddBlock(b1)
	if err != nil {
		t.Fatalf("AddBlock(b1): %+v", err)
	}
	if !accepted {
		t.Fatalf("expected b1 to be accepted")
	}

	tip, height, _ = mgr.Tip()
	if tip != b2.HeaderHash() || height != 2 {
		t.Fatalf("expected b2 to be auto-applied once b1 arrived, got tip=%s height=%d", tip, height)
	}
}

// TestForkChoiceReorgUsesWinningBranchState builds two branches off the
// same parent that each spend the same pre-fork balance, then extends
// the losing branch until it overtakes on cumulative difficulty. It
// asserts that a non-tip branch never leaks its speculative state into
// durable storage, and that the reorg's final address state reflects
// only the winning branch's transactions — the "Reorg correctness"
// property of §8 and E2E scenario 4.
func TestForkChoiceReorgUsesWinningBranchState(t *testing.T) {
	mgr, genesis := newTestManager(t)

	alice := testAddr(1)
	bob := testAddr(2)
	carol := testAddr(3)

	// Fund alice on chain before the fork, so both branches inherit the
	// same pre-fork balance when their state is replayed from genesis.
	fund := txn.NewTransfer(testAddr(255), alice, 1000, 0, 1, []byte{255, 255, 255}, 0)
	fund.SetSignature([]byte{9})
	f1 := mineChild(t, mgr, genesis, []txn.Transaction{fund})
	if accepted, err := mgr.AddBlock(f1); err != nil || !accepted {
		t.Fatalf("AddBlock(f1): accepted=%v err=%+v", accepted, err)
	}

	// Branch A: one block spending alice's pre-fork balance to bob.
	toBob := txn.NewTransfer(alice, bob, 100, 0, 1, []byte{1, 1, 1}, 0)
	toBob.SetSignature([]byte{9})
	a1 := mineChild(t, mgr, f1, []txn.Transaction{toBob})
	if accepted, err := mgr.AddBlock(a1); err != nil || !accepted {
		t.Fatalf("AddBlock(a1): accepted=%v err=%+v", accepted, err)
	}

	tip, height, _ := mgr.Tip()
	if tip != a1.HeaderHash() || height != 2 {
		t.Fatalf("expected branch A tip after a1, got tip=%s height=%d", tip, height)
	}
	if aliceState, _ := mgr.TipAddressState(alice); aliceState.Balance != 900 || aliceState.Nonce != 1 {
		t.Fatalf("unexpected alice state after branch A: %+v", aliceState)
	}

	// Branch B: a competing spend of the same pre-fork balance to carol,
	// using the same nonce — valid because it is checked against an
	// overlay seeded from alice's pre-fork state, not branch A's.
	toCarol := txn.NewTransfer(alice, carol, 250, 0, 1, []byte{1, 1, 1}, 1)
	toCarol.SetSignature([]byte{9})
	b1 := mineChild(t, mgr, f1, []txn.Transaction{toCarol})
	if accepted, err := mgr.AddBlock(b1); err != nil || !accepted {
		t.Fatalf("AddBlock(b1): accepted=%v err=%+v", accepted, err)
	}

	// b1 does not overtake branch A's cumulative difficulty yet; the tip
	// and alice's durable state must be untouched by this competing,
	// not-yet-winning branch.
	if tip, _, _ := mgr.Tip(); tip != a1.HeaderHash() {
		t.Fatalf("expected branch A to still be tip after b1, got tip=%s", tip)
	}
	if aliceState, _ := mgr.TipAddressState(alice); aliceState.Balance != 900 || aliceState.Nonce != 1 {
		t.Fatalf("branch B's speculative state leaked into durable storage: %+v", aliceState)
	}

	// Extend branch B past branch A's cumulative difficulty: connecting
	// b2 exercises the non-tip-parent (replay-from-genesis) path, since
	// b1 is not the tip when b2 arrives.
	b2 := mineChild(t, mgr, b1, nil)
	if accepted, err := mgr.AddBlock(b2); err != nil || !accepted {
		t.Fatalf("AddBlock(b2): accepted=%v err=%+v", accepted, err)
	}

	tip, height, _ = mgr.Tip()
	if tip != b2.HeaderHash() || height != 3 {
		t.Fatalf("expected branch B to win fork choice, got tip=%s height=%d", tip, height)
	}

	aliceState, _ := mgr.TipAddressState(alice)
	if aliceState.Balance != 750 || aliceState.Nonce != 1 {
		t.Fatalf("expected alice's state to reflect branch B's spend exactly, got %+v", aliceState)
	}
	if !aliceState.HasUsedOTS(1) || aliceState.HasUsedOTS(0) {
		t.Fatalf("expected only branch B's OTS index consumed, got %+v", aliceState.UsedOTS)
	}
	if bobState, _ := mgr.TipAddressState(bob); bobState.Balance != 0 {
		t.Fatalf("expected branch A's bob credit not to survive the reorg, got %d", bobState.Balance)
	}
	if carolState, _ := mgr.TipAddressState(carol); carolState.Balance != 250 {
		t.Fatalf("unexpected carol balance: %d", carolState.Balance)
	}
}

func TestRejectsBadTimestamp(t *testing.T) {
	mgr, genesis := newTestManager(t)

	params := testParams()
	cb := txn.NewCoinbase(params.StakeSelector, params.FixedBlockReward)
	b := block.New(1, genesis.Timestamp, genesis.HeaderHash(), []txn.Transaction{cb})

	_, err := mgr.AddBlock(b)
	if err == nil {
		t.Fatalf("expected timestamp rejection")
	}
}

func TestCoinbaseOnlyBlockValidates(t *testing.T) {
	mgr, genesis := newTestManager(t)
	b1 := mineChild(t, mgr, genesis, nil)
	accepted, err := mgr.AddBlock(b1)
	if err != nil || !accepted {
		t.Fatalf("expected coinbase-only block to validate: accepted=%v err=%v", accepted, err)
	}
}

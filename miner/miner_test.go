package miner

import (
	"math/big"
	"os"
	"testing"

	"github.com/theQRL/qrl-core-go/addrstate"
	"github.com/theQRL/qrl-core-go/block"
	"github.com/theQRL/qrl-core-go/chain"
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

type zeroHasher struct{}

func (zeroHasher) Hash(miningHash crypto.Hash, nonce uint32) crypto.Hash { return crypto.Hash{} }

type fakePool struct{ txs []txn.Transaction }

func (f *fakePool) IterByPriority() []txn.Transaction { return f.txs }

func testAddr(b byte) util.Address {
	return util.NewAddressFromPublicKey(util.DescriptorXMSS, []byte{b, b, b})
}

func newTestChain(t *testing.T) (*chain.Manager, *block.Block, *chaincfg.Params) {
	t.Helper()
	dir, err := os.MkdirTemp("", "miner-test-*")
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
	params := chaincfg.TestNetParams
	params.GenesisDifficulty = big.NewInt(10)
	params.MinDifficulty = big.NewInt(1)
	params.MaxDifficulty = new(big.Int).Lsh(big.NewInt(1), 250)
	params.StakeSelector = testAddr(255)
	params.FixedBlockReward = 500000000
	params.MaxBlockTransactionCount = 10

	mgr := chain.New(st, addrMgr, &params, acceptAllVerifier{}, zeroHasher{}, nil, nil)

	genesisCoinbase := txn.NewCoinbase(params.StakeSelector, params.FixedBlockReward)
	genesis := block.New(0, params.GenesisTimestamp.Unix(), crypto.ZeroHash, []txn.Transaction{genesisCoinbase})
	if err := mgr.Load(genesis); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return mgr, genesis, &params
}

func TestBuildCandidateSelectsHighestFeeSubset(t *testing.T) {
	mgr, genesis, _ := newTestChain(t)

	a1 := testAddr(1)
	a2 := testAddr(2)
	dst := testAddr(3)

	low := txn.NewTransfer(a1, dst, 10, 1, 1, []byte{1}, 0)
	low.SetSignature([]byte{9})
	high := txn.NewTransfer(a2, dst, 10, 5, 1, []byte{2}, 0)
	high.SetSignature([]byte{9})

	pool := &fakePool{txs: []txn.Transaction{low, high}}
	m := New(mgr, pool, func() int64 { return genesis.Timestamp + 100 })

	candidate, err := m.BuildCandidate()
	if err != nil {
		t.Fatalf("BuildCandidate: %+v", err)
	}
	if len(candidate.Transactions) != 3 {
		t.Fatalf("expected coinbase + 2 transfers, got %d", len(candidate.Transactions))
	}
	cb, ok := candidate.Coinbase()
	if !ok {
		t.Fatalf("expected first transaction to be coinbase")
	}
	if cb.Amount != 500000000+1+5 {
		t.Fatalf("unexpected coinbase amount: %d", cb.Amount)
	}
}

func TestSearchFindsNonceImmediatelyWithZeroHasher(t *testing.T) {
	mgr, genesis, _ := newTestChain(t)
	pool := &fakePool{}
	m := New(mgr, pool, func() int64 { return genesis.Timestamp + 100 })

	candidate, err := m.BuildCandidate()
	if err != nil {
		t.Fatalf("BuildCandidate: %+v", err)
	}

	found, err := m.Search(candidate, func() bool { return false })
	if err != nil {
		t.Fatalf("Search: %+v", err)
	}
	if !found {
		t.Fatalf("expected zero-hasher to satisfy any target immediately")
	}

	accepted, err := m.Submit(candidate)
	if err != nil {
		t.Fatalf("Submit: %+v", err)
	}
	if !accepted {
		t.Fatalf("expected submitted candidate to be accepted")
	}
}

func TestSearchRespectsPreemption(t *testing.T) {
	mgr, genesis, _ := newTestChain(t)
	pool := &fakePool{}
	m := New(mgr, pool, func() int64 { return genesis.Timestamp + 100 })

	candidate, err := m.BuildCandidate()
	if err != nil {
		t.Fatalf("BuildCandidate: %+v", err)
	}

	found, err := m.Search(candidate, func() bool { return true })
	if err != nil {
		t.Fatalf("Search: %+v", err)
	}
	if found {
		t.Fatalf("expected immediate preemption to prevent a match")
	}
}

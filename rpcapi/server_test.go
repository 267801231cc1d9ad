package rpcapi

import (
	"context"
	"math/big"
	"os"
	"testing"

	"github.com/theQRL/qrl-core-go/addrstate"
	"github.com/theQRL/qrl-core-go/block"
	"github.com/theQRL/qrl-core-go/chain"
	"github.com/theQRL/qrl-core-go/chaincfg"
	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/miner"
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

type fakePool struct{}

func (fakePool) IterByPriority() []txn.Transaction { return nil }

type fakePeerLister struct{ peers []PeerInfo }

func (f fakePeerLister) KnownPeers() []PeerInfo { return f.peers }

func testAddr(b byte) util.Address {
	return util.NewAddressFromPublicKey(util.DescriptorXMSS, []byte{b, b, b})
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir, err := os.MkdirTemp("", "rpcapi-test-*")
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

	chainMgr := chain.New(st, addrMgr, &params, acceptAllVerifier{}, zeroHasher{}, nil, nil)

	genesisCoinbase := txn.NewCoinbase(params.StakeSelector, params.FixedBlockReward)
	genesis := block.New(0, params.GenesisTimestamp.Unix(), crypto.ZeroHash, []txn.Transaction{genesisCoinbase})
	if err := chainMgr.Load(genesis); err != nil {
		t.Fatalf("Load: %v", err)
	}

	m := miner.New(chainMgr, fakePool{}, func() int64 { return params.GenesisTimestamp.Unix() + 100 })
	return NewServer(chainMgr, m, fakePeerLister{peers: []PeerInfo{{Address: "127.0.0.1:9000"}}})
}

func TestGetKnownPeers(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.GetKnownPeers(context.Background(), &GetKnownPeersRequest{})
	if err != nil {
		t.Fatalf("GetKnownPeers: %+v", err)
	}
	if len(resp.Peers) != 1 || resp.Peers[0].Address != "127.0.0.1:9000" {
		t.Fatalf("unexpected peers: %+v", resp.Peers)
	}
}

func TestGetAddressStateForStakeSelector(t *testing.T) {
	srv := newTestServer(t)
	stakeSelector := testAddr(255)
	resp, err := srv.GetAddressState(context.Background(), &GetAddressStateRequest{Address: stakeSelector.Bytes()})
	if err != nil {
		t.Fatalf("GetAddressState: %+v", err)
	}
	if resp.Balance != 500000000 {
		t.Fatalf("expected genesis coinbase balance, got %d", resp.Balance)
	}
}

func TestTransferCoinsReturnsNextNonce(t *testing.T) {
	srv := newTestServer(t)
	stakeSelector := testAddr(255)
	dst := testAddr(7)

	resp, err := srv.TransferCoins(context.Background(), &TransferCoinsRequest{
		SourceAddress: stakeSelector.Bytes(),
		DestAddress:   dst.Bytes(),
		Amount:        100,
		Fee:           1,
	})
	if err != nil {
		t.Fatalf("TransferCoins: %+v", err)
	}
	if resp.Nonce != 1 {
		t.Fatalf("expected next nonce 1, got %d", resp.Nonce)
	}
	if resp.Amount != 100 || resp.Fee != 1 {
		t.Fatalf("unexpected amount/fee: %+v", resp)
	}
}

func TestGetBlockMiningCompatibleReturnsGenesis(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.GetBlockMiningCompatible(context.Background(), &GetBlockMiningCompatibleRequest{Height: 0})
	if err != nil {
		t.Fatalf("GetBlockMiningCompatible: %+v", err)
	}
	if resp.Header.BlockNumber != 0 {
		t.Fatalf("expected genesis block, got height %d", resp.Header.BlockNumber)
	}
}

func TestGetBlockToMineAndSubmit(t *testing.T) {
	srv := newTestServer(t)
	tmpl, err := srv.GetBlockToMine(context.Background(), &GetBlockToMineRequest{WalletAddress: testAddr(255).Bytes()})
	if err != nil {
		t.Fatalf("GetBlockToMine: %+v", err)
	}
	if len(tmpl.Blob) == 0 {
		t.Fatalf("expected non-empty mining blob")
	}

	resp, err := srv.SubmitMinedBlock(context.Background(), &SubmitMinedBlockRequest{Blob: tmpl.Blob})
	if err != nil {
		t.Fatalf("SubmitMinedBlock: %+v", err)
	}
	if !resp.Accepted {
		t.Fatalf("expected submitted block to be accepted (zero hasher satisfies any target)")
	}
}

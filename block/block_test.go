package block

import (
	"math/big"
	"testing"

	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/txn"
	"github.com/theQRL/qrl-core-go/util"
)

func testAddr(b byte) util.Address {
	return util.NewAddressFromPublicKey(util.DescriptorXMSS, []byte{b, b, b})
}

func TestHeaderHashChangesWithNonce(t *testing.T) {
	cb := txn.NewCoinbase(testAddr(1), 500000000)
	b := New(1, 1000, crypto.ZeroHash, []txn.Transaction{cb})

	b.MiningNonce = 1
	h1 := b.HeaderHash()

	b2 := New(1, 1000, crypto.ZeroHash, []txn.Transaction{cb})
	b2.MiningNonce = 2
	h2 := b2.HeaderHash()

	if h1 == h2 {
		t.Fatalf("expected different header hashes for different nonces")
	}
}

func TestMiningHashStableAcrossNonce(t *testing.T) {
	cb := txn.NewCoinbase(testAddr(1), 500000000)
	b1 := New(1, 1000, crypto.ZeroHash, []txn.Transaction{cb})
	b1.MiningNonce = 1
	b2 := New(1, 1000, crypto.ZeroHash, []txn.Transaction{cb})
	b2.MiningNonce = 99

	if b1.MiningHash() != b2.MiningHash() {
		t.Fatalf("expected mining hash to be independent of nonce")
	}
}

func TestBlockRoundTrip(t *testing.T) {
	src := testAddr(2)
	dst := testAddr(3)
	transfer := txn.NewTransfer(src, dst, 100, 1, 1, []byte{1, 2, 3}, 0)
	transfer.SetSignature([]byte{9})
	cb := txn.NewCoinbase(testAddr(1), 500000001)

	b := New(5, 12345, crypto.Sum256([]byte("parent")), []txn.Transaction{cb, transfer})
	b.MiningNonce = 42
	wantHash := b.HeaderHash()

	encoded, err := EncodeBlock(b)
	if err != nil {
		t.Fatalf("EncodeBlock: %+v", err)
	}
	decoded, err := DecodeBlock(encoded)
	if err != nil {
		t.Fatalf("DecodeBlock: %+v", err)
	}
	if decoded.HeaderHash() != wantHash {
		t.Fatalf("header hash mismatch after round-trip")
	}
	if len(decoded.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(decoded.Transactions))
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	m := NewMetadata(big.NewInt(100), big.NewInt(500), false)
	m.AddChild(crypto.Sum256([]byte("child1")))
	m.AddChild(crypto.Sum256([]byte("child2")))

	encoded, err := EncodeMetadata(m)
	if err != nil {
		t.Fatalf("EncodeMetadata: %+v", err)
	}
	decoded, err := DecodeMetadata(encoded)
	if err != nil {
		t.Fatalf("DecodeMetadata: %+v", err)
	}
	if decoded.BlockDifficulty.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("difficulty mismatch: %s", decoded.BlockDifficulty)
	}
	if decoded.CumulativeDifficulty.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("cumulative difficulty mismatch: %s", decoded.CumulativeDifficulty)
	}
	if len(decoded.ChildHeaderHashes) != 2 {
		t.Fatalf("expected 2 children, got %d", len(decoded.ChildHeaderHashes))
	}
}

func TestAddChildDeduplicates(t *testing.T) {
	m := NewMetadata(big.NewInt(1), big.NewInt(1), false)
	child := crypto.Sum256([]byte("x"))
	m.AddChild(child)
	m.AddChild(child)
	if len(m.ChildHeaderHashes) != 1 {
		t.Fatalf("expected dedup, got %d children", len(m.ChildHeaderHashes))
	}
}

func TestCoinbaseAccessor(t *testing.T) {
	cb := txn.NewCoinbase(testAddr(1), 500000000)
	b := New(1, 1, crypto.ZeroHash, []txn.Transaction{cb})
	got, ok := b.Coinbase()
	if !ok || got.Dst != testAddr(1) {
		t.Fatalf("expected coinbase accessor to return the first transaction")
	}

	empty := New(1, 1, crypto.ZeroHash, nil)
	if _, ok := empty.Coinbase(); ok {
		t.Fatalf("expected no coinbase on empty transaction list")
	}
}

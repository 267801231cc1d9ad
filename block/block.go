// Package block implements the Block, Block Metadata, and Block Index
// data model of §3: content-addressed by 32-byte header hash rather than
// in-memory parent/child pointers, per §9's "cyclic block/parent
// references" design note.
package block

import (
	"math/big"

	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/txn"
)

// Block is the append-only unit of consensus described in §3.
type Block struct {
	BlockNumber     uint64
	Timestamp       int64
	PrevHeaderHash  crypto.Hash
	MiningNonce     uint32
	Transactions    []txn.Transaction

	headerHash  crypto.Hash
	headerKnown bool
}

// New constructs an unmined block template: height, timestamp, parent,
// and ordered transactions (the first of which must be a Coinbase, per
// §3). MiningNonce starts at zero and is overwritten by the search in
// §4.6.
func New(number uint64, timestamp int64, prevHeaderHash crypto.Hash, transactions []txn.Transaction) *Block {
	return &Block{
		BlockNumber:    number,
		Timestamp:      timestamp,
		PrevHeaderHash: prevHeaderHash,
		Transactions:   transactions,
	}
}

// MiningHash is the pre-nonce header digest fed to H_pow alongside the
// mining nonce (§3: "mining_hash (pre-nonce header digest)"). It commits
// to everything except the nonce itself, so the nonce search in §4.6
// never needs to recompute it.
func (b *Block) MiningHash() crypto.Hash {
	buf := make([]byte, 0, 8+8+32+len(b.Transactions)*32)
	buf = appendUint64(buf, b.BlockNumber)
	buf = appendUint64(buf, uint64(b.Timestamp))
	buf = append(buf, b.PrevHeaderHash[:]...)
	for _, tx := range b.Transactions {
		h := tx.Hash()
		buf = append(buf, h[:]...)
	}
	return crypto.Sum256(buf)
}

// HeaderHash is the post-nonce digest identifying this block in the
// index (§3: "header_hash (post-nonce digest)"); it is memoized since a
// Block is treated as immutable once its nonce is set.
func (b *Block) HeaderHash() crypto.Hash {
	if !b.headerKnown {
		miningHash := b.MiningHash()
		buf := make([]byte, 0, 32+4)
		buf = append(buf, miningHash[:]...)
		buf = appendUint32(buf, b.MiningNonce)
		b.headerHash = crypto.Sum256(buf)
		b.headerKnown = true
	}
	return b.headerHash
}

// Coinbase returns the block's first transaction, which §3 requires to
// be a Coinbase, along with whether one was present at all.
func (b *Block) Coinbase() (*txn.Coinbase, bool) {
	if len(b.Transactions) == 0 {
		return nil, false
	}
	cb, ok := b.Transactions[0].(*txn.Coinbase)
	return cb, ok
}

func appendUint64(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendUint32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// Metadata is the per-block bookkeeping of §3 kept alongside every known
// block, orphan or main-chain: its own difficulty, the running
// cumulative difficulty, whether it is currently an orphan, and the set
// of known children.
type Metadata struct {
	BlockDifficulty      *big.Int
	CumulativeDifficulty *big.Int
	Orphan               bool
	ChildHeaderHashes    []crypto.Hash
}

// NewMetadata returns metadata for a freshly-ingested block.
func NewMetadata(blockDifficulty, cumulativeDifficulty *big.Int, orphan bool) *Metadata {
	return &Metadata{
		BlockDifficulty:      blockDifficulty,
		CumulativeDifficulty: cumulativeDifficulty,
		Orphan:               orphan,
	}
}

// AddChild records childHash as a known child of this block, if not
// already present.
func (m *Metadata) AddChild(childHash crypto.Hash) {
	for _, h := range m.ChildHeaderHashes {
		if h == childHash {
			return
		}
	}
	m.ChildHeaderHashes = append(m.ChildHeaderHashes, childHash)
}

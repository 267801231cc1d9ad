package block

import (
	"encoding/gob"
	"bytes"
	"math/big"

	"github.com/pkg/errors"

	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/txn"
)

// gobBlock is Block's durable storage shape. Transactions are stored
// through txn.Encode/Decode (already the canonical wire form used by the
// gossip layer) rather than gob directly, since txn.Transaction is an
// interface gob cannot decode without a global type registry — reusing
// the existing codec avoids introducing a second, divergent encoding for
// the same data (internal storage format only; see addrstate/encoding.go
// for the same rationale applied to AddressState).
type gobBlock struct {
	BlockNumber    uint64
	Timestamp      int64
	PrevHeaderHash crypto.Hash
	MiningNonce    uint32
	Transactions   [][]byte
}

// EncodeBlock serializes b to its durable storage form.
func EncodeBlock(b *Block) ([]byte, error) {
	raw := gobBlock{
		BlockNumber:    b.BlockNumber,
		Timestamp:      b.Timestamp,
		PrevHeaderHash: b.PrevHeaderHash,
		MiningNonce:    b.MiningNonce,
	}
	for _, tx := range b.Transactions {
		encoded, err := txn.Encode(tx)
		if err != nil {
			return nil, errors.Wrap(err, "encoding block transaction")
		}
		raw.Transactions = append(raw.Transactions, encoded)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(raw); err != nil {
		return nil, errors.Wrap(err, "encoding block")
	}
	return buf.Bytes(), nil
}

// DecodeBlock reconstructs a Block from its durable storage form.
func DecodeBlock(data []byte) (*Block, error) {
	var raw gobBlock
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decoding block")
	}

	b := &Block{
		BlockNumber:    raw.BlockNumber,
		Timestamp:      raw.Timestamp,
		PrevHeaderHash: raw.PrevHeaderHash,
		MiningNonce:    raw.MiningNonce,
	}
	for _, encoded := range raw.Transactions {
		tx, err := txn.Decode(encoded)
		if err != nil {
			return nil, errors.Wrap(err, "decoding block transaction")
		}
		b.Transactions = append(b.Transactions, tx)
	}
	return b, nil
}

// gobMetadata is Metadata's durable storage shape; big.Int fields are
// carried as their byte representation since gob cannot encode *big.Int
// zero values unambiguously across a nil/zero boundary.
type gobMetadata struct {
	BlockDifficulty      []byte
	CumulativeDifficulty []byte
	Orphan               bool
	ChildHeaderHashes    []crypto.Hash
}

// EncodeMetadata serializes m to its durable storage form.
func EncodeMetadata(m *Metadata) ([]byte, error) {
	raw := gobMetadata{
		Orphan:            m.Orphan,
		ChildHeaderHashes: m.ChildHeaderHashes,
	}
	if m.BlockDifficulty != nil {
		raw.BlockDifficulty = m.BlockDifficulty.Bytes()
	}
	if m.CumulativeDifficulty != nil {
		raw.CumulativeDifficulty = m.CumulativeDifficulty.Bytes()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(raw); err != nil {
		return nil, errors.Wrap(err, "encoding block metadata")
	}
	return buf.Bytes(), nil
}

// DecodeMetadata reconstructs Metadata from its durable storage form.
func DecodeMetadata(data []byte) (*Metadata, error) {
	var raw gobMetadata
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decoding block metadata")
	}
	return &Metadata{
		BlockDifficulty:      new(big.Int).SetBytes(raw.BlockDifficulty),
		CumulativeDifficulty: new(big.Int).SetBytes(raw.CumulativeDifficulty),
		Orphan:               raw.Orphan,
		ChildHeaderHashes:    raw.ChildHeaderHashes,
	}, nil
}

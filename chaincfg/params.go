// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the compile-time genesis and consensus
// parameters a network is configured with, in the style of the teacher's
// dagconfig package.
package chaincfg

import (
	"math/big"
	"time"

	"github.com/theQRL/qrl-core-go/block"
	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/txn"
	"github.com/theQRL/qrl-core-go/util"
)

// Params holds every genesis parameter named in the specification's §6
// "Genesis parameters" list, plus the difficulty-retarget configuration
// left as an explicit open question by §9.
type Params struct {
	// Name is the human-readable network identifier ("mainnet", "testnet").
	Name string

	// GenesisPrevHeaderHash is sent in the VE handshake so peers can
	// detect a genesis mismatch before syncing.
	GenesisPrevHeaderHash [32]byte

	// GenesisTimestamp is the timestamp embedded in the genesis block.
	GenesisTimestamp time.Time

	// GenesisDifficulty is the fixed difficulty assigned to the genesis
	// block (§3 Block Metadata).
	GenesisDifficulty *big.Int

	// TargetBlockTime is the desired average time between blocks, used
	// by the retarget function in §4.4.
	TargetBlockTime time.Duration

	// RetargetClampPercent (K in §4.4) bounds how much the difficulty can
	// move in a single retarget, expressed as an integer percent.
	RetargetClampPercent int64

	// MinDifficulty and MaxDifficulty clamp retargeted difficulty.
	MinDifficulty *big.Int
	MaxDifficulty *big.Int

	// BlocksPerEpoch is retained for parity with §6; this spec's
	// retarget function runs every block rather than per epoch, but the
	// constant is carried for callers that batch difficulty snapshots.
	BlocksPerEpoch uint64

	// FixedBlockReward is the constant reward paid to the Coinbase
	// destination before transaction fees are added (§3, §4.5 step 5).
	FixedBlockReward uint64

	// MinimumStakeBalance is the minimum balance required to submit a
	// Stake transaction; Stake bodies are otherwise opaque to this spec
	// (§3).
	MinimumStakeBalance uint64

	// XMSSTreeHeight bounds the OTS leaf index space (§3, GLOSSARY).
	XMSSTreeHeight uint8

	// PoolSizeCap is the configurable cap on the transaction pool (§4.3).
	PoolSizeCap int

	// MaxBlockTransactionCount bounds how many transactions a block may
	// carry (§8 boundary case: "block exceeding transaction limit
	// rejects").
	MaxBlockTransactionCount int

	// StakeSelector is the address credited with a block's Coinbase
	// amount (GLOSSARY: Stake selector).
	StakeSelector util.Address

	// SeedPeers is the static peer-discovery seed list (§1 Non-goals:
	// "peer-discovery beyond a static seed list").
	SeedPeers []string

	// MaxOrphanDepth bounds how long an unreachable orphan is retained
	// before being pruned (§3 Lifecycle, §12 supplemented feature).
	MaxOrphanDepth uint64

	// StaleTimeout is T_stale from §4.8's watchdog transition.
	StaleTimeout time.Duration
}

// MainNetParams are the production network's genesis and consensus
// parameters.
var MainNetParams = Params{
	Name:                     "mainnet",
	GenesisTimestamp:         time.Unix(1503433200, 0),
	GenesisDifficulty:        big.NewInt(5000),
	TargetBlockTime:          60 * time.Second,
	RetargetClampPercent:     25,
	MinDifficulty:            big.NewInt(1),
	MaxDifficulty:            new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1)),
	BlocksPerEpoch:           100,
	FixedBlockReward:         500000000,
	MinimumStakeBalance:      100 * 1e9,
	XMSSTreeHeight:           10,
	PoolSizeCap:              25000,
	MaxBlockTransactionCount: 5000,
	SeedPeers:                []string{},
	MaxOrphanDepth:           10,
	StaleTimeout:             180 * time.Second,
}

// TestNetParams relax the genesis difficulty and stale timeout for local
// development and test harnesses.
var TestNetParams = Params{
	Name:                     "testnet",
	GenesisTimestamp:         time.Unix(1609459200, 0),
	GenesisDifficulty:        big.NewInt(10),
	TargetBlockTime:          15 * time.Second,
	RetargetClampPercent:     50,
	MinDifficulty:            big.NewInt(1),
	MaxDifficulty:            new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1)),
	BlocksPerEpoch:           100,
	FixedBlockReward:         500000000,
	MinimumStakeBalance:      0,
	XMSSTreeHeight:           8,
	PoolSizeCap:              1000,
	MaxBlockTransactionCount: 500,
	SeedPeers:                []string{"127.0.0.1:19000"},
	MaxOrphanDepth:           10,
	StaleTimeout:             30 * time.Second,
}

var registered = map[string]*Params{
	MainNetParams.Name: &MainNetParams,
	TestNetParams.Name: &TestNetParams,
}

// ByName returns the registered Params for a network name, or false if the
// name is unknown.
func ByName(name string) (*Params, bool) {
	p, ok := registered[name]
	return p, ok
}

// GenesisBlock builds the network's genesis block: height 0, the
// network's genesis timestamp, a zero previous-header-hash, and a single
// Coinbase transaction crediting StakeSelector with FixedBlockReward.
func (p *Params) GenesisBlock() *block.Block {
	coinbase := txn.NewCoinbase(p.StakeSelector, p.FixedBlockReward)
	return block.New(0, p.GenesisTimestamp.Unix(), crypto.ZeroHash, []txn.Transaction{coinbase})
}

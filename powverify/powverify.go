// Package powverify implements the proof-of-work target computation,
// nonce verification, and difficulty retargeting of §4.4, grounded on
// dagconfig's big.Int pow-limit constants and the teacher's
// CalcNextRequiredDifficulty-style retarget routine in blockdag/dag.go.
package powverify

import (
	"math/big"
	"time"

	"github.com/theQRL/qrl-core-go/crypto"
)

// maxUint256 is 2^256 - 1, the numerator of the target formula in §4.4.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Target returns floor((2^256 - 1) / difficulty), per §4.4. A zero or
// negative difficulty is nonsensical for a live chain; callers are
// expected to hold config-validated difficulties, so this returns the
// loosest possible target (maxUint256) rather than panicking on it.
func Target(difficulty *big.Int) *big.Int {
	if difficulty == nil || difficulty.Sign() <= 0 {
		return new(big.Int).Set(maxUint256)
	}
	target := new(big.Int).Div(maxUint256, difficulty)
	return target
}

// Verify reports whether hash, interpreted as a big-endian 256-bit
// integer, is less than or equal to target — the PoW validity condition
// "H_pow(mining_hash ∥ mining_nonce) ≤ target" of §4.4.
func Verify(hash crypto.Hash, target *big.Int) bool {
	asInt := new(big.Int).SetBytes(hash[:])
	return asInt.Cmp(target) <= 0
}

// VerifyNonce hashes miningHash with miningNonce through hasher and
// checks the result against target, the full deterministic, stateless
// check named in §4.4.
func VerifyNonce(hasher crypto.PowHasher, miningHash crypto.Hash, miningNonce uint32, target *big.Int) bool {
	return Verify(hasher.Hash(miningHash, miningNonce), target)
}

// RetargetConfig names the explicit configuration §9's open question
// calls for: target block time and the per-block adjustment clamp.
type RetargetConfig struct {
	TargetBlockTime      time.Duration
	ClampPercent         int64 // e.g. 25 means ±25% per block
	MinDifficulty        *big.Int
	MaxDifficulty        *big.Int
}

// Retarget computes the next block's difficulty from the parent's
// difficulty and the observed timestamp delta, per §4.4: proportional
// adjustment toward the target block time, clamped to ±ClampPercent per
// block and to [MinDifficulty, MaxDifficulty]. A non-positive delta uses
// the minimum allowed delta of 1 second, per the stated edge case.
func Retarget(parentDifficulty *big.Int, deltaSeconds int64, cfg RetargetConfig) *big.Int {
	if deltaSeconds <= 0 {
		deltaSeconds = 1
	}

	targetSeconds := int64(cfg.TargetBlockTime / time.Second)
	if targetSeconds <= 0 {
		targetSeconds = 1
	}

	// new = parent * targetSeconds / deltaSeconds, i.e. a slower-than-
	// target block raises deltaSeconds and lowers difficulty, and vice
	// versa.
	numerator := new(big.Int).Mul(parentDifficulty, big.NewInt(targetSeconds))
	proposed := new(big.Int).Div(numerator, big.NewInt(deltaSeconds))

	clampLow, clampHigh := clampBounds(parentDifficulty, cfg.ClampPercent)
	if proposed.Cmp(clampLow) < 0 {
		proposed = clampLow
	} else if proposed.Cmp(clampHigh) > 0 {
		proposed = clampHigh
	}

	if cfg.MinDifficulty != nil && proposed.Cmp(cfg.MinDifficulty) < 0 {
		proposed = new(big.Int).Set(cfg.MinDifficulty)
	}
	if cfg.MaxDifficulty != nil && proposed.Cmp(cfg.MaxDifficulty) > 0 {
		proposed = new(big.Int).Set(cfg.MaxDifficulty)
	}

	return proposed
}

// clampBounds returns parent*(1-pct/100) and parent*(1+pct/100), the
// ±K% per-block clamp named in §4.4.
func clampBounds(parent *big.Int, pct int64) (low, high *big.Int) {
	if pct <= 0 {
		return new(big.Int).Set(parent), new(big.Int).Set(parent)
	}
	delta := new(big.Int).Div(new(big.Int).Mul(parent, big.NewInt(pct)), big.NewInt(100))
	low = new(big.Int).Sub(parent, delta)
	if low.Sign() < 0 {
		low = big.NewInt(0)
	}
	high = new(big.Int).Add(parent, delta)
	return low, high
}

// AddCumulative returns parent's cumulative difficulty plus block's own
// difficulty, per the Block Metadata invariant in §3: "cumulative
// = parent.cumulative + block_difficulty, 256-bit addition modulo 2^256
// with overflow treated as error." ok is false on overflow.
func AddCumulative(parentCumulative, blockDifficulty *big.Int) (sum *big.Int, ok bool) {
	sum = new(big.Int).Add(parentCumulative, blockDifficulty)
	if sum.Cmp(maxUint256) > 0 {
		return nil, false
	}
	return sum, true
}

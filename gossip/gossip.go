// Package gossip implements the message-receipt/pull protocol of §4.7:
// payload announcement is separated from payload transfer, with at most
// one outstanding pull per hash and re-announcement to non-announcing
// peers once a payload arrives. Grounded on the teacher's netadapter
// peer-connection/router dispatch model and on
// original_source/qrl/core/p2pfactory.py's receipt/pull timeout-retry
// shape (MR -> schedule SFM -> timeout -> next announcer -> forget).
package gossip

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/logger"
	"github.com/theQRL/qrl-core-go/wireproto"
)

// PeerID identifies a connected peer session from the gossip core's
// point of view; the node layer supplies the concrete identity.
type PeerID string

// Broadcaster sends framed MR/SFM messages to a specific peer. The node
// layer implements this over an actual peer session's socket.
type Broadcaster interface {
	SendMR(to PeerID, hash crypto.Hash, msgType wireproto.Code, extra json.RawMessage) error
	SendSFM(to PeerID, hash crypto.Hash, msgType wireproto.Code) error
}

// Scheduler arms and cancels the single outstanding pull timeout for a
// hash. The node layer implements this with its event loop's timer
// facility; tests supply a synchronous fake.
type Scheduler interface {
	ArmTimeout(hash crypto.Hash, after time.Duration, fire func())
	CancelTimeout(hash crypto.Hash)
}

type pullState struct {
	msgType     wireproto.Code
	announcers  []PeerID
	triedUpTo   int
}

// Core is the per-node gossip state machine. It holds no knowledge of
// the full peer set or of transport details; both are pushed in via
// Broadcaster/Scheduler so the protocol logic itself can be tested
// without a network.
type Core struct {
	mu          sync.Mutex
	broadcaster Broadcaster
	scheduler   Scheduler
	pullTimeout time.Duration

	known   map[crypto.Hash]bool
	pending map[crypto.Hash]*pullState
	sentMR  map[crypto.Hash]map[PeerID]bool
}

// New constructs a Core that announces through broadcaster, arms pull
// timeouts of pullTimeout through scheduler.
func New(broadcaster Broadcaster, scheduler Scheduler, pullTimeout time.Duration) *Core {
	return &Core{
		broadcaster: broadcaster,
		scheduler:   scheduler,
		pullTimeout: pullTimeout,
		known:       make(map[crypto.Hash]bool),
		pending:     make(map[crypto.Hash]*pullState),
		sentMR:      make(map[crypto.Hash]map[PeerID]bool),
	}
}

// Announce broadcasts a receipt for a known payload to peers, skipping
// any peer that has already received a receipt for this hash from this
// node ("each peer receives at most one receipt for a given hash").
func (c *Core) Announce(hash crypto.Hash, msgType wireproto.Code, extra json.RawMessage, peers []PeerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.known[hash] = true
	c.announceLocked(hash, msgType, extra, peers)
}

func (c *Core) announceLocked(hash crypto.Hash, msgType wireproto.Code, extra json.RawMessage, peers []PeerID) {
	sent, ok := c.sentMR[hash]
	if !ok {
		sent = make(map[PeerID]bool)
		c.sentMR[hash] = sent
	}
	for _, p := range peers {
		if sent[p] {
			continue
		}
		if err := c.broadcaster.SendMR(p, hash, msgType, extra); err != nil {
			logger.Gossip().Warnf("sending receipt for %s to %s: %v", hash, p, err)
			continue
		}
		sent[p] = true
	}
}

// OnReceipt handles an incoming receipt from a peer. If the payload is
// already known, it is a no-op (idempotent delivery already happened).
// If a pull is already outstanding for this hash, the peer is recorded
// as an additional announcer but no second pull is issued ("at most one
// outstanding pull per hash at a time"). Otherwise a new pull is
// started against from and a timeout is armed.
func (c *Core) OnReceipt(from PeerID, hash crypto.Hash, msgType wireproto.Code) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.known[hash] {
		return nil
	}

	if st, ok := c.pending[hash]; ok {
		st.announcers = append(st.announcers, from)
		return nil
	}

	st := &pullState{msgType: msgType, announcers: []PeerID{from}, triedUpTo: 0}
	c.pending[hash] = st
	return c.startPullLocked(hash, st)
}

func (c *Core) startPullLocked(hash crypto.Hash, st *pullState) error {
	target := st.announcers[st.triedUpTo]
	st.triedUpTo++
	if err := c.broadcaster.SendSFM(target, hash, st.msgType); err != nil {
		return errors.Wrap(err, "sending pull request")
	}
	c.scheduler.ArmTimeout(hash, c.pullTimeout, func() { c.onTimeout(hash) })
	return nil
}

func (c *Core) onTimeout(hash crypto.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.pending[hash]
	if !ok {
		return
	}
	if st.triedUpTo >= len(st.announcers) {
		delete(c.pending, hash)
		return
	}
	if err := c.startPullLocked(hash, st); err != nil {
		logger.Gossip().Warnf("retrying pull for %s: %v", hash, err)
	}
}

// VerifyFunc checks that a received payload's content matches the
// expected hash and message type.
type VerifyFunc func(hash crypto.Hash, msgType wireproto.Code, payload []byte) bool

// OnPayload handles an incoming payload for hash, whether delivered as
// the response to our own pull or unsolicited. It returns the set of
// peers that had already announced this hash (so the caller can
// re-announce to everyone else) and whether this call is the first
// delivery for hash (false on a duplicate/idempotent redelivery).
func (c *Core) OnPayload(hash crypto.Hash, msgType wireproto.Code, payload []byte, verify VerifyFunc) (announcers []PeerID, first bool, err error) {
	if !verify(hash, msgType, payload) {
		return nil, false, errors.Errorf("gossip: payload for %s does not match expected hash/type", hash)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.known[hash] {
		return nil, false, nil
	}
	c.known[hash] = true

	st, ok := c.pending[hash]
	delete(c.pending, hash)
	if ok {
		c.scheduler.CancelTimeout(hash)
		return append([]PeerID(nil), st.announcers...), true, nil
	}
	return nil, true, nil
}

// Forget drops all gossip bookkeeping for hash, used when a hash turns
// out to be unreachable (every announcer exhausted) or is pruned.
func (c *Core) Forget(hash crypto.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.pending[hash]; ok {
		_ = st
		c.scheduler.CancelTimeout(hash)
		delete(c.pending, hash)
	}
	delete(c.sentMR, hash)
}

// HasPendingPull reports whether a pull is currently outstanding for
// hash, for tests and diagnostics.
func (c *Core) HasPendingPull(hash crypto.Hash) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[hash]
	return ok
}

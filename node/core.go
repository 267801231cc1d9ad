// Package node wires the Chain Manager, transaction pool, miner, and
// gossip core into the single-threaded cooperative event loop of §5:
// "a single goroutine selecting over channels for peer messages,
// timers, and worker-pool results". This replaces the source's
// module-level singletons (chain, state, pool, node status) with one
// explicit Core object owning them all, per §9's design note.
package node

import (
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/theQRL/qrl-core-go/addrstate"
	"github.com/theQRL/qrl-core-go/block"
	"github.com/theQRL/qrl-core-go/chain"
	"github.com/theQRL/qrl-core-go/chaincfg"
	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/gossip"
	"github.com/theQRL/qrl-core-go/logger"
	"github.com/theQRL/qrl-core-go/miner"
	"github.com/theQRL/qrl-core-go/peer"
	"github.com/theQRL/qrl-core-go/rpcapi"
	"github.com/theQRL/qrl-core-go/store"
	"github.com/theQRL/qrl-core-go/txn"
	"github.com/theQRL/qrl-core-go/txpool"
	"github.com/theQRL/qrl-core-go/util"
	"github.com/theQRL/qrl-core-go/wireproto"
)

const eventQueueDepth = 256

// Config bundles everything Core needs to start.
type Config struct {
	StoreDir      string
	Params        *chaincfg.Params
	Verifier      crypto.XMSSVerifier
	Hasher        crypto.PowHasher
	Genesis       *block.Block
	PoolCapacity  int
	GossipTimeout time.Duration
	StaleTimeout  time.Duration
	WorkerCount   int
	Now           func() int64
}

// Core owns the state store, pool, chain manager, and peer session
// table, and is the sole mutator of all of them — every mutation
// happens on the Run goroutine, per §5's ordering guarantees.
type Core struct {
	mu sync.Mutex

	store   *store.Store
	addrMgr *addrstate.Manager
	pool    *txpool.Pool
	chain   *chain.Manager
	miner   *miner.Miner
	gossip  *gossip.Core
	params  *chaincfg.Params

	transports map[gossip.PeerID]PeerTransport
	sessions   map[gossip.PeerID]*peer.Session

	workers    *workerPool
	events     chan Event
	miningStop chan struct{}

	now func() int64
}

// New constructs a Core from cfg, loading genesis if the store is
// empty.
func New(cfg Config) (*Core, error) {
	st, err := store.Open(cfg.StoreDir)
	if err != nil {
		return nil, errors.Wrap(err, "opening store")
	}
	addrMgr := addrstate.NewManager(st)

	events := make(chan Event, eventQueueDepth)

	core := &Core{
		store:      st,
		addrMgr:    addrMgr,
		params:     cfg.Params,
		transports: make(map[gossip.PeerID]PeerTransport),
		sessions:   make(map[gossip.PeerID]*peer.Session),
		workers:    newWorkerPool(cfg.WorkerCount),
		events:     events,
		now:        cfg.Now,
	}

	pool := txpool.New(cfg.PoolCapacity, &chainViewProxy{core: core})
	chainMgr := chain.New(st, addrMgr, cfg.Params, cfg.Verifier, cfg.Hasher, pool, core.onTipChanged)
	core.chain = chainMgr
	core.pool = pool

	if err := chainMgr.Load(cfg.Genesis); err != nil {
		return nil, errors.Wrap(err, "loading genesis")
	}

	core.miner = miner.New(chainMgr, pool, cfg.Now)

	bc := &broadcaster{transports: core.lookupTransport}
	sch := newScheduler(events)
	core.gossip = gossip.New(bc, sch, cfg.GossipTimeout)

	return core, nil
}

// chainViewProxy breaks the construction cycle between txpool.Pool
// (which needs a txpool.ChainView at construction) and chain.Manager
// (which needs a chain.PoolView at construction, and is built from the
// pool that is itself built from this proxy): the proxy is handed to
// txpool.New before core.chain is assigned, and only dereferences it
// once Admit is actually called, by which point New has finished
// wiring both sides.
type chainViewProxy struct {
	core *Core
}

func (p *chainViewProxy) TipAddressState(address util.Address) (*addrstate.State, error) {
	return p.core.chain.TipAddressState(address)
}

func (p *chainViewProxy) BlockContext() txn.BlockContext {
	return p.core.chain.BlockContext()
}

// Chain returns the Chain Manager, for collaborators (such as rpcapi)
// that need direct read access to chain state.
func (c *Core) Chain() *chain.Manager { return c.chain }

// Miner returns the Miner, for collaborators (such as rpcapi) that build
// and submit mining candidates on the Core's behalf.
func (c *Core) Miner() *miner.Miner { return c.miner }

func (c *Core) lookupTransport(id gossip.PeerID) (PeerTransport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.transports[id]
	return t, ok
}

// RegisterPeer attaches a transport and a fresh session for a newly
// connected peer.
func (c *Core) RegisterPeer(id gossip.PeerID, transport PeerTransport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transports[id] = transport
	_, height, _ := c.chain.Tip()
	c.sessions[id] = peer.NewSession(height, 0, func() time.Time { return time.Unix(c.now(), 0) })
}

// UnregisterPeer drops a disconnected peer's transport and session.
func (c *Core) UnregisterPeer(id gossip.PeerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.transports, id)
	delete(c.sessions, id)
}

// KnownPeers implements rpcapi.PeerLister.
func (c *Core) KnownPeers() []rpcapi.PeerInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	peers := make([]rpcapi.PeerInfo, 0, len(c.transports))
	for id := range c.transports {
		peers = append(peers, rpcapi.PeerInfo{Address: string(id), LastSeen: c.now()})
	}
	return peers
}

// Dispatch enqueues a received peer message as a PeerMessageEvent. The
// actual socket read loop is an external collaborator (§1); it calls
// this once per frame it decodes with wireproto.Reader.
func (c *Core) Dispatch(from gossip.PeerID, env wireproto.Envelope) {
	select {
	case c.events <- PeerMessageEvent{Peer: from, Envelope: env}:
	default:
		logger.Node().Warnf("event queue full, dropping message from %s", from)
	}
}

func (c *Core) onTipChanged(newTip crypto.Hash) {
	select {
	case c.events <- WorkerResultEvent{Result: tipChangedResult{hash: newTip}}:
	default:
		logger.Node().Warnf("event queue full, dropping tip-change notice")
	}
}

type tipChangedResult struct {
	hash crypto.Hash
}

// Run drives the single-threaded event loop until stop is closed. All
// chain/pool/gossip mutation happens here, on this goroutine.
func (c *Core) Run(stop <-chan struct{}) {
	go c.forwardWorkerResults()
	c.startMining()
	for {
		select {
		case <-stop:
			c.workers.close()
			return
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

func (c *Core) handle(ev Event) {
	switch e := ev.(type) {
	case PeerMessageEvent:
		c.handlePeerMessage(e)
	case TimerFiredEvent:
		e.Fire()
	case WorkerResultEvent:
		c.handleWorkerResult(e)
	}
}

func (c *Core) handleWorkerResult(e WorkerResultEvent) {
	switch r := e.Result.(type) {
	case tipChangedResult:
		c.startMining()
	case miningResult:
		if r.err != nil {
			logger.Miner().Warnf("mining search failed: %v", r.err)
			return
		}
		if !r.found {
			return
		}
		if _, err := c.miner.Submit(r.candidate); err != nil {
			logger.Miner().Warnf("submitting mined block: %v", err)
		}
	}
}

// startMining abandons any in-flight search (a fresh preemption flag is
// created each call) and submits a new candidate-build-and-search job
// to the worker pool, per §4.6's preemption rule.
func (c *Core) startMining() {
	stopFlag := make(chan struct{})
	c.mu.Lock()
	c.miningStop = stopFlag
	c.mu.Unlock()

	c.workers.submit(func() interface{} {
		candidate, err := c.miner.BuildCandidate()
		if err != nil {
			return miningResult{err: err}
		}
		found, err := c.miner.Search(candidate, func() bool {
			select {
			case <-stopFlag:
				return true
			default:
				return false
			}
		})
		if err != nil {
			return miningResult{err: err}
		}
		return miningResult{found: found, candidate: candidate}
	})
}

// forwardWorkerResults relays each completed job from the worker pool
// onto the event loop as a WorkerResultEvent; started once by Run.
func (c *Core) forwardWorkerResults() {
	for r := range c.workers.results {
		select {
		case c.events <- WorkerResultEvent{Result: r}:
		default:
			logger.Node().Warnf("event loop busy, dropping worker result")
		}
	}
}

func (c *Core) handlePeerMessage(e PeerMessageEvent) {
	switch e.Envelope.Type {
	case wireproto.CodeReceipt:
		c.onReceipt(e.Peer, e.Envelope.Data)
	case wireproto.CodeSendFullMessage:
		c.onSendFullMessageRequest(e.Peer, e.Envelope.Data)
	case wireproto.CodeBlock:
		c.onBlockPayload(e.Peer, e.Envelope.Data)
	case wireproto.CodeTransfer, wireproto.CodeStake:
		c.onTxPayload(e.Peer, e.Envelope.Data)
	case wireproto.CodePing:
		c.replyPong(e.Peer)
	default:
		logger.Node().Debugf("no handler for message type %s from %s", e.Envelope.Type, e.Peer)
	}
}

type receiptPayload struct {
	Hash string         `json:"hash"`
	Type wireproto.Code `json:"type"`
}

func (c *Core) onReceipt(from gossip.PeerID, data json.RawMessage) {
	var p receiptPayload
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Node().Warnf("malformed receipt from %s: %v", from, err)
		return
	}
	hash, err := hashFromHex(p.Hash)
	if err != nil {
		logger.Node().Warnf("malformed receipt hash from %s: %v", from, err)
		return
	}
	if err := c.gossip.OnReceipt(from, hash, p.Type); err != nil {
		logger.Gossip().Warnf("handling receipt from %s: %v", from, err)
	}
}

func (c *Core) onSendFullMessageRequest(from gossip.PeerID, data json.RawMessage) {
	var p receiptPayload
	if err := json.Unmarshal(data, &p); err != nil {
		logger.Node().Warnf("malformed SFM request from %s: %v", from, err)
		return
	}
	hash, err := hashFromHex(p.Hash)
	if err != nil {
		return
	}

	t, ok := c.lookupTransport(from)
	if !ok {
		return
	}

	switch p.Type {
	case wireproto.CodeBlock:
		b, err := c.chain.GetBlockByHeaderHash(hash)
		if err != nil {
			return
		}
		raw, err := block.EncodeBlock(b)
		if err != nil {
			return
		}
		frame, err := wireproto.Wrap(wireproto.CodeBlock, raw)
		if err != nil {
			return
		}
		_ = t.Send(frame)
	default:
		if !c.pool.Has(hash) {
			return
		}
	}
}

func (c *Core) onBlockPayload(from gossip.PeerID, data json.RawMessage) {
	b, err := block.DecodeBlock(data)
	if err != nil {
		logger.Node().Warnf("malformed block payload from %s: %v", from, err)
		return
	}
	hash := b.HeaderHash()
	announcers, first, err := c.gossip.OnPayload(hash, wireproto.CodeBlock, data, func(h crypto.Hash, t wireproto.Code, payload []byte) bool {
		decoded, decErr := block.DecodeBlock(payload)
		return decErr == nil && decoded.HeaderHash() == h
	})
	if err != nil {
		logger.Gossip().Warnf("rejecting block payload from %s: %v", from, err)
		return
	}
	if !first {
		return
	}

	if _, err := c.chain.AddBlock(b); err != nil {
		logger.ChainManager().Warnf("rejecting block from %s: %v", from, err)
		return
	}

	excluded := map[gossip.PeerID]bool{from: true}
	for _, a := range announcers {
		excluded[a] = true
	}
	c.reannounce(hash, wireproto.CodeBlock, nil, excluded)
}

func (c *Core) onTxPayload(from gossip.PeerID, data json.RawMessage) {
	tx, err := txn.Decode(data)
	if err != nil {
		logger.Node().Warnf("malformed tx payload from %s: %v", from, err)
		return
	}
	msgType := wireproto.CodeTransfer
	if tx.Kind() == txn.KindStake {
		msgType = wireproto.CodeStake
	}

	hash := tx.Hash()
	announcers, first, err := c.gossip.OnPayload(hash, msgType, data, func(h crypto.Hash, t wireproto.Code, payload []byte) bool {
		decoded, decErr := txn.Decode(payload)
		return decErr == nil && decoded.Hash() == h
	})
	if err != nil {
		logger.Gossip().Warnf("rejecting tx payload from %s: %v", from, err)
		return
	}
	if !first {
		return
	}

	if _, err := c.pool.Admit(tx); err != nil {
		logger.TxPool().Warnf("rejecting tx from %s: %v", from, err)
		return
	}

	excluded := map[gossip.PeerID]bool{from: true}
	for _, a := range announcers {
		excluded[a] = true
	}
	c.reannounce(hash, msgType, nil, excluded)
}

func (c *Core) reannounce(hash crypto.Hash, msgType wireproto.Code, extra json.RawMessage, excluded map[gossip.PeerID]bool) {
	c.mu.Lock()
	targets := make([]gossip.PeerID, 0, len(c.transports))
	for id := range c.transports {
		if !excluded[id] {
			targets = append(targets, id)
		}
	}
	c.mu.Unlock()
	c.gossip.Announce(hash, msgType, extra, targets)
}

func (c *Core) replyPong(to gossip.PeerID) {
	t, ok := c.lookupTransport(to)
	if !ok {
		return
	}
	frame, err := wireproto.Wrap(wireproto.CodePong, json.RawMessage(`"NG"`))
	if err != nil {
		return
	}
	_ = t.Send(frame)
}

func hashFromHex(s string) (crypto.Hash, error) {
	var h crypto.Hash
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(raw) != crypto.HashSize {
		return h, errors.Errorf("hash hex decodes to %d bytes, want %d", len(raw), crypto.HashSize)
	}
	copy(h[:], raw)
	return h, nil
}

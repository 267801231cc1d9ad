package node

import (
	"github.com/theQRL/qrl-core-go/block"
	"github.com/theQRL/qrl-core-go/gossip"
	"github.com/theQRL/qrl-core-go/wireproto"
)

// Event is the explicit event enum §9 calls for, dispatched by the
// single event loop in Core.Run: PeerMessage, TimerFired, WorkerResult.
type Event interface {
	isEvent()
}

// PeerMessageEvent carries one fully-framed message received from a
// peer, already parsed into a wireproto.Envelope.
type PeerMessageEvent struct {
	Peer     gossip.PeerID
	Envelope wireproto.Envelope
}

func (PeerMessageEvent) isEvent() {}

// TimerFiredEvent carries a previously-armed timer's callback, to be
// invoked on the event-loop goroutine so all state mutation stays
// single-threaded per §5.
type TimerFiredEvent struct {
	Fire func()
}

func (TimerFiredEvent) isEvent() {}

// WorkerResultEvent carries a completed worker-pool job's result (a PoW
// search outcome) back to the loop; onTipChanged also posts its
// tip-change notice as one.
type WorkerResultEvent struct {
	Result interface{}
}

func (WorkerResultEvent) isEvent() {}

// miningResult is the payload of a WorkerResultEvent produced by the
// miner's nonce search.
type miningResult struct {
	found     bool
	candidate *block.Block
	err       error
}

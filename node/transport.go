package node

import (
	"encoding/json"
	"time"

	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/gossip"
	"github.com/theQRL/qrl-core-go/logger"
	"github.com/theQRL/qrl-core-go/wireproto"
)

// PeerTransport sends a single framed message to a connected peer. The
// actual socket/connection management is an external collaborator per
// §1 ("wire byte-layout beyond the fields in §3/§6... are external
// collaborators") — Core is handed transports already keyed by
// gossip.PeerID rather than owning net.Conn itself.
type PeerTransport interface {
	Send(frame []byte) error
}

// broadcaster adapts Core's registered transports to gossip.Broadcaster,
// framing each outgoing receipt/pull through wireproto.Wrap.
type broadcaster struct {
	transports func(gossip.PeerID) (PeerTransport, bool)
}

func (b *broadcaster) SendMR(to gossip.PeerID, hash crypto.Hash, msgType wireproto.Code, extra json.RawMessage) error {
	t, ok := b.transports(to)
	if !ok {
		return nil
	}
	payload, err := json.Marshal(mrPayload{Hash: hash.String(), Type: msgType, Extra: extra})
	if err != nil {
		return err
	}
	frame, err := wireproto.Wrap(wireproto.CodeReceipt, payload)
	if err != nil {
		return err
	}
	return t.Send(frame)
}

func (b *broadcaster) SendSFM(to gossip.PeerID, hash crypto.Hash, msgType wireproto.Code) error {
	t, ok := b.transports(to)
	if !ok {
		return nil
	}
	payload, err := json.Marshal(sfmPayload{Hash: hash.String(), Type: msgType})
	if err != nil {
		return err
	}
	frame, err := wireproto.Wrap(wireproto.CodeSendFullMessage, payload)
	if err != nil {
		return err
	}
	return t.Send(frame)
}

type mrPayload struct {
	Hash  string          `json:"hash"`
	Type  wireproto.Code  `json:"type"`
	Extra json.RawMessage `json:"extra,omitempty"`
}

type sfmPayload struct {
	Hash string         `json:"hash"`
	Type wireproto.Code `json:"type"`
}

// scheduler adapts Core's event loop to gossip.Scheduler: it arms a
// real time.AfterFunc, but the timer only ever posts a TimerFiredEvent
// onto the loop's event channel rather than invoking the callback
// directly, so every gossip state mutation still happens on the single
// event-loop goroutine per §5.
type scheduler struct {
	events chan Event
	timers map[crypto.Hash]*time.Timer
}

func newScheduler(events chan Event) *scheduler {
	return &scheduler{events: events, timers: make(map[crypto.Hash]*time.Timer)}
}

// ArmTimeout and CancelTimeout are only ever called from the event-loop
// goroutine (by gossip.Core's methods, themselves only invoked while
// handling an Event) so the timers map needs no locking.
func (s *scheduler) ArmTimeout(hash crypto.Hash, after time.Duration, fire func()) {
	if existing, ok := s.timers[hash]; ok {
		existing.Stop()
	}
	s.timers[hash] = time.AfterFunc(after, func() {
		select {
		case s.events <- TimerFiredEvent{Fire: fire}:
		default:
			logger.Gossip().Warnf("event loop busy, dropping timer fire for %s", hash)
		}
	})
}

func (s *scheduler) CancelTimeout(hash crypto.Hash) {
	if t, ok := s.timers[hash]; ok {
		t.Stop()
		delete(s.timers, hash)
	}
}

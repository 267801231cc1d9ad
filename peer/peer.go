// Package peer implements the per-connection session state machine of
// §4.8: Unsynced/Syncing/Forked/Synced transitions and the stale
// watchdog, grounded on the teacher's peer connection lifecycle and on
// original_source/qrl/core/node.py's sync/fork state handling, folded
// into a single explicit SessionState type per peer.
package peer

import (
	"sync"
	"time"

	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/logger"
)

// SessionState is one of the four states a peer session may be in.
type SessionState int

// Session states, per §4.8.
const (
	Unsynced SessionState = iota
	Syncing
	Forked
	Synced
)

func (s SessionState) String() string {
	switch s {
	case Unsynced:
		return "unsynced"
	case Syncing:
		return "syncing"
	case Forked:
		return "forked"
	case Synced:
		return "synced"
	default:
		return "unknown"
	}
}

// TipReport is a peer's self-reported chain tip.
type TipReport struct {
	Height      uint64
	HeaderHash  crypto.Hash
	AncestorAt  crypto.Hash // this peer's block hash at the local node's height, if known
}

// Clock abstracts wall-clock reads so the watchdog can be driven by a
// fake clock in tests.
type Clock func() time.Time

// Session tracks one peer connection's sync state relative to the
// local chain tip.
type Session struct {
	mu sync.Mutex

	state SessionState
	now   Clock

	localHeight uint64
	targetHeight uint64

	staleTimeout   time.Duration
	lastProgressAt time.Time
}

// NewSession constructs a Session starting in Unsynced at localHeight,
// with staleTimeout as the §4.8 T_stale watchdog interval.
func NewSession(localHeight uint64, staleTimeout time.Duration, now Clock) *Session {
	return &Session{
		state:          Unsynced,
		now:            now,
		localHeight:    localHeight,
		staleTimeout:   staleTimeout,
		lastProgressAt: now(),
	}
}

// State returns the session's current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PeerReport is called whenever the remote peer reports its tip height
// and hash. It drives the Unsynced->Syncing and Synced->Forked
// transitions.
//
// peerAgreesWithLocalAncestor reports whether a quorum of peers agrees
// that report.AncestorAt matches the local chain's hash at the
// relevant height (computed by the caller, since that requires
// cross-peer and chain knowledge this type does not hold).
// divergesFromLocal reports whether report.AncestorAt differs from the
// local hash at local height, used only for the Synced->Forked arm.
func (s *Session) PeerReport(report TipReport, peerAgreesWithLocalAncestor, divergesFromLocal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Unsynced:
		if report.Height > s.localHeight && peerAgreesWithLocalAncestor {
			s.targetHeight = report.Height
			s.transitionLocked(Syncing)
		}
	case Synced:
		if report.Height == s.localHeight && divergesFromLocal && peerAgreesWithLocalAncestor {
			s.transitionLocked(Forked)
		}
	}
}

// LocalHeightAdvanced is called whenever the local chain tip advances,
// whether from this peer's blocks or another's. It records ingest
// progress for the watchdog and may trigger Syncing->Synced.
func (s *Session) LocalHeightAdvanced(newHeight uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.localHeight = newHeight
	s.lastProgressAt = s.now()

	if s.state == Syncing && s.localHeight >= s.targetHeight {
		s.transitionLocked(Synced)
	}
}

// NoHigherTipGrace is called when the grace interval has elapsed with no
// peer reporting a higher tip than the local height, driving
// Syncing->Synced per §4.8's second transition arm.
func (s *Session) NoHigherTipGrace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Syncing {
		s.transitionLocked(Synced)
	}
}

// BeginRecovery drives Forked->Unsynced: the caller has located a
// common ancestor and is about to re-request blocks from it.
func (s *Session) BeginRecovery() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Forked {
		s.transitionLocked(Unsynced)
	}
}

// CheckWatchdog transitions Synced->Unsynced if no ingest progress has
// been recorded for staleTimeout. The caller polls this periodically
// from the event loop's timer.
func (s *Session) CheckWatchdog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Synced {
		return
	}
	if s.now().Sub(s.lastProgressAt) >= s.staleTimeout {
		s.transitionLocked(Unsynced)
	}
}

func (s *Session) transitionLocked(next SessionState) {
	logger.Peer().Debugf("session transition %s -> %s", s.state, next)
	s.state = next
}

package peer

import (
	"testing"
	"time"

	"github.com/theQRL/qrl-core-go/crypto"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestUnsyncedToSyncingRequiresQuorumAgreement(t *testing.T) {
	base := time.Unix(1000, 0)
	s := NewSession(10, time.Minute, fixedClock(base))

	s.PeerReport(TipReport{Height: 20, HeaderHash: crypto.Hash{1}}, false, false)
	if s.State() != Unsynced {
		t.Fatalf("expected to remain Unsynced without quorum agreement, got %s", s.State())
	}

	s.PeerReport(TipReport{Height: 20, HeaderHash: crypto.Hash{1}}, true, false)
	if s.State() != Syncing {
		t.Fatalf("expected Syncing, got %s", s.State())
	}
}

func TestSyncingToSyncedOnHeightReached(t *testing.T) {
	base := time.Unix(1000, 0)
	s := NewSession(10, time.Minute, fixedClock(base))
	s.PeerReport(TipReport{Height: 20}, true, false)

	s.LocalHeightAdvanced(15)
	if s.State() != Syncing {
		t.Fatalf("expected still Syncing before reaching target, got %s", s.State())
	}
	s.LocalHeightAdvanced(20)
	if s.State() != Synced {
		t.Fatalf("expected Synced on reaching target height, got %s", s.State())
	}
}

func TestSyncingToSyncedOnGracePeriod(t *testing.T) {
	s := NewSession(10, time.Minute, fixedClock(time.Unix(1000, 0)))
	s.PeerReport(TipReport{Height: 20}, true, false)
	s.NoHigherTipGrace()
	if s.State() != Synced {
		t.Fatalf("expected Synced after grace interval with no higher tip, got %s", s.State())
	}
}

func TestSyncedToForkedOnDivergentQuorumHash(t *testing.T) {
	s := NewSession(10, time.Minute, fixedClock(time.Unix(1000, 0)))
	s.PeerReport(TipReport{Height: 20}, true, false)
	s.LocalHeightAdvanced(20)
	if s.State() != Synced {
		t.Fatalf("setup: expected Synced, got %s", s.State())
	}

	s.PeerReport(TipReport{Height: 20, AncestorAt: crypto.Hash{9}}, false, true)
	if s.State() != Synced {
		t.Fatalf("expected to remain Synced without quorum, got %s", s.State())
	}
	s.PeerReport(TipReport{Height: 20, AncestorAt: crypto.Hash{9}}, true, true)
	if s.State() != Forked {
		t.Fatalf("expected Forked, got %s", s.State())
	}
}

func TestForkedToUnsyncedOnRecovery(t *testing.T) {
	s := NewSession(10, time.Minute, fixedClock(time.Unix(1000, 0)))
	s.PeerReport(TipReport{Height: 20}, true, false)
	s.LocalHeightAdvanced(20)
	s.PeerReport(TipReport{Height: 20, AncestorAt: crypto.Hash{9}}, true, true)
	if s.State() != Forked {
		t.Fatalf("setup: expected Forked, got %s", s.State())
	}

	s.BeginRecovery()
	if s.State() != Unsynced {
		t.Fatalf("expected Unsynced after recovery, got %s", s.State())
	}
}

func TestWatchdogDemotesStaleSyncedSession(t *testing.T) {
	now := time.Unix(1000, 0)
	clockHolder := &now
	s := NewSession(10, 30*time.Second, func() time.Time { return *clockHolder })

	s.PeerReport(TipReport{Height: 20}, true, false)
	s.LocalHeightAdvanced(20)
	if s.State() != Synced {
		t.Fatalf("setup: expected Synced, got %s", s.State())
	}

	*clockHolder = now.Add(10 * time.Second)
	s.CheckWatchdog()
	if s.State() != Synced {
		t.Fatalf("expected still Synced within stale window, got %s", s.State())
	}

	*clockHolder = now.Add(31 * time.Second)
	s.CheckWatchdog()
	if s.State() != Unsynced {
		t.Fatalf("expected Unsynced after stale window elapses, got %s", s.State())
	}
}

func TestWatchdogIgnoredOutsideSyncedState(t *testing.T) {
	now := time.Unix(1000, 0)
	clockHolder := &now
	s := NewSession(10, 30*time.Second, func() time.Time { return *clockHolder })

	*clockHolder = now.Add(time.Hour)
	s.CheckWatchdog()
	if s.State() != Unsynced {
		t.Fatalf("expected watchdog to be a no-op outside Synced, got %s", s.State())
	}
}

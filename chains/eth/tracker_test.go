package eth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPollTracker_HitShrinksInterval(t *testing.T) {
	tracker := newPollTracker(10_000)

	tracker.hit()
	require.Equal(t, 9_500, tracker.sleepTimeMs())

	tracker.hit()
	require.Equal(t, 9_025, tracker.sleepTimeMs())

	// Third consecutive hit shrinks aggressively.
	tracker.hit()
	require.Equal(t, 5_415, tracker.sleepTimeMs())
}

func TestPollTracker_MissGrowsAndResetsStreak(t *testing.T) {
	tracker := newPollTracker(1_000)

	tracker.hit()
	tracker.hit()
	tracker.miss()

	grown := tracker.sleepTimeMs()
	require.True(t, grown > 950)

	// The streak restarted, so the next hit uses the slow decay.
	tracker.hit()
	require.Equal(t, grown*950/1000, tracker.sleepTimeMs())
}

func TestPollTracker_NeverBelowFloor(t *testing.T) {
	tracker := newPollTracker(600)

	for i := 0; i < 50; i++ {
		tracker.hit()
	}

	require.Equal(t, minPollIntervalMs, tracker.sleepTimeMs())
}

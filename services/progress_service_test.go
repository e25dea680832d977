package services

import (
	"testing"
	"time"

	"github.com/brandrank/audit-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProgressFixture() (*ProgressService, *shared.ManualClock) {
	clock := shared.NewManualClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewProgressService(clock), clock
}

func snapshotOf(t *testing.T, progress *ProgressService, runID string) ProgressSnapshot {
	t.Helper()
	snapshot, ok := progress.Snapshot(runID)
	require.True(t, ok)
	return snapshot
}

func waitForProgress(t *testing.T, progress *ProgressService, runID string, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return snapshotOf(t, progress, runID).Progress == want
	}, time.Second, 2*time.Millisecond)
}

func TestProgressBeginStartsRunning(t *testing.T) {
	progress, _ := newProgressFixture()

	runID := progress.Begin("Nike")
	snapshot := snapshotOf(t, progress, runID)

	assert.Equal(t, ProgressRunning, snapshot.State)
	assert.Equal(t, 0, snapshot.Progress)
	assert.Equal(t, "Initiating real-time search...", snapshot.Message)
	assert.Equal(t, "Nike", snapshot.CompanyName)
}

func TestProgressAdvancesInSteps(t *testing.T) {
	progress, clock := newProgressFixture()
	runID := progress.Begin("Nike")

	clock.Advance(2500 * time.Millisecond)
	waitForProgress(t, progress, runID, 5)

	clock.Advance(2500 * time.Millisecond)
	waitForProgress(t, progress, runID, 10)
}

func TestProgressCapsAtCeiling(t *testing.T) {
	progress, clock := newProgressFixture()
	runID := progress.Begin("Nike")

	// Enough ticks to go far past the cap.
	clock.Advance(30 * 2500 * time.Millisecond)
	waitForProgress(t, progress, runID, 95)

	clock.Advance(5 * 2500 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 95, snapshotOf(t, progress, runID).Progress)
	assert.Equal(t, ProgressRunning, snapshotOf(t, progress, runID).State)
}

func TestProgressTracksElapsedSeconds(t *testing.T) {
	progress, clock := newProgressFixture()
	runID := progress.Begin("Nike")

	clock.Advance(3 * time.Second)
	require.Eventually(t, func() bool {
		return snapshotOf(t, progress, runID).ElapsedSeconds == 3
	}, time.Second, 2*time.Millisecond)
}

func TestProgressCompleteForcesHundred(t *testing.T) {
	progress, clock := newProgressFixture()
	runID := progress.Begin("Nike")

	clock.Advance(2500 * time.Millisecond)
	waitForProgress(t, progress, runID, 5)

	progress.Complete(runID, "audit-1")

	snapshot := snapshotOf(t, progress, runID)
	assert.Equal(t, ProgressComplete, snapshot.State)
	assert.Equal(t, 100, snapshot.Progress)
	assert.Equal(t, "audit-1", snapshot.AuditID)

	// Timers are stopped; further time does not move a finished run.
	clock.Advance(10 * time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 100, snapshotOf(t, progress, runID).Progress)
}

func TestProgressFailResetsToIdle(t *testing.T) {
	progress, clock := newProgressFixture()
	runID := progress.Begin("Nike")

	clock.Advance(5 * time.Second)
	progress.Fail(runID, shared.UserFacingBusyMessage)

	snapshot := snapshotOf(t, progress, runID)
	assert.Equal(t, ProgressIdle, snapshot.State)
	assert.Equal(t, 0, snapshot.Progress)
	assert.Equal(t, shared.UserFacingBusyMessage, snapshot.ErrorMessage)
}

func TestProgressCompleteAfterAbortIsNoOp(t *testing.T) {
	progress, _ := newProgressFixture()
	runID := progress.Begin("Nike")

	progress.Abort(runID)

	// A stale resolution arriving after teardown must not resurrect the run.
	progress.Complete(runID, "audit-1")
	_, ok := progress.Snapshot(runID)
	assert.False(t, ok)
}

func TestProgressFailAfterCompleteIsNoOp(t *testing.T) {
	progress, _ := newProgressFixture()
	runID := progress.Begin("Nike")

	progress.Complete(runID, "audit-1")
	progress.Fail(runID, "too late")

	snapshot := snapshotOf(t, progress, runID)
	assert.Equal(t, ProgressComplete, snapshot.State)
	assert.Equal(t, 100, snapshot.Progress)
	assert.Empty(t, snapshot.ErrorMessage)
}

func TestMessageForProgressBands(t *testing.T) {
	tests := []struct {
		progress int
		want     string
	}{
		{0, "Initiating real-time search..."},
		{15, "Initiating real-time search..."},
		{20, "Analyzing unbranded prompts..."},
		{35, "Evaluating competitor landscape..."},
		{50, "Compiling content readiness scores..."},
		{70, "Finalizing brand analysis..."},
		{85, "Almost there, generating report..."},
		{95, "Almost there, generating report..."},
		{100, "Almost there, generating report..."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, messageForProgress(tt.progress), "progress %d", tt.progress)
	}
}

func TestProgressUnknownRun(t *testing.T) {
	progress, _ := newProgressFixture()
	_, ok := progress.Snapshot("missing")
	assert.False(t, ok)
}

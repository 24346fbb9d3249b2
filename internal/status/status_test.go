package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTracker verifies phase transitions and counter accumulation.
func TestTracker(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	assert.Equal(t, PhaseStarting, tracker.Progress().Phase)
	assert.False(t, tracker.Progress().StartTime.IsZero())

	tracker.SetPhase(PhaseDiscovery)
	tracker.SetHosts(2)
	tracker.SetPhase(PhaseEnumeration)
	tracker.AddExports(3)
	tracker.AddExports(1)
	tracker.SetPhase(PhaseMounting)
	tracker.RecordMount(true)
	tracker.RecordMount(false)
	tracker.RecordMount(true)

	progress := tracker.Progress()
	assert.Equal(t, PhaseMounting, progress.Phase)
	assert.Equal(t, 2, progress.Hosts)
	assert.Equal(t, 4, progress.Exports)
	assert.Equal(t, 2, progress.MountsOK)
	assert.Equal(t, 1, progress.MountsFailed)
	assert.Equal(t, 3, progress.Processed())
}

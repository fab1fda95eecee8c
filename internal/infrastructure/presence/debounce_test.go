package presence

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRelayDebouncer_LeaveFiresAfterWindow(t *testing.T) {
	d := NewRelayDebouncer(20 * time.Millisecond)

	var fired atomic.Int32
	d.Leave("rly_a", "secret-1", "s1", func() { fired.Add(1) })

	assert.Equal(t, int32(0), fired.Load())

	assert.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRelayDebouncer_SameFingerprintRejoinCancelsLeave(t *testing.T) {
	d := NewRelayDebouncer(50 * time.Millisecond)

	var fired atomic.Int32
	d.Leave("rly_a", "secret-1", "s1", func() { fired.Add(1) })

	heldID, announce := d.Join("rly_a", "secret-1")
	assert.False(t, announce, "silent rejoin must not be announced")
	assert.Equal(t, "s1", heldID, "silent rejoin takes over the held session entry")

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load(), "cancelled leave must never fire")
}

func TestRelayDebouncer_ChangedFingerprintFiresImmediately(t *testing.T) {
	d := NewRelayDebouncer(time.Hour)

	var fired atomic.Int32
	d.Leave("rly_a", "secret-1", "s1", func() { fired.Add(1) })

	heldID, announce := d.Join("rly_a", "secret-2")
	assert.True(t, announce, "rejoin with new credentials must be announced")
	assert.Empty(t, heldID)
	assert.Equal(t, int32(1), fired.Load(), "held leave must fire before the new join")
}

func TestRelayDebouncer_JoinWithoutPendingLeave(t *testing.T) {
	d := NewRelayDebouncer(time.Hour)

	heldID, announce := d.Join("rly_a", "secret-1")
	assert.True(t, announce)
	assert.Empty(t, heldID)
}

func TestRelayDebouncer_SecondLeaveFlushesFirst(t *testing.T) {
	d := NewRelayDebouncer(time.Hour)

	var first, second atomic.Int32
	d.Leave("rly_a", "secret-1", "s1", func() { first.Add(1) })
	d.Leave("rly_a", "secret-1", "s2", func() { second.Add(1) })

	assert.Equal(t, int32(1), first.Load())
	assert.Equal(t, int32(0), second.Load())
}

func TestRelayDebouncer_Flush(t *testing.T) {
	d := NewRelayDebouncer(time.Hour)

	var fired atomic.Int32
	d.Leave("rly_a", "secret-1", "s1", func() { fired.Add(1) })
	d.Leave("rly_b", "secret-2", "s2", func() { fired.Add(1) })

	d.Flush()
	assert.Equal(t, int32(2), fired.Load())

	// A join after the flush is a fresh join.
	_, announce := d.Join("rly_a", "secret-1")
	assert.True(t, announce)
}

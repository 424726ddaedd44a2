package circuit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// step is one reported result and what the breaker should answer.
type step struct {
	fail      bool
	primary   bool // RecordSuccess usePrimary, or !useFallback for failures
	opened    bool
	closed    bool
	wantState State
}

func TestBreakerSequences(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		steps []step
	}{
		{
			name: "opens on the failure that reaches the threshold",
			opts: []Option{WithFailureThreshold(2)},
			steps: []step{
				{fail: true, primary: true, wantState: StateClosed},
				{fail: true, primary: false, opened: true, wantState: StateOpen},
				{fail: true, primary: false, wantState: StateOpen},
			},
		},
		{
			name: "a success between failures restarts the count",
			opts: []Option{WithFailureThreshold(2)},
			steps: []step{
				{fail: true, primary: true, wantState: StateClosed},
				{primary: true, wantState: StateClosed},
				{fail: true, primary: true, wantState: StateClosed},
				{fail: true, primary: false, opened: true, wantState: StateOpen},
			},
		},
		{
			name: "closes after consecutive successes while open",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{fail: true, primary: false, opened: true, wantState: StateOpen},
				{primary: false, wantState: StateOpen},
				{primary: true, closed: true, wantState: StateClosed},
			},
		},
		{
			name: "a failure while recovering restarts the success count",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{fail: true, primary: false, opened: true, wantState: StateOpen},
				{primary: false, wantState: StateOpen},
				{fail: true, primary: false, wantState: StateOpen},
				{primary: false, wantState: StateOpen},
				{primary: true, closed: true, wantState: StateClosed},
			},
		},
		{
			name: "non-positive thresholds keep the defaults",
			opts: []Option{WithFailureThreshold(0), WithSuccessThreshold(-1)},
			steps: []step{
				{fail: true, primary: true, wantState: StateClosed},
				{fail: true, primary: true, wantState: StateClosed},
				{fail: true, primary: true, wantState: StateClosed},
				{fail: true, primary: true, wantState: StateClosed},
				{fail: true, primary: false, opened: true, wantState: StateOpen},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("audit-store", tt.opts...)
			for i, s := range tt.steps {
				var primary bool
				var change StateChange
				if s.fail {
					var fallback bool
					fallback, change = b.RecordFailure()
					primary = !fallback
				} else {
					primary, change = b.RecordSuccess()
				}
				assert.Equal(t, s.primary, primary, "step %d primary", i)
				assert.Equal(t, s.opened, change.Opened, "step %d opened", i)
				assert.Equal(t, s.closed, change.Closed, "step %d closed", i)
				assert.Equal(t, s.wantState, b.State(), "step %d state", i)
			}
		})
	}
}

func TestBreakerResetClosesCircuit(t *testing.T) {
	b := New("audit-store", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())
	assert.Equal(t, "open", b.State().String())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, "closed", b.State().String())
	assert.Equal(t, "audit-store", b.Name())

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.Equal(t, StateChange{}, change)
}

func TestBreakerReportsOpenOnce(t *testing.T) {
	b := New("audit-store", WithFailureThreshold(10))

	var mu sync.Mutex
	opened := 0
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, change := b.RecordFailure(); change.Opened {
				mu.Lock()
				opened++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, opened)
	assert.True(t, b.IsOpen())
}

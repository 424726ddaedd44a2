package testutil

import "testing"

// Given, When, Then and And name scenario steps as subtests so a failing
// step reads as a sentence in test output.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "Given", desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "When", desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "Then", desc, fn)
}

// And continues the previous step kind.
func And(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "And", desc, fn)
}

// step stops the scenario after a failed step; later steps depend on its state.
func step(t *testing.T, kind, desc string, fn func(t *testing.T)) {
	t.Helper()
	if !t.Run(kind+" "+desc, fn) {
		t.FailNow()
	}
}

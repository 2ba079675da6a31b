package main

import (
	"testing"
	"time"
)

func TestResetDebounceDrainsStaleTick(t *testing.T) {
	timer := time.NewTimer(time.Millisecond)
	time.Sleep(20 * time.Millisecond) // fired, tick sitting unconsumed

	resetDebounce(timer, 100*time.Millisecond)
	select {
	case <-timer.C:
		t.Fatal("stale tick survived the reset and would fire an early compile")
	case <-time.After(30 * time.Millisecond):
	}

	// The fresh window still fires.
	select {
	case <-timer.C:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("reset timer never fired")
	}
}

func TestResetDebounceOnIdleTimer(t *testing.T) {
	timer := time.NewTimer(time.Hour)
	resetDebounce(timer, 10*time.Millisecond)
	select {
	case <-timer.C:
	case <-time.After(time.Second):
		t.Fatal("reset timer never fired")
	}
}

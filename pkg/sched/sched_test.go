package sched

import (
	"testing"
	"time"
)

func TestManualFire(t *testing.T) {
	m := NewManual()
	fired := 0
	m.After("k", 100*time.Millisecond, func() { fired++ })

	if !m.Pending("k") {
		t.Fatal("expected pending work for k")
	}
	if d, ok := m.Delay("k"); !ok || d != 100*time.Millisecond {
		t.Errorf("Delay(k) = (%v, %v), want (100ms, true)", d, ok)
	}
	if !m.Fire("k") {
		t.Fatal("Fire(k) reported no work")
	}
	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
	if m.Fire("k") {
		t.Error("Fire(k) ran twice")
	}
}

func TestManualCoalesces(t *testing.T) {
	m := NewManual()
	var got string
	m.After("k", time.Millisecond, func() { got = "first" })
	m.After("k", time.Millisecond, func() { got = "second" })

	m.Fire("k")
	if got != "second" {
		t.Errorf("got %q, want the replacement callback", got)
	}
}

func TestManualCancel(t *testing.T) {
	m := NewManual()
	m.After("a", time.Millisecond, func() { t.Error("cancelled callback ran") })
	m.Cancel("a")
	if m.Fire("a") {
		t.Error("Fire ran after Cancel")
	}

	m.After("b", time.Millisecond, func() { t.Error("callback ran after CancelAll") })
	m.After("c", time.Millisecond, func() { t.Error("callback ran after CancelAll") })
	m.CancelAll()
	if n := m.FireAll(); n != 0 {
		t.Errorf("FireAll() = %d after CancelAll, want 0", n)
	}
}

func TestManualFireAllSkipsRescheduled(t *testing.T) {
	m := NewManual()
	m.After("k", time.Millisecond, func() {
		// work scheduled while firing stays pending for the next step
		m.After("k", time.Millisecond, func() {})
	})
	if n := m.FireAll(); n != 1 {
		t.Errorf("FireAll() = %d, want 1", n)
	}
	if !m.Pending("k") {
		t.Error("rescheduled work should still be pending")
	}
}

func TestTimersFires(t *testing.T) {
	tm := NewTimers()
	defer tm.Stop()
	done := make(chan struct{})
	tm.After("k", 5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer callback never fired")
	}
	if tm.Pending("k") {
		t.Error("key still pending after firing")
	}
}

func TestTimersCoalesces(t *testing.T) {
	tm := NewTimers()
	defer tm.Stop()
	done := make(chan string, 2)
	tm.After("k", 10*time.Millisecond, func() { done <- "first" })
	tm.After("k", 10*time.Millisecond, func() { done <- "second" })

	select {
	case got := <-done:
		if got != "second" {
			t.Errorf("got %q, want the replacement callback", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer callback never fired")
	}
	select {
	case got := <-done:
		t.Errorf("replaced callback %q still fired", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTimersStopRefusesWork(t *testing.T) {
	tm := NewTimers()
	tm.Stop()
	tm.After("k", time.Millisecond, func() { t.Error("callback ran after Stop") })
	if tm.Pending("k") {
		t.Error("work accepted after Stop")
	}
	time.Sleep(20 * time.Millisecond)
}

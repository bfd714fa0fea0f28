package starknet

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestEndpointTracker_OrderByLatency(t *testing.T) {
	et := NewEndpointTracker([]string{"a", "b"}, clock.NewMock())

	et.RecordSuccess("a", 300*time.Millisecond)
	et.RecordSuccess("b", 50*time.Millisecond)

	got := et.Ordered()
	if len(got) != 2 || got[0] != "b" {
		t.Errorf("expected b first, got %v", got)
	}
}

func TestEndpointTracker_UnhealthyAfterThreeErrors(t *testing.T) {
	et := NewEndpointTracker([]string{"a", "b"}, clock.NewMock())

	et.RecordError("a")
	et.RecordError("a")
	if !et.Healthy("a") {
		t.Fatal("two errors should not mark unhealthy")
	}
	et.RecordError("a")

	got := et.Ordered()
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("expected only b, got %v", got)
	}
}

func TestEndpointTracker_Recovery(t *testing.T) {
	clk := clock.NewMock()
	et := NewEndpointTracker([]string{"a", "b"}, clk)
	for i := 0; i < 3; i++ {
		et.RecordError("a")
	}

	clk.Add(31 * time.Second)
	got := et.Ordered()
	if len(got) != 2 || got[1] != "a" {
		t.Errorf("expected a as recovery probe at the end, got %v", got)
	}

	et.RecordSuccess("a", 10*time.Millisecond)
	if !et.Healthy("a") {
		t.Error("success should restore health")
	}
}

func TestEndpointTracker_AllUnhealthyFallsBack(t *testing.T) {
	et := NewEndpointTracker([]string{"a"}, clock.NewMock())
	for i := 0; i < 3; i++ {
		et.RecordError("a")
	}
	if got := et.Ordered(); len(got) != 1 || got[0] != "a" {
		t.Errorf("expected fallback to configured endpoints, got %v", got)
	}
}

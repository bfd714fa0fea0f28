package util

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSafeGoWithName(t *testing.T) {
	var wg sync.WaitGroup
	ran := false

	wg.Add(1)
	SafeGoWithName("probe", func() {
		defer wg.Done()
		ran = true
	})
	wg.Wait()

	if !ran {
		t.Error("SafeGoWithName did not run the function")
	}
}

func TestSafeGoWithName_Panic(t *testing.T) {
	done := make(chan struct{})
	SafeGoWithName("panicker", func() {
		defer close(done)
		panic("test panic")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not finish")
	}
}

func TestRecover(t *testing.T) {
	err := Recover(func() error { panic("kaboom") })
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("expected panic to become error, got %v", err)
	}

	want := errors.New("plain")
	if got := Recover(func() error { return want }); got != want {
		t.Errorf("expected passthrough error, got %v", got)
	}
}

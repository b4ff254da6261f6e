package kernel

import (
	"errors"
	"testing"
	"time"
)

func TestRetrySupervisorGivesUpAfterMaxRetries(t *testing.T) {
	r := &RetrySupervisor{MaxRetries: 3, ResetWindow: time.Hour}
	attempts := 0
	err := r.Run(nil, func() error {
		attempts++
		return errors.New("boom")
	}, nil)
	if err == nil {
		t.Fatalf("expected an error after exhausting retries")
	}
	if attempts != 4 {
		t.Fatalf("expected 1 initial attempt + 3 retries = 4 calls, got %d", attempts)
	}
}

func TestRetrySupervisorSucceedsEventually(t *testing.T) {
	r := &RetrySupervisor{MaxRetries: 3, ResetWindow: time.Hour}
	attempts := 0
	err := r.Run(nil, func() error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetrySupervisorResetsCounterAfterWindow(t *testing.T) {
	r := &RetrySupervisor{MaxRetries: 1, ResetWindow: 20 * time.Millisecond}
	attempts := 0
	// First crash burst: 1 retry allowed, so 2 attempts then give up.
	err := r.Run(nil, func() error {
		attempts++
		return errors.New("boom")
	}, nil)
	if err == nil {
		t.Fatalf("expected failure")
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts in first burst, got %d", attempts)
	}

	time.Sleep(40 * time.Millisecond)

	attempts = 0
	err = r.Run(nil, func() error {
		attempts++
		return errors.New("boom again")
	}, nil)
	if err == nil {
		t.Fatalf("expected failure")
	}
	if attempts != 2 {
		t.Fatalf("expected counter to reset after the window, got %d attempts", attempts)
	}
}

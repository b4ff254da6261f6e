package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestBatchedFiresImmediatelyAfterIdle(t *testing.T) {
	var calls []int
	var mu sync.Mutex
	l := Batched(50*time.Millisecond, func(arg int) {
		mu.Lock()
		calls = append(calls, arg)
		mu.Unlock()
	})

	l.Call(1)

	mu.Lock()
	got := append([]int(nil), calls...)
	mu.Unlock()

	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected immediate fire with 1, got %v", got)
	}
}

func TestBatchedMergesBurstIntoTwoFires(t *testing.T) {
	var calls []int
	var mu sync.Mutex
	l := Batched(40*time.Millisecond, func(arg int) {
		mu.Lock()
		calls = append(calls, arg)
		mu.Unlock()
	})

	l.Call(1)
	l.Call(2)
	l.Call(3)

	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	got := append([]int(nil), calls...)
	mu.Unlock()

	if len(got) != 2 {
		t.Fatalf("expected exactly 2 fires for one burst, got %v", got)
	}
	if got[0] != 1 {
		t.Fatalf("first fire should be the immediate call, got %d", got[0])
	}
	if got[1] != 3 {
		t.Fatalf("second fire should carry the most recent argument, got %d", got[1])
	}
}

func TestUAVBatchedMergesByUnion(t *testing.T) {
	var calls [][]string
	var mu sync.Mutex
	l := UAVBatched(40*time.Millisecond, func(ids []string) {
		mu.Lock()
		calls = append(calls, ids)
		mu.Unlock()
	})

	l.Call([]string{"a"})
	l.Call([]string{"b"})
	l.Call([]string{"a", "c"})

	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 {
		t.Fatalf("expected exactly 2 fires, got %v", calls)
	}
	merged := calls[1]
	want := map[string]bool{"b": true, "a": true, "c": true}
	if len(merged) != len(want) {
		t.Fatalf("expected merged ids %v, got %v", want, merged)
	}
	for _, id := range merged {
		if !want[id] {
			t.Fatalf("unexpected id %q in merged result %v", id, merged)
		}
	}
}

func TestCallAfterIdleFiresImmediatelyAgain(t *testing.T) {
	var calls []int
	var mu sync.Mutex
	l := Batched(30*time.Millisecond, func(arg int) {
		mu.Lock()
		calls = append(calls, arg)
		mu.Unlock()
	})

	l.Call(1)
	time.Sleep(60 * time.Millisecond)
	l.Call(2)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Fatalf("expected two immediate fires across idle gap, got %v", calls)
	}
}

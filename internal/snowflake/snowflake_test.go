package snowflake

import (
	"sync"
	"testing"
)

func TestNextIDUnique(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 500

	var mu sync.Mutex
	seen := make(map[int64]bool, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				ids = append(ids, NextID())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if seen[id] {
					t.Errorf("duplicate id %d", id)
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()
}

func TestGeneratorMonotonic(t *testing.T) {
	g, err := NewGenerator(7)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	prev := g.Next()
	for i := 0; i < 1000; i++ {
		id := g.Next()
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestNewGeneratorRejectsBadNode(t *testing.T) {
	if _, err := NewGenerator(5000); err == nil {
		t.Error("expected error for node number out of range")
	}
}

package chat

import (
	"sync"
	"testing"
	"time"
)

func TestIDGenerator_SameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	gen := NewIDGenerator(func() time.Time { return fixed })

	first := gen.Next()
	second := gen.Next()
	third := gen.Next()

	if first != fixed.UnixMilli() {
		t.Errorf("first id = %d, want %d", first, fixed.UnixMilli())
	}
	if second != first+1 || third != second+1 {
		t.Errorf("ids = %d, %d, %d; want consecutive", first, second, third)
	}
}

func TestIDGenerator_ClockGoesBackwards(t *testing.T) {
	times := []time.Time{time.UnixMilli(2000), time.UnixMilli(1000)}
	i := 0
	gen := NewIDGenerator(func() time.Time {
		now := times[i]
		if i < len(times)-1 {
			i++
		}
		return now
	})

	a := gen.Next()
	b := gen.Next()
	if b <= a {
		t.Errorf("Next() = %d after %d, want increasing", b, a)
	}
}

func TestIDGenerator_ConcurrentUnique(t *testing.T) {
	gen := NewIDGenerator(nil)

	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[int64]bool, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, gen.Next())
			}
			mu.Lock()
			for _, id := range local {
				seen[id] = true
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("unique ids = %d, want %d", len(seen), workers*perWorker)
	}
}

func TestIDGenerator_NextAtUsesGivenTime(t *testing.T) {
	gen := NewIDGenerator(func() time.Time {
		t.Fatal("NextAt must not read the clock")
		return time.Time{}
	})

	at := time.UnixMilli(1700000000123)
	if got := gen.NextAt(at); got != at.UnixMilli() {
		t.Errorf("NextAt() = %d, want %d", got, at.UnixMilli())
	}
	if got := gen.NextAt(at); got != at.UnixMilli()+1 {
		t.Errorf("second NextAt() = %d, want %d", got, at.UnixMilli()+1)
	}
}

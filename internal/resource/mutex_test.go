package resource

import (
	"sync"
	"testing"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	var km keyedMutex
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.lock("a")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("counter = %d; want 100", counter)
	}
	if len(km.locks) != 0 {
		t.Errorf("lock table not drained: %d entries", len(km.locks))
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	var km keyedMutex

	unlockA := km.lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := km.lock("b")
		unlockB()
		close(done)
	}()

	// Holding "a" must not block "b"
	<-done
	unlockA()
}

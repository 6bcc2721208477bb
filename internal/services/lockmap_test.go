package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutex(t *testing.T) {
	locks := newKeyedMutex()

	var wg sync.WaitGroup
	counter := map[uint]int{}
	var counterMu sync.Mutex
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(key uint) {
			defer wg.Done()
			unlock := locks.Lock(key)
			defer unlock()

			counterMu.Lock()
			counter[key]++
			counterMu.Unlock()
		}(uint(i % 5))
	}
	wg.Wait()

	for key := uint(0); key < 5; key++ {
		require.Equal(t, 10, counter[key])
	}
	require.Zero(t, locks.size())
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	locks := newKeyedMutex()

	unlockA := locks.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock(2)
		unlock()
		close(done)
	}()
	<-done
}

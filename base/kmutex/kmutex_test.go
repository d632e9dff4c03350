package kmutex

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializesSameKey(t *testing.T) {
	req := require.New(t)

	k := New()
	counter := 0
	wg := sync.WaitGroup{}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k.Lock("offering-1")
			defer k.Unlock("offering-1")
			counter++
		}()
	}
	wg.Wait()

	req.Equal(100, counter)
}

func TestReleasesEntries(t *testing.T) {
	req := require.New(t)

	k := New()
	k.Lock("a")
	k.Lock("b")
	k.Unlock("a")
	k.Unlock("b")

	req.Empty(k.entries)
}

func TestIndependentKeysDoNotBlock(t *testing.T) {
	k := New()
	k.Lock("a")
	defer k.Unlock("a")

	done := make(chan struct{})
	go func() {
		k.Lock("b")
		k.Unlock("b")
		close(done)
	}()
	<-done
}

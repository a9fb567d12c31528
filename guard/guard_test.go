package guard

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softbadge/pkg"
)

func TestGuard_TakeOnce(t *testing.T) {
	var g Guard
	assert.False(t, g.Taken())
	require.NoError(t, g.Take())
	assert.True(t, g.Taken())
	require.ErrorIs(t, g.Take(), pkg.ErrAlreadyTaken)
	require.ErrorIs(t, g.Take(), pkg.ErrAlreadyTaken)
}

func TestGuard_Release(t *testing.T) {
	var g Guard
	require.NoError(t, g.Take())
	g.Release()
	assert.False(t, g.Taken())
	require.NoError(t, g.Take())
	require.ErrorIs(t, g.Take(), pkg.ErrAlreadyTaken)
}

func TestGuard_Concurrent(t *testing.T) {
	var g Guard
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0

	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Take() == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

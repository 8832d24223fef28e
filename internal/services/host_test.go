package services

import (
	"context"
	"sync"
	"testing"

	"trysite/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateShellContext_Idempotent(t *testing.T) {
	host := NewShellRegistry(newFakeClock(), zerolog.Nop())
	ctx := context.Background()

	first, err := host.GetOrCreateShellContext(ctx, newSettings("alpha"))
	require.NoError(t, err)
	second, err := host.GetOrCreateShellContext(ctx, newSettings("ALPHA"))
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestGetOrCreateShellContext_Concurrent(t *testing.T) {
	host := NewShellRegistry(newFakeClock(), zerolog.Nop())
	ctx := context.Background()

	const n = 16
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sc, err := host.GetOrCreateShellContext(ctx, newSettings("alpha"))
			if err == nil {
				ids[i] = sc.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestReloadShellContext(t *testing.T) {
	host := NewShellRegistry(newFakeClock(), zerolog.Nop())
	ctx := context.Background()

	settings := newSettings("alpha")
	before, err := host.GetOrCreateShellContext(ctx, settings)
	require.NoError(t, err)

	settings.State = models.StateRunning
	after, err := host.ReloadShellContext(ctx, settings)
	require.NoError(t, err)
	assert.NotEqual(t, before.ID, after.ID)

	current, ok := host.TryGetShellContext("alpha")
	require.True(t, ok)
	assert.Same(t, after, current)
	assert.Equal(t, models.StateRunning, current.Settings.State)
}

func TestRestore(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateSettings(ctx, newSettings("one")))
	require.NoError(t, repo.CreateSettings(ctx, newSettings("two")))

	host := NewShellRegistry(newFakeClock(), zerolog.Nop())
	require.NoError(t, host.Restore(ctx, repo))

	_, ok := host.TryGetShellContext("one")
	assert.True(t, ok)
	_, ok = host.TryGetShellContext("two")
	assert.True(t, ok)
	_, ok = host.TryGetShellContext("three")
	assert.False(t, ok)
}

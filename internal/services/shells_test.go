package services

import (
	"context"
	"testing"

	"trysite/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettings(name string) *models.ShellSettings {
	s := &models.ShellSettings{Name: name, RequestURLPrefix: name, State: models.StateUninitialized}
	s.Set(models.PropertyRecipeName, "Blog")
	return s
}

func TestCreateSettings_Success(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateSettings(ctx, newSettings("alpha")))

	found, ok, err := repo.TryGetSettings(ctx, "alpha")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alpha", found.Name)
	assert.Equal(t, models.StateUninitialized, found.State)
	assert.Equal(t, "Blog", found.Get(models.PropertyRecipeName))
	assert.Nil(t, found.RequestURLHost)
}

func TestCreateSettings_DuplicateNameReturnsError(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateSettings(ctx, newSettings("alpha")))

	err := repo.CreateSettings(ctx, newSettings("alpha"))
	assert.ErrorIs(t, err, ErrShellExists)

	err = repo.CreateSettings(ctx, newSettings("ALPHA"))
	assert.ErrorIs(t, err, ErrShellExists)
}

func TestTryGetSettings_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	found, ok, err := repo.TryGetSettings(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, found)
}

func TestTryGetSettings_CaseInsensitive(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateSettings(ctx, newSettings("MySite")))

	found, ok, err := repo.TryGetSettings(ctx, "mysite")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "MySite", found.Name)
}

func TestSaveSettings_UpdatesState(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	s := newSettings("alpha")
	require.NoError(t, repo.CreateSettings(ctx, s))

	s.State = models.StateRunning
	s.Set(models.PropertyDescription, "updated")
	require.NoError(t, repo.SaveSettings(ctx, s))

	found, ok, err := repo.TryGetSettings(ctx, "alpha")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.StateRunning, found.State)
	assert.Equal(t, "updated", found.Get(models.PropertyDescription))
}

func TestListSettings(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateSettings(ctx, newSettings("one")))
	require.NoError(t, repo.CreateSettings(ctx, newSettings("two")))

	all, err := repo.ListSettings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "one", all[0].Name)
	assert.Equal(t, "two", all[1].Name)
}

func TestTransitionState_OnlyFirstCallerWins(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateSettings(ctx, newSettings("alpha")))

	first, _, err := repo.TryGetSettings(ctx, "alpha")
	require.NoError(t, err)
	second, _, err := repo.TryGetSettings(ctx, "alpha")
	require.NoError(t, err)

	ok, err := repo.TransitionState(ctx, first, models.StateUninitialized, models.StateInitializing)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.StateInitializing, first.State)

	ok, err = repo.TransitionState(ctx, second, models.StateUninitialized, models.StateInitializing)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, models.StateUninitialized, second.State)

	stored, _, err := repo.TryGetSettings(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, models.StateInitializing, stored.State)
	assert.Equal(t, "alpha", stored.NameKey)
	assert.Equal(t, "Blog", stored.Get(models.PropertyRecipeName))
}

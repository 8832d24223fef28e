package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"trysite/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ShellContext is the runtime side of a tenant.
type ShellContext struct {
	ID        string
	Settings  *models.ShellSettings
	CreatedAt time.Time
}

// ShellRegistry keeps one ShellContext per tenant name.
type ShellRegistry struct {
	mu     sync.Mutex
	shells map[string]*ShellContext
	clock  Clock
	log    zerolog.Logger
}

func NewShellRegistry(clock Clock, log zerolog.Logger) *ShellRegistry {
	return &ShellRegistry{
		shells: make(map[string]*ShellContext),
		clock:  clock,
		log:    log.With().Str("component", "shell-host").Logger(),
	}
}

// GetOrCreateShellContext returns the context for settings.Name, creating it
// on first use. Repeated calls return the same context.
func (h *ShellRegistry) GetOrCreateShellContext(_ context.Context, settings *models.ShellSettings) (*ShellContext, error) {
	key := strings.ToLower(settings.Name)

	h.mu.Lock()
	defer h.mu.Unlock()

	if sc, ok := h.shells[key]; ok {
		return sc, nil
	}

	sc := &ShellContext{
		ID:        uuid.NewString(),
		Settings:  settings,
		CreatedAt: h.clock.Now(),
	}
	h.shells[key] = sc
	h.log.Debug().Str("shell", settings.Name).Str("context_id", sc.ID).Msg("Shell context created")
	return sc, nil
}

// ReloadShellContext replaces the context of a tenant whose settings changed.
func (h *ShellRegistry) ReloadShellContext(_ context.Context, settings *models.ShellSettings) (*ShellContext, error) {
	key := strings.ToLower(settings.Name)

	sc := &ShellContext{
		ID:        uuid.NewString(),
		Settings:  settings,
		CreatedAt: h.clock.Now(),
	}

	h.mu.Lock()
	h.shells[key] = sc
	h.mu.Unlock()

	h.log.Info().Str("shell", settings.Name).Str("state", string(settings.State)).Msg("Shell context reloaded")
	return sc, nil
}

func (h *ShellRegistry) TryGetShellContext(name string) (*ShellContext, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sc, ok := h.shells[strings.ToLower(name)]
	return sc, ok
}

type shellLister interface {
	ListSettings(ctx context.Context) ([]models.ShellSettings, error)
}

// Restore creates contexts for every stored shell, typically at startup.
func (h *ShellRegistry) Restore(ctx context.Context, store shellLister) error {
	all, err := store.ListSettings(ctx)
	if err != nil {
		return err
	}
	for i := range all {
		if _, err := h.GetOrCreateShellContext(ctx, &all[i]); err != nil {
			return err
		}
	}
	h.log.Info().Int("count", len(all)).Msg("Restored shell contexts")
	return nil
}

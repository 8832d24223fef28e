package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"trysite/internal/database"
	"trysite/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now  time.Time
	zone string
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) TimeZoneID() string {
	return c.zone
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), zone: "Europe/Paris"}
}

func newTestRepository(t *testing.T) *ShellSettingsRepository {
	t.Helper()
	db, err := database.InitDB(filepath.Join(t.TempDir(), "trysite.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewShellSettingsRepository(db)
}

// MockShellSettingsStore mocks the ShellSettingsStore interface
type MockShellSettingsStore struct {
	mock.Mock
}

func (m *MockShellSettingsStore) TryGetSettings(ctx context.Context, name string) (*models.ShellSettings, bool, error) {
	args := m.Called(ctx, name)
	settings, _ := args.Get(0).(*models.ShellSettings)
	return settings, args.Bool(1), args.Error(2)
}

func (m *MockShellSettingsStore) CreateSettings(ctx context.Context, settings *models.ShellSettings) error {
	return m.Called(ctx, settings).Error(0)
}

func (m *MockShellSettingsStore) SaveSettings(ctx context.Context, settings *models.ShellSettings) error {
	return m.Called(ctx, settings).Error(0)
}

// MockSetupService mocks the SetupService interface
type MockSetupService struct {
	mock.Mock
}

func (m *MockSetupService) GetSetupRecipes(ctx context.Context) ([]models.Recipe, error) {
	args := m.Called(ctx)
	recipes, _ := args.Get(0).([]models.Recipe)
	return recipes, args.Error(1)
}

func (m *MockSetupService) Setup(ctx context.Context, sc *models.SetupContext) (string, error) {
	args := m.Called(ctx, sc)
	return args.String(0), args.Error(1)
}

// setupContexts returns the contexts passed to Setup so far.
func (m *MockSetupService) setupContexts() []*models.SetupContext {
	var out []*models.SetupContext
	for _, call := range m.Calls {
		if call.Method == "Setup" {
			out = append(out, call.Arguments.Get(1).(*models.SetupContext))
		}
	}
	return out
}

// MockEmailSender mocks the EmailSender interface
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, msg models.MailMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockEmailSender) sent() []models.MailMessage {
	var out []models.MailMessage
	for _, call := range m.Calls {
		out = append(out, call.Arguments.Get(1).(models.MailMessage))
	}
	return out
}

var testRecipes = []models.Recipe{
	{Name: "Agency", IsSetupRecipe: true},
	{Name: "Blog", IsSetupRecipe: true, Steps: []models.RecipeStep{{Name: "feature"}, {Name: "themes"}}},
}

type staticRecipes []models.Recipe

func (r staticRecipes) Recipes(context.Context) ([]models.Recipe, error) {
	return r, nil
}

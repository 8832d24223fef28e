package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trysite/internal/models"

	"gorm.io/gorm"
)

// ErrShellExists is returned when a shell with the same name is already stored.
var ErrShellExists = errors.New("shell settings already exist")

// ShellSettingsRepository persists shell settings in the database. Names are
// unique case-insensitively; the unique index is what arbitrates concurrent
// registrations of the same handle.
type ShellSettingsRepository struct {
	db *gorm.DB
}

func NewShellSettingsRepository(db *gorm.DB) *ShellSettingsRepository {
	return &ShellSettingsRepository{db: db}
}

func (r *ShellSettingsRepository) TryGetSettings(ctx context.Context, name string) (*models.ShellSettings, bool, error) {
	var settings models.ShellSettings
	err := r.db.WithContext(ctx).Where("name_key = ?", strings.ToLower(name)).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load shell %q: %w", name, err)
	}
	return &settings, true, nil
}

// CreateSettings inserts new settings, failing with ErrShellExists when the
// name is taken.
func (r *ShellSettingsRepository) CreateSettings(ctx context.Context, settings *models.ShellSettings) error {
	err := r.db.WithContext(ctx).Create(settings).Error
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrShellExists, settings.Name)
	}
	if err != nil {
		return fmt.Errorf("create shell %q: %w", settings.Name, err)
	}
	return nil
}

func (r *ShellSettingsRepository) SaveSettings(ctx context.Context, settings *models.ShellSettings) error {
	if err := r.db.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("save shell %q: %w", settings.Name, err)
	}
	return nil
}

// TransitionState moves the stored shell from one state to another only if it
// is still in from. It reports false when another caller got there first.
func (r *ShellSettingsRepository) TransitionState(ctx context.Context, settings *models.ShellSettings, from, to models.TenantState) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ShellSettings{}).
		Where("id = ? AND state = ?", settings.ID, from).
		UpdateColumns(map[string]any{"state": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, fmt.Errorf("transition shell %q to %s: %w", settings.Name, to, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	settings.State = to
	return true, nil
}

func (r *ShellSettingsRepository) ListSettings(ctx context.Context) ([]models.ShellSettings, error) {
	var all []models.ShellSettings
	if err := r.db.WithContext(ctx).Order("id").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("list shells: %w", err)
	}
	return all, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Older sqlite drivers do not translate constraint errors.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

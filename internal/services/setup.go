package services

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"trysite/internal/metrics"
	"trysite/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SupportedDatabaseProviders lists the providers the setup engine accepts.
var SupportedDatabaseProviders = []string{"Sqlite"}

type recipeSource interface {
	Recipes(ctx context.Context) ([]models.Recipe, error)
}

type settingsSaver interface {
	SaveSettings(ctx context.Context, settings *models.ShellSettings) error
	TransitionState(ctx context.Context, settings *models.ShellSettings, from, to models.TenantState) (bool, error)
}

type shellReloader interface {
	ReloadShellContext(ctx context.Context, settings *models.ShellSettings) (*ShellContext, error)
}

// SetupEngine initializes an Uninitialized tenant from a recipe. Validation
// problems are reported through SetupContext.Errors, not as a Go error; the
// returned error is reserved for infrastructure failures.
type SetupEngine struct {
	recipes recipeSource
	store   settingsSaver
	host    shellReloader
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewSetupEngine(recipes recipeSource, store settingsSaver, host shellReloader, m *metrics.Metrics, log zerolog.Logger) *SetupEngine {
	return &SetupEngine{
		recipes: recipes,
		store:   store,
		host:    host,
		metrics: m,
		log:     log.With().Str("component", "setup").Logger(),
	}
}

// GetSetupRecipes returns the recipes flagged as setup recipes.
func (e *SetupEngine) GetSetupRecipes(ctx context.Context) ([]models.Recipe, error) {
	all, err := e.recipes.Recipes(ctx)
	if err != nil {
		return nil, err
	}
	setup := make([]models.Recipe, 0, len(all))
	for _, r := range all {
		if r.IsSetupRecipe {
			setup = append(setup, r)
		}
	}
	return setup, nil
}

// Setup runs sc.Recipe against sc.ShellSettings and returns the execution id.
func (e *SetupEngine) Setup(ctx context.Context, sc *models.SetupContext) (executionID string, err error) {
	settings := sc.ShellSettings
	executionID = uuid.NewString()

	ctx, span := startSpan(ctx, "trysite.setup", settings.Name)
	defer func() { endSpan(span, err) }()
	defer e.metrics.ObserveSetup(time.Now())

	log := e.log.With().Str("shell", settings.Name).Str("execution_id", executionID).Logger()

	if sc.Errors == nil {
		sc.Errors = map[string]string{}
	}
	e.validate(sc)
	if len(sc.Errors) > 0 {
		log.Warn().Interface("errors", sc.Errors).Msg("Setup rejected")
		return executionID, nil
	}

	// sc.ShellSettings may be a stale copy; only one caller wins the claim.
	claimed, err := e.store.TransitionState(ctx, settings, models.StateUninitialized, models.StateInitializing)
	if err != nil {
		return "", err
	}
	if !claimed {
		sc.Errors["ShellSettings"] = "The tenant is already being set up."
		log.Warn().Msg("Setup rejected, tenant already claimed")
		return executionID, nil
	}

	if stepErr := e.runRecipe(sc, log); stepErr != nil {
		sc.Errors["Recipe"] = stepErr.Error()
		settings.State = models.StateError
	} else {
		settings.State = models.StateRunning
	}

	if err := e.store.SaveSettings(ctx, settings); err != nil {
		return "", err
	}
	if _, err := e.host.ReloadShellContext(ctx, settings); err != nil {
		return "", err
	}

	log.Info().Str("recipe", sc.Recipe.Name).Str("state", string(settings.State)).Msg("Setup finished")
	return executionID, nil
}

func (e *SetupEngine) validate(sc *models.SetupContext) {
	if sc.ShellSettings.State != models.StateUninitialized {
		sc.Errors["ShellSettings"] = fmt.Sprintf("The tenant is %s, setup can only run once.", sc.ShellSettings.State)
		return
	}
	if sc.Recipe == nil {
		sc.Errors["Recipe"] = "No recipe was selected."
	}
	if sc.Properties[models.SetupSiteName] == "" {
		sc.Errors[models.SetupSiteName] = "The site name is required."
	}
	if sc.Properties[models.SetupAdminUsername] == "" {
		sc.Errors[models.SetupAdminUsername] = "The admin user name is required."
	}
	if _, err := mail.ParseAddress(sc.Properties[models.SetupAdminEmail]); err != nil {
		sc.Errors[models.SetupAdminEmail] = "The admin email is invalid."
	}
	switch {
	case !sc.Credential.Valid():
		sc.Errors[models.SetupAdminPassword] = "The confirmation link is invalid or has expired."
	case sc.Properties[models.SetupAdminPassword] == "":
		sc.Errors[models.SetupAdminPassword] = "The admin password is required."
	}
	if !supportedProvider(sc.Properties[models.SetupDatabaseProvider]) {
		sc.Errors[models.SetupDatabaseProvider] = fmt.Sprintf("The database provider %q is not supported.", sc.Properties[models.SetupDatabaseProvider])
	}
}

// runRecipe walks the recipe steps. Step bodies belong to the CMS; here they
// are checked and recorded.
func (e *SetupEngine) runRecipe(sc *models.SetupContext, log zerolog.Logger) error {
	for i, step := range sc.Recipe.Steps {
		if step.Name == "" {
			return fmt.Errorf("step %d of recipe %q has no name", i+1, sc.Recipe.Name)
		}
		log.Debug().Int("step", i+1).Str("name", step.Name).Msg("Recipe step")
	}
	return nil
}

func supportedProvider(p string) bool {
	for _, s := range SupportedDatabaseProviders {
		if s == p {
			return true
		}
	}
	return false
}

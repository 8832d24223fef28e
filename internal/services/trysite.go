package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"trysite/internal/metrics"
	"trysite/internal/models"

	"github.com/rs/zerolog"
)

const (
	DefaultAdminName          = "admin"
	PasswordProtectionPurpose = "Password"
	DefaultDatabaseProvider   = "Sqlite"
	DefaultConfirmPath        = "/sites/Confirm"

	emailSubject         = "Try Orchard Core"
	confirmationValidity = 24 * time.Hour
)

// Field error messages shown on the registration form.
const (
	MsgAcceptTerms    = "Please, accept the terms and conditions."
	MsgInvalidHandle  = "Invalid tenant name. Must contain characters only and no spaces."
	MsgHandleExists   = "This site name already exists."
	MsgInvalidRecipe  = "Invalid recipe name."
	MsgRequiredFormat = "The %s field is required."
	MsgInvalidEmail   = "The Email field is not a valid e-mail address."
)

type ShellSettingsStore interface {
	TryGetSettings(ctx context.Context, name string) (*models.ShellSettings, bool, error)
	CreateSettings(ctx context.Context, settings *models.ShellSettings) error
	SaveSettings(ctx context.Context, settings *models.ShellSettings) error
}

type ShellHost interface {
	GetOrCreateShellContext(ctx context.Context, settings *models.ShellSettings) (*ShellContext, error)
}

type SetupService interface {
	GetSetupRecipes(ctx context.Context) ([]models.Recipe, error)
	Setup(ctx context.Context, sc *models.SetupContext) (string, error)
}

type EmailSender interface {
	Send(ctx context.Context, msg models.MailMessage) error
}

type Protector interface {
	Protect(plaintext string, expiry time.Time) (string, error)
	Unprotect(protected string) (string, time.Time, error)
}

type TrySiteDeps struct {
	Store     ShellSettingsStore
	Host      ShellHost
	Setup     SetupService
	Email     EmailSender
	Protector Protector // purpose PasswordProtectionPurpose
	Clock     Clock
	Metrics   *metrics.Metrics
	Log       zerolog.Logger
}

type TrySiteOptions struct {
	// EmailToBcc copies every confirmation email to DefaultSender.
	EmailToBcc    bool
	DefaultSender string
	ConfirmPath   string
}

// TrySiteService registers demo tenants and runs their setup once the owner
// confirms by email.
type TrySiteService struct {
	store     ShellSettingsStore
	host      ShellHost
	setup     SetupService
	email     EmailSender
	protector Protector
	clock     Clock
	metrics   *metrics.Metrics
	log       zerolog.Logger
	opts      TrySiteOptions

	generatePassword func() string
}

func NewTrySiteService(deps TrySiteDeps, opts TrySiteOptions) *TrySiteService {
	if opts.ConfirmPath == "" {
		opts.ConfirmPath = DefaultConfirmPath
	}
	return &TrySiteService{
		store:     deps.Store,
		host:      deps.Host,
		setup:     deps.Setup,
		email:     deps.Email,
		protector: deps.Protector,
		clock:     deps.Clock,
		metrics:   deps.Metrics,
		log:       deps.Log.With().Str("component", "trysite").Logger(),
		opts:      opts,
		generatePassword: func() string {
			return GenerateRandomPassword(DefaultPasswordOptions())
		},
	}
}

// SuggestHandle proposes a random handle for a fresh form.
func (s *TrySiteService) SuggestHandle() string {
	return GenerateRandomName()
}

func (s *TrySiteService) Recipes(ctx context.Context) ([]models.Recipe, error) {
	return s.setup.GetSetupRecipes(ctx)
}

type RegisterResult struct {
	// Registered is true once the tenant exists and the email went out. Errors
	// may still hold a recipe error in that case.
	Registered       bool
	Errors           models.FieldErrors
	Settings         *models.ShellSettings
	SiteURL          string
	ConfirmationLink string
}

// Register validates the form, provisions the tenant and emails the
// confirmation link. Validation problems come back in RegisterResult.Errors;
// a non-nil error means a collaborator failed.
func (s *TrySiteService) Register(ctx context.Context, form models.RegisterUserForm, rh RequestHost) (res *RegisterResult, err error) {
	ctx, span := startSpan(ctx, "trysite.register", form.Handle)
	defer func() { endSpan(span, err) }()

	res = &RegisterResult{}
	s.validate(form, &res.Errors)
	if res.Errors.Any() {
		s.metrics.IncrementRegistration("invalid")
		return res, nil
	}

	if _, found, err := s.store.TryGetSettings(ctx, form.Handle); err != nil {
		s.metrics.IncrementRegistration("error")
		return nil, err
	} else if found {
		res.Errors.Add(models.FieldHandle, MsgHandleExists)
		s.metrics.IncrementRegistration("exists")
		return res, nil
	}

	settings := newShellSettings(form)
	if err := s.store.CreateSettings(ctx, settings); err != nil {
		if errors.Is(err, ErrShellExists) {
			res.Errors.Add(models.FieldHandle, MsgHandleExists)
			s.metrics.IncrementRegistration("exists")
			return res, nil
		}
		s.metrics.IncrementRegistration("error")
		return nil, err
	}
	res.Settings = settings

	if _, err := s.host.GetOrCreateShellContext(ctx, settings); err != nil {
		s.metrics.IncrementRegistration("error")
		return nil, fmt.Errorf("create shell context: %w", err)
	}

	recipes, err := s.setup.GetSetupRecipes(ctx)
	if err != nil {
		s.metrics.IncrementRegistration("error")
		return nil, fmt.Errorf("list setup recipes: %w", err)
	}
	if FindRecipe(recipes, form.RecipeName) == nil {
		// Recorded but not fatal: the email still goes out and setup fails
		// later on the missing recipe.
		res.Errors.Add(models.FieldRecipeName, MsgInvalidRecipe)
		s.log.Warn().Str("shell", form.Handle).Str("recipe", form.RecipeName).Msg("Registration with unknown recipe")
	}

	res.SiteURL = TenantURL(settings, rh)

	password := s.generatePassword()
	encrypted, err := s.protector.Protect(password, s.clock.Now().Add(confirmationValidity))
	if err != nil {
		s.metrics.IncrementRegistration("error")
		return nil, fmt.Errorf("protect password: %w", err)
	}
	res.ConfirmationLink = s.confirmationLink(rh, form, encrypted)

	body, err := RenderConfirmationEmail(ConfirmationEmail{
		SiteName:         form.SiteName,
		ConfirmationLink: res.ConfirmationLink,
		SiteURL:          res.SiteURL,
		AdminName:        DefaultAdminName,
		AdminPassword:    password,
	})
	if err != nil {
		s.metrics.IncrementRegistration("error")
		return nil, fmt.Errorf("render email: %w", err)
	}

	msg := models.MailMessage{
		To:         form.Email,
		Subject:    emailSubject,
		Body:       body,
		IsHTMLBody: true,
	}
	if s.opts.EmailToBcc {
		msg.Bcc = s.opts.DefaultSender
	}

	// The tenant stays Uninitialized if this fails; nothing rolls it back.
	if err := s.email.Send(ctx, msg); err != nil {
		s.metrics.IncrementEmail("failed")
		s.metrics.IncrementRegistration("error")
		return nil, fmt.Errorf("send confirmation email: %w", err)
	}
	s.metrics.IncrementEmail("sent")
	s.metrics.IncrementRegistration("registered")

	s.log.Info().Str("shell", settings.Name).Str("recipe", form.RecipeName).Msg("Tenant registered")
	res.Registered = true
	return res, nil
}

func (s *TrySiteService) validate(form models.RegisterUserForm, errs *models.FieldErrors) {
	if !form.AcceptTerms {
		errs.Add(models.FieldAcceptTerms, MsgAcceptTerms)
	}
	if form.Handle != "" && !ValidHandle(form.Handle) {
		errs.Add(models.FieldHandle, MsgInvalidHandle)
	} else if ReservedHandle(form.Handle) {
		errs.Add(models.FieldHandle, MsgHandleExists)
	}

	if strings.TrimSpace(form.Handle) == "" {
		errs.Add(models.FieldHandle, fmt.Sprintf(MsgRequiredFormat, models.FieldHandle))
	}
	if strings.TrimSpace(form.SiteName) == "" {
		errs.Add(models.FieldSiteName, fmt.Sprintf(MsgRequiredFormat, models.FieldSiteName))
	}
	if strings.TrimSpace(form.Email) == "" {
		errs.Add(models.FieldEmail, fmt.Sprintf(MsgRequiredFormat, models.FieldEmail))
	} else if addr, err := mail.ParseAddress(form.Email); err != nil || addr.Address != form.Email {
		// Only a bare address works as envelope recipient and link parameter.
		errs.Add(models.FieldEmail, MsgInvalidEmail)
	}
}

func newShellSettings(form models.RegisterUserForm) *models.ShellSettings {
	settings := &models.ShellSettings{
		Name:             form.Handle,
		RequestURLPrefix: strings.ToLower(form.Handle),
		RequestURLHost:   nil,
		State:            models.StateUninitialized,
	}
	settings.Set(models.PropertyDescription, form.SiteName+" "+form.Email)
	settings.Set(models.PropertyRecipeName, form.RecipeName)
	settings.Set(models.PropertyDatabaseProvider, DefaultDatabaseProvider)
	return settings
}

func (s *TrySiteService) confirmationLink(rh RequestHost, form models.RegisterUserForm, encryptedPassword string) string {
	q := url.Values{}
	q.Set("email", form.Email)
	q.Set("handle", form.Handle)
	q.Set("siteName", form.SiteName)
	q.Set("ep", encryptedPassword)

	u := url.URL{
		Scheme:   rh.Scheme,
		Host:     rh.Authority(),
		Path:     s.opts.ConfirmPath,
		RawQuery: q.Encode(),
	}
	return u.String()
}

type ConfirmRequest struct {
	Email             string
	Handle            string
	SiteName          string
	EncryptedPassword string
}

type ConfirmOutcome int

const (
	ConfirmNotFound ConfirmOutcome = iota
	ConfirmAlreadySetUp
	ConfirmSetupFailed
	ConfirmCompleted
)

func (o ConfirmOutcome) String() string {
	switch o {
	case ConfirmNotFound:
		return "not_found"
	case ConfirmAlreadySetUp:
		return "already_setup"
	case ConfirmSetupFailed:
		return "setup_failed"
	case ConfirmCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

type ConfirmResult struct {
	Outcome     ConfirmOutcome
	ExecutionID string
	Errors      models.FieldErrors
	// TenantPath is where the visitor goes once the tenant is set up.
	TenantPath string
}

// Confirm runs setup for a tenant registered earlier.
func (s *TrySiteService) Confirm(ctx context.Context, req ConfirmRequest) (res *ConfirmResult, err error) {
	ctx, span := startSpan(ctx, "trysite.confirm", req.Handle)
	defer func() {
		if res != nil {
			s.metrics.IncrementConfirmation(res.Outcome.String())
		}
		endSpan(span, err)
	}()

	settings, found, err := s.store.TryGetSettings(ctx, req.Handle)
	if err != nil {
		return nil, err
	}
	if !found {
		return &ConfirmResult{Outcome: ConfirmNotFound}, nil
	}

	res = &ConfirmResult{TenantPath: "/" + settings.Name}
	if settings.State != models.StateUninitialized {
		res.Outcome = ConfirmAlreadySetUp
		return res, nil
	}

	recipes, err := s.setup.GetSetupRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list setup recipes: %w", err)
	}
	recipe := FindRecipe(recipes, settings.Get(models.PropertyRecipeName))
	if recipe == nil {
		return &ConfirmResult{Outcome: ConfirmNotFound}, nil
	}

	credential := s.decryptPassword(req.EncryptedPassword)

	sc := models.NewSetupContext(settings, recipe)
	sc.Credential = credential
	sc.Properties[models.SetupSiteName] = req.SiteName
	sc.Properties[models.SetupAdminUsername] = DefaultAdminName
	sc.Properties[models.SetupAdminEmail] = req.Email
	sc.Properties[models.SetupAdminPassword] = credential.Password
	sc.Properties[models.SetupSiteTimeZone] = s.clock.TimeZoneID()
	sc.Properties[models.SetupDatabaseProvider] = settings.Get(models.PropertyDatabaseProvider)

	res.ExecutionID, err = s.setup.Setup(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("setup %s: %w", settings.Name, err)
	}

	if len(sc.Errors) > 0 {
		for _, key := range sortedKeys(sc.Errors) {
			res.Errors.Add(key, sc.Errors[key])
			s.log.Warn().Str("shell", settings.Name).Str("field", key).Msg(sc.Errors[key])
		}
		res.Outcome = ConfirmSetupFailed
		return res, nil
	}

	s.log.Info().Str("shell", settings.Name).Str("execution_id", res.ExecutionID).Msg("Tenant set up")
	res.Outcome = ConfirmCompleted
	return res, nil
}

func (s *TrySiteService) decryptPassword(encrypted string) models.Credential {
	password, _, err := s.protector.Unprotect(encrypted)
	if err != nil {
		s.metrics.IncrementDecryptionFailure()
		s.log.Error().Err(err).Msg("Error decrypting the string")
		return models.Credential{Status: models.CredentialInvalid}
	}
	return models.Credential{Password: password, Status: models.CredentialValid}
}

package models

// Setup property keys understood by the setup engine.
const (
	SetupSiteName         = "SiteName"
	SetupAdminUsername    = "AdminUsername"
	SetupAdminEmail       = "AdminEmail"
	SetupAdminPassword    = "AdminPassword"
	SetupSiteTimeZone     = "SiteTimeZone"
	SetupDatabaseProvider = "DatabaseProvider"
)

type CredentialStatus int

const (
	CredentialValid CredentialStatus = iota
	// CredentialInvalid means the confirmation ciphertext was tampered with
	// or has expired. It is distinct from a valid empty password.
	CredentialInvalid
)

// Credential is the outcome of decrypting the admin password carried by a
// confirmation link.
type Credential struct {
	Password string
	Status   CredentialStatus
}

func (c Credential) Valid() bool {
	return c.Status == CredentialValid
}

// SetupContext bundles everything one setup run needs.
type SetupContext struct {
	ShellSettings   *ShellSettings
	EnabledFeatures []string
	Errors          map[string]string
	Recipe          *Recipe
	Properties      map[string]string
	Credential      Credential
}

func NewSetupContext(settings *ShellSettings, recipe *Recipe) *SetupContext {
	return &SetupContext{
		ShellSettings: settings,
		Errors:        map[string]string{},
		Recipe:        recipe,
		Properties:    map[string]string{},
	}
}

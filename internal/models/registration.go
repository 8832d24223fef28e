package models

// RegisterUserForm is the registration form posted to /sites/Index.
type RegisterUserForm struct {
	Handle      string `form:"handle" query:"handle"`
	SiteName    string `form:"siteName" query:"siteName"`
	Email       string `form:"email" query:"email"`
	RecipeName  string `form:"recipeName" query:"recipeName"`
	AcceptTerms bool   `form:"acceptTerms" query:"acceptTerms"`
}

// Field names used as error keys.
const (
	FieldAcceptTerms = "AcceptTerms"
	FieldHandle      = "Handle"
	FieldSiteName    = "SiteName"
	FieldEmail       = "Email"
	FieldRecipeName  = "RecipeName"
)

type FieldError struct {
	Field   string
	Message string
}

// FieldErrors keeps field-scoped messages in the order they were added.
type FieldErrors []FieldError

func (e *FieldErrors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

func (e FieldErrors) Any() bool {
	return len(e) > 0
}

func (e FieldErrors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// For returns the messages recorded for field.
func (e FieldErrors) For(field string) []string {
	var out []string
	for _, fe := range e {
		if fe.Field == field {
			out = append(out, fe.Message)
		}
	}
	return out
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldErrors(t *testing.T) {
	var errs FieldErrors
	assert.False(t, errs.Any())
	assert.Nil(t, errs.For(FieldHandle))

	errs.Add(FieldHandle, "first")
	errs.Add(FieldAcceptTerms, "terms")
	errs.Add(FieldHandle, "second")

	assert.True(t, errs.Any())
	assert.True(t, errs.Has(FieldHandle))
	assert.False(t, errs.Has(FieldEmail))
	assert.Equal(t, []string{"first", "second"}, errs.For(FieldHandle))
	assert.Equal(t, FieldAcceptTerms, errs[1].Field)
}

func TestShellSettingsProperties(t *testing.T) {
	var s ShellSettings
	assert.Empty(t, s.Get(PropertyRecipeName))

	s.Set(PropertyRecipeName, "Blog")
	assert.Equal(t, "Blog", s.Get(PropertyRecipeName))
}

func TestShellSettingsBeforeSave(t *testing.T) {
	s := &ShellSettings{Name: "MyHandle"}
	assert.NoError(t, s.BeforeSave(nil))
	assert.Equal(t, "myhandle", s.NameKey)
	assert.NotNil(t, s.Properties)
}

func TestRecipeLabel(t *testing.T) {
	assert.Equal(t, "Blog", Recipe{Name: "Blog"}.Label())
	assert.Equal(t, "The Blog", Recipe{Name: "Blog", DisplayName: "The Blog"}.Label())
}

func TestCredentialValid(t *testing.T) {
	assert.True(t, Credential{Password: "x"}.Valid())
	assert.True(t, Credential{}.Valid())
	assert.False(t, Credential{Status: CredentialInvalid}.Valid())
}
